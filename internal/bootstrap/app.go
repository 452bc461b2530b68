package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"finrag/internal/ai"
	"finrag/internal/app"
	"finrag/internal/cache"
	"finrag/internal/config"
	"finrag/internal/memory"
	"finrag/internal/model"
	mysqlClient "finrag/internal/platform/mysql"
	rabbitmqClient "finrag/internal/platform/rabbitmq"
	redisClient "finrag/internal/platform/redis"
	"finrag/internal/repository"
	"finrag/internal/retrieval"
	"finrag/internal/vectorindex"
	"finrag/internal/worker"
)

// App holds the wired service. Redis, MySQL and MQConn stay nil when the
// embedding cache / archive pipeline are disabled by config.
type App struct {
	Config        *config.Config
	Redis         *redis.Client
	MySQL         *gorm.DB
	MQConn        *amqp.Connection
	ArchiveWorker *worker.ExchangeArchiveWorker
	ExchangeRepo  *repository.ExchangeRepository
	AnswerService *app.AnswerService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	llmClient := ai.NewOpenAICompatibleClient()

	var embedder app.QueryEmbedder = ai.NewEmbedder(llmClient, ai.EmbeddingConfig{
		BaseURL: cfg.EmbeddingEndpoint(),
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})

	var redisCli *redis.Client
	if cfg.Redis.Addr != "" {
		redisCli, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		embedder = cache.NewEmbeddingCache(
			embedder,
			redisCli,
			cfg.LLM.EmbeddingModel,
			time.Duration(cfg.Redis.EmbeddingTTLSeconds)*time.Second,
		)
	}

	indexClient := vectorindex.NewClient(vectorindex.Config{
		Host:      cfg.Vector.Host,
		APIKey:    cfg.Vector.APIKey,
		Namespace: cfg.Vector.Namespace,
		TextKey:   cfg.Vector.TextKey,
	})
	retriever := retrieval.NewRetriever(indexClient, cfg.Vector.TopK, cfg.Vector.FetchK, cfg.Vector.LambdaMult)

	application := &App{
		Config:    cfg,
		Redis:     redisCli,
		StartedAt: time.Now(),
	}

	var publisher app.ExchangePublisher
	if cfg.Archive.Enabled {
		mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		if err := mysqlDB.AutoMigrate(&model.Exchange{}); err != nil {
			return nil, fmt.Errorf("auto migrate tables failed: %w", err)
		}

		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}

		exchangeRepo := repository.NewExchangeRepository(mysqlDB)
		archiveWorker := worker.NewExchangeArchiveWorker(mqConn, exchangeRepo, cfg.RabbitMQ.ExchangeArchiveQueue)
		if err := archiveWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start archive worker failed: %w", err)
		}

		publisher = rabbitmqClient.NewExchangePublisher(mqConn, cfg.RabbitMQ.ExchangeArchiveQueue)
		application.MySQL = mysqlDB
		application.MQConn = mqConn
		application.ArchiveWorker = archiveWorker
		application.ExchangeRepo = exchangeRepo
	}

	application.AnswerService = app.NewAnswerService(
		embedder,
		retriever,
		memory.NewStore(),
		llmClient,
		ai.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		},
		publisher,
		cfg.LLM.HistoryExchanges,
	)

	return application, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ArchiveWorker != nil {
		a.ArchiveWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
