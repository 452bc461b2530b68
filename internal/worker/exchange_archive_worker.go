package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"finrag/internal/model"
	"finrag/internal/repository"
)

// ExchangeArchiveWorker consumes answered exchanges from the queue and
// persists them through the archive repository.
type ExchangeArchiveWorker struct {
	conn      *amqp.Connection
	repo      *repository.ExchangeRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExchangeArchiveWorker(conn *amqp.Connection, repo *repository.ExchangeRepository, queueName string) *ExchangeArchiveWorker {
	return &ExchangeArchiveWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *ExchangeArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var exchange model.Exchange
				if err := json.Unmarshal(d.Body, &exchange); err != nil {
					log.Printf("worker decode exchange failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&exchange); err != nil {
					log.Printf("worker persist exchange failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ExchangeArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
