package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"finrag/internal/ai"
	"finrag/internal/model"
	"finrag/internal/prompt"
)

var (
	ErrQuestionEmpty = errors.New("question is empty")
	ErrEmbedding     = errors.New("embedding failed")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrCompletion    = errors.New("completion failed")
)

const defaultHistoryExchanges = 3

// QueryEmbedder embeds a single query string into a normalized vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ContextRetriever returns relevant documents for a query vector.
type ContextRetriever interface {
	Retrieve(ctx context.Context, queryVec []float32) ([]model.Document, error)
}

// Completer generates text from a rendered prompt.
type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// SessionMemory is the transcript store the orchestrator appends to.
// Both methods create the transcript on first reference to a session id.
type SessionMemory interface {
	Recent(sessionID string, maxExchanges int) []model.Turn
	AppendExchange(sessionID, question, answer string)
}

// ExchangePublisher forwards answered exchanges to the archive pipeline.
type ExchangePublisher interface {
	Publish(ctx context.Context, exchange model.Exchange) error
}

// AnswerService drives the retrieval-augmented answering pipeline.
type AnswerService struct {
	embedder         QueryEmbedder
	retriever        ContextRetriever
	memory           SessionMemory
	llm              Completer
	chatCfg          ai.ChatConfig
	publisher        ExchangePublisher // nil = archiving disabled
	historyExchanges int
}

func NewAnswerService(
	embedder QueryEmbedder,
	retriever ContextRetriever,
	memory SessionMemory,
	llm Completer,
	chatCfg ai.ChatConfig,
	publisher ExchangePublisher,
	historyExchanges int,
) *AnswerService {
	if historyExchanges <= 0 {
		historyExchanges = defaultHistoryExchanges
	}
	return &AnswerService{
		embedder:         embedder,
		retriever:        retriever,
		memory:           memory,
		llm:              llm,
		chatCfg:          chatCfg,
		publisher:        publisher,
		historyExchanges: historyExchanges,
	}
}

// AnswerInput is one question, optionally scoped to an existing session.
type AnswerInput struct {
	Question  string
	SessionID string
}

// AnswerResult carries the generated answer and the resolved session id,
// which is always set even when the request supplied none.
type AnswerResult struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// Answer runs the full pipeline: resolve session, retrieve context, fold in
// recent history, render the prompt, complete, record the exchange. Session
// memory is only mutated after the completion succeeds.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrQuestionEmpty
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// Creates the transcript on first reference; unknown ids are accepted
	// leniently and start with an empty history.
	recent := s.memory.Recent(sessionID, s.historyExchanges)

	queryVec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	docs, err := s.retriever.Retrieve(ctx, queryVec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	finalPrompt := prompt.Render(contextBlock(docs), question, historyBlock(recent))

	answer, err := s.llm.Complete(ctx, s.chatCfg, []ai.ChatMessage{
		{Role: model.RoleUser, Content: finalPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	answer = strings.TrimSpace(answer)

	s.memory.AppendExchange(sessionID, question, answer)
	s.archive(ctx, sessionID, question, answer)

	return &AnswerResult{
		Answer:    answer,
		SessionID: sessionID,
	}, nil
}

// archive is best effort: a broken archive pipeline never fails a request.
func (s *AnswerService) archive(ctx context.Context, sessionID, question, answer string) {
	if s.publisher == nil {
		return
	}
	exchange := model.Exchange{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, exchange); err != nil {
		log.Printf("archive exchange failed: %v", err)
	}
}

// contextBlock joins retrieved contents with blank lines, preserving
// retrieval order.
func contextBlock(docs []model.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// historyBlock renders turns as alternating "User:"/"Bot:" lines in
// chronological order.
func historyBlock(turns []model.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case model.RoleAssistant:
			lines = append(lines, "Bot: "+t.Text)
		default:
			lines = append(lines, "User: "+t.Text)
		}
	}
	return strings.Join(lines, "\n")
}
