package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrEmptyEmbeddingInput is returned before any network call when the input
// text (or every text in a batch) is blank.
var ErrEmptyEmbeddingInput = errors.New("embedding input is empty")

// EmbeddingConfig holds API settings for text embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Embedder turns text into L2-normalized vectors suitable for cosine search.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Embedder {
	return &Embedder{client: client, cfg: cfg}
}

// EmbedQuery returns the normalized embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyEmbeddingInput
	}

	vecs, err := e.requestEmbeddings(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return normalize(vecs[0]), nil
}

// EmbedDocuments returns normalized embeddings for a batch of documents.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyEmbeddingInput
	}
	trimmed := make([]string, 0, len(texts))
	for _, t := range texts {
		if s := strings.TrimSpace(t); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) == 0 {
		return nil, ErrEmptyEmbeddingInput
	}

	vecs, err := e.requestEmbeddings(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(trimmed) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(trimmed), len(vecs))
	}
	for i := range vecs {
		vecs[i] = normalize(vecs[i])
	}
	return vecs, nil
}

// requestEmbeddings posts to the embeddings endpoint; input is a string or
// a []string, per the OpenAI-compatible API.
func (e *Embedder) requestEmbeddings(ctx context.Context, input interface{}) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": e.cfg.Model,
		"input": input,
	}
	raw, err := e.client.postJSON(ctx, e.cfg.BaseURL, "/embeddings", e.cfg.APIKey, reqBody)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}

// normalize scales the vector to unit L2 norm. Zero vectors pass through.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
