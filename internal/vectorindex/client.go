// Package vectorindex queries a pre-built Pinecone-style vector index over
// its REST API. The index itself is managed outside this service.
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finrag/internal/model"
)

// Config holds connection settings for the index.
type Config struct {
	Host      string
	APIKey    string
	Namespace string
	// TextKey is the metadata field holding the passage content.
	TextKey string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.TextKey == "" {
		cfg.TextKey = "text"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP allows injecting an http.Client, mainly for tests.
func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	c := NewClient(cfg)
	c.httpClient = httpClient
	return c
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
	IncludeValues   bool      `json:"includeValues"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float32           `json:"score"`
		Values   []float32         `json:"values"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK most similar stored documents for the vector,
// ordered by descending score. Vectors are included so callers can re-rank.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]model.Document, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if topK <= 0 {
		return nil, nil
	}

	reqBody := queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       c.cfg.Namespace,
		IncludeMetadata: true,
		IncludeValues:   true,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal index query failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.Host, "/") + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build index query failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index query failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read index response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("index response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse index json failed: %w", err)
	}

	docs := make([]model.Document, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		docs = append(docs, model.Document{
			ID:      m.ID,
			Content: m.Metadata[c.cfg.TextKey],
			Score:   m.Score,
			Vector:  m.Values,
		})
	}
	return docs, nil
}
