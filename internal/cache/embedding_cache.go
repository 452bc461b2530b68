package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"finrag/internal/app"
)

// EmbeddingCache decorates a query embedder with a redis lookaside cache.
// Cache failures are swallowed: a broken redis degrades to the raw embedder.
type EmbeddingCache struct {
	next   app.QueryEmbedder
	client *redisv9.Client
	model  string
	ttl    time.Duration
}

func NewEmbeddingCache(next app.QueryEmbedder, client *redisv9.Client, embeddingModel string, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &EmbeddingCache{
		next:   next,
		client: client,
		model:  embeddingModel,
		ttl:    ttl,
	}
}

func (c *EmbeddingCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.embeddingKey(text)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(vec); err == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return vec, nil
}

func (c *EmbeddingCache) embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return fmt.Sprintf("embed:%s:%s", c.model, hex.EncodeToString(sum[:16]))
}
