package ai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, vectors ...[]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		data := make([]map[string]interface{}, len(vectors))
		for i, v := range vectors {
			data[i] = map[string]interface{}{"embedding": v}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func l2Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestEmbedQueryNormalizes(t *testing.T) {
	server := embeddingServer(t, []float32{3, 4})
	defer server.Close()

	embedder := NewEmbedder(NewOpenAICompatibleClient(), EmbeddingConfig{BaseURL: server.URL, Model: "bge-m3"})
	vec, err := embedder.EmbedQuery(context.Background(), "filing deadline")

	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 1.0, l2Norm(vec), 1e-6)
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)
}

func TestEmbedQueryRejectsEmptyInputWithoutNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	embedder := NewEmbedder(NewOpenAICompatibleClient(), EmbeddingConfig{BaseURL: server.URL})
	_, err := embedder.EmbedQuery(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyEmbeddingInput)
	assert.False(t, called)
}

func TestEmbedDocumentsNormalizesEach(t *testing.T) {
	server := embeddingServer(t, []float32{3, 4}, []float32{0, 5})
	defer server.Close()

	embedder := NewEmbedder(NewOpenAICompatibleClient(), EmbeddingConfig{BaseURL: server.URL})
	vecs, err := embedder.EmbedDocuments(context.Background(), []string{"doc one", "doc two"})

	require.NoError(t, err)
	require.Len(t, vecs, 2)
	for _, vec := range vecs {
		assert.InDelta(t, 1.0, l2Norm(vec), 1e-6)
	}
}

func TestEmbedDocumentsCountMismatch(t *testing.T) {
	server := embeddingServer(t, []float32{1, 0})
	defer server.Close()

	embedder := NewEmbedder(NewOpenAICompatibleClient(), EmbeddingConfig{BaseURL: server.URL})
	_, err := embedder.EmbedDocuments(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count mismatch")
}

func TestEmbedDocumentsAllBlank(t *testing.T) {
	embedder := NewEmbedder(NewOpenAICompatibleClient(), EmbeddingConfig{})
	_, err := embedder.EmbedDocuments(context.Background(), []string{"", "  "})

	assert.ErrorIs(t, err, ErrEmptyEmbeddingInput)
}
