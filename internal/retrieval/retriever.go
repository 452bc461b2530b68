// Package retrieval selects context documents for a query using maximal
// marginal relevance over candidates fetched from the vector index.
package retrieval

import (
	"context"
	"fmt"
	"math"

	"finrag/internal/model"
)

const (
	defaultTopK       = 3
	defaultFetchK     = 12
	defaultLambdaMult = 0.5
)

// IndexQuerier is the slice of the vector index the retriever needs.
type IndexQuerier interface {
	Query(ctx context.Context, vector []float32, topK int) ([]model.Document, error)
}

// Retriever fetches candidates from the index and re-ranks them with MMR.
// LambdaMult of 1.0 favors pure relevance, 0.0 pure diversity.
type Retriever struct {
	index      IndexQuerier
	topK       int
	fetchK     int
	lambdaMult float32
}

func NewRetriever(index IndexQuerier, topK, fetchK int, lambdaMult float64) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if fetchK <= 0 {
		fetchK = defaultFetchK
	}
	if fetchK < topK {
		fetchK = topK
	}
	if lambdaMult < 0 || lambdaMult > 1 {
		lambdaMult = defaultLambdaMult
	}
	return &Retriever{
		index:      index,
		topK:       topK,
		fetchK:     fetchK,
		lambdaMult: float32(lambdaMult),
	}
}

// Retrieve returns up to topK documents for the query vector. Fewer are
// returned only when the index holds fewer matches. No internal retries.
func (r *Retriever) Retrieve(ctx context.Context, queryVec []float32) ([]model.Document, error) {
	candidates, err := r.index.Query(ctx, queryVec, r.fetchK)
	if err != nil {
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return maximalMarginalRelevance(queryVec, candidates, r.topK, r.lambdaMult), nil
}

// maximalMarginalRelevance greedily picks documents maximizing
// lambda*sim(query, d) - (1-lambda)*max(sim(d, selected)).
func maximalMarginalRelevance(queryVec []float32, candidates []model.Document, k int, lambda float32) []model.Document {
	if k > len(candidates) {
		k = len(candidates)
	}

	querySim := make([]float32, len(candidates))
	for i := range candidates {
		querySim[i] = cosineSimilarity(queryVec, candidates[i].Vector)
	}

	selected := make([]model.Document, 0, k)
	picked := make([]bool, len(candidates))
	for len(selected) < k {
		best := -1
		var bestScore float32
		for i := range candidates {
			if picked[i] {
				continue
			}
			var redundancy float32
			for _, s := range selected {
				if sim := cosineSimilarity(candidates[i].Vector, s.Vector); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*querySim[i] - (1-lambda)*redundancy
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		picked[best] = true
		selected = append(selected, candidates[best])
	}
	return selected
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
