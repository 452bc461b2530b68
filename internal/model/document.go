package model

// Document is a passage retrieved from the vector index for one query.
// Score is the index-reported similarity; the core only uses it for ordering.
type Document struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Score   float32   `json:"score"`
	Vector  []float32 `json:"-"`
}
