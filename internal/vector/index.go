// Package vector persists chunk embeddings and answers top-k cosine similarity queries.
package vector

import "context"

// VectorIndex is the similarity search structure a Collection keeps in memory.
type VectorIndex interface {
	// Add inserts vectors, replacing any existing vector with the same ID in place.
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Reset()
	Size() int
	Close() error
}

// VectorResult is a single vector search hit; ID is the chunk ID.
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity in [-1, 1]
}
