package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. It returns a
// vector derived from the text hash so that the same text always gets the same embedding.
// It counts the texts it has embedded.
type MockEmbedder struct {
	dimensions int
	embedded   atomic.Int64
	batches    atomic.Int64
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic unit-length embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.embedded.Add(1)
	return e.vector(text), nil
}

func (e *MockEmbedder) vector(text string) []float32 {
	h := hashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h%100003)*float64(i+1))*0.1 + 0.01)
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v * v)
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb
}

// EmbedBatch embeds each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batches.Add(1)
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Embedded returns how many texts have been embedded.
func (e *MockEmbedder) Embedded() int64 { return e.embedded.Load() }

// Batches returns how many EmbedBatch calls were made.
func (e *MockEmbedder) Batches() int64 { return e.batches.Load() }

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

// ModelName identifies the mock and its dimension.
func (e *MockEmbedder) ModelName() string { return fmt.Sprintf("mock-%d", e.dimensions) }

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error { return nil }

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
