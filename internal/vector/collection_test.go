package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/models"
)

func embedChunks(t *testing.T, e embedding.Embedder, chunks ...models.Chunk) []models.EmbeddedChunk {
	t.Helper()
	out := make([]models.EmbeddedChunk, len(chunks))
	for i, c := range chunks {
		vec, err := e.Embed(context.Background(), c.Text)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = models.EmbeddedChunk{Chunk: c, Vector: vec}
	}
	return out
}

func TestCollection_SimilaritySearch(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewMockEmbedder(32)
	c, err := OpenCollection(ctx, t.TempDir(), e)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	chunks := embedChunks(t, e,
		models.Chunk{ID: "1", Source: "loans.txt", Index: 0, Text: "home loans table"},
		models.Chunk{ID: "2", Source: "complaints.txt", Index: 0, Text: "complaints table"},
		models.Chunk{ID: "3", Source: "customers.txt", Index: 0, Text: "customers table"},
	)
	if err := c.UpsertEmbeddedChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	results, err := c.SimilaritySearch(ctx, "complaints table", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "2" || results[0].Source != "complaints.txt" {
		t.Errorf("top result = %+v, want chunk 2", results[0])
	}
	if results[0].Score < results[1].Score {
		t.Error("results not ordered by similarity")
	}
}

func TestCollection_ReopenLoadsPersistedChunks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := embedding.NewMockEmbedder(16)

	c, err := OpenCollection(ctx, dir, e)
	if err != nil {
		t.Fatal(err)
	}
	chunks := embedChunks(t, e,
		models.Chunk{ID: "1", Source: "a.txt", Text: "alpha"},
		models.Chunk{ID: "2", Source: "b.txt", Text: "beta"},
	)
	if err := c.UpsertEmbeddedChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	if err := c.SetFingerprint(ctx, "fp"); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = OpenCollection(ctx, dir, e)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if n, _ := c.Count(ctx); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if c.index.Size() != 2 {
		t.Errorf("loaded vectors = %d, want 2", c.index.Size())
	}
	if fp, _ := c.Fingerprint(ctx); fp != "fp" {
		t.Errorf("fingerprint = %q", fp)
	}
	results, err := c.SimilaritySearch(ctx, "beta", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "2" {
		t.Errorf("results = %+v", results)
	}
}

func TestCollection_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := embedding.NewMockEmbedder(8)
	c, err := OpenCollection(ctx, dir, e)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.UpsertEmbeddedChunks(ctx, embedChunks(t, e, models.Chunk{ID: "1", Text: "x"})); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	_, err = OpenCollection(ctx, dir, embedding.NewMockEmbedder(4))
	if !errors.Is(err, ErrEmbedderMismatch) {
		t.Errorf("err = %v, want ErrEmbedderMismatch", err)
	}
}

func TestCollection_Reset(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewMockEmbedder(8)
	c, err := OpenCollection(ctx, t.TempDir(), e)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	_ = c.UpsertEmbeddedChunks(ctx, embedChunks(t, e, models.Chunk{ID: "1", Text: "x"}))
	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	results, _ := c.SimilaritySearch(ctx, "x", 3)
	if len(results) != 0 {
		t.Errorf("results after reset = %d", len(results))
	}
	if c.index.Size() != 0 {
		t.Errorf("vectors after reset = %d", c.index.Size())
	}
	if _, ok := c.Chunk("1"); ok {
		t.Error("chunk still present after reset")
	}
}
