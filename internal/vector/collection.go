package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/models"
)

// ErrEmbedderMismatch is returned when the index was built with a different embedding dimension.
var ErrEmbedderMismatch = errors.New("vector index was built with a different embedder")

// Collection is a persisted set of embedded chunks searchable by query text.
// Queries are embedded with the same embedder used at ingestion.
// Reads are served from memory; writes go to the store first.
type Collection struct {
	store    *Store
	index    VectorIndex
	embedder embedding.Embedder
	logger   *zap.Logger

	mu     sync.RWMutex
	chunks map[string]models.Chunk
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) CollectionOption {
	return func(c *Collection) { c.logger = l }
}

// OpenCollection opens the store under dir and loads its chunks into memory.
func OpenCollection(ctx context.Context, dir string, e embedding.Embedder, opts ...CollectionOption) (*Collection, error) {
	store, err := OpenStore(dir)
	if err != nil {
		return nil, err
	}
	index, err := NewMemoryIndex(e.Dimensions())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c := &Collection{
		store:    store,
		index:    index,
		embedder: e,
		chunks:   make(map[string]models.Chunk),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

func (c *Collection) load(ctx context.Context) error {
	if dims, err := c.store.Meta(ctx, MetaDimensions); err != nil {
		return err
	} else if dims != "" && dims != strconv.Itoa(c.embedder.Dimensions()) {
		return fmt.Errorf("%w: index has %s dimensions, embedder has %d", ErrEmbedderMismatch, dims, c.embedder.Dimensions())
	}
	if model, err := c.store.Meta(ctx, MetaEmbeddingModel); err != nil {
		return err
	} else if model != "" && model != c.embedder.ModelName() && c.logger != nil {
		c.logger.Warn("vector index was built with a different embedding model",
			zap.String("index_model", model), zap.String("embedder_model", c.embedder.ModelName()))
	}

	all, err := c.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load vector index: %w", err)
	}
	ids := make([]string, len(all))
	vecs := make([][]float32, len(all))
	for i, ec := range all {
		ids[i] = ec.ID
		vecs[i] = ec.Vector
		c.chunks[ec.ID] = ec.Chunk
	}
	if err := c.index.Add(ctx, ids, vecs); err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedderMismatch, err)
	}
	if c.logger != nil {
		c.logger.Debug("vector index loaded", zap.String("dir", c.store.Dir()), zap.Int("chunks", c.index.Size()))
	}
	return nil
}

// UpsertEmbeddedChunks persists chunks and makes them searchable. Re-upserting an ID replaces it.
func (c *Collection) UpsertEmbeddedChunks(ctx context.Context, chunks []models.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, len(chunks))
	vecs := make([][]float32, len(chunks))
	for i, ec := range chunks {
		if len(ec.Vector) != c.embedder.Dimensions() {
			return fmt.Errorf("chunk %s: vector dimension %d, expected %d", ec.ID, len(ec.Vector), c.embedder.Dimensions())
		}
		ids[i] = ec.ID
		vecs[i] = ec.Vector
	}
	if err := c.store.Upsert(ctx, chunks); err != nil {
		return err
	}
	if err := c.store.SetMeta(ctx, MetaEmbeddingModel, c.embedder.ModelName()); err != nil {
		return err
	}
	if err := c.store.SetMeta(ctx, MetaDimensions, strconv.Itoa(c.embedder.Dimensions())); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ec := range chunks {
		c.chunks[ec.ID] = ec.Chunk
	}
	return c.index.Add(ctx, ids, vecs)
}

// SimilaritySearch embeds text and returns the k chunks with the smallest cosine distance,
// most similar first. Score holds the cosine similarity.
func (c *Collection) SimilaritySearch(ctx context.Context, text string, k int) ([]models.RetrievedChunk, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return c.SearchVector(ctx, vec, k)
}

// SearchVector returns the k chunks closest to vec.
func (c *Collection) SearchVector(ctx context.Context, vec []float32, k int) ([]models.RetrievedChunk, error) {
	hits, err := c.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		ch, ok := c.chunks[h.ID]
		if !ok {
			continue
		}
		out = append(out, models.RetrievedChunk{Chunk: ch, Score: h.Score})
	}
	return out, nil
}

// Chunk returns a chunk by ID.
func (c *Collection) Chunk(id string) (models.Chunk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.chunks[id]
	return ch, ok
}

// All returns every persisted chunk in insertion order.
func (c *Collection) All(ctx context.Context) ([]models.EmbeddedChunk, error) {
	return c.store.All(ctx)
}

// Dir returns the directory the collection is persisted in.
func (c *Collection) Dir() string { return c.store.Dir() }

// Count returns the number of persisted chunks.
func (c *Collection) Count(ctx context.Context) (int64, error) {
	return c.store.Count(ctx)
}

// Fingerprint returns the documents fingerprint recorded at the last ingestion.
func (c *Collection) Fingerprint(ctx context.Context) (string, error) {
	return c.store.Meta(ctx, MetaFingerprint)
}

// SetFingerprint records the documents fingerprint.
func (c *Collection) SetFingerprint(ctx context.Context, fp string) error {
	return c.store.SetMeta(ctx, MetaFingerprint, fp)
}

// Reset deletes every chunk from the store and memory.
func (c *Collection) Reset(ctx context.Context) error {
	if err := c.store.Reset(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = make(map[string]models.Chunk)
	c.index.Reset()
	return nil
}

// Close releases the in-memory index and closes the underlying store.
func (c *Collection) Close() error {
	return errors.Join(c.index.Close(), c.store.Close())
}
