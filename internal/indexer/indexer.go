package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/fileid"
	"github.com/hyperjump/sqlrag/internal/keyword"
	"github.com/hyperjump/sqlrag/internal/loader"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/retry"
	"github.com/hyperjump/sqlrag/internal/vector"
)

// Pipeline loads documents, chunks and embeds them, and persists the vectors.
// Runs are serialized. If the vector index already holds data a run is skipped
// unless forced, or unless the documents changed and RebuildOnChange is set.
type Pipeline struct {
	docsDir         string
	vectorDir       string
	rebuildOnChange bool
	batchSize       int
	workers         int

	chunker  *Chunker
	embedder embedding.Embedder
	keywords keyword.KeywordIndex // optional
	policy   retry.Policy
	logger   *zap.Logger

	mu         sync.Mutex
	collection *vector.Collection
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithKeywordIndex also indexes chunks for keyword search.
func WithKeywordIndex(k keyword.KeywordIndex) Option {
	return func(p *Pipeline) { p.keywords = k }
}

// NewPipeline creates an ingestion pipeline from cfg.
func NewPipeline(cfg *config.Config, embedder embedding.Embedder, opts ...Option) *Pipeline {
	p := &Pipeline{
		docsDir:         cfg.Documents.Directory,
		vectorDir:       cfg.Storage.VectorIndexPath,
		rebuildOnChange: cfg.Documents.RebuildOnChange,
		batchSize:       max(cfg.Embedding.BatchSize, 1),
		workers:         max(cfg.Embedding.Workers, 1),
		chunker:         NewChunker(cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap),
		embedder:        embedder,
		policy:          retry.FromConfig(cfg.Retry),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collection returns the vector collection, opening (and creating) it on first use.
func (p *Pipeline) Collection(ctx context.Context) (*vector.Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openCollection(ctx)
}

func (p *Pipeline) openCollection(ctx context.Context) (*vector.Collection, error) {
	if p.collection != nil {
		return p.collection, nil
	}
	c, err := vector.OpenCollection(ctx, p.vectorDir, p.embedder, vector.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	p.collection = c
	return c, nil
}

// Run ingests the documents directory. force rebuilds even when the index holds data.
// Nothing is written when the documents cannot be loaded.
func (p *Pipeline) Run(ctx context.Context, force bool) (*models.IngestResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()

	populated, err := vector.HasData(p.vectorDir)
	if err != nil {
		return nil, err
	}
	docs, loadErr := loader.LoadDirectory(p.docsDir)

	result := &models.IngestResult{}
	if loadErr == nil {
		result.Documents = len(docs)
		result.Fingerprint = fileid.Fingerprint(docs)
	}

	if populated {
		c, err := p.openCollection(ctx)
		if err != nil {
			return nil, err
		}
		if loadErr == nil {
			stored, err := c.Fingerprint(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read index fingerprint: %w", err)
			}
			result.Stale = stored != "" && stored != result.Fingerprint
		}
		if !force && !(result.Stale && p.rebuildOnChange) {
			return p.skip(ctx, c, result, loadErr, start)
		}
		if loadErr != nil {
			return nil, loadErr
		}
		p.logger.Info("rebuilding vector index",
			zap.Bool("forced", force), zap.Bool("stale", result.Stale))
		if err := p.reset(ctx, c); err != nil {
			return nil, err
		}
	} else if loadErr != nil {
		return nil, loadErr
	}

	chunks := p.chunker.ChunkAll(docs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: documents in %s contain no text", models.ErrNoDocumentsFound, p.docsDir)
	}
	p.logger.Info("ingesting documents",
		zap.String("dir", p.docsDir), zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))

	embedded, err := p.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	c, err := p.openCollection(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.UpsertEmbeddedChunks(ctx, embedded); err != nil {
		return nil, &models.CollaboratorError{Stage: models.StageIndex, Err: err}
	}
	if p.keywords != nil {
		if err := p.keywords.IndexChunks(ctx, chunks); err != nil {
			return nil, &models.CollaboratorError{Stage: models.StageIndex, Err: err}
		}
	}
	if err := c.SetFingerprint(ctx, result.Fingerprint); err != nil {
		return nil, fmt.Errorf("failed to record fingerprint: %w", err)
	}

	total, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	result.Stale = false
	result.Chunks = len(chunks)
	result.Total = int(total)
	result.Duration = time.Since(start).Milliseconds()
	p.logger.Info("ingestion complete",
		zap.Int("chunks", result.Chunks), zap.Int64("duration_ms", result.Duration))
	return result, nil
}

func (p *Pipeline) skip(ctx context.Context, c *vector.Collection, result *models.IngestResult, loadErr error, start time.Time) (*models.IngestResult, error) {
	total, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	result.Skipped = true
	result.Total = int(total)

	switch {
	case loadErr != nil:
		p.logger.Warn("vector index already populated; documents could not be checked", zap.Error(loadErr))
	case result.Stale:
		p.logger.Warn("vector index is stale: documents changed since last ingestion; run ingest with --rebuild",
			zap.String("dir", p.docsDir))
	default:
		p.logger.Info("vector index already populated, skipping ingestion", zap.Int("chunks", result.Total))
	}

	if err := p.backfillKeywords(ctx, c); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

// backfillKeywords fills an empty keyword index from the persisted chunks.
func (p *Pipeline) backfillKeywords(ctx context.Context, c *vector.Collection) error {
	if p.keywords == nil {
		return nil
	}
	n, err := p.keywords.DocCount()
	if err != nil || n > 0 {
		return err
	}
	all, err := c.All(ctx)
	if err != nil {
		return err
	}
	chunks := make([]models.Chunk, len(all))
	for i, ec := range all {
		chunks[i] = ec.Chunk
	}
	p.logger.Info("filling keyword index from vector index", zap.Int("chunks", len(chunks)))
	return p.keywords.IndexChunks(ctx, chunks)
}

func (p *Pipeline) reset(ctx context.Context, c *vector.Collection) error {
	if err := c.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector index: %w", err)
	}
	if p.keywords != nil {
		if err := p.keywords.Reset(); err != nil {
			return fmt.Errorf("failed to reset keyword index: %w", err)
		}
	}
	return nil
}

// embed embeds chunks in batches, running up to workers batches at once.
func (p *Pipeline) embed(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddedChunk, error) {
	out := make([]models.EmbeddedChunk, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Text
			}
			vecs, err := retry.Do(gctx, p.policy, models.StageEmbed, p.logger,
				func(ctx context.Context) ([][]float32, error) {
					return p.embedder.EmbedBatch(ctx, texts)
				})
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			for i, v := range vecs {
				out[start+i] = models.EmbeddedChunk{Chunk: chunks[start+i], Vector: v}
			}
			p.logger.Debug("embedded batch", zap.Int("from", start), zap.Int("to", end))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &models.CollaboratorError{Stage: models.StageEmbed, Err: err}
	}
	return out, nil
}

// Close closes the collection if it was opened.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.collection == nil {
		return nil
	}
	err := p.collection.Close()
	p.collection = nil
	return err
}

// IsNotReady reports whether err means ingestion cannot run because documents are missing.
func IsNotReady(err error) bool {
	return errors.Is(err, models.ErrConfigurationMissing) || errors.Is(err, models.ErrNoDocumentsFound)
}
