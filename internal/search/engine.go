// Package search retrieves the chunks most relevant to a question, by vector similarity
// alone or fused with keyword scores.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/keyword"
	"github.com/hyperjump/sqlrag/internal/models"
)

// minCandidates is the smallest candidate pool fetched from each index in hybrid mode.
const minCandidates = 20

// Retriever returns up to k chunks for a question, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error)
}

// ChunkSearcher is the vector side of retrieval. vector.Collection implements it.
type ChunkSearcher interface {
	SimilaritySearch(ctx context.Context, text string, k int) ([]models.RetrievedChunk, error)
	Chunk(id string) (models.Chunk, bool)
}

// Engine runs vector or hybrid (keyword + semantic) retrieval.
type Engine struct {
	vectors        ChunkSearcher
	keywords       keyword.KeywordIndex
	mode           string
	keywordWeight  float64
	semanticWeight float64
	keywordOpts    *keyword.SearchOptions
	logger         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a retrieval engine. keywords may be nil, in which case
// retrieval is vector-only regardless of mode.
func NewEngine(vectors ChunkSearcher, keywords keyword.KeywordIndex, cfg config.RetrievalConfig, opts ...Option) *Engine {
	e := &Engine{
		vectors:        vectors,
		keywords:       keywords,
		mode:           cfg.Mode,
		keywordWeight:  cfg.KeywordWeight,
		semanticWeight: cfg.SemanticWeight,
		keywordOpts:    &keyword.SearchOptions{SourceBoost: 2, PhraseBoost: 1.5, FuzzyEnabled: cfg.Fuzzy, Fuzziness: 1},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hybrid reports whether the engine fuses keyword scores.
func (e *Engine) Hybrid() bool {
	return e.mode == config.ModeHybrid && e.keywords != nil
}

// Retrieve returns up to k chunks for question.
func (e *Engine) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if !e.Hybrid() {
		chunks, err := e.vectors.SimilaritySearch(ctx, question, k)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
		e.logger.Debug("retrieved chunks", zap.String("mode", config.ModeVector), zap.Int("count", len(chunks)))
		return chunks, nil
	}
	return e.retrieveHybrid(ctx, question, k)
}

func (e *Engine) retrieveHybrid(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	candidates := max(k*4, minCandidates)

	var (
		keywordResults  []*keyword.KeywordResult
		semanticResults []models.RetrievedChunk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := e.keywords.Search(gctx, question, candidates, e.keywordOpts)
		if err != nil {
			return fmt.Errorf("keyword search failed: %w", err)
		}
		keywordResults = results
		return nil
	})
	g.Go(func() error {
		results, err := e.vectors.SimilaritySearch(gctx, question, candidates)
		if err != nil {
			return fmt.Errorf("vector search failed: %w", err)
		}
		semanticResults = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]models.Chunk, len(semanticResults))
	for _, r := range semanticResults {
		byID[r.ID] = r.Chunk
	}
	fused := Fuse(NormalizeKeywordScores(keywordResults), NormalizeSemanticScores(semanticResults), e.keywordWeight, e.semanticWeight)

	out := make([]models.RetrievedChunk, 0, k)
	for _, f := range fused {
		if len(out) == k {
			break
		}
		chunk, ok := byID[f.ChunkID]
		if !ok {
			if chunk, ok = e.vectors.Chunk(f.ChunkID); !ok {
				// keyword index is ahead of or behind the vector index
				continue
			}
		}
		out = append(out, models.RetrievedChunk{Chunk: chunk, Score: f.Score})
	}
	e.logger.Debug("retrieved chunks",
		zap.String("mode", config.ModeHybrid),
		zap.Int("keyword_candidates", len(keywordResults)),
		zap.Int("semantic_candidates", len(semanticResults)),
		zap.Int("count", len(out)))
	return out, nil
}
