// Package embedding maps text to fixed-dimension vectors via a remote API, with an LRU cache and a deterministic mock.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/sqlrag/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// ModelName identifies the model so a persisted index can detect a provider change.
	ModelName() string
	Close() error
}

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when CacheSize > 0.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var e Embedder
	switch cfg.Provider {
	case config.ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	case config.ProviderOpenAI, "":
		oe, err := newOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		e = oe
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}

func newOpenAI(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	oe, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:     cfg.APIKey(),
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder (set %s): %w", cfg.APIKeyEnv, err)
	}
	return oe, nil
}

// Ping checks that the configured embedding API answers with the configured key.
// The mock provider has nothing to reach and always succeeds.
func Ping(ctx context.Context, cfg config.EmbeddingConfig) error {
	if cfg.Provider == config.ProviderMock {
		return nil
	}
	oe, err := newOpenAI(cfg)
	if err != nil {
		return err
	}
	return oe.Ping(ctx)
}
