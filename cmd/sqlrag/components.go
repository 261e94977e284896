package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/indexer"
	"github.com/hyperjump/sqlrag/internal/keyword"
	"github.com/hyperjump/sqlrag/internal/llm"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/orchestrator"
	"github.com/hyperjump/sqlrag/internal/search"
	"github.com/hyperjump/sqlrag/internal/storage"
)

// Components holds initialized services.
type Components struct {
	config *config.Config
	logger *zap.Logger

	Embedder  embedding.Embedder
	Keywords  keyword.KeywordIndex // nil unless retrieval.mode is hybrid
	Pipeline  *indexer.Pipeline
	Completer llm.Completer // nil for ingest-only commands

	// Set by wireQuerying.
	Engine       *search.Engine
	Executor     *storage.ReadOnlyExecutor
	Orchestrator *orchestrator.Orchestrator
}

// Close releases the indexes and the embedder.
func (c *Components) Close() {
	if c.Pipeline != nil {
		if err := c.Pipeline.Close(); err != nil {
			c.logger.Warn("vector index close failed", zap.Error(err))
		}
	}
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// initializeComponents builds the ingestion side. With querying set it also builds the completer.
func initializeComponents(cfg *config.Config, logger *zap.Logger, querying bool) (*Components, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	c := &Components{config: cfg, logger: logger, Embedder: embedder}

	pipelineOpts := []indexer.Option{indexer.WithLogger(logger)}
	if cfg.Retrieval.Mode == config.ModeHybrid {
		kw, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		c.Keywords = kw
		pipelineOpts = append(pipelineOpts, indexer.WithKeywordIndex(kw))
	}
	c.Pipeline = indexer.NewPipeline(cfg, embedder, pipelineOpts...)

	if querying {
		completer, err := llm.NewOpenAICompleter(llm.FromConfig(cfg.Completion))
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create completer (set %s): %w", cfg.Completion.APIKeyEnv, err)
		}
		c.Completer = completer
	}
	logger.Debug("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", embedder.ModelName()),
		zap.String("retrieval_mode", cfg.Retrieval.Mode),
		zap.Bool("querying", querying))
	return c, nil
}

// wireQuerying opens the vector index and builds the retriever, executor and orchestrator.
// The allow-list is read from the live database so it always matches what SQLite can run.
func (c *Components) wireQuerying(ctx context.Context) error {
	if c.Completer == nil {
		return fmt.Errorf("components were initialized without a completer")
	}
	collection, err := c.Pipeline.Collection(ctx)
	if err != nil {
		return err
	}
	c.Engine = search.NewEngine(collection, c.Keywords, c.config.Retrieval, search.WithLogger(c.logger))

	executor, err := storage.NewReadOnlyExecutor(c.config.Storage.DatabasePath, storage.WithExecutorLogger(c.logger))
	if err != nil {
		return err
	}
	tables, err := executor.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if len(tables) == 0 {
		return fmt.Errorf("%w: database %s has no schema tables (run setup and seed first)",
			models.ErrConfigurationMissing, c.config.Storage.DatabasePath)
	}
	c.Executor = executor
	c.Orchestrator = orchestrator.New(c.config, c.Engine, c.Completer, executor,
		orchestrator.WithLogger(c.logger),
		orchestrator.WithAllowedTables(storage.TableNames(tables)),
	)
	c.logger.Debug("query path ready",
		zap.Strings("allowed_tables", c.Orchestrator.AllowedTables()),
		zap.Bool("hybrid", c.Engine.Hybrid()))
	return nil
}
