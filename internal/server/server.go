// Package server provides the HTTP API for asking questions over the fintech database.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/storage"
)

// Answerer answers one question. orchestrator.Orchestrator implements it.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string) (*models.Answer, error)
}

// Ingester runs document ingestion. indexer.Pipeline implements it.
type Ingester interface {
	Run(ctx context.Context, force bool) (*models.IngestResult, error)
}

// IndexStats reports on the vector index. vector.Collection implements it.
type IndexStats interface {
	Count(ctx context.Context) (int64, error)
	Fingerprint(ctx context.Context) (string, error)
}

// WatchService reports on the docs directory watcher.
type WatchService interface {
	Directories() []string
}

// Server is the HTTP server for the question-answering API.
type Server struct {
	answerer Answerer
	ingester Ingester
	store    storage.Store
	index    IndexStats
	watch    WatchService // optional
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(
	answerer Answerer,
	ingester Ingester,
	store storage.Store,
	index IndexStats,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		answerer: answerer,
		ingester: ingester,
		store:    store,
		index:    index,
		watch:    watch,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/schema", s.handleSchema)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
