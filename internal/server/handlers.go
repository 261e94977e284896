package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/orchestrator"
	"github.com/hyperjump/sqlrag/internal/storage"
)

type askRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	Rebuild bool `json:"rebuild"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
	SQL   string `json:"sql,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))
	answer, err := s.answerer.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	s.logger.Debug("ingest request", zap.Bool("rebuild", req.Rebuild))
	result, err := s.ingester.Run(r.Context(), req.Rebuild)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	s.respondJSON(w, status, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chunkCount, err := s.index.Count(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fingerprint, err := s.index.Fingerprint(ctx)
	if err != nil {
		s.logger.Error("status: read fingerprint failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.rowCounts(ctx)
	if err != nil {
		s.logger.Error("status: count rows failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"chunks":      chunkCount,
		"fingerprint": fingerprint,
		"tables":      rows,
	}

	cfg := s.config
	configInfo := map[string]any{
		"database_path":      cfg.Storage.DatabasePath,
		"vector_index_path":  cfg.Storage.VectorIndexPath,
		"keyword_index_path": cfg.Storage.KeywordIndexPath,
		"documents_dir":      cfg.Documents.Directory,
		"chunk_size":         cfg.Documents.ChunkSize,
		"chunk_overlap":      cfg.Documents.ChunkOverlap,
		"embedding_model":    cfg.Embedding.Model,
		"completion_model":   cfg.Completion.Model,
		"retrieval_mode":     cfg.Retrieval.Mode,
		"top_k":              cfg.Retrieval.TopK,
	}
	if s.watch != nil {
		configInfo["watching"] = s.watch.Directories()
	}
	resp["config"] = configInfo

	usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, cfg.Storage.VectorIndexPath, cfg.Storage.KeywordIndexPath)
	if err == nil {
		resp["disk_usage"] = usage
		resp["disk_usage_bytes"] = usage.Total()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) rowCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(storage.SchemaTables))
	for _, t := range storage.SchemaTables {
		n, err := s.store.CountRows(ctx, t)
		if err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, nil
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.Tables(r.Context())
	if err != nil {
		s.logger.Error("schema: describe tables failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// respondFailure maps error kinds to HTTP status codes.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var (
		sv *models.SafetyViolationError
		ee *models.ExecutionError
		ce *models.CollaboratorError
	)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyQuestion):
		status, resp.Kind = http.StatusBadRequest, "bad_request"
	case errors.As(err, &sv):
		status, resp.Kind, resp.SQL = http.StatusUnprocessableEntity, "safety_violation", sv.SQL
	case errors.As(err, &ee):
		status, resp.Kind, resp.SQL = http.StatusFailedDependency, "execution_error", ee.SQL
	case errors.As(err, &ce):
		status, resp.Kind, resp.Stage = http.StatusBadGateway, "collaborator_unavailable", ce.Stage
	case errors.Is(err, models.ErrConfigurationMissing):
		status, resp.Kind = http.StatusNotFound, "configuration_missing"
	case errors.Is(err, models.ErrNoDocumentsFound):
		status, resp.Kind = http.StatusNotFound, "no_documents"
	case errors.Is(err, context.DeadlineExceeded):
		status, resp.Kind = http.StatusGatewayTimeout, "timeout"
	}
	if status >= 500 {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
