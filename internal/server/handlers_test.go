package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/llm"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/orchestrator"
	"github.com/hyperjump/sqlrag/internal/retry"
	"github.com/hyperjump/sqlrag/internal/storage"
)

type fakeAnswerer struct {
	answer *models.Answer
	err    error
}

func (f *fakeAnswerer) AnswerQuestion(ctx context.Context, q string) (*models.Answer, error) {
	return f.answer, f.err
}

type fakeIngester struct {
	result  *models.IngestResult
	err     error
	rebuild bool
}

func (f *fakeIngester) Run(ctx context.Context, force bool) (*models.IngestResult, error) {
	f.rebuild = force
	return f.result, f.err
}

type fakeIndex struct{ count int64 }

func (f fakeIndex) Count(context.Context) (int64, error)        { return f.count, nil }
func (f fakeIndex) Fingerprint(context.Context) (string, error) { return "abc123", nil }

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(context.Context, string, int) ([]models.RetrievedChunk, error) {
	return []models.RetrievedChunk{{Chunk: models.Chunk{Source: "docs/loans.txt", Text: "loans(id, status)"}}}, nil
}

func seededStore(t *testing.T) (*storage.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fintech.db")
	store, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	require.NoError(t, store.CreateTables(ctx))
	_, err = storage.NewSeeder(store, 1).Seed(ctx, false)
	require.NoError(t, err)
	return store, path
}

func newTestServer(t *testing.T, a Answerer, i Ingester) *Server {
	t.Helper()
	store, path := seededStore(t)
	cfg := config.Default(t.TempDir())
	cfg.Storage.DatabasePath = path
	return NewServer(a, i, store, fakeIndex{count: 12}, cfg, zap.NewNop(), nil)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakeAnswerer{}, &fakeIngester{})
	w := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestHandleAsk_EndToEnd(t *testing.T) {
	store, path := seededStore(t)
	exec, err := storage.NewReadOnlyExecutor(path)
	require.NoError(t, err)
	cfg := config.Default(t.TempDir())
	orch := orchestrator.New(cfg, fakeRetriever{}, &llm.StaticCompleter{Response: "SELECT id, status FROM loans WHERE status = 'active'"}, exec,
		orchestrator.WithRetryPolicy(retry.Once))
	srv := NewServer(orch, &fakeIngester{}, store, fakeIndex{}, cfg, zap.NewNop(), nil)

	w := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"active loans"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var answer models.Answer
	require.NoError(t, json.NewDecoder(w.Body).Decode(&answer))
	assert.Equal(t, models.StatusAnswered, answer.Status)
	assert.Equal(t, []string{"id", "status"}, answer.Result.Columns)
	assert.NotEmpty(t, answer.Result.Rows)
	assert.Equal(t, []string{"docs/loans.txt"}, answer.Sources)
}

func TestHandleAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"empty question", orchestrator.ErrEmptyQuestion, http.StatusBadRequest, "bad_request"},
		{"safety", &models.SafetyViolationError{LeadingToken: "DELETE", Reason: "statement is not a SELECT", SQL: "DELETE FROM loans"}, http.StatusUnprocessableEntity, "safety_violation"},
		{"execution", &models.ExecutionError{SQL: "SELECT x FROM loans", Err: errors.New("no such column: x")}, http.StatusFailedDependency, "execution_error"},
		{"collaborator", &models.CollaboratorError{Stage: models.StageGenerate, Err: errors.New("503")}, http.StatusBadGateway, "collaborator_unavailable"},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeAnswerer{err: tt.err}, &fakeIngester{})
			w := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"q"}`)
			assert.Equal(t, tt.code, w.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleAsk_SafetyIncludesSQL(t *testing.T) {
	srv := newTestServer(t, &fakeAnswerer{err: &models.SafetyViolationError{LeadingToken: "DROP", Reason: "statement is not a SELECT", SQL: "DROP TABLE loans"}}, &fakeIngester{})
	w := do(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"q"}`)
	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "DROP TABLE loans", resp.SQL)
	assert.Contains(t, resp.Error, `"DROP"`)
}

func TestHandleAsk_BadBody(t *testing.T) {
	srv := newTestServer(t, &fakeAnswerer{}, &fakeIngester{})
	w := do(t, srv, http.MethodPost, "/api/v1/ask", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleIngest(t *testing.T) {
	ing := &fakeIngester{result: &models.IngestResult{Documents: 2, Chunks: 4, Total: 4}}
	srv := newTestServer(t, &fakeAnswerer{}, ing)

	w := do(t, srv, http.MethodPost, "/api/v1/ingest", `{"rebuild":true}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, ing.rebuild)

	ing.result = &models.IngestResult{Skipped: true, Total: 4}
	w = do(t, srv, http.MethodPost, "/api/v1/ingest", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ing.rebuild)

	ing.err = models.ErrConfigurationMissing
	w = do(t, srv, http.MethodPost, "/api/v1/ingest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, &fakeAnswerer{}, &fakeIngester{})
	w := do(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Chunks      int64            `json:"chunks"`
		Fingerprint string           `json:"fingerprint"`
		Tables      map[string]int64 `json:"tables"`
		DiskBytes   int64            `json:"disk_usage_bytes"`
		Config      map[string]any   `json:"config"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(12), resp.Chunks)
	assert.Equal(t, "abc123", resp.Fingerprint)
	assert.Equal(t, int64(10), resp.Tables["loans"])
	assert.Equal(t, int64(3), resp.Tables["documents"])
	assert.Positive(t, resp.DiskBytes)
	assert.Equal(t, "vector", resp.Config["retrieval_mode"])
}

func TestHandleSchema(t *testing.T) {
	srv := newTestServer(t, &fakeAnswerer{}, &fakeIngester{})
	w := do(t, srv, http.MethodGet, "/api/v1/schema", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tables []storage.TableInfo `json:"tables"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	names := storage.TableNames(resp.Tables)
	assert.ElementsMatch(t, storage.SchemaTables, names)
	assert.False(t, strings.Contains(w.Body.String(), "sqlite_sequence"))
}
