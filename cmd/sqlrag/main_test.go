package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/storage"
	"github.com/hyperjump/sqlrag/internal/vector"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"open complaints", "--show-sql"},
			expected: []string{"--show-sql", "open complaints"},
		},
		{
			name:     "value flags keep their value",
			args:     []string{"open", "complaints", "--format", "json"},
			expected: []string{"--format", "json", "open", "complaints"},
		},
		{
			name:     "inline value",
			args:     []string{"q", "-format=json"},
			expected: []string{"-format=json", "q"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"--show-sql", "--", "-negative", "balance"},
			expected: []string{"--show-sql", "-negative", "balance"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single quoted question", []string{"Provide all open home loan complaints"}, "Provide all open home loan complaints"},
		{"unquoted words", []string{"list", "floating", "loans"}, "list floating loans"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuestion(tt.args); got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"no answer", models.ErrNoAnswerGenerated, exitNoAnswer},
		{"safety", &models.SafetyViolationError{LeadingToken: "DELETE", Reason: "not a SELECT"}, exitSafety},
		{"execution", &models.ExecutionError{SQL: "SELECT x FROM loans", Err: errors.New("no such column: x")}, exitExecution},
		{"collaborator", &models.CollaboratorError{Stage: models.StageGenerate, Err: errors.New("503")}, exitCollaborator},
		{"missing docs", fmt.Errorf("load: %w", models.ErrConfigurationMissing), exitNotReady},
		{"no documents", models.ErrNoDocumentsFound, exitNotReady},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_defaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Retrieval.TopK != config.DefaultTopK || cfg.Documents.ChunkSize != 1000 {
		t.Errorf("defaults not applied: top_k=%d chunk_size=%d", cfg.Retrieval.TopK, cfg.Documents.ChunkSize)
	}
	if filepath.Base(cfg.Storage.DatabasePath) != "fintech.db" || !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
retrieval:
  mode: hybrid
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Port != 9000 || cfg.Retrieval.Mode != config.ModeHybrid {
		t.Errorf("unexpected config: server=%+v mode=%s", cfg.Server, cfg.Retrieval.Mode)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "test.db") {
		t.Errorf("database path = %q, want it next to the config file", cfg.Storage.DatabasePath)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestAskViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Question == "drop everything" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"safety violation: not a SELECT","kind":"safety_violation","sql":"DROP TABLE loans"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.Answer{
			Status:   models.StatusAnswered,
			Question: req.Question,
			Result:   &models.QueryResult{Columns: []string{"id"}, Rows: [][]any{{1}}},
		})
	}))
	defer srv.Close()

	answer, err := askViaHTTP(srv.URL+"/", "open complaints")
	if err != nil {
		t.Fatal(err)
	}
	if !answer.Answered() || answer.Question != "open complaints" || len(answer.Result.Rows) != 1 {
		t.Errorf("answer = %+v", answer)
	}

	_, err = askViaHTTP(srv.URL, "drop everything")
	var sv *models.SafetyViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SafetyViolationError", err)
	}
	if sv.SQL != "DROP TABLE loans" || exitCode(err) != exitSafety {
		t.Errorf("sql=%q exit=%d", sv.SQL, exitCode(err))
	}
}

func TestDecodeRemoteError_plainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := statusViaHTTP(srv.URL)
	if err == nil || exitCode(err) != exitFailure {
		t.Errorf("err = %v", err)
	}
}

func TestLocalStatus(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)
	ctx := context.Background()

	// Nothing on disk yet: zero counts, nothing created.
	status, err := localStatus(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if status.Chunks != 0 || len(status.Tables) != 0 {
		t.Errorf("empty status = %+v", status)
	}
	if _, err := os.Stat(cfg.Storage.DatabasePath); !os.IsNotExist(err) {
		t.Error("status must not create the database")
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateTables(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.NewSeeder(store, 1).Seed(ctx, false); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	c, err := vector.OpenCollection(ctx, cfg.Storage.VectorIndexPath, embedding.NewMockEmbedder(8))
	if err != nil {
		t.Fatal(err)
	}
	vec := make([]float32, 8)
	vec[0] = 1
	chunk := models.EmbeddedChunk{
		Chunk:  models.Chunk{ID: "c1", Source: "loans.txt", Text: "Table loans"},
		Vector: vec,
	}
	if err := c.UpsertEmbeddedChunks(ctx, []models.EmbeddedChunk{chunk}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetFingerprint(ctx, "fp-1"); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	status, err = localStatus(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if status.Chunks != 1 || status.Fingerprint != "fp-1" {
		t.Errorf("chunks=%d fingerprint=%q", status.Chunks, status.Fingerprint)
	}
	if status.Tables["customers"] != 10 || status.Tables["loans"] != 10 {
		t.Errorf("tables = %v", status.Tables)
	}
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes <= 0 {
		t.Error("expected disk usage")
	}
}

func TestProviderHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	t.Setenv("SQLRAG_TEST_EMBED_KEY", "good-key")
	t.Setenv("SQLRAG_TEST_CHAT_KEY", "bad-key")
	cfg := config.Default(t.TempDir())
	cfg.Embedding.BaseURL = srv.URL
	cfg.Embedding.APIKeyEnv = "SQLRAG_TEST_EMBED_KEY"
	cfg.Completion.BaseURL = srv.URL
	cfg.Completion.APIKeyEnv = "SQLRAG_TEST_CHAT_KEY"

	got := providerHealth(context.Background(), cfg)
	if got["embedding"] != "ok" {
		t.Errorf("embedding = %q, want ok", got["embedding"])
	}
	if !strings.Contains(got["completion"], "invalid api key") {
		t.Errorf("completion = %q, want the API error", got["completion"])
	}

	cfg.Embedding.Provider = config.ProviderMock
	cfg.Completion.APIKeyEnv = "SQLRAG_TEST_UNSET_KEY"
	got = providerHealth(context.Background(), cfg)
	if got["embedding"] != "ok" {
		t.Errorf("mock embedding = %q, want ok", got["embedding"])
	}
	if !strings.Contains(got["completion"], "API key is required") {
		t.Errorf("completion without key = %q", got["completion"])
	}
}
