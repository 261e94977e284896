// Package main is the sqlrag CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/cli"
	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/embedding"
	"github.com/hyperjump/sqlrag/internal/indexer"
	"github.com/hyperjump/sqlrag/internal/llm"
	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/internal/server"
	"github.com/hyperjump/sqlrag/internal/storage"
	"github.com/hyperjump/sqlrag/internal/vector"
	"github.com/hyperjump/sqlrag/internal/watcher"
	"github.com/hyperjump/sqlrag/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "config.yaml"
	defaultQuestion   = "Provide all open home loan complaints"
)

// Exit codes, so scripts can tell a declined question from a failure.
const (
	exitOK = iota
	exitFailure
	exitNoAnswer
	exitSafety
	exitExecution
	exitCollaborator
	exitNotReady
)

// loadConfig loads config from path. When path is the default and no such file exists,
// built-in defaults relative to the working directory are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, "", err
			}
			return config.Default(cwd), "", nil
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, "", err
	}
	return cfg, abs, nil
}

func main() {
	// Credentials may live in .env; a missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFailure)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "setup":
		runSetup(args)
	case "seed":
		runSeed(args)
	case "ingest":
		runIngest(args)
	case "ask":
		runAsk(args)
	case "serve", "server":
		runServe(args)
	case "schema":
		runSchema(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("sqlrag version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(exitFailure)
	}
}

// commonFlags registers the flags every subcommand accepts.
func commonFlags(fs *flag.FlagSet) (configPath *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, debug
}

// mustSetup loads config and builds the logger, exiting on failure.
func mustSetup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitFailure)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(exitFailure)
	}
	if resolved == "" {
		logger.Debug("no config file found, using defaults", zap.String("path", configPath))
	} else {
		logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	}
	return cfg, logger
}

func runSetup(args []string) {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	writeDocs := fs.Bool("write-docs", false, "write one schema description per table into the documents directory")
	writeConfig := fs.String("write-config", "", "write the effective configuration to this path")
	_ = fs.Parse(args)

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logger.Fatal("Failed to create tables", zap.Error(err))
	}
	fmt.Printf("Schema ready: %s\n", cfg.Storage.DatabasePath)

	if *writeDocs {
		tables, err := store.Tables(ctx)
		if err != nil {
			logger.Fatal("Failed to describe tables", zap.Error(err))
		}
		paths, err := storage.WriteSchemaDocs(cfg.Documents.Directory, tables)
		if err != nil {
			logger.Fatal("Failed to write schema documents", zap.Error(err))
		}
		fmt.Printf("Wrote %d schema document(s) to %s\n", len(paths), cfg.Documents.Directory)
	}
	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			logger.Fatal("Failed to write config", zap.Error(err))
		}
		fmt.Printf("Wrote config: %s\n", *writeConfig)
	}
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	force := fs.Bool("force", false, "insert even when customers already exist")
	_ = fs.Parse(args)

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logger.Fatal("Failed to create tables", zap.Error(err))
	}
	res, err := storage.NewSeeder(store, cfg.Seed.RandomSeed).Seed(ctx, *force)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	if res.Skipped {
		fmt.Println("Customers already present; skipped (use --force to insert again)")
		return
	}
	pairs := make([]cli.KeyValue, 0, len(storage.SchemaTables))
	for _, t := range storage.SchemaTables {
		pairs = append(pairs, cli.KeyValue{Key: t, Value: res.Rows[t], Comment: "rows inserted"})
	}
	cli.WriteKeyValues(os.Stdout, pairs)
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	rebuild := fs.Bool("rebuild", false, "drop the existing index and ingest again")
	output := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	res, err := components.Pipeline.Run(context.Background(), *rebuild)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(exitCode(err))
	}
	if err := cli.WriteIngestResult(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(exitFailure)
	}
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	output := fs.String("format", "text", "output format: text or json")
	showSQL := fs.Bool("show-sql", false, "print the generated SQL")
	showContext := fs.Bool("show-context", false, "print the retrieved schema context")
	serverURL := fs.String("server", "", "ask a running server instead of answering locally")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(reorderArgs(args))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		question = defaultQuestion
	}
	opts := cli.AnswerOptions{ShowSQL: *showSQL, ShowContext: *showContext}

	var answer *models.Answer
	if *serverURL != "" {
		answer, err = askViaHTTP(*serverURL, question)
	} else {
		cfg, logger := mustSetup(*configPath, *debug)
		defer logger.Sync()
		answer, err = askLocal(cfg, logger, question)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		var sv *models.SafetyViolationError
		if errors.As(err, &sv) && sv.SQL != "" {
			fmt.Fprintf(os.Stderr, "Rejected SQL:\n%s\n", sv.SQL)
		}
		os.Exit(exitCode(err))
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(exitFailure)
	}
	if !answer.Answered() {
		os.Exit(exitCode(models.ErrNoAnswerGenerated))
	}
}

// askLocal ingests when the index is empty, then answers question in-process.
func askLocal(cfg *config.Config, logger *zap.Logger, question string) (*models.Answer, error) {
	ctx := context.Background()
	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	if _, err := components.Pipeline.Run(ctx, false); err != nil {
		return nil, err
	}
	if err := components.wireQuerying(ctx); err != nil {
		return nil, err
	}
	return components.Orchestrator.AnswerQuestion(ctx, question)
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: sqlrag ask [flags] [question]\n\n")
	fmt.Fprintf(fs.Output(), "Without a question, asks %q.\n\nFlags:\n", defaultQuestion)
	fs.PrintDefaults()
}

// buildQuestion joins positional args so unquoted multi-word questions work.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves flags ahead of positionals so "ask my question --show-sql" parses.
// The flag package stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	var flags, positionals []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && flagTakesValue(a) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		positionals = append(positionals, a)
	}
	return append(flags, positionals...)
}

// flagTakesValue reports whether the named ask flag consumes the next argument.
func flagTakesValue(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "config", "format", "server":
		return true
	}
	return false
}

func askViaHTTP(serverURL, question string) (*models.Answer, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp)
	}
	var answer models.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &answer, nil
}

// remoteError is the server's error body.
type remoteError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage"`
	SQL   string `json:"sql"`
}

// decodeRemoteError turns an error response back into the matching error kind.
func decodeRemoteError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var re remoteError
	if err := json.Unmarshal(b, &re); err != nil || re.Error == "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	msg := errors.New(re.Error)
	switch re.Kind {
	case "safety_violation":
		return &models.SafetyViolationError{Reason: re.Error, SQL: re.SQL}
	case "execution_error":
		return &models.ExecutionError{SQL: re.SQL, Err: msg}
	case "collaborator_unavailable":
		return &models.CollaboratorError{Stage: re.Stage, Err: msg}
	case "configuration_missing":
		return fmt.Errorf("%w: %s", models.ErrConfigurationMissing, re.Error)
	case "no_documents":
		return fmt.Errorf("%w: %s", models.ErrNoDocumentsFound, re.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, re.Error)
}

// exitCode maps an error kind to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrNoAnswerGenerated):
		return exitNoAnswer
	case errors.Is(err, models.ErrSafetyViolation):
		return exitSafety
	case errors.Is(err, models.ErrExecution):
		return exitExecution
	case errors.Is(err, models.ErrCollaboratorUnavailable):
		return exitCollaborator
	case indexer.IsNotReady(err):
		return exitNotReady
	default:
		return exitFailure
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	watch := fs.Bool("watch", false, "re-ingest when files in the documents directory change")
	_ = fs.Parse(args)

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	if err := store.CreateTables(ctx); err != nil {
		logger.Fatal("Failed to create tables", zap.Error(err))
	}

	if res, err := components.Pipeline.Run(ctx, false); err != nil {
		if !indexer.IsNotReady(err) {
			logger.Fatal("Initial ingestion failed", zap.Error(err))
		}
		logger.Warn("documents not ready; serving with an empty index", zap.Error(err))
	} else {
		logger.Info("index ready", zap.Bool("skipped", res.Skipped), zap.Int("chunks", res.Total))
	}
	if err := components.wireQuerying(ctx); err != nil {
		logger.Fatal("Failed to prepare querying", zap.Error(err))
	}
	collection, err := components.Pipeline.Collection(ctx)
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}

	var watchSvc server.WatchService
	if *watch || cfg.Watch.Enabled {
		w := watcher.NewWatcher(
			cfg.Documents.Directory,
			[]string{".txt"},
			func(ctx context.Context, paths []string) {
				res, err := components.Pipeline.Run(ctx, true)
				if err != nil {
					logger.Warn("re-ingest after change failed", zap.Strings("paths", paths), zap.Error(err))
					return
				}
				logger.Info("re-ingested documents", zap.Int("chunks", res.Chunks), zap.String("fingerprint", res.Fingerprint))
			},
			watcher.WithDebounce(cfg.Watch.Debounce),
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		watchSvc = w
	}

	srv := server.NewServer(
		components.Orchestrator,
		components.Pipeline,
		store,
		collection,
		cfg,
		logger,
		watchSvc,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}

func runSchema(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	output := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	executor, err := storage.NewReadOnlyExecutor(cfg.Storage.DatabasePath, storage.WithExecutorLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Schema failed: %v\n", err)
		os.Exit(exitCode(err))
	}
	tables, err := executor.Tables(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Schema failed: %v\n", err)
		os.Exit(exitFailure)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"tables": tables})
		return
	}
	for i, t := range tables {
		if i > 0 {
			fmt.Println()
		}
		fmt.Print(storage.DescribeTable(t))
	}
}

type statusResponse struct {
	Chunks         int64            `json:"chunks"`
	Fingerprint    string           `json:"fingerprint"`
	Tables         map[string]int64 `json:"tables"`
	DiskUsageBytes *int64           `json:"disk_usage_bytes,omitempty"`

	// Providers maps "embedding" and "completion" to "ok" or the reason the API could not be reached.
	Providers map[string]string `json:"providers,omitempty"`
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	serverURL := fs.String("server", "", "read status from a running server instead of local files")
	output := fs.String("format", "text", "output format: text or json")
	checkProviders := fs.Bool("check-providers", false, "also check that the embedding and completion APIs are reachable")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	var status *statusResponse
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger := mustSetup(*configPath, *debug)
		defer logger.Sync()
		status, err = localStatus(context.Background(), cfg)
		if err == nil && *checkProviders {
			status.Providers = providerHealth(context.Background(), cfg)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(exitFailure)
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(exitFailure)
		}
		return
	}
	pairs := []cli.KeyValue{
		{Key: "chunks", Value: status.Chunks, Comment: "embedded chunks in the vector index"},
		{Key: "fingerprint", Value: status.Fingerprint, Comment: "documents the index was built from"},
	}
	if status.DiskUsageBytes != nil {
		pairs = append(pairs, cli.KeyValue{Key: "disk_usage_bytes", Value: *status.DiskUsageBytes, Comment: "database + indexes on disk"})
	}
	for _, t := range storage.SchemaTables {
		if n, ok := status.Tables[t]; ok {
			pairs = append(pairs, cli.KeyValue{Key: t, Value: n, Comment: "rows"})
		}
	}
	for _, name := range []string{"embedding", "completion"} {
		if v, ok := status.Providers[name]; ok {
			pairs = append(pairs, cli.KeyValue{Key: name, Value: v, Comment: "provider API"})
		}
	}
	cli.WriteKeyValues(os.Stdout, pairs)
}

// providerHealth pings the embedding and completion APIs.
func providerHealth(ctx context.Context, cfg *config.Config) map[string]string {
	result := func(err error) string {
		if err != nil {
			return err.Error()
		}
		return "ok"
	}
	out := map[string]string{"embedding": result(embedding.Ping(ctx, cfg.Embedding))}
	completer, err := llm.NewOpenAICompleter(llm.FromConfig(cfg.Completion))
	if err == nil {
		err = completer.Ping(ctx)
	}
	out["completion"] = result(err)
	return out
}

// localStatus reads counts from disk without creating the database or the index.
func localStatus(ctx context.Context, cfg *config.Config) (*statusResponse, error) {
	status := &statusResponse{Tables: make(map[string]int64)}

	populated, err := vector.HasData(cfg.Storage.VectorIndexPath)
	if err != nil {
		return nil, err
	}
	if populated {
		vs, err := vector.OpenStore(cfg.Storage.VectorIndexPath)
		if err != nil {
			return nil, err
		}
		defer vs.Close()
		if status.Chunks, err = vs.Count(ctx); err != nil {
			return nil, err
		}
		if status.Fingerprint, err = vs.Meta(ctx, vector.MetaFingerprint); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(cfg.Storage.DatabasePath); err == nil {
		executor, err := storage.NewReadOnlyExecutor(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		for _, t := range storage.SchemaTables {
			res, err := executor.Query(ctx, "SELECT COUNT(*) FROM "+t)
			if err != nil || len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
				continue
			}
			if n, ok := res.Rows[0][0].(int64); ok {
				status.Tables[t] = n
			}
		}
	}

	if n, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.VectorIndexPath, cfg.Storage.KeywordIndexPath); err == nil {
		status.DiskUsageBytes = &n
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp)
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`sqlrag - answer questions about the fintech database by generating SQL from schema documents

Usage:
  sqlrag setup [flags]             Create the schema tables
  sqlrag seed [flags]              Insert synthetic customers, loans, complaints and rules
  sqlrag ingest [flags]            Chunk, embed and index the documents directory
  sqlrag ask [flags] [question]    Answer a question with a generated SELECT
  sqlrag serve [flags]             Start the HTTP API
  sqlrag schema [flags]            Print the tables and columns queries may use
  sqlrag status [flags]            Show index and table counts
  sqlrag version                   Show version
  sqlrag help                      Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml, built-in defaults if absent)
  --debug            Enable debug logging

Setup Flags:
  --write-docs             Write <table>.txt schema descriptions into the documents directory
  --write-config string    Write the effective configuration to this path

Seed Flags:
  --force            Insert even when customers already exist

Ingest Flags:
  --rebuild          Drop the existing index and ingest again
  --format string    Output format: text or json (default: text)

Ask Flags:
  --format string    Output format: text or json (default: text)
  --show-sql         Print the generated SQL
  --show-context     Print the retrieved schema context
  --server string    Ask a running server (e.g. http://localhost:8080)

Serve Flags:
  --watch            Re-ingest when documents change (also watch.enabled in config)

Status Flags:
  --server string       Read status from a running server
  --format string       Output format: text or json (default: text)
  --check-providers     Also check that the embedding and completion APIs are reachable

Exit codes: 0 answered, 1 failure, 2 no answer, 3 unsafe SQL, 4 execution error,
5 embedding/completion unavailable, 6 documents or database missing.

Examples:
  sqlrag setup --write-docs
  sqlrag seed
  sqlrag ask
  sqlrag ask --show-sql "Which customers have floating rate home loans?"
  sqlrag ask --format json "How many complaints breached their SLA?"
  sqlrag serve --watch`)
}
