// Package config provides configuration loading and structs for sqlrag.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
// It is built once at startup and passed to each component's constructor.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Documents  DocumentsConfig  `yaml:"documents"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Retry      RetryConfig      `yaml:"retry"`
	Watch      WatchConfig      `yaml:"watch"`
	Seed       SeedConfig       `yaml:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds paths for the relational database and the vector index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// DocumentsConfig holds the document source and chunking settings.
type DocumentsConfig struct {
	Directory    string `yaml:"directory"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	// RebuildOnChange rebuilds a populated index when the documents fingerprint differs.
	// When false a stale index is only reported.
	RebuildOnChange bool `yaml:"rebuild_on_change"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // openai or mock
	BaseURL    string        `yaml:"base_url"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	BatchSize  int           `yaml:"batch_size"`
	Workers    int           `yaml:"workers"`
	CacheSize  int           `yaml:"cache_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CompletionConfig holds completion provider settings.
// Temperature is always sent; zero means greedy decoding.
type CompletionConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RetrievalConfig holds similarity search settings.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	Mode           string  `yaml:"mode"` // vector or hybrid
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	// Fuzzy lets hybrid keyword matching tolerate one-character typos.
	Fuzzy bool `yaml:"fuzzy"`
}

// RetryConfig bounds retries around the retrieval and generation steps.
type RetryConfig struct {
	MaxTries        uint          `yaml:"max_tries"`
	StepTimeout     time.Duration `yaml:"step_timeout"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// WatchConfig holds documents directory watch settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// SeedConfig controls synthetic data generation.
type SeedConfig struct {
	RandomSeed int64 `yaml:"random_seed"`
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (e EmbeddingConfig) APIKey() string {
	return os.Getenv(e.APIKeyEnv)
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (c CompletionConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Default returns a config with every default applied and paths relative to dir.
func Default(dir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.expandPaths(dir)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.expandPaths(filepath.Dir(path))

	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Documents.ChunkSize <= 0 {
		return fmt.Errorf("documents.chunk_size must be positive, got %d", c.Documents.ChunkSize)
	}
	if c.Documents.ChunkOverlap < 0 || c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("documents.chunk_overlap must be in [0, chunk_size), got %d", c.Documents.ChunkOverlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.Retrieval.Mode {
	case ModeVector, ModeHybrid:
	default:
		return fmt.Errorf("retrieval.mode must be %q or %q, got %q", ModeVector, ModeHybrid, c.Retrieval.Mode)
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q", ProviderOpenAI, ProviderMock, c.Embedding.Provider)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) expandPaths(configDir string) {
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, configDir)
	c.Storage.VectorIndexPath = expandPath(c.Storage.VectorIndexPath, configDir)
	c.Storage.KeywordIndexPath = expandPath(c.Storage.KeywordIndexPath, configDir)
	c.Documents.Directory = expandPath(c.Documents.Directory, configDir)
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the
// home directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
