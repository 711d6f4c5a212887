// Package config loads and persists the application configuration.
//
// Configuration lives in a YAML file. Secrets never appear in the file
// itself: fields like api_key_env name the environment variable holding the
// value, so config files stay safe to commit and share.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig selects the metadata database and vector backend
type StorageConfig struct {
	// DatabasePath is the SQLite database file. Empty resolves to
	// ~/.filecontext/index.db.
	DatabasePath string `yaml:"database_path"`

	// VectorBackend is "sqlite" (default, embedded) or "pgvector"
	VectorBackend string `yaml:"vector_backend"`

	// PGVectorDSNEnv names the environment variable holding the Postgres
	// DSN when the pgvector backend is selected
	PGVectorDSNEnv string `yaml:"pgvector_dsn_env,omitempty"`
}

// PGVectorDSN resolves the Postgres DSN through the configured variable
func (c StorageConfig) PGVectorDSN() string {
	return os.Getenv(c.PGVectorDSNEnv)
}

// EmbedderConfig configures the embedding provider
type EmbedderConfig struct {
	// Provider is "ollama", "openai", or "local". Empty auto-detects from
	// the environment.
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env"`
	CacheSize int    `yaml:"cache_size"`
	BatchSize int    `yaml:"batch_size"`
}

// APIKey resolves the provider key through the configured variable
func (c EmbedderConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// IndexerConfig configures chunking and the indexing pipeline
type IndexerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Workers bounds folder indexing fan-out. Zero means one per CPU.
	Workers int `yaml:"workers"`

	// Compression is "zstd" (default), "gzip", or "none"
	Compression string `yaml:"compression"`

	// The zero values enable deduplication and change detection, so the
	// toggles are phrased as opt-outs
	DisableDedup           bool `yaml:"disable_dedup,omitempty"`
	DisableChangeDetection bool `yaml:"disable_change_detection,omitempty"`
}

// SearchConfig configures rank fusion and the query cache
type SearchConfig struct {
	RRFConstant     float64 `yaml:"rrf_k"`
	VectorWeight    float64 `yaml:"vector_weight"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	ScoreMultiplier float64 `yaml:"score_multiplier"`
	ExactMatchBoost float64 `yaml:"exact_match_boost"`
	CacheTTLSecs    int     `yaml:"cache_ttl_secs"`
}

// ResilienceConfig configures the circuit breaker and bulkhead guarding the
// embedding provider
type ResilienceConfig struct {
	FailureThreshold    int `yaml:"failure_threshold"`
	SuccessThreshold    int `yaml:"success_threshold"`
	RecoveryTimeoutSecs int `yaml:"recovery_timeout_secs"`
	MaxConcurrent       int `yaml:"max_concurrent"`
	MaxWaitSecs         int `yaml:"max_wait_secs"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Storage    StorageConfig    `yaml:"storage"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./filecontext.yaml, then ~/.config/filecontext/config.yaml.
// When neither exists the defaults are written to the user path and returned.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "filecontext.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration used when no file exists
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Validate rejects values no component can run with
func (c *AppConfig) Validate() error {
	switch c.Storage.VectorBackend {
	case "sqlite", "pgvector":
	default:
		return fmt.Errorf("unknown vector backend %q", c.Storage.VectorBackend)
	}
	switch c.Embedder.Provider {
	case "", "ollama", "openai", "local":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedder.Provider)
	}
	switch c.Indexer.Compression {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("unknown compression %q", c.Indexer.Compression)
	}
	if c.Indexer.ChunkOverlap >= c.Indexer.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			c.Indexer.ChunkOverlap, c.Indexer.ChunkSize)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "filecontext", "config.yaml"), nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "filecontext.db"
	}
	return filepath.Join(home, ".filecontext", "index.db")
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = defaultDatabasePath()
	}
	if cfg.Storage.VectorBackend == "" {
		cfg.Storage.VectorBackend = "sqlite"
	}
	if cfg.Storage.PGVectorDSNEnv == "" {
		cfg.Storage.PGVectorDSNEnv = "PGVECTOR_DSN"
	}

	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = 10000
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 20
	}

	if cfg.Indexer.ChunkSize == 0 {
		cfg.Indexer.ChunkSize = 1000
	}
	if cfg.Indexer.ChunkOverlap == 0 {
		cfg.Indexer.ChunkOverlap = 200
	}
	if cfg.Indexer.Compression == "" {
		cfg.Indexer.Compression = "zstd"
	}

	if cfg.Search.RRFConstant == 0 {
		cfg.Search.RRFConstant = 60
	}
	if cfg.Search.VectorWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.VectorWeight = 0.5
		cfg.Search.KeywordWeight = 0.5
	}
	if cfg.Search.ScoreMultiplier == 0 {
		cfg.Search.ScoreMultiplier = 3000
	}
	if cfg.Search.ExactMatchBoost == 0 {
		cfg.Search.ExactMatchBoost = 2.0
	}
	if cfg.Search.CacheTTLSecs == 0 {
		cfg.Search.CacheTTLSecs = 300
	}

	if cfg.Resilience.FailureThreshold == 0 {
		cfg.Resilience.FailureThreshold = 5
	}
	if cfg.Resilience.SuccessThreshold == 0 {
		cfg.Resilience.SuccessThreshold = 2
	}
	if cfg.Resilience.RecoveryTimeoutSecs == 0 {
		cfg.Resilience.RecoveryTimeoutSecs = 30
	}
	if cfg.Resilience.MaxConcurrent == 0 {
		cfg.Resilience.MaxConcurrent = 4
	}
	if cfg.Resilience.MaxWaitSecs == 0 {
		cfg.Resilience.MaxWaitSecs = 30
	}
}
