package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/filecontext-mcp/internal/chunker"
	"github.com/dshills/filecontext-mcp/internal/compressor"
	"github.com/dshills/filecontext-mcp/internal/config"
	"github.com/dshills/filecontext-mcp/internal/embedder"
	"github.com/dshills/filecontext-mcp/internal/indexer"
	"github.com/dshills/filecontext-mcp/internal/reader"
	"github.com/dshills/filecontext-mcp/internal/resilience"
	"github.com/dshills/filecontext-mcp/internal/searcher"
	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/internal/storage/pgvector"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// app holds the wired components every subcommand works against
type app struct {
	cfg      *config.AppConfig
	store    storage.Store
	embedder *embedder.ResilientClient
	indexer  *indexer.Orchestrator
	searcher *searcher.Searcher
}

// buildApp loads configuration and assembles storage, embedding, indexing,
// and search. Callers must Close the returned app.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	client, err := buildEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	comp := compressor.New(types.CompressionType(cfg.Indexer.Compression), 0)
	splitter := chunker.New(cfg.Indexer.ChunkSize, cfg.Indexer.ChunkOverlap)
	dedup := indexer.NewDedupService(store, !cfg.Indexer.DisableDedup)

	opts := []indexer.Option{
		indexer.WithChangeDetection(!cfg.Indexer.DisableChangeDetection),
	}
	if cfg.Indexer.Workers > 0 {
		opts = append(opts, indexer.WithWorkers(cfg.Indexer.Workers))
	}
	orch := indexer.NewOrchestrator(store, reader.NewLocal(), splitter, dedup, client, comp, opts...)

	srch, err := searcher.NewSearcher(store, client, comp, searcher.SearchConfig{
		K:               cfg.Search.RRFConstant,
		VectorWeight:    cfg.Search.VectorWeight,
		KeywordWeight:   cfg.Search.KeywordWeight,
		ScoreMultiplier: cfg.Search.ScoreMultiplier,
		ExactMatchBoost: cfg.Search.ExactMatchBoost,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    store,
		embedder: client,
		indexer:  orch,
		searcher: srch,
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

// cacheTTL converts the configured cache lifetime for search requests
func (a *app) cacheTTL() time.Duration {
	return time.Duration(a.cfg.Search.CacheTTLSecs) * time.Second
}

func loadConfig() (*config.AppConfig, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	log.Printf("config: using %s", path)
	return cfg, nil
}

func openStore(cfg *config.AppConfig) (storage.Store, error) {
	dbPath := cfg.Storage.DatabasePath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	base, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Storage.VectorBackend == "pgvector" {
		dsn := cfg.Storage.PGVectorDSN()
		if dsn == "" {
			_ = base.Close()
			return nil, fmt.Errorf("vector backend pgvector selected but %s is not set", cfg.Storage.PGVectorDSNEnv)
		}
		pg, err := pgvector.Open(dsn)
		if err != nil {
			_ = base.Close()
			return nil, fmt.Errorf("open pgvector backend: %w", err)
		}
		log.Printf("storage: vectors on pgvector, metadata on %s", dbPath)
		return storage.WithVectorStore(base, pg), nil
	}

	return base, nil
}

func buildEmbedder(cfg *config.AppConfig) (*embedder.ResilientClient, error) {
	var (
		base embedder.Embedder
		err  error
	)
	if cfg.Embedder.Provider == "" {
		base, err = embedder.NewFromEnv()
	} else {
		base, err = embedder.New(embedder.Config{
			Provider:  cfg.Embedder.Provider,
			APIKey:    cfg.Embedder.APIKey(),
			BaseURL:   cfg.Embedder.BaseURL,
			Model:     cfg.Embedder.Model,
			CacheSize: cfg.Embedder.CacheSize,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	registry := resilience.NewRegistry(
		resilience.BreakerConfig{
			FailureThreshold: cfg.Resilience.FailureThreshold,
			SuccessThreshold: cfg.Resilience.SuccessThreshold,
			RecoveryTimeout:  time.Duration(cfg.Resilience.RecoveryTimeoutSecs) * time.Second,
		},
		resilience.BulkheadConfig{
			MaxConcurrent: cfg.Resilience.MaxConcurrent,
			MaxWaitTime:   time.Duration(cfg.Resilience.MaxWaitSecs) * time.Second,
		},
	)

	return embedder.NewResilientClient(base, registry, cfg.Embedder.BatchSize), nil
}
