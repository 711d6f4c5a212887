package types

import "errors"

// Domain errors shared across the indexing and search pipelines
var (
	// Indexing errors
	ErrFileNotFound = errors.New("file does not exist")
	ErrNotDirectory = errors.New("folder does not exist or is not a directory")

	// Search errors
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// Embedding errors
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Resilience errors
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrBulkheadFull    = errors.New("bulkhead is at capacity")
	ErrBulkheadTimeout = errors.New("timed out waiting for bulkhead slot")
)
