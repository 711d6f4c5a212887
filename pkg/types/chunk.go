package types

import (
	"errors"
	"fmt"
)

// CompressionType tags how a chunk payload is stored
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionZstd CompressionType = "zstd"
	CompressionGzip CompressionType = "gzip"
)

// ChunkRecord represents one stored content chunk of a file.
//
// VectorID is the external vector-store key. Chunks with identical content
// hashes may share a VectorID (deduplication reuse) while keeping their own
// (FileID, ChunkIndex) identity.
type ChunkRecord struct {
	// Identification
	ID         int64
	FileID     int64
	ChunkIndex int // Zero-based, unique per file
	VectorID   string

	// Content addressing
	ContentHash string

	// Compressed payload
	Compressed      []byte
	OriginalSize    int
	CompressedSize  int
	CompressionType CompressionType
}

// VectorIDFor builds the canonical vector id for a fresh (non-deduplicated)
// chunk of a file
func VectorIDFor(path string, chunkIndex int) string {
	return fmt.Sprintf("%s:chunk:%d", path, chunkIndex)
}

// Validate performs basic integrity checks on the chunk record
func (c *ChunkRecord) Validate() error {
	if c.FileID == 0 {
		return errors.New("chunk file ID is required")
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be >= 0")
	}
	if c.VectorID == "" {
		return errors.New("chunk vector ID is required")
	}
	if !ValidContentHash(c.ContentHash) {
		return fmt.Errorf("invalid content hash %q", c.ContentHash)
	}
	switch c.CompressionType {
	case CompressionNone, CompressionZstd, CompressionGzip:
	default:
		return fmt.Errorf("invalid compression type %q", c.CompressionType)
	}
	return nil
}
