package indexer

import (
	"context"
	"sync"

	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// ChunkInfo classifies one chunk of a file after deduplication analysis
type ChunkInfo struct {
	Index    int    // Zero-based position within the file
	Text     string
	Hash     string
	VectorID string
	Reused   bool // True when VectorID points at an existing embedding
}

// Analysis is the outcome of deduplicating one file's chunks. Chunks holds
// every chunk in input order; NewChunks and Deduplicated partition it.
type Analysis struct {
	Chunks       []ChunkInfo
	NewChunks    []ChunkInfo
	Deduplicated []ChunkInfo
}

// DedupStats accumulates across Analyze calls until ResetStats
type DedupStats struct {
	ChunksProcessed int64
	DuplicatesFound int64
	EmbeddingsSaved int64
	BytesSaved      int64
}

// DedupService maps chunk text to existing stored chunks by content hash so
// identical text is embedded once. It is a pure cost-avoidance layer: with
// deduplication disabled every chunk is new and search results are unchanged,
// only more embedding calls are made.
type DedupService struct {
	chunks  storage.ChunkRepository
	enabled bool

	mu    sync.Mutex
	stats DedupStats
}

// NewDedupService creates a deduplication service backed by the chunk
// repository. When enabled is false Analyze classifies everything as new
// without touching the repository.
func NewDedupService(chunks storage.ChunkRepository, enabled bool) *DedupService {
	return &DedupService{chunks: chunks, enabled: enabled}
}

// Enabled reports whether deduplication is active
func (d *DedupService) Enabled() bool {
	return d.enabled
}

// Analyze classifies each chunk text as new or deduplicated. New chunks get
// the canonical vector id for their position in path; deduplicated chunks
// carry the vector id of the chunk that first stored the same text. Repeats
// inside the batch collapse onto the first occurrence's vector id, so one
// file repeating a paragraph costs one embedding.
func (d *DedupService) Analyze(ctx context.Context, path string, texts []string) (*Analysis, error) {
	analysis := &Analysis{
		Chunks: make([]ChunkInfo, 0, len(texts)),
	}

	// Hash -> vector id of the first chunk seen with that content, within
	// this batch. Checked before the repository so in-file repeats never
	// hit the database.
	batchSeen := make(map[string]string)

	for i, text := range texts {
		hash := types.ComputeContentHash(text)
		info := ChunkInfo{Index: i, Text: text, Hash: hash}

		if !d.enabled {
			info.VectorID = types.VectorIDFor(path, i)
			analysis.Chunks = append(analysis.Chunks, info)
			analysis.NewChunks = append(analysis.NewChunks, info)
			continue
		}

		if vectorID, ok := batchSeen[hash]; ok {
			info.VectorID = vectorID
			info.Reused = true
		} else if existing, err := d.chunks.GetChunkByHash(ctx, hash); err == nil {
			info.VectorID = existing.VectorID
			info.Reused = true
			batchSeen[hash] = existing.VectorID
		} else if err == storage.ErrNotFound {
			info.VectorID = types.VectorIDFor(path, i)
			batchSeen[hash] = info.VectorID
		} else {
			return nil, err
		}

		analysis.Chunks = append(analysis.Chunks, info)
		if info.Reused {
			analysis.Deduplicated = append(analysis.Deduplicated, info)
		} else {
			analysis.NewChunks = append(analysis.NewChunks, info)
		}
	}

	d.recordStats(analysis)
	return analysis, nil
}

func (d *DedupService) recordStats(analysis *Analysis) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.ChunksProcessed += int64(len(analysis.Chunks))
	d.stats.DuplicatesFound += int64(len(analysis.Deduplicated))
	d.stats.EmbeddingsSaved += int64(len(analysis.Deduplicated))
	for _, c := range analysis.Deduplicated {
		d.stats.BytesSaved += int64(len(c.Text))
	}
}

// Stats returns a snapshot of the accumulated statistics
func (d *DedupService) Stats() DedupStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the accumulated statistics
func (d *DedupService) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = DedupStats{}
}
