package storage

import (
	"context"
	"time"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// FileRepository persists file metadata records keyed by absolute path
type FileRepository interface {
	// UpsertFile inserts or updates a record by path, assigning ID on insert
	UpsertFile(ctx context.Context, file *types.FileRecord) error
	GetFileByPath(ctx context.Context, path string) (*types.FileRecord, error)
	GetFileByID(ctx context.Context, fileID int64) (*types.FileRecord, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context) ([]*types.FileRecord, error)
	CountFiles(ctx context.Context) (int, error)
}

// ChunkRepository persists chunk records and serves content-hash lookups
// for deduplication
type ChunkRepository interface {
	UpsertChunk(ctx context.Context, chunk *types.ChunkRecord) error
	SaveChunksBatch(ctx context.Context, chunks []*types.ChunkRecord) error
	// GetChunkByHash returns the oldest chunk carrying the given content hash
	GetChunkByHash(ctx context.Context, contentHash string) (*types.ChunkRecord, error)
	// GetChunkByLocation resolves a chunk by owning file path and chunk index
	GetChunkByLocation(ctx context.Context, filePath string, chunkIndex int) (*types.ChunkRecord, error)
	// ListChunksByFile returns a file's chunks ordered by chunk index
	ListChunksByFile(ctx context.Context, fileID int64) ([]*types.ChunkRecord, error)
	GetVectorIDsForFile(ctx context.Context, fileID int64) ([]string, error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error
	CountChunks(ctx context.Context) (int, error)
}

// FolderRepository tracks folders registered for indexing
type FolderRepository interface {
	UpsertFolder(ctx context.Context, folder *types.FolderRecord) error
	GetFolderByPath(ctx context.Context, path string) (*types.FolderRecord, error)
	ListFolders(ctx context.Context) ([]*types.FolderRecord, error)
	DeleteFolder(ctx context.Context, folderID int64) error
}

// SearchHistory records completed top-level searches
type SearchHistory interface {
	RecordSearch(ctx context.Context, query, mode string, resultCount int) error
	// RecentSearches returns history entries, newest first
	RecentSearches(ctx context.Context, limit int) ([]*SearchEntry, error)
	ClearSearchHistory(ctx context.Context) error
}

// KeywordIndex is the BM25 keyword-search surface backed by FTS5
type KeywordIndex interface {
	// IndexContent replaces any document with the same docID, then inserts.
	// chunkIndex is -1 for documents that are not content chunks.
	IndexContent(ctx context.Context, docID, content, filePath string, chunkIndex int) error
	IndexContentBatch(ctx context.Context, docs []KeywordDoc) (int, error)
	SearchKeyword(ctx context.Context, query string, topK, offset int) ([]KeywordHit, error)
	DeleteKeywordsByFilePath(ctx context.Context, filePath string) (int, error)
	CountKeywordDocs(ctx context.Context) (int, error)
}

// VectorStore stores embeddings grouped into named collections
type VectorStore interface {
	CreateCollection(ctx context.Context, name string, dimension int, metric string) error
	// InsertVector upserts one embedding keyed by (collection, vectorID)
	InsertVector(ctx context.Context, collection, vectorID string, vector []float32, metadata map[string]string) error
	InsertVectorBatch(ctx context.Context, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error)
	// SearchVectors returns the closest vectors ordered by ascending cosine
	// distance. filter, when non-empty, keeps only vectors whose metadata
	// contains every given key/value pair.
	SearchVectors(ctx context.Context, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error)
	DeleteVectors(ctx context.Context, collection string, vectorIDs []string) (int, error)
	CountVectors(ctx context.Context, collection string) (int, error)
}

// Store aggregates every persistence surface backed by one SQLite database
type Store interface {
	FileRepository
	ChunkRepository
	FolderRepository
	SearchHistory
	KeywordIndex
	VectorStore

	GetStatus(ctx context.Context) (*Status, error)
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// SearchEntry is one recorded search history row
type SearchEntry struct {
	ID          int64
	Query       string
	Mode        string
	ResultCount int
	CreatedAt   time.Time
}

// KeywordDoc is one document for batch keyword indexing
type KeywordDoc struct {
	DocID      string
	Content    string
	FilePath   string
	ChunkIndex int
}

// KeywordHit is a BM25-ranked keyword match
type KeywordHit struct {
	DocID      string
	FilePath   string
	ChunkIndex int
	Score      float64 // Higher is better
	Snippet    string
}

// VectorHit is a distance-ranked vector match
type VectorHit struct {
	VectorID string
	Distance float64 // Cosine distance, lower is better
	Metadata map[string]string
}

// Status contains statistics about the index
type Status struct {
	TotalFiles          int
	FilesByStatus       map[types.IndexStatus]int
	TotalChunks         int
	TotalFolders        int
	KeywordDocs         int
	VectorsByCollection map[string]int
	SearchCount         int
	IndexSizeMB         float64
	SchemaVersion       string
	Health              Health
}

// Health represents the health of the index
type Health struct {
	DatabaseAccessible bool
	VectorIndexBuilt   bool
	FTSIndexBuilt      bool
}
