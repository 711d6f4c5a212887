package types

import (
	"path/filepath"
	"strings"
)

// IndexStatus tracks how far a file has progressed through the indexing pipeline
type IndexStatus string

const (
	StatusPending         IndexStatus = "pending"
	StatusFilenameIndexed IndexStatus = "filename_indexed"
	StatusContentIndexed  IndexStatus = "content_indexed"
	StatusFailed          IndexStatus = "failed"
)

// FileCategory classifies a file by how its content is extracted
type FileCategory string

const (
	CategoryText    FileCategory = "text"
	CategoryPDF     FileCategory = "pdf"
	CategoryImage   FileCategory = "image"
	CategoryUnknown FileCategory = "unknown"
)

var textExtensions = map[string]bool{
	"txt": true, "md": true, "py": true, "json": true, "csv": true,
	"xml": true, "yaml": true, "yml": true, "html": true, "htm": true,
	"css": true, "js": true, "ts": true, "jsx": true, "tsx": true,
	"java": true, "c": true, "cpp": true, "h": true, "hpp": true,
	"rs": true, "go": true, "rb": true, "sh": true, "bash": true,
	"zsh": true, "ps1": true, "bat": true, "cmd": true, "sql": true,
	"ini": true, "cfg": true, "conf": true, "toml": true,
}

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "gif": true,
	"bmp": true, "tiff": true, "ico": true, "svg": true,
}

// CategoryForPath classifies a path by its extension
func CategoryForPath(path string) FileCategory {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case textExtensions[ext]:
		return CategoryText
	case ext == "pdf":
		return CategoryPDF
	case imageExtensions[ext]:
		return CategoryImage
	default:
		return CategoryUnknown
	}
}

// IsIndexable reports whether files of this category can be indexed at all
func (c FileCategory) IsIndexable() bool {
	return c != CategoryUnknown
}

// FileRecord represents a tracked file in the metadata store
type FileRecord struct {
	ID          int64
	Path        string // Absolute path, unique
	Category    FileCategory
	Size        int64
	ModTime     int64  // Unix seconds; equality is the change-detection signal
	ContentHash string // 16-hex truncated SHA-256, empty until content indexed
	ChunkCount  int
	Status      IndexStatus
}

// Filename returns the base name of the file path
func (f *FileRecord) Filename() string {
	return filepath.Base(f.Path)
}

// Directory returns the directory portion of the file path
func (f *FileRecord) Directory() string {
	return filepath.Dir(f.Path)
}

// HasChanged reports whether the on-disk mtime differs from the stored one
func (f *FileRecord) HasChanged(mtime int64) bool {
	return f.ModTime != mtime
}

// MarkFilenameIndexed advances status to FilenameIndexed unless content
// indexing already completed
func (f *FileRecord) MarkFilenameIndexed() {
	if f.Status == StatusContentIndexed {
		return
	}
	f.Status = StatusFilenameIndexed
}

// MarkContentIndexed records the content hash and chunk count and advances
// status to ContentIndexed
func (f *FileRecord) MarkContentIndexed(hash string, chunkCount int) {
	f.ContentHash = hash
	f.ChunkCount = chunkCount
	f.Status = StatusContentIndexed
}

// MarkFailed moves the record to the Failed status
func (f *FileRecord) MarkFailed() {
	f.Status = StatusFailed
}

// ResetForReindex clears indexed state so the file is treated as new
func (f *FileRecord) ResetForReindex() {
	f.ContentHash = ""
	f.ChunkCount = 0
	f.Status = StatusPending
}

// FolderRecord tracks a folder registered for indexing
type FolderRecord struct {
	ID            int64
	Path          string // Absolute path, unique
	FileCount     int
	LastIndexedAt int64 // Unix seconds, zero if never completed
}
