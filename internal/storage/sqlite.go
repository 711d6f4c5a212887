package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// ErrNotFound is returned when a requested entity doesn't exist
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertFileWithQuerier(ctx context.Context, q querier, file *types.FileRecord) error {
	query := `
		INSERT INTO files (path, category, size_bytes, mod_time, content_hash, chunk_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			category = excluded.category,
			size_bytes = excluded.size_bytes,
			mod_time = excluded.mod_time,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.Path, string(file.Category), file.Size, file.ModTime,
		file.ContentHash, file.ChunkCount, string(file.Status), now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertFile(ctx context.Context, file *types.FileRecord) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileByPathWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getFileByPathWithQuerier(ctx context.Context, q querier, path string) (*types.FileRecord, error) {
	query := `
		SELECT id, path, category, size_bytes, mod_time, content_hash, chunk_count, status
		FROM files
		WHERE path = ?
	`
	var file types.FileRecord
	err := q.QueryRowContext(ctx, query, path).Scan(
		&file.ID, &file.Path, &file.Category, &file.Size, &file.ModTime,
		&file.ContentHash, &file.ChunkCount, &file.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLiteStore) GetFileByPath(ctx context.Context, path string) (*types.FileRecord, error) {
	return s.getFileByPathWithQuerier(ctx, s.querier(), path)
}

// getFileByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*types.FileRecord, error) {
	query := `
		SELECT id, path, category, size_bytes, mod_time, content_hash, chunk_count, status
		FROM files
		WHERE id = ?
	`
	var file types.FileRecord
	err := q.QueryRowContext(ctx, query, fileID).Scan(
		&file.ID, &file.Path, &file.Category, &file.Size, &file.ModTime,
		&file.ContentHash, &file.ChunkCount, &file.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLiteStore) GetFileByID(ctx context.Context, fileID int64) (*types.FileRecord, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listFilesWithQuerier(ctx context.Context, q querier) ([]*types.FileRecord, error) {
	query := `
		SELECT id, path, category, size_bytes, mod_time, content_hash, chunk_count, status
		FROM files
		ORDER BY path
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*types.FileRecord, 0)
	for rows.Next() {
		var file types.FileRecord
		err := rows.Scan(
			&file.ID, &file.Path, &file.Category, &file.Size, &file.ModTime,
			&file.ContentHash, &file.ChunkCount, &file.Status,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, &file)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*types.FileRecord, error) {
	return s.listFilesWithQuerier(ctx, s.querier())
}

// countFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countFilesWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountFiles(ctx context.Context) (int, error) {
	return s.countFilesWithQuerier(ctx, s.querier())
}

// Chunk operations

// upsertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *types.ChunkRecord) error {
	query := `
		INSERT INTO chunks (
			file_id, chunk_index, vector_id, content_hash,
			compressed, original_size, compressed_size, compression_type,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, chunk_index) DO UPDATE SET
			vector_id = excluded.vector_id,
			content_hash = excluded.content_hash,
			compressed = excluded.compressed,
			original_size = excluded.original_size,
			compressed_size = excluded.compressed_size,
			compression_type = excluded.compression_type,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		chunk.FileID, chunk.ChunkIndex, chunk.VectorID, chunk.ContentHash,
		chunk.Compressed, chunk.OriginalSize, chunk.CompressedSize,
		string(chunk.CompressionType), now, now).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertChunk(ctx context.Context, chunk *types.ChunkRecord) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

// saveChunksBatchWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) saveChunksBatchWithQuerier(ctx context.Context, q querier, chunks []*types.ChunkRecord) error {
	for _, chunk := range chunks {
		if err := s.upsertChunkWithQuerier(ctx, q, chunk); err != nil {
			return err
		}
	}
	return nil
}

// SaveChunksBatch upserts all chunks inside a single transaction
func (s *SQLiteStore) SaveChunksBatch(ctx context.Context, chunks []*types.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveChunksBatchWithQuerier(ctx, tx, chunks); err != nil {
		return err
	}
	return tx.Commit()
}

// getChunkByHashWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getChunkByHashWithQuerier(ctx context.Context, q querier, contentHash string) (*types.ChunkRecord, error) {
	query := `
		SELECT id, file_id, chunk_index, vector_id, content_hash,
		       compressed, original_size, compressed_size, compression_type
		FROM chunks
		WHERE content_hash = ?
		ORDER BY id
		LIMIT 1
	`
	var chunk types.ChunkRecord
	err := q.QueryRowContext(ctx, query, contentHash).Scan(
		&chunk.ID, &chunk.FileID, &chunk.ChunkIndex, &chunk.VectorID, &chunk.ContentHash,
		&chunk.Compressed, &chunk.OriginalSize, &chunk.CompressedSize, &chunk.CompressionType,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (s *SQLiteStore) GetChunkByHash(ctx context.Context, contentHash string) (*types.ChunkRecord, error) {
	return s.getChunkByHashWithQuerier(ctx, s.querier(), contentHash)
}

// getChunkByLocationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getChunkByLocationWithQuerier(ctx context.Context, q querier, filePath string, chunkIndex int) (*types.ChunkRecord, error) {
	query := `
		SELECT c.id, c.file_id, c.chunk_index, c.vector_id, c.content_hash,
		       c.compressed, c.original_size, c.compressed_size, c.compression_type
		FROM chunks c
		INNER JOIN files f ON c.file_id = f.id
		WHERE f.path = ? AND c.chunk_index = ?
	`
	var chunk types.ChunkRecord
	err := q.QueryRowContext(ctx, query, filePath, chunkIndex).Scan(
		&chunk.ID, &chunk.FileID, &chunk.ChunkIndex, &chunk.VectorID, &chunk.ContentHash,
		&chunk.Compressed, &chunk.OriginalSize, &chunk.CompressedSize, &chunk.CompressionType,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (s *SQLiteStore) GetChunkByLocation(ctx context.Context, filePath string, chunkIndex int) (*types.ChunkRecord, error) {
	return s.getChunkByLocationWithQuerier(ctx, s.querier(), filePath, chunkIndex)
}

// listChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*types.ChunkRecord, error) {
	query := `
		SELECT id, file_id, chunk_index, vector_id, content_hash,
		       compressed, original_size, compressed_size, compression_type
		FROM chunks
		WHERE file_id = ?
		ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.ChunkRecord, 0)
	for rows.Next() {
		var chunk types.ChunkRecord
		err := rows.Scan(
			&chunk.ID, &chunk.FileID, &chunk.ChunkIndex, &chunk.VectorID, &chunk.ContentHash,
			&chunk.Compressed, &chunk.OriginalSize, &chunk.CompressedSize, &chunk.CompressionType,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListChunksByFile(ctx context.Context, fileID int64) ([]*types.ChunkRecord, error) {
	return s.listChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// getVectorIDsForFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getVectorIDsForFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]string, error) {
	query := `SELECT vector_id FROM chunks WHERE file_id = ? ORDER BY chunk_index`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) GetVectorIDsForFile(ctx context.Context, fileID int64) ([]string, error) {
	return s.getVectorIDsForFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM chunks WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStore) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return s.deleteChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// countChunksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countChunksWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	return s.countChunksWithQuerier(ctx, s.querier())
}

// Folder operations

// upsertFolderWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertFolderWithQuerier(ctx context.Context, q querier, folder *types.FolderRecord) error {
	query := `
		INSERT INTO folders (path, file_count, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			file_count = excluded.file_count,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		folder.Path, folder.FileCount, folder.LastIndexedAt, now, now).Scan(&folder.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert folder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertFolder(ctx context.Context, folder *types.FolderRecord) error {
	return s.upsertFolderWithQuerier(ctx, s.querier(), folder)
}

// getFolderByPathWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getFolderByPathWithQuerier(ctx context.Context, q querier, path string) (*types.FolderRecord, error) {
	query := `SELECT id, path, file_count, last_indexed_at FROM folders WHERE path = ?`
	var folder types.FolderRecord
	err := q.QueryRowContext(ctx, query, path).Scan(
		&folder.ID, &folder.Path, &folder.FileCount, &folder.LastIndexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *SQLiteStore) GetFolderByPath(ctx context.Context, path string) (*types.FolderRecord, error) {
	return s.getFolderByPathWithQuerier(ctx, s.querier(), path)
}

// listFoldersWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listFoldersWithQuerier(ctx context.Context, q querier) ([]*types.FolderRecord, error) {
	query := `SELECT id, path, file_count, last_indexed_at FROM folders ORDER BY path`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	folders := make([]*types.FolderRecord, 0)
	for rows.Next() {
		var folder types.FolderRecord
		err := rows.Scan(&folder.ID, &folder.Path, &folder.FileCount, &folder.LastIndexedAt)
		if err != nil {
			return nil, err
		}
		folders = append(folders, &folder)
	}
	return folders, rows.Err()
}

func (s *SQLiteStore) ListFolders(ctx context.Context) ([]*types.FolderRecord, error) {
	return s.listFoldersWithQuerier(ctx, s.querier())
}

// deleteFolderWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteFolderWithQuerier(ctx context.Context, q querier, folderID int64) error {
	query := `DELETE FROM folders WHERE id = ?`
	_, err := q.ExecContext(ctx, query, folderID)
	return err
}

func (s *SQLiteStore) DeleteFolder(ctx context.Context, folderID int64) error {
	return s.deleteFolderWithQuerier(ctx, s.querier(), folderID)
}

// Search history operations

// recordSearchWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) recordSearchWithQuerier(ctx context.Context, q querier, searchQuery, mode string, resultCount int) error {
	query := `INSERT INTO search_history (query, mode, result_count, created_at) VALUES (?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, searchQuery, mode, resultCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordSearch(ctx context.Context, searchQuery, mode string, resultCount int) error {
	return s.recordSearchWithQuerier(ctx, s.querier(), searchQuery, mode, resultCount)
}

// recentSearchesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) recentSearchesWithQuerier(ctx context.Context, q querier, limit int) ([]*SearchEntry, error) {
	query := `
		SELECT id, query, mode, result_count, created_at
		FROM search_history
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*SearchEntry, 0)
	for rows.Next() {
		var entry SearchEntry
		err := rows.Scan(&entry.ID, &entry.Query, &entry.Mode, &entry.ResultCount, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) RecentSearches(ctx context.Context, limit int) ([]*SearchEntry, error) {
	return s.recentSearchesWithQuerier(ctx, s.querier(), limit)
}

// clearSearchHistoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) clearSearchHistoryWithQuerier(ctx context.Context, q querier) error {
	_, err := q.ExecContext(ctx, "DELETE FROM search_history")
	return err
}

func (s *SQLiteStore) ClearSearchHistory(ctx context.Context) error {
	return s.clearSearchHistoryWithQuerier(ctx, s.querier())
}

// Status operations

func (s *SQLiteStore) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{
		FilesByStatus:       make(map[types.IndexStatus]int),
		VectorsByCollection: make(map[string]int),
	}

	// Count files by status
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM files GROUP BY status")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var st types.IndexStatus
		var count int
		if err := rows.Scan(&st, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.FilesByStatus[st] = count
		status.TotalFiles += count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Count chunks
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.TotalChunks); err != nil {
		return nil, err
	}

	// Count folders
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders").Scan(&status.TotalFolders); err != nil {
		return nil, err
	}

	// Count keyword documents
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_fts").Scan(&status.KeywordDocs); err != nil {
		return nil, err
	}

	// Count vectors per collection
	rows, err = s.db.QueryContext(ctx, "SELECT collection, COUNT(*) FROM vectors GROUP BY collection")
	if err != nil {
		return nil, err
	}
	totalVectors := 0
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.VectorsByCollection[name] = count
		totalVectors += count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Count recorded searches
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_history").Scan(&status.SearchCount); err != nil {
		return nil, err
	}

	// Schema version
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&status.SchemaVersion)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = Health{
		DatabaseAccessible: true,
		VectorIndexBuilt:   totalVectors > 0,
		FTSIndexBuilt:      true, // FTS table is created with migrations
	}

	return status, nil
}

// Transaction implementations

// Write operations use the internal helper that uses querier()

func (t *sqliteTx) UpsertFile(ctx context.Context, file *types.FileRecord) error {
	return t.store.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFileByPath(ctx context.Context, path string) (*types.FileRecord, error) {
	return t.store.getFileByPathWithQuerier(ctx, t.querier(), path)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*types.FileRecord, error) {
	return t.store.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.store.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context) ([]*types.FileRecord, error) {
	return t.store.listFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) CountFiles(ctx context.Context) (int, error) {
	return t.store.countFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *types.ChunkRecord) error {
	return t.store.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) SaveChunksBatch(ctx context.Context, chunks []*types.ChunkRecord) error {
	// Already inside a transaction, no nested one needed
	return t.store.saveChunksBatchWithQuerier(ctx, t.querier(), chunks)
}

func (t *sqliteTx) GetChunkByHash(ctx context.Context, contentHash string) (*types.ChunkRecord, error) {
	return t.store.getChunkByHashWithQuerier(ctx, t.querier(), contentHash)
}

func (t *sqliteTx) GetChunkByLocation(ctx context.Context, filePath string, chunkIndex int) (*types.ChunkRecord, error) {
	return t.store.getChunkByLocationWithQuerier(ctx, t.querier(), filePath, chunkIndex)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID int64) ([]*types.ChunkRecord, error) {
	return t.store.listChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) GetVectorIDsForFile(ctx context.Context, fileID int64) ([]string, error) {
	return t.store.getVectorIDsForFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return t.store.deleteChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) CountChunks(ctx context.Context) (int, error) {
	return t.store.countChunksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertFolder(ctx context.Context, folder *types.FolderRecord) error {
	return t.store.upsertFolderWithQuerier(ctx, t.querier(), folder)
}

func (t *sqliteTx) GetFolderByPath(ctx context.Context, path string) (*types.FolderRecord, error) {
	return t.store.getFolderByPathWithQuerier(ctx, t.querier(), path)
}

func (t *sqliteTx) ListFolders(ctx context.Context) ([]*types.FolderRecord, error) {
	return t.store.listFoldersWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteFolder(ctx context.Context, folderID int64) error {
	return t.store.deleteFolderWithQuerier(ctx, t.querier(), folderID)
}

func (t *sqliteTx) RecordSearch(ctx context.Context, searchQuery, mode string, resultCount int) error {
	return t.store.recordSearchWithQuerier(ctx, t.querier(), searchQuery, mode, resultCount)
}

func (t *sqliteTx) RecentSearches(ctx context.Context, limit int) ([]*SearchEntry, error) {
	return t.store.recentSearchesWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) ClearSearchHistory(ctx context.Context) error {
	return t.store.clearSearchHistoryWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) IndexContent(ctx context.Context, docID, content, filePath string, chunkIndex int) error {
	return t.store.indexContentWithQuerier(ctx, t.querier(), docID, content, filePath, chunkIndex)
}

func (t *sqliteTx) IndexContentBatch(ctx context.Context, docs []KeywordDoc) (int, error) {
	// Already inside a transaction, no nested one needed
	return t.store.indexContentBatchWithQuerier(ctx, t.querier(), docs)
}

func (t *sqliteTx) SearchKeyword(ctx context.Context, query string, topK, offset int) ([]KeywordHit, error) {
	return t.store.searchKeywordWithQuerier(ctx, t.querier(), query, topK, offset)
}

func (t *sqliteTx) DeleteKeywordsByFilePath(ctx context.Context, filePath string) (int, error) {
	return t.store.deleteKeywordsByFilePathWithQuerier(ctx, t.querier(), filePath)
}

func (t *sqliteTx) CountKeywordDocs(ctx context.Context) (int, error) {
	return t.store.countKeywordDocsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) CreateCollection(ctx context.Context, name string, dimension int, metric string) error {
	return t.store.createCollectionWithQuerier(ctx, t.querier(), name, dimension, metric)
}

func (t *sqliteTx) InsertVector(ctx context.Context, collection, vectorID string, vector []float32, metadata map[string]string) error {
	return t.store.insertVectorWithQuerier(ctx, t.querier(), collection, vectorID, vector, metadata)
}

func (t *sqliteTx) InsertVectorBatch(ctx context.Context, collection string, vectorIDs []string, vectors [][]float32, metadatas []map[string]string) (int, error) {
	// Already inside a transaction, no nested one needed
	return t.store.insertVectorBatchWithQuerier(ctx, t.querier(), collection, vectorIDs, vectors, metadatas)
}

func (t *sqliteTx) SearchVectors(ctx context.Context, collection string, query []float32, topK, offset int, filter map[string]string) ([]VectorHit, error) {
	return t.store.searchVectorsWithQuerier(ctx, t.querier(), collection, query, topK, offset, filter)
}

func (t *sqliteTx) DeleteVectors(ctx context.Context, collection string, vectorIDs []string) (int, error) {
	return t.store.deleteVectorsWithQuerier(ctx, t.querier(), collection, vectorIDs)
}

func (t *sqliteTx) CountVectors(ctx context.Context, collection string) (int, error) {
	return t.store.countVectorsWithQuerier(ctx, t.querier(), collection)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.store.GetStatus(ctx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions.
	// If savepoints are needed in the future, implement here.
	return nil, errors.New("nested transactions not supported")
}
