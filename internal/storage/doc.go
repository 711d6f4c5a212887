// Package storage provides SQLite-based persistence for the file index.
//
// The storage layer manages:
//   - File metadata and index status
//   - Content chunks with compressed text
//   - Folder bookkeeping
//   - Vector embeddings grouped into collections
//   - Full-text keyword indexes
//   - Search history
//
// # Database Schema
//
// Tables:
//   - files: File paths, categories, sizes, hashes, and index status
//   - chunks: Chunk records with compressed content and vector IDs
//   - folders: Indexed folder paths with file counts
//   - collections: Vector collection registry (name, dimension, metric)
//   - vectors: Embeddings stored as little-endian float32 blobs
//   - content_fts: FTS5 full-text search index
//   - search_history: Recorded search queries
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.filecontext/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Store a file
//	file := &types.FileRecord{
//	    Path:     "/docs/report.pdf",
//	    Category: types.CategoryPDF,
//	    Status:   types.StatusPending,
//	}
//	err = store.UpsertFile(ctx, file)
//	// file.ID is now populated
//
// # Transactions
//
// Use transactions for atomic operations:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	// Multiple operations in transaction
//	_ = tx.UpsertFile(ctx, file)
//	_ = tx.SaveChunksBatch(ctx, chunks)
//	_, _ = tx.IndexContentBatch(ctx, docs)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Incremental Updates
//
// Check stored hashes and modification times to detect changes:
//
//	stored, err := store.GetFileByPath(ctx, path)
//	if err == nil && stored.ModTime == info.ModTime().Unix() {
//	    // File unchanged, skip re-indexing
//	    return nil
//	}
//
//	// File changed, remove stale data
//	ids, _ := store.GetVectorIDsForFile(ctx, stored.ID)
//	store.DeleteVectors(ctx, storage.CollectionFileContents, ids)
//	store.DeleteChunksByFile(ctx, stored.ID)
//
// # Vector Operations
//
// Collections must exist before vectors are inserted:
//
//	err := store.CreateCollection(ctx, storage.CollectionFileContents, 768, "cosine")
//
//	// Insert an embedding
//	err = store.InsertVector(ctx, storage.CollectionFileContents,
//	    vectorID, embedding, map[string]string{"file_path": path})
//
//	// Cosine distance search, lowest distance first
//	hits, err := store.SearchVectors(ctx, storage.CollectionFileContents,
//	    queryVector, 10, 0, nil)
//	for _, hit := range hits {
//	    fmt.Printf("%s: distance %.3f\n", hit.VectorID, hit.Distance)
//	}
//
// Distances use the cosine metric. With the sqlite-vec extension (CGO
// build) distance is computed in SQL; the pure Go build scans and ranks
// in Go.
//
// # Full-Text Search
//
// Query using BM25 ranking:
//
//	hits, err := store.SearchKeyword(ctx, "quarterly revenue", 10, 0)
//	for _, hit := range hits {
//	    fmt.Printf("%s: score %.3f %s\n", hit.FilePath, hit.Score, hit.Snippet)
//	}
//
// Snippets wrap matched terms in <mark> tags. Keyword documents are
// indexed explicitly via IndexContent or IndexContentBatch and removed
// with DeleteKeywordsByFilePath.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec,fts5"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
//
// # Performance
//
// Typical operations:
//   - Upsert file: <1ms
//   - Save chunks (batch): <10ms for 100 chunks
//   - Insert vectors (batch): <20ms for 100 embeddings
//   - Vector search (10k vectors): <100ms pure Go, <10ms with sqlite-vec
//   - Keyword search: <50ms
//
// An alternative PostgreSQL-backed vector store lives in the pgvector
// subpackage for deployments that outgrow SQLite.
package storage
