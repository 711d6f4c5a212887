// Package indexer coordinates the end-to-end file indexing pipeline.
//
// The orchestrator drives change detection, filename embedding, content
// extraction, chunking, deduplication, batch embedding, compression, and
// storage, keeping the vector index, keyword index, and metadata store
// consistent through compensating transactions.
//
// # Basic Usage
//
//	orch := indexer.NewOrchestrator(store, rd, splitter, dedup, client, comp,
//	    indexer.WithWorkers(8))
//
//	result := orch.IndexFile(ctx, "/docs/design.md", true)
//	if !result.Success {
//	    log.Printf("index failed: %s", result.Error)
//	}
//
//	folder, err := orch.IndexFolder(ctx, "/docs", true, nil)
//
// # Indexing Pipeline
//
// IndexFile executes a multi-stage pipeline:
//
//  1. Change Detection: Compare stored mtime, skip unchanged files
//  2. Filename Embedding: Embed the base name into the file_names collection
//  3. Content Extraction: Read text through the reader's category extractors
//  4. Chunk & Deduplicate: Split into overlapping chunks, reuse vectors for
//     previously seen content hashes
//  5. Embed & Compress: Batch-embed new chunks, compress every chunk body
//  6. Store: Write vectors, keyword documents, and chunk records through a
//     compensating transaction
//
// # Change Detection
//
// Files are skipped when their modification time matches the stored record:
//
//	// First index: embeds filename and content
//	r1 := orch.IndexFile(ctx, path, true)
//
//	// Unchanged file: cached outcome, no embedding calls
//	r2 := orch.IndexFile(ctx, path, true)
//
// When the mtime moved but a content hash comparison shows identical text,
// the existing chunks and vectors are kept and only the record is refreshed.
// Disable the short-circuit with WithChangeDetection(false) to force a full
// re-index.
//
// # Deduplication
//
// Chunk content hashes are checked against previously stored chunks. A chunk
// whose hash already exists reuses the stored chunk's vector id instead of
// generating a new embedding, which makes re-indexing moved or copied
// content cheap:
//
//	result := orch.IndexFile(ctx, path, true)
//	// result.ChunkCount:          12
//	// result.DeduplicatedCount:   9
//	// result.EmbeddingsGenerated: 3
//
// Keyword documents are never deduplicated; every chunk stays independently
// keyword-searchable under its own (path, index) document id.
//
// # Compensating Transactions
//
// Content writes span the vector table, the FTS index, and the chunk rows.
// Each write step carries a compensation that undoes it; when a step fails,
// completed steps are rolled back in reverse order and the failure is
// reported on the result:
//
//	tx := NewTransaction().
//	    AddStep("insert vectors", insertFn, deleteFn).
//	    AddStep("index keywords", indexFn, removeFn)
//	res := tx.Execute(ctx)
//	// res.State == TxCommitted or TxRolledBack
//
// Compensation failures are logged and collected but never mask the original
// error.
//
// # Concurrent Folder Indexing
//
// IndexFolder fans out across a bounded worker pool and aggregates per-file
// outcomes; one bad file never aborts the folder:
//
//	result, err := orch.IndexFolder(ctx, dir, true, func(done, total int, r *types.IndexFileResult) {
//	    fmt.Printf("%d/%d %s\n", done, total, r.Path)
//	})
//	// result.IndexedFiles, result.FailedFiles, result.Errors
//
// Per-path mutexes serialize concurrent operations on the same file, so
// overlapping IndexFile and RemoveFile calls cannot interleave writes.
//
// # Error Handling
//
// IndexFile reports failures in the result rather than returning an error:
//
//	result := orch.IndexFile(ctx, path, true)
//	if !result.Success {
//	    // result.Error carries the reason, e.g. "file not found"
//	}
//
// Only validation failures surface as errors, such as IndexFolder on a path
// that is not a directory. Extraction failures are non-fatal: a file whose
// content cannot be read keeps its filename indexed and simply carries no
// chunks. Individual embedding failures exclude the affected chunks from the
// vector batch while their text stays keyword-searchable.
package indexer
