package indexer

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/filecontext-mcp/internal/chunker"
	"github.com/dshills/filecontext-mcp/internal/compressor"
	"github.com/dshills/filecontext-mcp/internal/embedder"
	"github.com/dshills/filecontext-mcp/internal/reader"
	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// EmbeddingClient is the slice of the resilient embedding client the
// orchestrator needs
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) []float32
	EmbedBatch(ctx context.Context, texts []string, progress embedder.ProgressFunc) [][]float32
	Dimension() int
}

// FolderProgress receives per-file outcomes during folder indexing
type FolderProgress func(completed, total int, result *types.IndexFileResult)

// Orchestrator drives the indexing pipeline: change detection, filename
// embedding, content extraction, chunking, deduplication, batch embedding,
// compression, and a compensating transaction across the vector store,
// keyword index, and metadata store.
type Orchestrator struct {
	store      storage.Store
	reader     reader.Reader
	splitter   *chunker.Splitter
	dedup      *DedupService
	embedder   EmbeddingClient
	compressor compressor.Compressor
	locks      *PathLocks

	changeDetection bool
	workers         int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithChangeDetection toggles the mtime short-circuit. Enabled by default.
func WithChangeDetection(enabled bool) Option {
	return func(o *Orchestrator) { o.changeDetection = enabled }
}

// WithWorkers sets the folder indexing fan-out width
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPathLockCapacity bounds the per-path lock map
func WithPathLockCapacity(n int) Option {
	return func(o *Orchestrator) { o.locks = NewPathLocks(n) }
}

// NewOrchestrator creates an indexing orchestrator
func NewOrchestrator(store storage.Store, rd reader.Reader, splitter *chunker.Splitter,
	dedup *DedupService, client EmbeddingClient, comp compressor.Compressor, opts ...Option) *Orchestrator {

	o := &Orchestrator{
		store:           store,
		reader:          rd,
		splitter:        splitter,
		dedup:           dedup,
		embedder:        client,
		compressor:      comp,
		locks:           NewPathLocks(DefaultPathLockCapacity),
		changeDetection: true,
		workers:         runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ensureCollections registers the two vector collections at the provider's
// dimension. CreateCollection is idempotent so this is safe per operation.
func (o *Orchestrator) ensureCollections(ctx context.Context) error {
	dim := o.embedder.Dimension()
	if err := o.store.CreateCollection(ctx, storage.CollectionFileNames, dim, "cosine"); err != nil {
		return err
	}
	return o.store.CreateCollection(ctx, storage.CollectionFileContents, dim, "cosine")
}

// IndexFile indexes a single file. The filename is always embedded; content
// indexing runs when indexContent is set and the file yields text. Failures
// are reported in the result rather than returned, so folder indexing can
// aggregate them.
func (o *Orchestrator) IndexFile(ctx context.Context, path string, indexContent bool) *types.IndexFileResult {
	lock := o.locks.Get(path)
	lock.Lock()
	defer lock.Unlock()

	result := &types.IndexFileResult{Path: path}

	info := o.reader.GetInfo(path)
	if !info.Exists {
		result.Error = types.ErrFileNotFound.Error()
		return result
	}

	if err := o.ensureCollections(ctx); err != nil {
		result.Error = fmt.Sprintf("prepare collections: %v", err)
		return result
	}

	file, err := o.store.GetFileByPath(ctx, path)
	switch {
	case err == storage.ErrNotFound:
		file = &types.FileRecord{
			Path:     path,
			Category: types.CategoryForPath(path),
			Size:     info.Size,
			ModTime:  info.ModTime,
			Status:   types.StatusPending,
		}
	case err != nil:
		result.Error = fmt.Sprintf("load file record: %v", err)
		return result
	default:
		if o.changeDetection && !file.HasChanged(info.ModTime) {
			// Unchanged on disk: report the cached outcome without
			// re-embedding anything.
			result.Success = true
			result.FilenameIndexed = file.Status == types.StatusFilenameIndexed ||
				file.Status == types.StatusContentIndexed
			result.ContentIndexed = file.Status == types.StatusContentIndexed
			result.ChunkCount = file.ChunkCount
			return result
		}
		file.Size = info.Size
		file.ModTime = info.ModTime
		file.Status = types.StatusPending
	}

	if err := o.store.UpsertFile(ctx, file); err != nil {
		result.Error = fmt.Sprintf("save file record: %v", err)
		return result
	}

	if msg := o.indexFilename(ctx, file); msg != "" {
		result.Error = msg
		return result
	}
	result.FilenameIndexed = true

	if !indexContent {
		result.Success = true
		return result
	}

	return o.indexFileContent(ctx, file, result)
}

// indexFilename embeds the file's base name and stores it in the filename
// collection keyed by path. A failure here fails the whole operation.
func (o *Orchestrator) indexFilename(ctx context.Context, file *types.FileRecord) string {
	vector := o.embedder.Embed(ctx, file.Filename())
	if vector == nil {
		o.markFailed(ctx, file)
		return "filename embedding unavailable"
	}

	err := o.store.InsertVector(ctx, storage.CollectionFileNames, file.Path, vector,
		map[string]string{"file_path": file.Path})
	if err != nil {
		o.markFailed(ctx, file)
		return fmt.Sprintf("store filename vector: %v", err)
	}

	file.MarkFilenameIndexed()
	if err := o.store.UpsertFile(ctx, file); err != nil {
		return fmt.Sprintf("save file record: %v", err)
	}
	return ""
}

// indexFileContent runs extraction through the compensating transaction
func (o *Orchestrator) indexFileContent(ctx context.Context, file *types.FileRecord, result *types.IndexFileResult) *types.IndexFileResult {
	content := o.reader.ReadContent(file.Path)
	if !content.Success || strings.TrimSpace(content.Text) == "" {
		// Nothing extractable is not an error: the filename stays
		// searchable and the file simply carries no content chunks.
		if content.Error != "" {
			log.Printf("indexer: no content extracted from %s: %s", file.Path, content.Error)
		}
		result.Success = true
		return result
	}

	hash := types.ComputeContentHash(content.Text)
	if file.ContentHash == hash {
		// Same content under a new mtime. Chunks and vectors are
		// already in place.
		file.MarkContentIndexed(hash, file.ChunkCount)
		if err := o.store.UpsertFile(ctx, file); err != nil {
			result.Error = fmt.Sprintf("save file record: %v", err)
			return result
		}
		result.Success = true
		result.ContentIndexed = true
		result.ChunkCount = file.ChunkCount
		return result
	}

	if err := o.clearStaleContent(ctx, file); err != nil {
		result.Error = fmt.Sprintf("clear stale content: %v", err)
		return result
	}

	texts := o.splitter.Split(content.Text)
	if len(texts) == 0 {
		result.Success = true
		return result
	}

	analysis, err := o.dedup.Analyze(ctx, file.Path, texts)
	if err != nil {
		result.Error = fmt.Sprintf("deduplicate chunks: %v", err)
		return result
	}

	newTexts := make([]string, len(analysis.NewChunks))
	for i, c := range analysis.NewChunks {
		newTexts[i] = c.Text
	}
	vectors := o.embedder.EmbedBatch(ctx, newTexts, nil)

	// Chunks whose embedding failed are excluded from the vector batch;
	// they remain keyword-searchable through their chunk text.
	insertIDs := make([]string, 0, len(vectors))
	insertVecs := make([][]float32, 0, len(vectors))
	insertMetas := make([]map[string]string, 0, len(vectors))
	embedded := 0
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		embedded++
		c := analysis.NewChunks[i]
		insertIDs = append(insertIDs, c.VectorID)
		insertVecs = append(insertVecs, vec)
		insertMetas = append(insertMetas, map[string]string{
			"file_path":   file.Path,
			"chunk_index": strconv.Itoa(c.Index),
		})
	}

	records := make([]*types.ChunkRecord, 0, len(analysis.Chunks))
	docs := make([]storage.KeywordDoc, 0, len(analysis.Chunks))
	for _, c := range analysis.Chunks {
		comp := o.compressor.Compress(c.Text)
		records = append(records, &types.ChunkRecord{
			FileID:          file.ID,
			ChunkIndex:      c.Index,
			VectorID:        c.VectorID,
			ContentHash:     c.Hash,
			Compressed:      comp.Data,
			OriginalSize:    comp.OriginalSize,
			CompressedSize:  comp.CompressedSize,
			CompressionType: comp.Type,
		})
		docs = append(docs, storage.KeywordDoc{
			// Keyword doc ids stay canonical per (path, index) even when
			// the vector id is shared through deduplication.
			DocID:      types.VectorIDFor(file.Path, c.Index),
			Content:    c.Text,
			FilePath:   file.Path,
			ChunkIndex: c.Index,
		})
	}

	prevStatus, prevHash, prevCount := file.Status, file.ContentHash, file.ChunkCount
	chunkCount := len(texts)

	tx := NewTransaction().
		AddStep("insert vectors",
			func(ctx context.Context) error {
				if len(insertIDs) == 0 {
					return nil
				}
				_, err := o.store.InsertVectorBatch(ctx, storage.CollectionFileContents, insertIDs, insertVecs, insertMetas)
				return err
			},
			func(ctx context.Context) error {
				if len(insertIDs) == 0 {
					return nil
				}
				_, err := o.store.DeleteVectors(ctx, storage.CollectionFileContents, insertIDs)
				return err
			}).
		AddStep("index keywords",
			func(ctx context.Context) error {
				_, err := o.store.IndexContentBatch(ctx, docs)
				return err
			},
			func(ctx context.Context) error {
				_, err := o.store.DeleteKeywordsByFilePath(ctx, file.Path)
				return err
			}).
		AddStep("save chunks",
			func(ctx context.Context) error {
				return o.store.SaveChunksBatch(ctx, records)
			},
			func(ctx context.Context) error {
				return o.store.DeleteChunksByFile(ctx, file.ID)
			}).
		AddStep("update file record",
			func(ctx context.Context) error {
				file.MarkContentIndexed(hash, chunkCount)
				return o.store.UpsertFile(ctx, file)
			},
			func(ctx context.Context) error {
				file.Status = prevStatus
				file.ContentHash = prevHash
				file.ChunkCount = prevCount
				return o.store.UpsertFile(ctx, file)
			})

	txResult := tx.Execute(ctx)
	result.EmbeddingsGenerated = embedded
	if txResult.State != TxCommitted {
		result.Error = txResult.Err.Error()
		return result
	}

	result.Success = true
	result.ContentIndexed = true
	result.ChunkCount = chunkCount
	result.DeduplicatedCount = len(analysis.Deduplicated)
	return result
}

// clearStaleContent removes a file's previous vectors, keyword documents,
// and chunk records before re-indexing changed content
func (o *Orchestrator) clearStaleContent(ctx context.Context, file *types.FileRecord) error {
	ids, err := o.store.GetVectorIDsForFile(ctx, file.ID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if _, err := o.store.DeleteVectors(ctx, storage.CollectionFileContents, uniqueStrings(ids)); err != nil {
			return err
		}
	}
	if _, err := o.store.DeleteKeywordsByFilePath(ctx, file.Path); err != nil {
		return err
	}
	return o.store.DeleteChunksByFile(ctx, file.ID)
}

func (o *Orchestrator) markFailed(ctx context.Context, file *types.FileRecord) {
	file.MarkFailed()
	if err := o.store.UpsertFile(ctx, file); err != nil {
		log.Printf("indexer: mark %s failed: %v", file.Path, err)
	}
}

// IndexFolder indexes every supported file under dir, fanning out across the
// configured worker count. Per-file failures are collected in the result; a
// path that is not a directory is a validation error.
func (o *Orchestrator) IndexFolder(ctx context.Context, dir string, recursive bool, progress FolderProgress) (*types.IndexFolderResult, error) {
	if !o.reader.IsDirectory(dir) {
		return nil, types.ErrNotDirectory
	}

	files, err := o.reader.ListFiles(dir, recursive, false)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	result := &types.IndexFolderResult{
		Path:       dir,
		TotalFiles: len(files),
		Errors:     make([]string, 0),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var mu sync.Mutex
	completed := 0

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileResult := o.IndexFile(gctx, path, true)

			mu.Lock()
			completed++
			done := completed
			if fileResult.Success {
				result.IndexedFiles++
				result.TotalChunks += fileResult.ChunkCount
			} else {
				result.FailedFiles++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", path, fileResult.Error))
			}
			mu.Unlock()

			if progress != nil {
				progress(done, len(files), fileResult)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	folder := &types.FolderRecord{
		Path:          dir,
		FileCount:     len(files),
		LastIndexedAt: time.Now().Unix(),
	}
	if err := o.store.UpsertFolder(ctx, folder); err != nil {
		log.Printf("indexer: record folder %s: %v", dir, err)
	}

	return result, nil
}

// RemoveFile deletes a file's vectors, keyword documents, chunks, and record
func (o *Orchestrator) RemoveFile(ctx context.Context, path string) error {
	lock := o.locks.Get(path)
	lock.Lock()
	defer lock.Unlock()

	file, err := o.store.GetFileByPath(ctx, path)
	if err == storage.ErrNotFound {
		return types.ErrFileNotFound
	}
	if err != nil {
		return err
	}

	ids, err := o.store.GetVectorIDsForFile(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("load vector ids: %w", err)
	}
	if len(ids) > 0 {
		if _, err := o.store.DeleteVectors(ctx, storage.CollectionFileContents, uniqueStrings(ids)); err != nil {
			return fmt.Errorf("delete content vectors: %w", err)
		}
	}
	if _, err := o.store.DeleteVectors(ctx, storage.CollectionFileNames, []string{path}); err != nil {
		return fmt.Errorf("delete filename vector: %w", err)
	}
	if _, err := o.store.DeleteKeywordsByFilePath(ctx, path); err != nil {
		return fmt.Errorf("delete keyword documents: %w", err)
	}
	// Chunk rows cascade with the file record
	if err := o.store.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

// DedupStats exposes the deduplication counters for status reporting
func (o *Orchestrator) DedupStats() DedupStats {
	return o.dedup.Stats()
}

// uniqueStrings removes duplicates while preserving first-seen order.
// Deduplicated chunks can repeat a vector id within one file.
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
