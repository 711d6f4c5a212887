package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testFile(path string) *types.FileRecord {
	return &types.FileRecord{
		Path:     path,
		Category: types.CategoryText,
		Size:     1024,
		ModTime:  1700000000,
		Status:   types.StatusPending,
	}
}

func TestUpsertFile(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/docs/notes.md")
	err := store.UpsertFile(ctx, file)
	require.NoError(t, err)
	assert.NotZero(t, file.ID)

	// Upserting the same path keeps the same ID and updates fields
	firstID := file.ID
	file.Size = 2048
	file.Status = types.StatusContentIndexed
	err = store.UpsertFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, firstID, file.ID)

	got, err := store.GetFileByPath(ctx, "/docs/notes.md")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), got.Size)
	assert.Equal(t, types.StatusContentIndexed, got.Status)
	assert.Equal(t, types.CategoryText, got.Category)
}

func TestGetFileByPath_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetFileByPath(context.Background(), "/missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFileByID(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/a.txt")
	require.NoError(t, store.UpsertFile(ctx, file))

	got, err := store.GetFileByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a.txt", got.Path)

	_, err = store.GetFileByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFile_CascadesChunks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/b.txt")
	require.NoError(t, store.UpsertFile(ctx, file))

	chunk := &types.ChunkRecord{
		FileID:          file.ID,
		ChunkIndex:      0,
		VectorID:        types.VectorIDFor("/b.txt", 0),
		ContentHash:     "0123456789abcdef",
		Compressed:      []byte("payload"),
		OriginalSize:    7,
		CompressedSize:  7,
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	require.NoError(t, store.DeleteFile(ctx, file.ID))

	_, err := store.GetFileByID(ctx, file.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListFiles(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFile(ctx, testFile("/z.txt")))
	require.NoError(t, store.UpsertFile(ctx, testFile("/a.txt")))

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.txt", files[0].Path)
	assert.Equal(t, "/z.txt", files[1].Path)

	count, err := store.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsertChunk(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/c.txt")
	require.NoError(t, store.UpsertFile(ctx, file))

	chunk := &types.ChunkRecord{
		FileID:          file.ID,
		ChunkIndex:      0,
		VectorID:        types.VectorIDFor("/c.txt", 0),
		ContentHash:     "aaaaaaaaaaaaaaaa",
		Compressed:      []byte("first"),
		OriginalSize:    5,
		CompressedSize:  5,
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, chunk))
	assert.NotZero(t, chunk.ID)

	// Same (file, index) updates in place
	firstID := chunk.ID
	chunk.ContentHash = "bbbbbbbbbbbbbbbb"
	chunk.Compressed = []byte("second")
	require.NoError(t, store.UpsertChunk(ctx, chunk))
	assert.Equal(t, firstID, chunk.ID)

	got, err := store.GetChunkByLocation(ctx, "/c.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbbbbbbbbbb", got.ContentHash)
	assert.Equal(t, []byte("second"), got.Compressed)
}

func TestSaveChunksBatch(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/d.txt")
	require.NoError(t, store.UpsertFile(ctx, file))

	chunks := []*types.ChunkRecord{}
	for i := 0; i < 3; i++ {
		chunks = append(chunks, &types.ChunkRecord{
			FileID:          file.ID,
			ChunkIndex:      i,
			VectorID:        types.VectorIDFor("/d.txt", i),
			ContentHash:     "cccccccccccccccc",
			CompressionType: types.CompressionZstd,
		})
	}
	require.NoError(t, store.SaveChunksBatch(ctx, chunks))

	for _, c := range chunks {
		assert.NotZero(t, c.ID)
	}

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetChunkByHash_ReturnsOldest(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	fileA := testFile("/first.txt")
	require.NoError(t, store.UpsertFile(ctx, fileA))
	fileB := testFile("/second.txt")
	require.NoError(t, store.UpsertFile(ctx, fileB))

	hash := "deadbeefdeadbeef"
	older := &types.ChunkRecord{
		FileID: fileA.ID, ChunkIndex: 0,
		VectorID: types.VectorIDFor("/first.txt", 0), ContentHash: hash,
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, older))

	newer := &types.ChunkRecord{
		FileID: fileB.ID, ChunkIndex: 0,
		VectorID: types.VectorIDFor("/second.txt", 0), ContentHash: hash,
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, newer))

	got, err := store.GetChunkByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = store.GetChunkByHash(ctx, "0000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListChunksByFile_Ordered(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/e.txt")
	require.NoError(t, store.UpsertFile(ctx, file))

	// Insert out of order
	for _, idx := range []int{2, 0, 1} {
		chunk := &types.ChunkRecord{
			FileID: file.ID, ChunkIndex: idx,
			VectorID: types.VectorIDFor("/e.txt", idx), ContentHash: "1111111111111111",
			CompressionType: types.CompressionNone,
		}
		require.NoError(t, store.UpsertChunk(ctx, chunk))
	}

	chunks, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}

	ids, err := store.GetVectorIDsForFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		types.VectorIDFor("/e.txt", 0),
		types.VectorIDFor("/e.txt", 1),
		types.VectorIDFor("/e.txt", 2),
	}, ids)
}

func TestDeleteChunksByFile(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	file := testFile("/f.txt")
	require.NoError(t, store.UpsertFile(ctx, file))
	chunk := &types.ChunkRecord{
		FileID: file.ID, ChunkIndex: 0,
		VectorID: types.VectorIDFor("/f.txt", 0), ContentHash: "2222222222222222",
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	require.NoError(t, store.DeleteChunksByFile(ctx, file.ID))

	chunks, err := store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFolderOperations(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	folder := &types.FolderRecord{Path: "/docs", FileCount: 10, LastIndexedAt: 1700000000}
	require.NoError(t, store.UpsertFolder(ctx, folder))
	assert.NotZero(t, folder.ID)

	// Upsert updates in place
	folder.FileCount = 12
	require.NoError(t, store.UpsertFolder(ctx, folder))

	got, err := store.GetFolderByPath(ctx, "/docs")
	require.NoError(t, err)
	assert.Equal(t, 12, got.FileCount)

	_, err = store.GetFolderByPath(ctx, "/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpsertFolder(ctx, &types.FolderRecord{Path: "/archive"}))
	folders, err := store.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "/archive", folders[0].Path)

	require.NoError(t, store.DeleteFolder(ctx, folder.ID))
	folders, err = store.ListFolders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestSearchHistory(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSearch(ctx, "first query", "hybrid", 5))
	require.NoError(t, store.RecordSearch(ctx, "second query", "filename", 2))
	require.NoError(t, store.RecordSearch(ctx, "third query", "content", 0))

	entries, err := store.RecentSearches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "third query", entries[0].Query)
	assert.Equal(t, "content", entries[0].Mode)
	assert.Equal(t, 0, entries[0].ResultCount)
	assert.Equal(t, "second query", entries[1].Query)
	assert.False(t, entries[0].CreatedAt.IsZero())

	require.NoError(t, store.ClearSearchHistory(ctx))
	entries, err = store.RecentSearches(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetStatus(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	fileA := testFile("/a.txt")
	fileA.Status = types.StatusContentIndexed
	require.NoError(t, store.UpsertFile(ctx, fileA))
	fileB := testFile("/b.txt")
	require.NoError(t, store.UpsertFile(ctx, fileB))

	chunk := &types.ChunkRecord{
		FileID: fileA.ID, ChunkIndex: 0,
		VectorID: types.VectorIDFor("/a.txt", 0), ContentHash: "3333333333333333",
		CompressionType: types.CompressionNone,
	}
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	require.NoError(t, store.CreateCollection(ctx, CollectionFileNames, 3, "cosine"))
	require.NoError(t, store.InsertVector(ctx, CollectionFileNames, "/a.txt", []float32{1, 0, 0}, nil))

	require.NoError(t, store.IndexContent(ctx, "doc1", "hello world", "/a.txt", 0))
	require.NoError(t, store.RecordSearch(ctx, "hello", "hybrid", 1))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 1, status.FilesByStatus[types.StatusContentIndexed])
	assert.Equal(t, 1, status.FilesByStatus[types.StatusPending])
	assert.Equal(t, 1, status.TotalChunks)
	assert.Equal(t, 1, status.KeywordDocs)
	assert.Equal(t, 1, status.VectorsByCollection[CollectionFileNames])
	assert.Equal(t, 1, status.SearchCount)
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.VectorIndexBuilt)
	assert.True(t, status.Health.FTSIndexBuilt)
	assert.Greater(t, status.IndexSizeMB, 0.0)
}

func TestTransaction_Commit(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("/tx.txt")
	require.NoError(t, tx.UpsertFile(ctx, file))

	require.NoError(t, tx.Commit())

	got, err := store.GetFileByPath(ctx, "/tx.txt")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
}

func TestTransaction_Rollback(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("/rolled-back.txt")
	require.NoError(t, tx.UpsertFile(ctx, file))
	require.NoError(t, tx.Rollback())

	_, err = store.GetFileByPath(ctx, "/rolled-back.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_NestedNotSupported(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}

func TestMigrations_Version(t *testing.T) {
	store := setupTestDB(t)

	var version string
	err := store.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
