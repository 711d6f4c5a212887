package searcher

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/filecontext-mcp/internal/compressor"
	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

const testDim = 4

// stubQueryEmbedder returns canned vectors per query text; nil when marked
// unavailable
type stubQueryEmbedder struct {
	vectors     map[string][]float32
	unavailable bool
}

func (s *stubQueryEmbedder) Embed(ctx context.Context, text string) []float32 {
	if s.unavailable {
		return nil
	}
	if v, ok := s.vectors[text]; ok {
		return v
	}
	return []float32{1, 0, 0, 0}
}

type searchFixture struct {
	searcher *Searcher
	store    *storage.SQLiteStore
	embedder *stubQueryEmbedder
	comp     compressor.Compressor
	ctx      context.Context
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.CreateCollection(ctx, storage.CollectionFileNames, testDim, "cosine"))
	require.NoError(t, store.CreateCollection(ctx, storage.CollectionFileContents, testDim, "cosine"))

	emb := &stubQueryEmbedder{vectors: make(map[string][]float32)}
	comp := compressor.New(types.CompressionZstd, 3)

	s, err := NewSearcher(store, emb, comp, DefaultSearchConfig())
	require.NoError(t, err)

	return &searchFixture{searcher: s, store: store, embedder: emb, comp: comp, ctx: ctx}
}

// addNameVector registers a filename vector keyed by path
func (f *searchFixture) addNameVector(t *testing.T, path string, vec []float32) {
	t.Helper()
	err := f.store.InsertVector(f.ctx, storage.CollectionFileNames, path, vec,
		map[string]string{"file_path": path})
	require.NoError(t, err)
}

// addContentChunk stores a file record, chunk record, keyword document, and
// content vector for one chunk
func (f *searchFixture) addContentChunk(t *testing.T, path string, chunkIndex int, text string, vec []float32) {
	t.Helper()

	file, err := f.store.GetFileByPath(f.ctx, path)
	if err == storage.ErrNotFound {
		file = &types.FileRecord{
			Path:     path,
			Category: types.CategoryText,
			Size:     int64(len(text)),
			ModTime:  1,
			Status:   types.StatusContentIndexed,
		}
		require.NoError(t, f.store.UpsertFile(f.ctx, file))
	} else {
		require.NoError(t, err)
	}

	res := f.comp.Compress(text)
	vectorID := types.VectorIDFor(path, chunkIndex)
	require.NoError(t, f.store.UpsertChunk(f.ctx, &types.ChunkRecord{
		FileID:          file.ID,
		ChunkIndex:      chunkIndex,
		VectorID:        vectorID,
		ContentHash:     types.ComputeContentHash(text),
		Compressed:      res.Data,
		OriginalSize:    res.OriginalSize,
		CompressedSize:  res.CompressedSize,
		CompressionType: res.Type,
	}))
	require.NoError(t, f.store.IndexContent(f.ctx, vectorID, text, path, chunkIndex))
	if vec != nil {
		require.NoError(t, f.store.InsertVector(f.ctx, storage.CollectionFileContents, vectorID, vec,
			map[string]string{"file_path": path, "chunk_index": strconv.Itoa(chunkIndex)}))
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := f.searcher.Search(f.ctx, Request{Query: query, Mode: ModeFilename})
		assert.ErrorIs(t, err, types.ErrEmptyQuery, "query %q", query)
	}
}

func TestSearch_UnsupportedMode(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.searcher.Search(f.ctx, Request{Query: "anything", Mode: "bogus"})
	assert.ErrorContains(t, err, "unsupported search mode")
}

func TestSearch_DefaultsToHybrid(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.searcher.Search(f.ctx, Request{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, resp.Mode)
}

func TestSearch_FilenameRanking(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.vectors["python tutorial"] = []float32{1, 0, 0, 0}
	f.addNameVector(t, "/docs/python_tutorial.txt", []float32{0.95, 0.1, 0, 0})
	f.addNameVector(t, "/docs/database_design.txt", []float32{0, 1, 0, 0})

	resp, err := f.searcher.Search(f.ctx, Request{Query: "python tutorial", Mode: ModeFilename, TopK: 10})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "/docs/python_tutorial.txt", resp.Results[0].FilePath)
	assert.Equal(t, "/docs/database_design.txt", resp.Results[1].FilePath)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.Equal(t, types.MatchFilename, resp.Results[0].MatchType)
	assert.Equal(t, -1, resp.Results[0].ChunkIndex)
	assert.False(t, resp.HasMore)
}

func TestSearch_EmbedderUnavailable(t *testing.T) {
	f := newSearchFixture(t)
	f.addNameVector(t, "/docs/a.txt", []float32{1, 0, 0, 0})
	f.embedder.unavailable = true

	for _, mode := range []SearchMode{ModeFilename, ModeContent, ModeHybrid} {
		resp, err := f.searcher.Search(f.ctx, Request{Query: "anything", Mode: mode})
		require.NoError(t, err, "mode %s", mode)
		assert.Empty(t, resp.Results, "mode %s", mode)
		assert.False(t, resp.HasMore)
	}
}

func TestSearch_ContentSnippets(t *testing.T) {
	f := newSearchFixture(t)
	f.addContentChunk(t, "/docs/notes.txt", 0, "meeting notes about the rollout plan", []float32{1, 0, 0, 0})

	resp, err := f.searcher.Search(f.ctx, Request{Query: "rollout", Mode: ModeContent, TopK: 5})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, "/docs/notes.txt", r.FilePath)
	assert.Equal(t, 0, r.ChunkIndex)
	assert.Equal(t, types.MatchContent, r.MatchType)
	assert.Equal(t, "meeting notes about the rollout plan", r.Snippet)
	assert.InDelta(t, 100, r.Score, 0.01)
}

func TestSearch_SnippetTruncated(t *testing.T) {
	f := newSearchFixture(t)
	long := strings.Repeat("x", 700)
	f.addContentChunk(t, "/docs/big.txt", 0, long, []float32{1, 0, 0, 0})

	resp, err := f.searcher.Search(f.ctx, Request{Query: "anything", Mode: ModeContent, TopK: 5})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	snippet := resp.Results[0].Snippet
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.Len(t, []rune(snippet), maxSnippetRunes+len("..."))
}

func TestSearch_Pagination(t *testing.T) {
	f := newSearchFixture(t)
	vectors := [][]float32{
		{1, 0, 0, 0},
		{1, 0.2, 0, 0},
		{1, 0.5, 0, 0},
		{1, 1, 0, 0},
		{0, 1, 0, 0},
	}
	paths := []string{"/d/p0.txt", "/d/p1.txt", "/d/p2.txt", "/d/p3.txt", "/d/p4.txt"}
	for i, p := range paths {
		f.addContentChunk(t, p, 0, "chunk body", vectors[i])
	}

	first, err := f.searcher.Search(f.ctx, Request{Query: "q", Mode: ModeContent, TopK: 2})
	require.NoError(t, err)
	require.Len(t, first.Results, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, paths[0], first.Results[0].FilePath)
	assert.Equal(t, paths[1], first.Results[1].FilePath)

	middle, err := f.searcher.Search(f.ctx, Request{Query: "q", Mode: ModeContent, TopK: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, middle.Results, 2)
	assert.True(t, middle.HasMore)
	assert.Equal(t, paths[2], middle.Results[0].FilePath)

	last, err := f.searcher.Search(f.ctx, Request{Query: "q", Mode: ModeContent, TopK: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last.Results, 1)
	assert.False(t, last.HasMore)
	assert.Equal(t, paths[4], last.Results[0].FilePath)

	beyond, err := f.searcher.Search(f.ctx, Request{Query: "q", Mode: ModeContent, TopK: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
	assert.False(t, beyond.HasMore)
}

func TestSearch_HybridAgreementWins(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.vectors["epsilon"] = []float32{1, 0, 0, 0}

	// A: closest vector, no keyword match. B: weaker vector but matches the
	// keyword leg. C: keyword only.
	f.addContentChunk(t, "/docs/a.txt", 0, "unrelated wording entirely", []float32{1, 0.1, 0, 0})
	f.addContentChunk(t, "/docs/b.txt", 0, "epsilon epsilon appears in this report", []float32{1, 0.6, 0, 0})
	f.addContentChunk(t, "/docs/c.txt", 0, "epsilon mentioned once here", nil)

	resp, err := f.searcher.Search(f.ctx, Request{Query: "epsilon", Mode: ModeHybrid, TopK: 10})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "/docs/b.txt", resp.Results[0].FilePath, "the chunk both rankers agree on ranks first")
	assert.Equal(t, types.MatchHybrid, resp.Results[0].MatchType)
	assert.Contains(t, resp.Results[0].Snippet, "<mark>")

	paths := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		assert.LessOrEqual(t, r.Score, 100.0)
		paths = append(paths, r.FilePath)
	}
	assert.ElementsMatch(t, []string{"/docs/a.txt", "/docs/b.txt", "/docs/c.txt"}, paths)
}

// keywordFailingStore forces the keyword leg down
type keywordFailingStore struct {
	storage.Store
}

func (k *keywordFailingStore) SearchKeyword(ctx context.Context, query string, topK, offset int) ([]storage.KeywordHit, error) {
	return nil, errors.New("fts index corrupted")
}

func TestSearch_HybridDegradesWithoutKeywordLeg(t *testing.T) {
	f := newSearchFixture(t)
	f.addContentChunk(t, "/docs/a.txt", 0, "vector only result", []float32{1, 0, 0, 0})

	s, err := NewSearcher(&keywordFailingStore{Store: f.store}, f.embedder, f.comp, DefaultSearchConfig())
	require.NoError(t, err)

	resp, err := s.Search(f.ctx, Request{Query: "anything", Mode: ModeHybrid, TopK: 5})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "/docs/a.txt", resp.Results[0].FilePath)
}

func TestSearch_CombinedDedupsContentByPath(t *testing.T) {
	f := newSearchFixture(t)
	f.addNameVector(t, "/docs/x.txt", []float32{1, 1, 0, 0})
	f.addContentChunk(t, "/docs/x.txt", 0, "first chunk", []float32{1, 0, 0, 0})
	f.addContentChunk(t, "/docs/x.txt", 1, "second chunk", []float32{1, 0.5, 0, 0})

	resp, err := f.searcher.Search(f.ctx, Request{Query: "anything", Mode: ModeCombined, TopK: 6})
	require.NoError(t, err)

	var contentHits, filenameHits []types.SearchResult
	for _, r := range resp.Results {
		switch r.MatchType {
		case types.MatchContent:
			contentHits = append(contentHits, r)
		case types.MatchFilename:
			filenameHits = append(filenameHits, r)
		}
	}

	// Both chunks belong to the same file: only the best survives
	require.Len(t, contentHits, 1)
	assert.Equal(t, 0, contentHits[0].ChunkIndex)
	require.Len(t, filenameHits, 1)
	assert.Equal(t, "/docs/x.txt", filenameHits[0].FilePath)
}

func TestSearch_HistoryRecordedOnFirstPageOnly(t *testing.T) {
	f := newSearchFixture(t)
	f.addNameVector(t, "/docs/a.txt", []float32{1, 0, 0, 0})

	_, err := f.searcher.Search(f.ctx, Request{Query: "alpha", Mode: ModeFilename, TopK: 5})
	require.NoError(t, err)

	entries, err := f.searcher.History(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alpha", entries[0].Query)
	assert.Equal(t, string(ModeFilename), entries[0].Mode)
	assert.Equal(t, 1, entries[0].ResultCount)

	_, err = f.searcher.Search(f.ctx, Request{Query: "alpha", Mode: ModeFilename, TopK: 5, Offset: 5})
	require.NoError(t, err)

	entries, err = f.searcher.History(f.ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "offset pages must not append history")
}

func TestSearch_CacheRoundTrip(t *testing.T) {
	f := newSearchFixture(t)
	f.addNameVector(t, "/docs/a.txt", []float32{1, 0, 0, 0})

	req := Request{Query: "alpha", Mode: ModeFilename, TopK: 5, UseCache: true}

	first, err := f.searcher.Search(f.ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := f.searcher.Search(f.ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)

	// A different page is a different cache key
	offsetReq := req
	offsetReq.Offset = 5
	third, err := f.searcher.Search(f.ctx, offsetReq)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)

	f.searcher.InvalidateCache()
	fourth, err := f.searcher.Search(f.ctx, req)
	require.NoError(t, err)
	assert.False(t, fourth.CacheHit)
}

func TestSearch_CachedResultsAreIsolated(t *testing.T) {
	f := newSearchFixture(t)
	f.addNameVector(t, "/docs/a.txt", []float32{1, 0, 0, 0})

	req := Request{Query: "alpha", Mode: ModeFilename, TopK: 5, UseCache: true}

	first, err := f.searcher.Search(f.ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)
	first.Results[0].FilePath = "/mutated.txt"

	second, err := f.searcher.Search(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "/docs/a.txt", second.Results[0].FilePath)
}

func TestSimilarityPercent(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 100},
		{0.5, 75},
		{1, 50},
		{2, 0},
		{2.5, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, similarityPercent(tt.distance), 1e-9, "distance %g", tt.distance)
	}
}

func TestNormalizeScore_Caps(t *testing.T) {
	assert.InDelta(t, 50, normalizeScore(0.05, 1000), 1e-9)
	assert.InDelta(t, 100, normalizeScore(0.05, 3000), 1e-9)
}
