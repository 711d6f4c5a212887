package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexContentAndSearch(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.IndexContent(ctx, "doc1", "the quarterly revenue report shows strong growth", "/docs/q3.txt", 0)
	require.NoError(t, err)
	err = store.IndexContent(ctx, "doc2", "meeting notes from the engineering standup", "/docs/notes.txt", 0)
	require.NoError(t, err)

	hits, err := store.SearchKeyword(ctx, "revenue", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc1", hits[0].DocID)
	assert.Equal(t, "/docs/q3.txt", hits[0].FilePath)
	assert.Equal(t, 0, hits[0].ChunkIndex)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestIndexContent_Idempotent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1", "original text about cats", "/a.txt", 0))
	require.NoError(t, store.IndexContent(ctx, "doc1", "replaced text about dogs", "/a.txt", 0))

	count, err := store.CountKeywordDocs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Old content is gone
	hits, err := store.SearchKeyword(ctx, "cats", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.SearchKeyword(ctx, "dogs", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchKeyword_SnippetMarks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1",
		"authentication tokens expire after thirty minutes of inactivity", "/auth.md", 2))

	hits, err := store.SearchKeyword(ctx, "authentication", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Snippet, "<mark>")
	assert.Contains(t, hits[0].Snippet, "</mark>")
	assert.Equal(t, 2, hits[0].ChunkIndex)
}

func TestSearchKeyword_PrefixMatch(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1", "configuration management tooling", "/a.txt", 0))

	// Prefix wildcard matches partial terms
	hits, err := store.SearchKeyword(ctx, "config", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchKeyword_MultiTermOr(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1", "alpha only here", "/a.txt", 0))
	require.NoError(t, store.IndexContent(ctx, "doc2", "beta only here", "/b.txt", 0))

	// OR semantics: either term matches
	hits, err := store.SearchKeyword(ctx, "alpha beta", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchKeyword_Pagination(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	docs := []KeywordDoc{
		{DocID: "d1", Content: "shared topic one", FilePath: "/1.txt", ChunkIndex: 0},
		{DocID: "d2", Content: "shared topic two", FilePath: "/2.txt", ChunkIndex: 0},
		{DocID: "d3", Content: "shared topic three", FilePath: "/3.txt", ChunkIndex: 0},
	}
	count, err := store.IndexContentBatch(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	page1, err := store.SearchKeyword(ctx, "shared", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := store.SearchKeyword(ctx, "shared", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	// Pages don't overlap
	seen := map[string]bool{}
	for _, h := range append(page1, page2...) {
		assert.False(t, seen[h.DocID])
		seen[h.DocID] = true
	}
}

func TestSearchKeyword_EmptyQuery(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1", "some text", "/a.txt", 0))

	hits, err := store.SearchKeyword(ctx, "   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Quotes-only input sanitizes down to nothing
	hits, err = store.SearchKeyword(ctx, `"" ""`, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchKeyword_OperatorInjection(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "doc1", "plain content", "/a.txt", 0))

	// FTS5 operators in user input must not cause query errors
	for _, q := range []string{"AND", "NOT plain", "a*b", `"unclosed`, "(paren"} {
		_, err := store.SearchKeyword(ctx, q, 10, 0)
		assert.NoError(t, err, "query %q", q)
	}
}

func TestDeleteKeywordsByFilePath(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.IndexContent(ctx, "d1", "chunk zero", "/doomed.txt", 0))
	require.NoError(t, store.IndexContent(ctx, "d2", "chunk one", "/doomed.txt", 1))
	require.NoError(t, store.IndexContent(ctx, "d3", "survivor", "/kept.txt", 0))

	deleted, err := store.DeleteKeywordsByFilePath(ctx, "/doomed.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := store.CountKeywordDocs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting again reports zero
	deleted, err = store.DeleteKeywordsByFilePath(ctx, "/doomed.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestIndexContentBatch_Empty(t *testing.T) {
	store := setupTestDB(t)

	count, err := store.IndexContentBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single term", "hello", `"hello"*`},
		{"two terms", "hello world", `"hello"* OR "world"*`},
		{"strips quotes", `say "hello"`, `"say"* OR "hello"*`},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"quotes only", `""`, ""},
		{"operator neutralized", "alpha AND beta", `"alpha"* OR "AND"* OR "beta"*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildMatchQuery(tt.input))
		})
	}
}
