package searcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SearchConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *SearchConfig) {}},
		{
			name:    "zero k",
			mutate:  func(c *SearchConfig) { c.K = 0 },
			wantErr: "rrf constant",
		},
		{
			name:    "negative weight",
			mutate:  func(c *SearchConfig) { c.VectorWeight = -0.1 },
			wantErr: "non-negative",
		},
		{
			name:    "both weights zero",
			mutate:  func(c *SearchConfig) { c.VectorWeight, c.KeywordWeight = 0, 0 },
			wantErr: "at least one",
		},
		{
			name:    "zero multiplier",
			mutate:  func(c *SearchConfig) { c.ScoreMultiplier = 0 },
			wantErr: "score multiplier",
		},
		{
			name:    "boost below one",
			mutate:  func(c *SearchConfig) { c.ExactMatchBoost = 0.5 },
			wantErr: "exact match boost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultSearchConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func newTestCombiner(t *testing.T, config SearchConfig) *Combiner {
	t.Helper()
	c, err := NewCombiner(config)
	require.NoError(t, err)
	return c
}

func TestCombine_AgreementOutranksSingleRanker(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	vectorHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0},
		{FilePath: "/docs/b.txt", ChunkIndex: 0},
	}
	keywordHits := []RankedHit{
		{FilePath: "/docs/b.txt", ChunkIndex: 0},
		{FilePath: "/docs/c.txt", ChunkIndex: 0},
	}

	fused := c.Combine(vectorHits, keywordHits, 10)

	// B appears in both rankers and must beat A and C, which appear once
	require.Len(t, fused, 3)
	assert.Equal(t, "/docs/b.txt", fused[0].FilePath)
	assert.Equal(t, "/docs/a.txt", fused[1].FilePath)
	assert.Equal(t, "/docs/c.txt", fused[2].FilePath)

	assert.True(t, fused[0].InBoth())
	assert.False(t, fused[1].InBoth())

	// rrf(B) = 0.5/(60+2) + 0.5/(60+1); rrf(A) = 0.5/(60+1)
	assert.InDelta(t, 0.5/62+0.5/61, fused[0].Score, 1e-9)
	assert.InDelta(t, 0.5/61, fused[1].Score, 1e-9)
	assert.InDelta(t, 0.5/62, fused[2].Score, 1e-9)
}

func TestCombine_ChunkIndexScopesTheKey(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	vectorHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0},
		{FilePath: "/docs/a.txt", ChunkIndex: 1},
	}
	keywordHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 1},
		{FilePath: "/docs/a.txt", ChunkIndex: -1},
	}

	fused := c.Combine(vectorHits, keywordHits, 10)

	// Chunks 0 and 1 are distinct keys; the file-level hit is a third
	require.Len(t, fused, 3)
	assert.Equal(t, 1, fused[0].ChunkIndex)
	assert.True(t, fused[0].InBoth())
}

func TestCombine_SnippetPrefersKeyword(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	vectorHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0, Snippet: "plain vector snippet"},
		{FilePath: "/docs/b.txt", ChunkIndex: 0, Snippet: "kept vector snippet"},
	}
	keywordHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0, Snippet: "<mark>highlighted</mark>"},
		{FilePath: "/docs/b.txt", ChunkIndex: 0, Snippet: ""},
	}

	fused := c.Combine(vectorHits, keywordHits, 10)
	require.Len(t, fused, 2)

	byPath := map[string]FusedHit{}
	for _, f := range fused {
		byPath[f.FilePath] = f
	}
	assert.Equal(t, "<mark>highlighted</mark>", byPath["/docs/a.txt"].Snippet)
	assert.Equal(t, "kept vector snippet", byPath["/docs/b.txt"].Snippet)
}

func TestCombine_AbsentListContributesZero(t *testing.T) {
	config := DefaultSearchConfig()
	config.VectorWeight = 1.0
	config.KeywordWeight = 1.0
	c := newTestCombiner(t, config)

	vectorHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0},
		{FilePath: "/docs/b.txt", ChunkIndex: 0},
	}

	fused := c.Combine(vectorHits, nil, 10)

	require.Len(t, fused, 2)
	assert.InDelta(t, 1.0/61, fused[0].Score, 1e-9)
	assert.InDelta(t, 1.0/62, fused[1].Score, 1e-9)
}

func TestCombine_TruncatesToTopK(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	var vectorHits []RankedHit
	for i := 0; i < 10; i++ {
		vectorHits = append(vectorHits, RankedHit{FilePath: fmt.Sprintf("/docs/f%02d.txt", i), ChunkIndex: 0})
	}

	fused := c.Combine(vectorHits, nil, 3)
	require.Len(t, fused, 3)
	assert.Equal(t, "/docs/f00.txt", fused[0].FilePath)
}

func TestCombine_DeterministicTieBreak(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	// Same rank in different rankers yields identical scores
	vectorHits := []RankedHit{{FilePath: "/docs/zeta.txt", ChunkIndex: 0}}
	keywordHits := []RankedHit{{FilePath: "/docs/alpha.txt", ChunkIndex: 0}}

	for i := 0; i < 5; i++ {
		fused := c.Combine(vectorHits, keywordHits, 10)
		require.Len(t, fused, 2)
		assert.Equal(t, "/docs/alpha.txt", fused[0].FilePath)
		assert.Equal(t, "/docs/zeta.txt", fused[1].FilePath)
	}
}

func TestCombineWithBoost_DoublesAgreedKeys(t *testing.T) {
	c := newTestCombiner(t, DefaultSearchConfig())

	vectorHits := []RankedHit{
		{FilePath: "/docs/a.txt", ChunkIndex: 0},
		{FilePath: "/docs/b.txt", ChunkIndex: 0},
	}
	keywordHits := []RankedHit{
		{FilePath: "/docs/b.txt", ChunkIndex: 0},
	}

	plain := c.Combine(vectorHits, keywordHits, 10)
	boosted := c.CombineWithBoost(vectorHits, keywordHits, 10)

	find := func(hits []FusedHit, path string) FusedHit {
		for _, h := range hits {
			if h.FilePath == path {
				return h
			}
		}
		t.Fatalf("path %s not fused", path)
		return FusedHit{}
	}

	assert.InDelta(t, find(plain, "/docs/b.txt").Score*2, find(boosted, "/docs/b.txt").Score, 1e-9)
	assert.InDelta(t, find(plain, "/docs/a.txt").Score, find(boosted, "/docs/a.txt").Score, 1e-9)
}

func TestCombineWithBoost_ReordersAfterBoost(t *testing.T) {
	config := DefaultSearchConfig()
	config.VectorWeight = 1.0
	config.KeywordWeight = 0.1
	c := newTestCombiner(t, config)

	// A leads the vector ranking; B sits deep in it but also tops the
	// keyword ranking
	vectorHits := []RankedHit{{FilePath: "/docs/a.txt", ChunkIndex: 0}}
	for i := 0; i < 8; i++ {
		vectorHits = append(vectorHits, RankedHit{FilePath: fmt.Sprintf("/docs/filler%d.txt", i), ChunkIndex: 0})
	}
	vectorHits = append(vectorHits, RankedHit{FilePath: "/docs/b.txt", ChunkIndex: 0})
	keywordHits := []RankedHit{{FilePath: "/docs/b.txt", ChunkIndex: 0}}

	plain := c.Combine(vectorHits, keywordHits, 20)
	assert.Equal(t, "/docs/a.txt", plain[0].FilePath, "without boost the vector leader wins")

	boosted := c.CombineWithBoost(vectorHits, keywordHits, 20)
	assert.Equal(t, "/docs/b.txt", boosted[0].FilePath, "agreement between rankers wins after boost")
}
