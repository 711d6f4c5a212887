package searcher

import (
	"errors"
	"fmt"
	"sort"
)

// SearchConfig tunes reciprocal rank fusion
type SearchConfig struct {
	// K dampens the influence of top ranks in the RRF formula
	K float64

	// VectorWeight and KeywordWeight scale each ranker's contribution.
	// They need not sum to 1.
	VectorWeight  float64
	KeywordWeight float64

	// ScoreMultiplier maps fused RRF scores onto the 0-100 scale reported
	// to callers
	ScoreMultiplier float64

	// ExactMatchBoost multiplies the score of keys both rankers returned
	ExactMatchBoost float64
}

// DefaultSearchConfig returns the standard fusion tuning
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		K:               60,
		VectorWeight:    0.5,
		KeywordWeight:   0.5,
		ScoreMultiplier: 3000,
		ExactMatchBoost: 2.0,
	}
}

// Validate checks the configuration for values the fusion math cannot handle
func (c SearchConfig) Validate() error {
	if c.K <= 0 {
		return fmt.Errorf("rrf constant must be positive, got %g", c.K)
	}
	if c.VectorWeight < 0 || c.KeywordWeight < 0 {
		return errors.New("ranker weights must be non-negative")
	}
	if c.VectorWeight == 0 && c.KeywordWeight == 0 {
		return errors.New("at least one ranker weight must be positive")
	}
	if c.ScoreMultiplier <= 0 {
		return fmt.Errorf("score multiplier must be positive, got %g", c.ScoreMultiplier)
	}
	if c.ExactMatchBoost < 1 {
		return fmt.Errorf("exact match boost must be >= 1, got %g", c.ExactMatchBoost)
	}
	return nil
}

// RankedHit is one entry of a ranker's result list, ordered best first
type RankedHit struct {
	FilePath   string
	ChunkIndex int // -1 when the hit is not chunk-scoped
	Score      float64
	Snippet    string
}

// FusedHit is one entry of the combined ranking
type FusedHit struct {
	FilePath   string
	ChunkIndex int
	Score      float64 // RRF score before scale normalization
	Snippet    string

	inVector  bool
	inKeyword bool
}

// InBoth reports whether both rankers returned this key
func (f FusedHit) InBoth() bool {
	return f.inVector && f.inKeyword
}

// Combiner merges vector and keyword result lists with reciprocal rank
// fusion. Two hits count as the same document when their fusion keys match:
// the file path alone for file-level hits, path plus chunk index for
// chunk-level hits.
type Combiner struct {
	config SearchConfig
}

// NewCombiner creates a Combiner, validating the configuration
func NewCombiner(config SearchConfig) (*Combiner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}
	return &Combiner{config: config}, nil
}

// Config returns the combiner's fusion tuning
func (c *Combiner) Config() SearchConfig {
	return c.config
}

// Combine fuses the two rankings and returns at most topK hits, best first.
// A key absent from one list simply contributes nothing for that ranker.
func (c *Combiner) Combine(vectorHits, keywordHits []RankedHit, topK int) []FusedHit {
	fused := c.fuse(vectorHits, keywordHits)
	return truncateFused(fused, topK)
}

// CombineWithBoost fuses at topK*2 candidates, multiplies the score of keys
// present in both rankings by ExactMatchBoost, re-sorts, and truncates to
// topK. Agreement between independent rankers is strong relevance evidence.
func (c *Combiner) CombineWithBoost(vectorHits, keywordHits []RankedHit, topK int) []FusedHit {
	fused := c.fuse(vectorHits, keywordHits)
	fused = truncateFused(fused, topK*2)

	for i := range fused {
		if fused[i].InBoth() {
			fused[i].Score *= c.config.ExactMatchBoost
		}
	}
	sortFused(fused)
	return truncateFused(fused, topK)
}

// fuse computes weighted RRF scores per fusion key and returns the hits
// sorted best first
func (c *Combiner) fuse(vectorHits, keywordHits []RankedHit) []FusedHit {
	byKey := make(map[string]*FusedHit, len(vectorHits)+len(keywordHits))
	order := make([]string, 0, len(vectorHits)+len(keywordHits))

	for rank, h := range vectorHits {
		key := fusionKey(h)
		f, ok := byKey[key]
		if !ok {
			f = &FusedHit{FilePath: h.FilePath, ChunkIndex: h.ChunkIndex, Snippet: h.Snippet}
			byKey[key] = f
			order = append(order, key)
		}
		f.Score += c.config.VectorWeight / (c.config.K + float64(rank+1))
		f.inVector = true
	}

	for rank, h := range keywordHits {
		key := fusionKey(h)
		f, ok := byKey[key]
		if !ok {
			f = &FusedHit{FilePath: h.FilePath, ChunkIndex: h.ChunkIndex}
			byKey[key] = f
			order = append(order, key)
		}
		// Keyword snippets carry <mark> highlighting, prefer them
		if h.Snippet != "" {
			f.Snippet = h.Snippet
		}
		f.Score += c.config.KeywordWeight / (c.config.K + float64(rank+1))
		f.inKeyword = true
	}

	fused := make([]FusedHit, 0, len(order))
	for _, key := range order {
		fused = append(fused, *byKey[key])
	}
	sortFused(fused)
	return fused
}

// fusionKey identifies a document across rankers
func fusionKey(h RankedHit) string {
	if h.ChunkIndex < 0 {
		return h.FilePath
	}
	return fmt.Sprintf("%s:%d", h.FilePath, h.ChunkIndex)
}

// sortFused orders hits by descending score with a deterministic tie-break
func sortFused(hits []FusedHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].FilePath != hits[j].FilePath {
			return hits[i].FilePath < hits[j].FilePath
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
}

func truncateFused(hits []FusedHit, topK int) []FusedHit {
	if topK > 0 && len(hits) > topK {
		return hits[:topK]
	}
	return hits
}
