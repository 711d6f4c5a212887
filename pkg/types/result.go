package types

// MatchType identifies which ranker produced a search result
type MatchType string

const (
	MatchFilename MatchType = "filename"
	MatchContent  MatchType = "content"
	MatchHybrid   MatchType = "hybrid"
)

// ResultTier buckets a similarity score for display
type ResultTier string

const (
	TierExcellent ResultTier = "excellent"
	TierGood      ResultTier = "good"
	TierFair      ResultTier = "fair"
	TierLow       ResultTier = "low"
)

// SearchResult represents a single ranked search hit
type SearchResult struct {
	FilePath   string
	Score      float64 // 0-100 scale
	MatchType  MatchType
	ChunkIndex int // -1 for filename matches
	Snippet    string
}

// Tier buckets the score for display purposes
func (r *SearchResult) Tier() ResultTier {
	switch {
	case r.Score >= 90:
		return TierExcellent
	case r.Score >= 80:
		return TierGood
	case r.Score >= 60:
		return TierFair
	default:
		return TierLow
	}
}

// IndexFileResult reports the outcome of indexing a single file
type IndexFileResult struct {
	Path                string
	Success             bool
	FilenameIndexed     bool
	ContentIndexed      bool
	ChunkCount          int
	DeduplicatedCount   int
	EmbeddingsGenerated int
	Error               string
}

// DedupRatio returns the fraction of chunks satisfied by deduplication
func (r *IndexFileResult) DedupRatio() float64 {
	if r.ChunkCount == 0 {
		return 0
	}
	return float64(r.DeduplicatedCount) / float64(r.ChunkCount)
}

// IndexFolderResult aggregates per-file outcomes for a folder
type IndexFolderResult struct {
	Path         string
	TotalFiles   int
	IndexedFiles int
	FailedFiles  int
	TotalChunks  int
	Errors       []string
}
