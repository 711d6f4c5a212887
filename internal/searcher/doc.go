// Package searcher implements hybrid file search over vector similarity and
// keyword matching.
//
// The searcher provides four search modes:
//   - Hybrid: Content vectors + BM25 keywords fused with RRF (recommended)
//   - Filename: Semantic search over file names
//   - Content: Semantic search over content chunks
//   - Combined: Filename and content legs merged by score
//
// # Basic Usage
//
//	s, err := searcher.NewSearcher(store, client, comp, searcher.DefaultSearchConfig())
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Query: "quarterly budget forecast",
//	    Mode:  searcher.ModeHybrid,
//	    TopK:  10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("%.1f  %s (chunk %d)\n", r.Score, r.FilePath, r.ChunkIndex)
//	}
//
// # Search Modes
//
// Hybrid mode (default) runs the content vector leg and the BM25 keyword leg
// concurrently and merges them with reciprocal rank fusion. It handles both
// conceptual queries ("notes about onboarding") and exact terms ("Q3-2025").
// When the keyword leg fails the search degrades to vector-only results.
//
// Filename mode embeds the query and ranks files by the similarity of their
// names, so "python tutorial" finds python_tutorial.txt without reading file
// contents.
//
// Content mode ranks individual chunks by vector similarity and attaches a
// decompressed snippet of each matched chunk.
//
// Combined mode runs a filename leg and a content leg, each at half the
// requested size, merges by score, and de-duplicates content hits per file.
// It is the broadest mode: one result list mixing whole-file and chunk hits.
//
// # Reciprocal Rank Fusion
//
// Hybrid fusion scores every document by its rank in each leg:
//
//	rrf(d) = vectorWeight/(k + vectorRank(d)) + keywordWeight/(k + keywordRank(d))
//
// with k = 60 by default. A document absent from one leg contributes nothing
// for that term. Documents both legs agree on get an additional exact-match
// boost. Fused scores are scaled onto 0-100 with ScoreMultiplier.
//
// # Scoring
//
// Vector legs report similarity as max(0, (1 - distance/2) * 100), mapping
// cosine distance in [0,2] onto a 0-100 scale. SearchResult.Tier buckets the
// score for display.
//
// # Pagination
//
// Each request fetches one result beyond TopK; when the extra row exists the
// response reports HasMore and trims it:
//
//	resp, _ := s.Search(ctx, searcher.Request{Query: q, TopK: 10})
//	if resp.HasMore {
//	    next, _ := s.Search(ctx, searcher.Request{Query: q, TopK: 10, Offset: 10})
//	}
//
// # Caching and History
//
// Responses can be cached in a bounded LRU keyed by query, mode, size, and
// offset, with a per-request TTL. Index mutations call InvalidateCache.
// First-page searches are recorded to history with their mode and result
// count; History returns recent entries, newest first.
package searcher
