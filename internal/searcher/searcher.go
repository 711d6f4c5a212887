package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/filecontext-mcp/internal/compressor"
	"github.com/dshills/filecontext-mcp/internal/storage"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// SearchMode selects which rankers serve a query
type SearchMode string

const (
	ModeFilename SearchMode = "filename" // Filename vectors only
	ModeContent  SearchMode = "content"  // Content chunk vectors only
	ModeHybrid   SearchMode = "hybrid"   // Content vectors + BM25 fused with RRF
	ModeCombined SearchMode = "combined" // Filename and content legs merged
)

const (
	// DefaultTopK is used when a request does not set a result count
	DefaultTopK = 10

	// MaxTopK caps the per-request result count
	MaxTopK = 100

	// maxSnippetRunes caps decompressed chunk snippets
	maxSnippetRunes = 500

	defaultCacheTTL  = 5 * time.Minute
	queryCacheSize   = 1000
	snippetEllipsis  = "..."
	metadataFilePath = "file_path"
	metadataChunkIdx = "chunk_index"
)

// Request contains parameters for a search operation
type Request struct {
	Query    string
	Mode     SearchMode
	TopK     int
	Offset   int
	UseCache bool
	CacheTTL time.Duration
}

// Response contains ranked results and search metadata
type Response struct {
	Results  []types.SearchResult
	Mode     SearchMode
	HasMore  bool
	Duration time.Duration
	CacheHit bool
}

// QueryEmbedder is the slice of the embedding client used for queries. A nil
// vector means the embedding service is unavailable.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) []float32
}

// cacheEntry is a cached response with its expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher drives query embedding, mode dispatch, pagination, snippet
// loading, and history recording
type Searcher struct {
	store      storage.Store
	embedder   QueryEmbedder
	compressor compressor.Compressor
	combiner   *Combiner

	cacheMu sync.RWMutex
	cache   *lru.Cache[[32]byte, *cacheEntry]
}

// NewSearcher creates a Searcher with the given fusion tuning
func NewSearcher(store storage.Store, embedder QueryEmbedder, comp compressor.Compressor, config SearchConfig) (*Searcher, error) {
	combiner, err := NewCombiner(config)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Searcher{
		store:      store,
		embedder:   embedder,
		compressor: comp,
		combiner:   combiner,
		cache:      cache,
	}, nil
}

// Search executes a query. An empty or whitespace-only query is a validation
// error; an unavailable embedding service yields an empty response instead.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return nil, types.ErrEmptyQuery
	}
	normalizeRequest(&req)

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
	}

	var resp *Response
	var err error
	switch req.Mode {
	case ModeFilename:
		resp, err = s.searchFilename(ctx, req)
	case ModeContent:
		resp, err = s.searchContent(ctx, req)
	case ModeHybrid:
		resp, err = s.searchHybrid(ctx, req)
	case ModeCombined:
		resp, err = s.searchCombined(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	resp.Mode = req.Mode
	resp.Duration = time.Since(start)

	// Only first pages count as new searches; later pages continue one
	if req.Offset == 0 {
		if err := s.store.RecordSearch(ctx, req.Query, string(req.Mode), len(resp.Results)); err != nil {
			log.Printf("searcher: record history: %v", err)
		}
	}

	if req.UseCache {
		s.storeInCache(req, resp)
	}
	return resp, nil
}

// History returns recent searches, newest first
func (s *Searcher) History(ctx context.Context, limit int) ([]*storage.SearchEntry, error) {
	if limit <= 0 {
		limit = DefaultTopK
	}
	return s.store.RecentSearches(ctx, limit)
}

// InvalidateCache drops every cached response. Called after index mutations.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// searchFilename ranks files by semantic similarity of their names
func (s *Searcher) searchFilename(ctx context.Context, req Request) (*Response, error) {
	vector := s.embedder.Embed(ctx, req.Query)
	if vector == nil {
		return s.emptyResponse(), nil
	}

	hits, err := s.store.SearchVectors(ctx, storage.CollectionFileNames, vector, req.TopK+1, req.Offset, nil)
	if err != nil {
		return nil, fmt.Errorf("filename search: %w", err)
	}
	hits, hasMore := trimPage(hits, req.TopK)

	results := make([]types.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, types.SearchResult{
			FilePath:   vectorFilePath(h),
			Score:      similarityPercent(h.Distance),
			MatchType:  types.MatchFilename,
			ChunkIndex: -1,
		})
	}
	return &Response{Results: results, HasMore: hasMore}, nil
}

// searchContent ranks content chunks by vector similarity
func (s *Searcher) searchContent(ctx context.Context, req Request) (*Response, error) {
	vector := s.embedder.Embed(ctx, req.Query)
	if vector == nil {
		return s.emptyResponse(), nil
	}

	hits, err := s.store.SearchVectors(ctx, storage.CollectionFileContents, vector, req.TopK+1, req.Offset, nil)
	if err != nil {
		return nil, fmt.Errorf("content search: %w", err)
	}
	hits, hasMore := trimPage(hits, req.TopK)

	results := make([]types.SearchResult, 0, len(hits))
	for _, h := range hits {
		path := vectorFilePath(h)
		chunkIndex := vectorChunkIndex(h)
		results = append(results, types.SearchResult{
			FilePath:   path,
			Score:      similarityPercent(h.Distance),
			MatchType:  types.MatchContent,
			ChunkIndex: chunkIndex,
			Snippet:    s.snippetFor(ctx, path, chunkIndex),
		})
	}
	return &Response{Results: results, HasMore: hasMore}, nil
}

// searchHybrid runs the content vector leg and the BM25 keyword leg
// independently and fuses them. A failed keyword leg degrades to
// vector-only results rather than failing the search.
func (s *Searcher) searchHybrid(ctx context.Context, req Request) (*Response, error) {
	vector := s.embedder.Embed(ctx, req.Query)
	if vector == nil {
		return s.emptyResponse(), nil
	}

	// Both legs fetch enough depth to cover the requested page after fusion
	legLimit := req.TopK + req.Offset + 1

	type legResult struct {
		vectorHits  []storage.VectorHit
		keywordHits []storage.KeywordHit
		err         error
	}
	vectorCh := make(chan legResult, 1)
	keywordCh := make(chan legResult, 1)

	go func() {
		hits, err := s.store.SearchVectors(ctx, storage.CollectionFileContents, vector, legLimit, 0, nil)
		vectorCh <- legResult{vectorHits: hits, err: err}
	}()
	go func() {
		hits, err := s.store.SearchKeyword(ctx, req.Query, legLimit, 0)
		keywordCh <- legResult{keywordHits: hits, err: err}
	}()

	vectorLeg := <-vectorCh
	keywordLeg := <-keywordCh

	if vectorLeg.err != nil {
		return nil, fmt.Errorf("hybrid vector leg: %w", vectorLeg.err)
	}
	if keywordLeg.err != nil {
		log.Printf("searcher: keyword leg failed, degrading to vector only: %v", keywordLeg.err)
		keywordLeg.keywordHits = nil
	}

	fused := s.combiner.CombineWithBoost(
		rankedFromVectors(vectorLeg.vectorHits),
		rankedFromKeywords(keywordLeg.keywordHits),
		legLimit)

	if req.Offset >= len(fused) {
		return s.emptyResponse(), nil
	}
	page := fused[req.Offset:]
	hasMore := len(page) > req.TopK
	if hasMore {
		page = page[:req.TopK]
	}

	results := make([]types.SearchResult, 0, len(page))
	for _, f := range page {
		snippet := f.Snippet
		if snippet == "" {
			snippet = s.snippetFor(ctx, f.FilePath, f.ChunkIndex)
		}
		results = append(results, types.SearchResult{
			FilePath:   f.FilePath,
			Score:      normalizeScore(f.Score, s.combiner.Config().ScoreMultiplier),
			MatchType:  types.MatchHybrid,
			ChunkIndex: f.ChunkIndex,
			Snippet:    snippet,
		})
	}
	return &Response{Results: results, HasMore: hasMore}, nil
}

// searchCombined merges a filename leg and a content leg, each run at half
// the requested size and offset. Content hits are deduplicated by file path;
// filename hits always stand on their own.
func (s *Searcher) searchCombined(ctx context.Context, req Request) (*Response, error) {
	legReq := req
	legReq.TopK = req.TopK / 2
	if legReq.TopK < 1 {
		legReq.TopK = 1
	}
	legReq.Offset = req.Offset / 2

	filenameResp, err := s.searchFilename(ctx, legReq)
	if err != nil {
		return nil, err
	}
	contentResp, err := s.searchContent(ctx, legReq)
	if err != nil {
		return nil, err
	}

	merged := make([]types.SearchResult, 0, len(filenameResp.Results)+len(contentResp.Results))
	merged = append(merged, filenameResp.Results...)
	merged = append(merged, contentResp.Results...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	seenContent := make(map[string]bool)
	results := make([]types.SearchResult, 0, len(merged))
	for _, r := range merged {
		if r.MatchType == types.MatchContent {
			if seenContent[r.FilePath] {
				continue
			}
			seenContent[r.FilePath] = true
		}
		results = append(results, r)
	}
	if len(results) > req.TopK {
		results = results[:req.TopK]
	}

	return &Response{
		Results: results,
		HasMore: filenameResp.HasMore || contentResp.HasMore,
	}, nil
}

// snippetFor loads and decompresses a chunk's text, capped for display
func (s *Searcher) snippetFor(ctx context.Context, filePath string, chunkIndex int) string {
	if chunkIndex < 0 {
		return ""
	}
	chunk, err := s.store.GetChunkByLocation(ctx, filePath, chunkIndex)
	if err != nil {
		return ""
	}
	text := s.compressor.Decompress(chunk.Compressed, chunk.CompressionType)
	runes := []rune(text)
	if len(runes) <= maxSnippetRunes {
		return text
	}
	return string(runes[:maxSnippetRunes]) + snippetEllipsis
}

func (s *Searcher) emptyResponse() *Response {
	return &Response{Results: []types.SearchResult{}}
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(req Request) *Response {
	key := cacheKey(req)

	s.cacheMu.RLock()
	entry, ok := s.cache.Get(key)
	if !ok {
		s.cacheMu.RUnlock()
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	resp := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return resp
}

func (s *Searcher) storeInCache(req Request, resp *Response) {
	entry := &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(req.CacheTTL),
	}
	s.cacheMu.Lock()
	s.cache.Add(cacheKey(req), entry)
	s.cacheMu.Unlock()
}

// copyResponse clones a response so cached entries cannot be mutated by
// callers. SearchResult carries no reference fields, so copying the slice
// is enough.
func copyResponse(src *Response) *Response {
	dst := *src
	dst.Results = append([]types.SearchResult(nil), src.Results...)
	return &dst
}

func cacheKey(req Request) [32]byte {
	var b strings.Builder
	b.WriteString(req.Query)
	b.WriteString("|")
	b.WriteString(string(req.Mode))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(req.TopK))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(req.Offset))
	return sha256.Sum256([]byte(b.String()))
}

func normalizeRequest(req *Request) {
	if req.Mode == "" {
		req.Mode = ModeHybrid
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.CacheTTL <= 0 {
		req.CacheTTL = defaultCacheTTL
	}
}

// similarityPercent maps a cosine distance in [0,2] onto the 0-100 scale
func similarityPercent(distance float64) float64 {
	score := (1 - distance/2) * 100
	if score < 0 {
		return 0
	}
	return score
}

// normalizeScore maps an RRF score onto the 0-100 scale, capped at 100
func normalizeScore(rrfScore, multiplier float64) float64 {
	score := rrfScore * multiplier
	if score > 100 {
		return 100
	}
	return score
}

// trimPage implements fetch-one-extra pagination
func trimPage(hits []storage.VectorHit, topK int) ([]storage.VectorHit, bool) {
	if len(hits) > topK {
		return hits[:topK], true
	}
	return hits, false
}

func vectorFilePath(h storage.VectorHit) string {
	if p, ok := h.Metadata[metadataFilePath]; ok && p != "" {
		return p
	}
	// The filename collection keys vectors by path
	return h.VectorID
}

func vectorChunkIndex(h storage.VectorHit) int {
	if v, ok := h.Metadata[metadataChunkIdx]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return -1
}

func rankedFromVectors(hits []storage.VectorHit) []RankedHit {
	out := make([]RankedHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, RankedHit{
			FilePath:   vectorFilePath(h),
			ChunkIndex: vectorChunkIndex(h),
			Score:      similarityPercent(h.Distance),
		})
	}
	return out
}

func rankedFromKeywords(hits []storage.KeywordHit) []RankedHit {
	out := make([]RankedHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, RankedHit{
			FilePath:   h.FilePath,
			ChunkIndex: h.ChunkIndex,
			Score:      h.Score,
			Snippet:    h.Snippet,
		})
	}
	return out
}
