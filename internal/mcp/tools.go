package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/filecontext-mcp/internal/searcher"
	"github.com/dshills/filecontext-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeFileNotFound  = -32001 // Named path has no index record
	ErrorCodeNotDirectory  = -32002 // Folder operation on a non-directory
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleIndexFile handles the index_file tool invocation
func (s *Server) handleIndexFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requiredPath(args)
	if err != nil {
		return nil, err
	}
	indexContent := getBoolDefault(args, "index_content", true)

	result := s.indexer.IndexFile(ctx, path, indexContent)

	// Even a failed run can have touched the filename collection before the
	// content transaction rolled back, so cached query results are stale.
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"path":                 result.Path,
		"success":              result.Success,
		"filename_indexed":     result.FilenameIndexed,
		"content_indexed":      result.ContentIndexed,
		"chunk_count":          result.ChunkCount,
		"deduplicated_count":   result.DeduplicatedCount,
		"embeddings_generated": result.EmbeddingsGenerated,
	}
	if result.ChunkCount > 0 {
		response["dedup_ratio"] = fmt.Sprintf("%.2f", result.DedupRatio())
	}
	if result.Error != "" {
		response["error"] = result.Error
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexFolder handles the index_folder tool invocation
func (s *Server) handleIndexFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requiredPath(args)
	if err != nil {
		return nil, err
	}
	recursive := getBoolDefault(args, "recursive", false)

	result, err := s.indexer.IndexFolder(ctx, path, recursive, nil)
	if err != nil {
		if errors.Is(err, types.ErrNotDirectory) {
			return nil, newMCPError(ErrorCodeNotDirectory, "path is not a directory", map[string]interface{}{
				"path": path,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "folder indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"path":          result.Path,
		"total_files":   result.TotalFiles,
		"indexed_files": result.IndexedFiles,
		"failed_files":  result.FailedFiles,
		"total_chunks":  result.TotalChunks,
	}
	if len(result.Errors) > 0 {
		// Include first few errors
		if len(result.Errors) > 5 {
			response["errors"] = result.Errors[:5]
			response["error_count"] = len(result.Errors)
		} else {
			response["errors"] = result.Errors
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	mode := getStringDefault(args, "mode", string(searcher.ModeHybrid))
	switch searcher.SearchMode(mode) {
	case searcher.ModeFilename, searcher.ModeContent, searcher.ModeHybrid, searcher.ModeCombined:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"filename", "content", "hybrid", "combined"},
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultTopK)
	if limit < 1 || limit > searcher.MaxTopK {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxTopK), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset must not be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Query:    query,
		Mode:     searcher.SearchMode(mode),
		TopK:     limit,
		Offset:   offset,
		UseCache: getBoolDefault(args, "use_cache", true),
	})
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			return nil, newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"file_path":  r.FilePath,
			"score":      math.Round(r.Score*100) / 100,
			"tier":       r.Tier(),
			"match_type": string(r.MatchType),
		}
		if r.ChunkIndex >= 0 {
			entry["chunk_index"] = r.ChunkIndex
		}
		if r.Snippet != "" {
			entry["snippet"] = r.Snippet
		}
		results = append(results, entry)
	}

	response := map[string]interface{}{
		"query":       query,
		"mode":        string(resp.Mode),
		"count":       len(resp.Results),
		"has_more":    resp.HasMore,
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
		"results":     results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.store.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	filesByStatus := make(map[string]int, len(status.FilesByStatus))
	for st, n := range status.FilesByStatus {
		filesByStatus[string(st)] = n
	}

	response := map[string]interface{}{
		"files": map[string]interface{}{
			"total":     status.TotalFiles,
			"by_status": filesByStatus,
		},
		"chunks":                status.TotalChunks,
		"folders":               status.TotalFolders,
		"keyword_docs":          status.KeywordDocs,
		"vectors_by_collection": status.VectorsByCollection,
		"search_count":          status.SearchCount,
		"index_size_mb":         fmt.Sprintf("%.2f", status.IndexSizeMB),
		"schema_version":        status.SchemaVersion,
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"vector_index_built":  status.Health.VectorIndexBuilt,
			"fts_index_built":     status.Health.FTSIndexBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveFile handles the remove_file tool invocation
func (s *Server) handleRemoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requiredPath(args)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.RemoveFile(ctx, path); err != nil {
		if errors.Is(err, types.ErrFileNotFound) {
			return nil, newMCPError(ErrorCodeFileNotFound, "file is not indexed", map[string]interface{}{
				"path": path,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "remove failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"removed": true,
		"path":    path,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchHistory handles the search_history tool invocation
func (s *Server) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// All parameters are optional, so a missing arguments map is fine.
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > searcher.MaxTopK {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxTopK), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	entries, err := s.searcher.History(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load search history", map[string]interface{}{
			"error": err.Error(),
		})
	}

	history := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		history = append(history, map[string]interface{}{
			"query":        e.Query,
			"mode":         e.Mode,
			"result_count": e.ResultCount,
			"searched_at":  e.CreatedAt.Format(time.RFC3339),
		})
	}

	response := map[string]interface{}{
		"count":    len(history),
		"searches": history,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requiredPath extracts the path argument and rejects relative paths. The
// index stores files under the exact path given, so relative paths would
// silently key records to the server's working directory.
func requiredPath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(path) {
		return "", newMCPError(ErrorCodeInvalidParams, "path must be absolute", map[string]interface{}{
			"param": "path",
			"value": path,
		})
	}
	return path, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
