package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexFileTool returns the tool definition for index_file
func indexFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_file",
		Description: "Index a single file so it can be found by filename and content search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the file",
				},
				"index_content": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, extract, chunk, and embed the file body in addition to the filename",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexFolderTool returns the tool definition for index_folder
func indexFolderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_folder",
		Description: "Index every file in a folder, optionally recursing into subdirectories",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the folder",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, descend into subdirectories",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search indexed files by filename, content, or both",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: filename (name similarity), content (chunk similarity), hybrid (vector + keyword fusion), or combined (filename and content side by side)",
					"enum":        []string{"filename", "content", "hybrid", "combined"},
					"default":     "hybrid",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to skip for pagination",
					"default":     0,
					"minimum":     0,
				},
				"use_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, serve repeated queries from the short-lived result cache",
					"default":     true,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics and health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// removeFileTool returns the tool definition for remove_file
func removeFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_file",
		Description: "Remove a file and all of its vectors, keywords, and chunks from the index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the indexed file to remove",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchHistoryTool returns the tool definition for search_history
func searchHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_history",
		Description: "List recent search queries, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of history entries to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}
