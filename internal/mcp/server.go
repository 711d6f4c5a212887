package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/filecontext-mcp/internal/indexer"
	"github.com/dshills/filecontext-mcp/internal/searcher"
	"github.com/dshills/filecontext-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "filecontext-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    storage.Store
	indexer  *indexer.Orchestrator
	searcher *searcher.Searcher
}

// NewServer creates an MCP server over already-constructed components.
// The caller owns the store and closes it after Serve returns.
func NewServer(store storage.Store, idx *indexer.Orchestrator, srch *searcher.Searcher) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		indexer:  idx,
		searcher: srch,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexFileTool(), s.handleIndexFile)
	s.mcp.AddTool(indexFolderTool(), s.handleIndexFolder)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(removeFileTool(), s.handleRemoveFile)
	s.mcp.AddTool(searchHistoryTool(), s.handleSearchHistory)
}
