// Package mcp implements the Model Context Protocol (MCP) server for FileContext.
//
// The MCP server exposes six tools to AI coding assistants (Claude Code, Codex CLI):
//   - index_file: Index a single file for filename and content search
//   - index_folder: Index every file in a folder
//   - search: Query the index by filename, content, or both
//   - get_status: Check index statistics and health
//   - remove_file: Drop a file from the index
//   - search_history: List recent queries
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client. Standard
// output carries the protocol, so all logging goes to standard error.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	filecontext serve
//
// It then listens on stdin for MCP protocol messages and writes responses to stdout.
//
// # Tool: index_file
//
// Index one file so it can be found again:
//
//	Request:
//	{
//	  "name": "index_file",
//	  "arguments": {
//	    "path": "/home/user/docs/report.txt",
//	    "index_content": true
//	  }
//	}
//
//	Response:
//	{
//	  "path": "/home/user/docs/report.txt",
//	  "success": true,
//	  "filename_indexed": true,
//	  "content_indexed": true,
//	  "chunk_count": 12,
//	  "deduplicated_count": 3,
//	  "embeddings_generated": 9,
//	  "dedup_ratio": "0.25"
//	}
//
// # Tool: index_folder
//
// Index a directory tree in one call:
//
//	Request:
//	{
//	  "name": "index_folder",
//	  "arguments": {
//	    "path": "/home/user/docs",
//	    "recursive": true
//	  }
//	}
//
//	Response:
//	{
//	  "path": "/home/user/docs",
//	  "total_files": 47,
//	  "indexed_files": 45,
//	  "failed_files": 2,
//	  "total_chunks": 312,
//	  "errors": ["/home/user/docs/scan.pdf: filename embedding unavailable"]
//	}
//
// # Tool: search
//
// Query the index:
//
//	Request:
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "quarterly revenue figures",
//	    "mode": "hybrid",
//	    "limit": 10,
//	    "offset": 0
//	  }
//	}
//
//	Response:
//	{
//	  "query": "quarterly revenue figures",
//	  "mode": "hybrid",
//	  "count": 2,
//	  "has_more": false,
//	  "cache_hit": false,
//	  "duration_ms": 38,
//	  "results": [
//	    {
//	      "file_path": "/home/user/docs/q3_report.txt",
//	      "score": 94.2,
//	      "tier": "excellent",
//	      "match_type": "hybrid",
//	      "chunk_index": 4,
//	      "snippet": "Revenue for the <mark>quarter</mark> rose 12%..."
//	    }
//	  ]
//	}
//
// Modes: "filename" ranks by name similarity alone, "content" by chunk
// similarity alone, "hybrid" fuses vector and keyword rankings over chunk
// content, and "combined" returns filename and content matches side by side.
//
// # Tool: get_status
//
// Inspect the index:
//
//	Response:
//	{
//	  "files": {"total": 47, "by_status": {"content_indexed": 45, "failed": 2}},
//	  "chunks": 312,
//	  "keyword_docs": 312,
//	  "vectors_by_collection": {"file_names": 47, "file_contents": 298},
//	  "search_count": 18,
//	  "index_size_mb": "4.21",
//	  "schema_version": "1.2.0",
//	  "health": {
//	    "database_accessible": true,
//	    "vector_index_built": true,
//	    "fts_index_built": true
//	  }
//	}
//
// # Tool: remove_file
//
// Drop a file and everything derived from it (vectors, keyword docs, chunk
// records). Removing a file other files were deduplicated against leaves
// their chunk records pointing at vector ids that no longer exist; those
// files return to full fidelity on their next re-index.
//
// # Tool: search_history
//
// List recent queries, newest first:
//
//	Response:
//	{
//	  "count": 2,
//	  "searches": [
//	    {"query": "quarterly revenue", "mode": "hybrid", "result_count": 2,
//	     "searched_at": "2025-06-14T09:11:02Z"}
//	  ]
//	}
//
// # Error Handling
//
// Parameter problems are reported as MCP protocol errors with conventional
// codes (-32602 invalid params, -32001 file not found, -32002 not a
// directory, -32004 empty query). Per-file indexing failures are not
// protocol errors: they come back inside the tool result with success set
// to false, so a folder index reports partial progress instead of aborting.
//
// # Cache Invalidation
//
// Every mutating tool (index_file, index_folder, remove_file) purges the
// searcher's query cache before returning, so a search issued right after
// an index sees the new state rather than a cached page.
package mcp
