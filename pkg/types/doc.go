// Package types provides shared type definitions for the FileContext MCP server.
//
// This package defines domain types used across multiple components of
// FileContext, including file records, content chunks, index results, and
// search results.
//
// # Core Types
//
// FileRecord tracks a file through the indexing pipeline:
//
//	file := &types.FileRecord{
//	    Path:    "/docs/python_tutorial.txt",
//	    Category: types.CategoryText,
//	    ModTime: info.ModTime().Unix(),
//	    Status:  types.StatusPending,
//	}
//
// ChunkRecord represents one stored content chunk, addressed by a truncated
// SHA-256 content hash so identical text can share a vector embedding:
//
//	chunk := &types.ChunkRecord{
//	    FileID:      file.ID,
//	    ChunkIndex:  0,
//	    VectorID:    types.VectorIDFor(file.Path, 0),
//	    ContentHash: types.ComputeContentHash(text),
//	}
//
// # Index Status
//
// A file's status only advances Pending -> FilenameIndexed -> ContentIndexed,
// except on explicit reset or failure. ModTime equality is the sole
// change-detection signal: re-indexing a file whose mtime is unchanged is a
// no-op that reuses the stored chunk count.
//
// # Search Results
//
// SearchResult carries a 0-100 similarity score and the ranker that produced
// it (filename, content, or hybrid fusion):
//
//	result := types.SearchResult{
//	    FilePath:  "/docs/python_tutorial.txt",
//	    Score:     92.5,
//	    MatchType: types.MatchFilename,
//	}
package types
