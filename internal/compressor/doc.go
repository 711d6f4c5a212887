// Package compressor stores chunk text compactly in the metadata database.
//
// Chunk payloads are compressed with zstd (gzip as fallback) before being
// written to the chunks table, and decompressed on demand when a search
// result needs a snippet. Compression is best-effort: empty text,
// incompressible text, and decode failures all degrade to raw bytes tagged
// CompressionNone rather than failing the indexing pipeline.
//
//	c := compressor.New(types.CompressionZstd, 3)
//	res := c.Compress(chunkText)
//	// res.Data, res.OriginalSize, res.CompressedSize, res.Type
//
//	text := c.Decompress(res.Data, res.Type)
package compressor
