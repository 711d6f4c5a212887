// Package chunker divides extracted file text into overlapping chunks for
// embedding and search.
//
// The splitter advances a fixed-size rune window over the text and pulls each
// cut back to the nearest natural boundary inside the window: a paragraph
// break ("\n\n") first, then a sentence break (". "), then a plain space.
// Consecutive chunks overlap so that sentences near a cut appear in both
// neighbors and remain searchable.
//
// # Basic Usage
//
//	s := chunker.New(1000, 200)
//	chunks := s.Split(text)
//
//	for i, chunk := range chunks {
//	    fmt.Printf("chunk %d: %d chars\n", i, len(chunk))
//	}
//
// # Guarantees
//
//   - Text shorter than the chunk size yields exactly one chunk.
//   - Empty or whitespace-only input yields no chunks.
//   - The start pointer always advances, for any size/overlap combination.
//   - Chunks are trimmed; whitespace-only windows are dropped.
package chunker
