package chunker

import "strings"

const (
	// DefaultChunkSize is the window size in runes for content chunks
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many runes consecutive chunks share
	DefaultChunkOverlap = 200
)

// Splitter divides extracted text into overlapping chunks on semantic
// boundaries
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a Splitter. Non-positive arguments fall back to the defaults;
// an overlap >= chunkSize is clamped to chunkSize-1 so windows always advance.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the configured window size in runes
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap in runes
func (s *Splitter) Overlap() int { return s.overlap }

// Split divides text into trimmed chunks of at most chunkSize runes.
//
// The window end is pulled back to the nearest paragraph break, then sentence
// break, then space inside the window, so chunks end on natural boundaries
// whenever one exists. The next window starts overlap runes before the
// previous end; when that would not advance the start pointer it jumps to the
// end instead, which guarantees termination for any size/overlap combination.
// Whitespace-only chunks are dropped. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end < len(runes) {
			end = s.cutPoint(runes, start, end)
		} else {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// cutPoint finds the best boundary inside runes[start:end), preferring a
// paragraph break over a sentence break over a plain space. The returned end
// is exclusive and includes the first boundary rune, matching the behavior of
// cutting right after "." or the first newline of a paragraph break. A
// boundary at the window start does not count; with no boundary at all the
// window is cut at its full size.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	for _, boundary := range []string{"\n\n", ". ", " "} {
		if pos := lastIndexRunes(runes, start, end, []rune(boundary)); pos > start {
			return pos + 1
		}
	}
	return end
}

// lastIndexRunes returns the start index of the last occurrence of pattern
// within runes[start:end), or -1 if absent
func lastIndexRunes(runes []rune, start, end int, pattern []rune) int {
	for i := end - len(pattern); i >= start; i-- {
		match := true
		for j := range pattern {
			if runes[i+j] != pattern[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
