package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New(0, -1)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}

func TestNew_OverlapClamped(t *testing.T) {
	s := New(10, 50)
	assert.Equal(t, 10, s.ChunkSize())
	assert.Equal(t, 9, s.Overlap())
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New(100, 20)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\t  "))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := New(1000, 200)
	chunks := s.Split("a short document")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", 40)
	text := first + "\n\n" + second

	s := New(60, 10)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	// The first cut lands on the paragraph break, not mid-run of b's.
	assert.Equal(t, first, chunks[0])
}

func TestSplit_FallsBackToSentenceBreak(t *testing.T) {
	text := "The quick brown fox jumps. The lazy dog sleeps under the warm sun all day"

	s := New(40, 5)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "."),
		"first chunk should end at the sentence break, got %q", chunks[0])
}

func TestSplit_FallsBackToSpace(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"

	s := New(20, 4)
	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		for _, word := range strings.Fields(chunk) {
			assert.Contains(t, text, word, "chunks must cut on spaces, not inside words")
		}
	}
}

func TestSplit_NoBoundaryCutsAtWindow(t *testing.T) {
	text := strings.Repeat("x", 250)

	s := New(100, 20)
	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	assert.Len(t, []rune(chunks[0]), 100)
}

func TestSplit_OverlapSharesText(t *testing.T) {
	text := strings.Repeat("x", 100) + " " + strings.Repeat("y", 100)

	s := New(120, 30)
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	// The second chunk starts overlap runes before the first cut.
	assert.True(t, strings.HasPrefix(chunks[1], "x") || strings.Contains(chunks[0], chunks[1][:1]))
}

func TestSplit_AlwaysTerminates(t *testing.T) {
	// Overlap close to the chunk size plus early boundaries used to be the
	// pathological case: the cut lands near the start and end-overlap would
	// rewind past it.
	text := ". " + strings.Repeat("word ", 500)

	s := New(50, 45)
	chunks := s.Split(text)
	assert.NotEmpty(t, chunks)
}

func TestSplit_CoversAllContent(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("Sentence number ")
		sb.WriteString(strings.Repeat("n", i%7+1))
		sb.WriteString(". ")
	}
	text := sb.String()

	s := New(80, 16)
	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}

func TestSplit_MultibyteRunesStayIntact(t *testing.T) {
	text := strings.Repeat("세계와 인사를 나누는 문서입니다 ", 30)

	s := New(50, 10)
	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Contains(t, text, chunk, "chunks must be rune-aligned substrings")
		for _, r := range chunk {
			assert.NotEqual(t, '�', r, "chunk must not split a multibyte rune")
		}
	}
}
