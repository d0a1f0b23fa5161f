package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/types"
)

func TestChunkPage_SlidingWindow(t *testing.T) {
	docID := uuid.New()
	text := "The quick brown fox jumps over the lazy dog." // 44 chars

	chunks, err := ChunkPage(docID, 1, text, 20, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	wantSpans := [][2]int{{0, 20}, {15, 35}, {30, 44}}
	for i, want := range wantSpans {
		assert.Equal(t, want[0], chunks[i].Start, "chunk %d start", i)
		assert.Equal(t, want[1], chunks[i].End, "chunk %d end", i)
		assert.Equal(t, i, chunks[i].Index)
		assert.Equal(t, 1, chunks[i].Page)
		assert.Equal(t, text[want[0]:want[1]], chunks[i].Text)
	}
}

func TestChunkPage_CoverageAndOverlap(t *testing.T) {
	docID := uuid.New()
	text := strings.Repeat("abcdefghij", 37) // 370 chars
	size, overlap := 100, 30

	chunks, err := ChunkPage(docID, 2, text, size, overlap)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, overlap, chunks[i-1].End-chunks[i].Start,
			"adjacent chunks %d/%d must overlap by exactly %d", i-1, i, overlap)
	}
}

func TestChunkPage_EdgeCases(t *testing.T) {
	docID := uuid.New()

	t.Run("empty page", func(t *testing.T) {
		chunks, err := ChunkPage(docID, 1, "", 100, 10)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("page shorter than size", func(t *testing.T) {
		chunks, err := ChunkPage(docID, 1, "short text", 100, 10)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, 10, chunks[0].End)
	})

	t.Run("page exactly size", func(t *testing.T) {
		chunks, err := ChunkPage(docID, 1, strings.Repeat("x", 50), 50, 10)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("overlap equal to size rejected", func(t *testing.T) {
		_, err := ChunkPage(docID, 1, "text", 10, 10)
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := ChunkPage(docID, 1, "text", 10, -1)
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("zero size rejected", func(t *testing.T) {
		_, err := ChunkPage(docID, 1, "text", 0, 0)
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestChunkPage_MultibyteRuneBoundaries(t *testing.T) {
	docID := uuid.New()
	text := strings.Repeat("é", 50) // 50 runes, 100 bytes

	chunks, err := ChunkPage(docID, 1, text, 20, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text), "chunk %d splits a rune", i)
		assert.Equal(t, text[c.Start:c.End], c.Text, "chunk %d span mismatches its text", i)
	}
	// Windows count characters: 20-rune chunks over 2-byte runes.
	assert.Equal(t, 20, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, [2]int{0, 40}, [2]int{chunks[0].Start, chunks[0].End})
	assert.Equal(t, [2]int{30, 70}, [2]int{chunks[1].Start, chunks[1].End})
	assert.Equal(t, [2]int{60, 100}, [2]int{chunks[2].Start, chunks[2].End})
}

func TestChunkPage_Deterministic(t *testing.T) {
	docID := uuid.New()
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)

	first, err := ChunkPage(docID, 3, text, 90, 15)
	require.NoError(t, err)
	second, err := ChunkPage(docID, 3, text, 90, 15)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunkPages_SkipsEmptyPagesKeepsNumbers(t *testing.T) {
	docID := uuid.New()
	pages := []types.Page{
		{Number: 1, Text: "first page text"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "third page text"},
	}

	chunks, err := ChunkPages(docID, pages, 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 3, chunks[1].Page)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[1].Index, "chunk index restarts per page")
}
