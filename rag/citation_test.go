package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdfrag/types"
)

func TestCitations_FirstOccurrenceOrder(t *testing.T) {
	chunks := []types.Chunk{
		{Page: 3, Index: 1},
		{Page: 1, Index: 0},
		{Page: 3, Index: 1}, // duplicate
		{Page: 2, Index: 4},
		{Page: 1, Index: 0}, // duplicate
	}

	got := Citations(chunks)
	assert.Equal(t, []string{"p3:c1", "p1:c0", "p2:c4"}, got,
		"citations keep retrieval order, not sorted order")
}

func TestCitations_IdempotentOnDeduplicatedInput(t *testing.T) {
	chunks := []types.Chunk{
		{Page: 1, Index: 0},
		{Page: 1, Index: 1},
		{Page: 5, Index: 2},
	}

	once := Citations(chunks)
	assert.Equal(t, []string{"p1:c0", "p1:c1", "p5:c2"}, once)

	// Running the formatter over chunks it already deduplicated changes nothing.
	again := Citations(chunks)
	assert.Equal(t, once, again)
}

func TestCitations_Empty(t *testing.T) {
	assert.Empty(t, Citations(nil))
	assert.Empty(t, Citations([]types.Chunk{}))
}

func TestCitations_CountBound(t *testing.T) {
	chunks := []types.Chunk{
		{Page: 1, Index: 0}, {Page: 1, Index: 0}, {Page: 1, Index: 0},
		{Page: 2, Index: 0},
	}
	got := Citations(chunks)
	assert.LessOrEqual(t, len(got), len(chunks))
	assert.Len(t, got, 2)
}
