package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/types"
)

// countingGenerator records every prompt and returns a canned summary.
type countingGenerator struct {
	calls   int
	prompts []string
	reply   string
	failOn  int // 1-based call number to fail at, 0 = never
}

func (g *countingGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.failOn > 0 && g.calls == g.failOn {
		return "", errors.New("model unavailable")
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return "summary", nil
}

func TestSummarize_ShortTextSingleCall(t *testing.T) {
	gen := &countingGenerator{reply: "a short summary"}
	s, err := New(gen, 1000)
	require.NoError(t, err)

	out, err := s.Summarize(context.Background(), "some document text", types.SummaryDetailed)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", out)
	assert.Equal(t, 1, gen.calls, "text within the map budget needs exactly one call")
}

func TestSummarize_MapReduceCallCount(t *testing.T) {
	gen := &countingGenerator{reply: "block summary"}
	s, err := New(gen, 100)
	require.NoError(t, err)

	// 250 chars -> 3 map blocks, combined partials fit the budget -> 1 reduce.
	text := strings.Repeat("x", 250)
	out, err := s.Summarize(context.Background(), text, types.SummaryDetailed)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, 4, gen.calls)
}

func TestSummarize_RecursiveReduce(t *testing.T) {
	// Partials are long enough that their concatenation exceeds the budget,
	// forcing a second map-reduce round over the combined text.
	gen := &countingGenerator{reply: strings.Repeat("s", 40)}
	s, err := New(gen, 100)
	require.NoError(t, err)

	text := strings.Repeat("x", 300) // 3 blocks -> combined 40*3+4 > 100
	out, err := s.Summarize(context.Background(), text, types.SummaryBrief)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Greater(t, gen.calls, 4)
}

func TestSummarize_BlockFailureAborts(t *testing.T) {
	gen := &countingGenerator{failOn: 2}
	s, err := New(gen, 100)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), strings.Repeat("x", 250), types.SummaryDetailed)
	var svcErr *types.GenerationServiceError
	require.ErrorAs(t, err, &svcErr)
}

func TestSummarize_EmptyText(t *testing.T) {
	gen := &countingGenerator{}
	s, err := New(gen, 100)
	require.NoError(t, err)

	out, err := s.Summarize(context.Background(), "   \n\t ", types.SummaryBrief)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Zero(t, gen.calls, "nothing to summarize, no generation call")
}

func TestSummarize_ModePrompts(t *testing.T) {
	gen := &countingGenerator{}
	s, err := New(gen, 1000)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "text", types.SummaryBrief)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "brief summary")

	gen.prompts = nil
	_, err = s.Summarize(context.Background(), "text", types.SummaryDetailed)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "detailed summary")
}

func TestNew_RejectsInvalidBudget(t *testing.T) {
	_, err := New(&countingGenerator{}, 0)
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPartition_RuneBoundaries(t *testing.T) {
	// Multibyte text: ensure no block ever splits a rune.
	text := strings.Repeat("héllо wörld ", 50) // mixed 1- and 2-byte runes
	blocks := Partition(text, 37)

	var rebuilt strings.Builder
	for i, b := range blocks {
		assert.True(t, utf8.ValidString(b), "block %d splits a rune", i)
		assert.LessOrEqual(t, len(b), 37)
		rebuilt.WriteString(b)
	}
	assert.Equal(t, text, rebuilt.String(), "blocks are contiguous and non-overlapping")
}

func TestPartition_Deterministic(t *testing.T) {
	text := strings.Repeat("абвгд ", 100)
	assert.Equal(t, Partition(text, 64), Partition(text, 64))
}

func TestPartition_ShortText(t *testing.T) {
	blocks := Partition("tiny", 100)
	assert.Equal(t, []string{"tiny"}, blocks)
	assert.Nil(t, Partition("", 100))
}
