// Package summarizer produces length-bounded abstractive summaries with a
// map-reduce scheme: the document is partitioned into blocks that fit the
// generation service's input budget, each block is summarized independently,
// and partial summaries are merged until a single bounded call remains.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"pdfrag/model"
	"pdfrag/types"
)

const emptyDocumentSummary = "No content available to summarize."

type Summarizer struct {
	gen      model.Generator
	mapChars int
}

// New validates the map budget before any work begins.
func New(gen model.Generator, mapChars int) (*Summarizer, error) {
	if mapChars <= 0 {
		return nil, types.NewConfigError(fmt.Sprintf("summary map chars must be positive, got %d", mapChars))
	}
	return &Summarizer{gen: gen, mapChars: mapChars}, nil
}

// Summarize runs map-reduce summarization over fullText. Text that fits the
// map budget is summarized in exactly one generation call. Any failed call
// aborts the whole summarization: partial summaries are never returned.
func (s *Summarizer) Summarize(ctx context.Context, fullText string, mode types.SummaryMode) (string, error) {
	if strings.TrimSpace(fullText) == "" {
		return emptyDocumentSummary, nil
	}

	blocks := Partition(fullText, s.mapChars)
	if len(blocks) == 1 {
		return s.summarizeBlock(ctx, blocks[0], mode)
	}

	// Map phase: one call per block.
	partials := make([]string, 0, len(blocks))
	for _, block := range blocks {
		partial, err := s.summarizeBlock(ctx, block, mode)
		if err != nil {
			return "", err
		}
		partials = append(partials, partial)
	}

	combined := strings.Join(partials, "\n\n")
	if len(combined) > s.mapChars {
		// Still too large for one merge call; re-apply the whole procedure.
		return s.Summarize(ctx, combined, mode)
	}
	return s.reduce(ctx, combined, mode)
}

func (s *Summarizer) summarizeBlock(ctx context.Context, block string, mode types.SummaryMode) (string, error) {
	var system, prompt string
	if mode == types.SummaryBrief {
		system = "You are a helpful assistant that creates brief, concise summaries."
		prompt = fmt.Sprintf("Provide a brief summary (2-3 sentences) of the following text:\n\n%s", block)
	} else {
		system = "You are a helpful assistant that creates detailed summaries."
		prompt = fmt.Sprintf("Provide a detailed summary of the following text, capturing key points and important details:\n\n%s", block)
	}

	out, err := s.gen.Generate(ctx, system, prompt)
	if err != nil {
		return "", &types.GenerationServiceError{Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (s *Summarizer) reduce(ctx context.Context, combined string, mode types.SummaryMode) (string, error) {
	system := "You are a helpful assistant that synthesizes multiple summaries into a coherent whole."
	var prompt string
	if mode == types.SummaryBrief {
		prompt = fmt.Sprintf("The following are summaries of different sections of a document.\nCombine them into one brief, coherent summary (3-5 sentences):\n\n%s", combined)
	} else {
		prompt = fmt.Sprintf("The following are summaries of different sections of a document.\nCombine them into one detailed, coherent summary that captures all key points:\n\n%s", combined)
	}

	out, err := s.gen.Generate(ctx, system, prompt)
	if err != nil {
		return "", &types.GenerationServiceError{Err: err}
	}
	return strings.TrimSpace(out), nil
}

// Partition splits text into contiguous non-overlapping blocks of at most
// maxChars bytes, backing the boundary off so a multibyte UTF-8 sequence is
// never split. The partitioning is deterministic.
func Partition(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var blocks []string
	for len(text) > maxChars {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// A single rune wider than the budget; take it whole.
			_, width := utf8.DecodeRuneInString(text)
			cut = width
		}
		blocks = append(blocks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		blocks = append(blocks, text)
	}
	return blocks
}
