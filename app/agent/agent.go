// Package agent composes bounded prompts from retrieved evidence and turns
// generation output into cited answers.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"pdfrag/model"
	"pdfrag/rag"
	"pdfrag/types"
)

// noEvidenceMarker is sent as the whole context when retrieval found nothing,
// so the model (and transcripts) can distinguish "looked and found nothing"
// from an ungrounded baseline answer.
const noEvidenceMarker = "NO EVIDENCE FOUND IN DOCUMENT"

const groundedSystem = `You are a careful assistant answering questions about one document.
Answer using only the provided context. Each context block is tagged with its citation token.
If the context is the marker "` + noEvidenceMarker + `" or contains no relevant information, say that the document holds no information for this question.
Do not add introductions; answer clearly and to the point.`

const ungroundedSystem = `You are a helpful assistant. Answer the question from your own knowledge, clearly and to the point.`

type Answerer struct {
	gen             model.Generator
	embedder        model.Embedder
	topK            int
	maxContextChars int
	logger          *slog.Logger
}

func New(gen model.Generator, embedder model.Embedder, topK, maxContextChars int) *Answerer {
	return &Answerer{
		gen:             gen,
		embedder:        embedder,
		topK:            topK,
		maxContextChars: maxContextChars,
		logger:          slog.Default(),
	}
}

// Answer resolves one QA query. In grounded mode it retrieves top-K evidence
// from the searcher and cites exactly the chunks placed in the prompt; in
// ungrounded mode the generator sees only the question and the citation list
// is empty by construction.
func (a *Answerer) Answer(ctx context.Context, src rag.Searcher, question string, mode types.AnswerMode) (types.QAResult, error) {
	start := time.Now()

	var (
		answer    string
		citations []string
		err       error
	)
	switch mode {
	case types.ModeUngrounded:
		answer, err = a.generate(ctx, ungroundedSystem, question)
		citations = []string{}
	default:
		answer, citations, err = a.answerGrounded(ctx, src, question)
	}
	if err != nil {
		return types.QAResult{}, err
	}

	a.logger.Info("answered question",
		"mode", mode,
		"citations", len(citations),
		"took", time.Since(start))

	return types.QAResult{
		Answer:    strings.TrimSpace(answer),
		Citations: citations,
		Timestamp: time.Now(),
	}, nil
}

func (a *Answerer) answerGrounded(ctx context.Context, src rag.Searcher, question string) (string, []string, error) {
	evidence, err := src.Retrieve(ctx, question, a.topK, a.embedder)
	if err != nil {
		return "", nil, err
	}

	context_, used := a.buildContext(evidence)
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s\n\nAnswer:", context_, question)

	answer, err := a.generate(ctx, groundedSystem, prompt)
	if err != nil {
		return "", nil, err
	}
	return answer, rag.Citations(used), nil
}

// buildContext concatenates retrieved chunks, each tagged with its citation
// token, stopping once the character budget is exhausted. The returned slice
// holds exactly the chunks that made it into the prompt.
func (a *Answerer) buildContext(evidence []types.Chunk) (string, []types.Chunk) {
	if len(evidence) == 0 {
		return noEvidenceMarker, nil
	}

	var sb strings.Builder
	var used []types.Chunk
	for _, chunk := range evidence {
		block := fmt.Sprintf("[%s]\n%s\n\n", chunk.Citation(), chunk.Text)
		if a.maxContextChars > 0 && sb.Len()+len(block) > a.maxContextChars && len(used) > 0 {
			a.logger.Info("context budget reached",
				"budget", a.maxContextChars,
				"used_chunks", len(used),
				"retrieved", len(evidence))
			break
		}
		sb.WriteString(block)
		used = append(used, chunk)
	}
	return strings.TrimSuffix(sb.String(), "\n"), used
}

func (a *Answerer) generate(ctx context.Context, system, prompt string) (string, error) {
	if n, err := countTokens(system + prompt); err == nil {
		a.logger.Debug("prompt assembled", "tokens", n, "chars", len(system)+len(prompt))
	}

	out, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		return "", &types.GenerationServiceError{Err: err}
	}
	return out, nil
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
