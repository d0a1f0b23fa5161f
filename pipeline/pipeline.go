// Package pipeline drives an uploaded document through its processing stages
// and commits the externally visible status after every transition.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfrag/extract"
	"pdfrag/media"
	"pdfrag/model"
	"pdfrag/rag"
	"pdfrag/store"
	"pdfrag/summarizer"
	"pdfrag/types"
)

const (
	audioBlob = "audio.mp3"
	videoBlob = "video.mp4"
)

type errorPolicy int

const (
	haltOnError errorPolicy = iota
	continueOnError
)

type stage struct {
	name    string
	state   types.PipelineState
	run     func(ctx context.Context, r *run) error
	onError errorPolicy
}

// run carries the per-document state handed from stage to stage.
type run struct {
	doc       types.Document
	pages     []types.Page
	brief     string
	detailed  string
	audioPath string
	status    types.DocStatus
}

// Pipeline sequences extraction, indexing, summarization and media rendering
// for one document. Every stage runs at most once; a stage failure either
// terminates the run in the error state or, for audio synthesis, lets the
// remaining stages proceed without the artifact.
type Pipeline struct {
	store     store.DocStore
	extractor extract.Extractor
	embedder  model.Embedder
	summ      *summarizer.Summarizer
	tts       media.Synthesizer
	renderer  media.Renderer

	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

func New(
	st store.DocStore,
	extractor extract.Extractor,
	embedder model.Embedder,
	summ *summarizer.Summarizer,
	tts media.Synthesizer,
	renderer media.Renderer,
	cfg types.Config,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:        st,
		extractor:    extractor,
		embedder:     embedder,
		summ:         summ,
		tts:          tts,
		renderer:     renderer,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		logger:       logger,
	}
}

// Extract runs the synchronous extraction stage for a freshly uploaded
// document: status enters extracting, page text lands in the store and the
// page count becomes visible. The caller gets the pages back for its response.
func (p *Pipeline) Extract(ctx context.Context, doc types.Document, pdfPath string) ([]types.Page, error) {
	status := types.DocStatus{DocID: doc.ID, State: types.StateExtracting}
	if err := p.store.SaveStatus(ctx, status); err != nil {
		return nil, err
	}

	start := time.Now()
	pages, err := p.extractor.Extract(ctx, pdfPath)
	if err != nil {
		p.failStatus(ctx, &status, "extracting", err)
		return nil, err
	}
	p.logger.Info("extracted document",
		"doc_id", doc.ID, "pages", len(pages), "took", time.Since(start))

	if err := p.store.SavePages(ctx, doc.ID, pages); err != nil {
		p.failStatus(ctx, &status, "extracting", err)
		return nil, err
	}

	status.PageCount = len(pages)
	if err := p.store.SaveStatus(ctx, status); err != nil {
		return nil, err
	}
	return pages, nil
}

// Run executes the asynchronous stages after extraction. It never returns an
// error: outcomes are committed to the document status and logged.
func (p *Pipeline) Run(ctx context.Context, docID uuid.UUID) {
	r, err := p.begin(ctx, docID)
	if err != nil {
		p.logger.Error("pipeline start failed", "doc_id", docID, "error", err)
		return
	}

	stages := []stage{
		{name: "indexing", state: types.StateIndexing, run: p.index, onError: haltOnError},
		{name: "summarizing", state: types.StateSummarizing, run: p.summarize, onError: haltOnError},
		{name: "tts", state: types.StateTTS, run: p.synthesize, onError: continueOnError},
		{name: "video", state: types.StateVideo, run: p.render, onError: haltOnError},
	}

	for _, st := range stages {
		r.status.State = st.state
		if err := p.store.SaveStatus(ctx, r.status); err != nil {
			p.logger.Error("status write failed", "doc_id", docID, "stage", st.name, "error", err)
			return
		}

		start := time.Now()
		err := st.run(ctx, r)
		if err == nil {
			p.logger.Info("stage done", "doc_id", docID, "stage", st.name, "took", time.Since(start))
			continue
		}
		p.logger.Error("stage failed", "doc_id", docID, "stage", st.name, "error", err)
		if st.onError == continueOnError {
			r.status.Warnings = append(r.status.Warnings, fmt.Sprintf("%s: %v", st.name, err))
			if err := p.store.SaveStatus(ctx, r.status); err != nil {
				p.logger.Error("status write failed", "doc_id", docID, "stage", st.name, "error", err)
				return
			}
			continue
		}
		p.failStatus(ctx, &r.status, st.name, err)
		return
	}

	r.status.State = types.StateReady
	if err := p.store.SaveStatus(ctx, r.status); err != nil {
		p.logger.Error("status write failed", "doc_id", docID, "stage", "ready", "error", err)
		return
	}
	p.logger.Info("document ready", "doc_id", docID)
}

func (p *Pipeline) begin(ctx context.Context, docID uuid.UUID) (*run, error) {
	doc, err := p.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	pages, err := p.store.LoadPages(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	status, err := p.store.LoadStatus(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &run{doc: doc, pages: pages, status: status}, nil
}

func (p *Pipeline) index(ctx context.Context, r *run) error {
	chunks, err := rag.ChunkPages(r.doc.ID, r.pages, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return err
	}
	idx, err := rag.BuildIndex(ctx, r.doc.ID, chunks, p.embedder)
	if err != nil {
		return err
	}
	return p.store.SaveIndex(ctx, r.doc.ID, idx)
}

func (p *Pipeline) summarize(ctx context.Context, r *run) error {
	full := joinPages(r.pages)

	detailed, err := p.summ.Summarize(ctx, full, types.SummaryDetailed)
	if err != nil {
		return err
	}
	if err := p.store.SaveSummary(ctx, r.doc.ID, types.SummaryDetailed, detailed); err != nil {
		return err
	}

	brief, err := p.summ.Summarize(ctx, full, types.SummaryBrief)
	if err != nil {
		return err
	}
	if err := p.store.SaveSummary(ctx, r.doc.ID, types.SummaryBrief, brief); err != nil {
		return err
	}

	r.detailed = detailed
	r.brief = brief
	r.status.HasSummary = true
	return p.store.SaveStatus(ctx, r.status)
}

func (p *Pipeline) synthesize(ctx context.Context, r *run) error {
	out, err := p.store.BlobPath(r.doc.ID, audioBlob)
	if err != nil {
		return err
	}
	if err := p.tts.Synthesize(ctx, media.ToSpeechText(r.brief), out); err != nil {
		return err
	}
	r.audioPath = out
	r.status.HasAudio = true
	return p.store.SaveStatus(ctx, r.status)
}

func (p *Pipeline) render(ctx context.Context, r *run) error {
	out, err := p.store.BlobPath(r.doc.ID, videoBlob)
	if err != nil {
		return err
	}
	if err := p.renderer.Render(ctx, media.StripMarkdown(r.brief), r.audioPath, out); err != nil {
		return err
	}
	r.status.HasVideo = true
	return p.store.SaveStatus(ctx, r.status)
}

// failStatus moves the document into the terminal error state while keeping
// the artifact flags of stages that already completed.
func (p *Pipeline) failStatus(ctx context.Context, status *types.DocStatus, stageName string, cause error) {
	status.State = types.StateError
	status.FailedStage = stageName
	status.Error = cause.Error()
	if err := p.store.SaveStatus(ctx, *status); err != nil {
		p.logger.Error("status write failed", "doc_id", status.DocID, "stage", stageName, "error", err)
	}
}

func joinPages(pages []types.Page) string {
	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		parts = append(parts, pg.Text)
	}
	return strings.Join(parts, "\n\n")
}
