package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/store"
	"pdfrag/summarizer"
	"pdfrag/types"
)

type fakeExtractor struct {
	pages []types.Page
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) ([]types.Page, error) {
	return f.pages, f.err
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Identity() string { return "fake/embed" }

type stubGenerator struct {
	reply string
}

func (g *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return g.reply, nil
}

type fakeTTS struct {
	err    error
	called bool
}

func (f *fakeTTS) Synthesize(_ context.Context, _, outPath string) error {
	f.called = true
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

type fakeRenderer struct {
	err       error
	gotAudio  string
	gotCalled bool
}

func (f *fakeRenderer) Render(_ context.Context, _, audioPath, outPath string) error {
	f.gotCalled = true
	f.gotAudio = audioPath
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp4"), 0o644)
}

type fixture struct {
	store    *store.MemoryStore
	tts      *fakeTTS
	renderer *fakeRenderer
	embedder *fakeEmbedder
	pipeline *Pipeline
	doc      types.Document
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore(t.TempDir())
	summ, err := summarizer.New(&stubGenerator{reply: "a short summary"}, 7000)
	require.NoError(t, err)

	f := &fixture{
		store:    st,
		tts:      &fakeTTS{},
		renderer: &fakeRenderer{},
		embedder: &fakeEmbedder{},
		doc: types.Document{
			ID:        uuid.New(),
			Filename:  "report.pdf",
			PageCount: 2,
			CreatedAt: time.Now(),
		},
	}
	cfg := types.Config{ChunkSize: 900, ChunkOverlap: 150}
	f.pipeline = New(st, &fakeExtractor{pages: testPages()}, f.embedder, summ, f.tts, f.renderer, cfg, slog.Default())

	require.NoError(t, st.SaveDocument(context.Background(), f.doc))
	return f
}

func testPages() []types.Page {
	return []types.Page{
		{Number: 1, Text: "The first page describes the experiment setup."},
		{Number: 2, Text: "The second page reports the measured results."},
	}
}

func (f *fixture) extractAndRun(t *testing.T) types.DocStatus {
	t.Helper()
	ctx := context.Background()

	pages, err := f.pipeline.Extract(ctx, f.doc, "unused.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	f.pipeline.Run(ctx, f.doc.ID)

	status, err := f.store.LoadStatus(ctx, f.doc.ID)
	require.NoError(t, err)
	return status
}

func TestRun_HappyPath(t *testing.T) {
	f := newFixture(t)
	status := f.extractAndRun(t)

	assert.Equal(t, types.StateReady, status.State)
	assert.Equal(t, 2, status.PageCount)
	assert.True(t, status.HasSummary)
	assert.True(t, status.HasAudio)
	assert.True(t, status.HasVideo)
	assert.Empty(t, status.FailedStage)
	assert.Empty(t, status.Error)

	ctx := context.Background()
	for _, mode := range []types.SummaryMode{types.SummaryBrief, types.SummaryDetailed} {
		text, err := f.store.LoadSummary(ctx, f.doc.ID, mode)
		require.NoError(t, err)
		assert.Equal(t, "a short summary", text)
	}

	idx, err := f.store.LoadIndex(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	assert.NotEmpty(t, f.renderer.gotAudio, "video should mux the synthesized audio")
}

func TestRun_VideoFailureKeepsEarlierArtifacts(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("ffmpeg exploded")

	status := f.extractAndRun(t)

	assert.Equal(t, types.StateError, status.State)
	assert.Equal(t, "video", status.FailedStage)
	assert.Contains(t, status.Error, "ffmpeg exploded")
	assert.True(t, status.HasSummary)
	assert.True(t, status.HasAudio)
	assert.False(t, status.HasVideo)

	text, err := f.store.LoadSummary(context.Background(), f.doc.ID, types.SummaryDetailed)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestRun_TTSFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.tts.err = errors.New("edge-tts unavailable")

	status := f.extractAndRun(t)

	assert.Equal(t, types.StateReady, status.State)
	assert.False(t, status.HasAudio)
	assert.True(t, status.HasVideo)
	assert.True(t, f.renderer.gotCalled)
	assert.Empty(t, f.renderer.gotAudio, "video renders without an audio track")
	require.Len(t, status.Warnings, 1, "the non-fatal failure is recorded in the status")
	assert.Contains(t, status.Warnings[0], "tts")
	assert.Contains(t, status.Warnings[0], "edge-tts unavailable")
}

func TestRun_EmbeddingFailureHalts(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("connection refused")

	status := f.extractAndRun(t)

	assert.Equal(t, types.StateError, status.State)
	assert.Equal(t, "indexing", status.FailedStage)
	assert.False(t, status.HasSummary)
	assert.False(t, f.tts.called)

	_, err := f.store.LoadSummary(context.Background(), f.doc.ID, types.SummaryDetailed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExtract_FailureCommitsErrorState(t *testing.T) {
	st := store.NewMemoryStore(t.TempDir())
	summ, err := summarizer.New(&stubGenerator{reply: "x"}, 7000)
	require.NoError(t, err)

	doc := types.Document{ID: uuid.New(), Filename: "broken.pdf"}
	require.NoError(t, st.SaveDocument(context.Background(), doc))

	p := New(st, &fakeExtractor{err: errors.New("not a pdf")}, &fakeEmbedder{}, summ,
		&fakeTTS{}, &fakeRenderer{}, types.Config{ChunkSize: 900, ChunkOverlap: 150}, slog.Default())

	_, err = p.Extract(context.Background(), doc, "unused.pdf")
	require.Error(t, err)

	status, err := st.LoadStatus(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StateError, status.State)
	assert.Equal(t, "extracting", status.FailedStage)
}
