// Package store persists per-document state: metadata, extracted pages,
// pipeline status, summaries, the evidence index and binary artifacts.
// Implementations are interchangeable behind DocStore so the pipeline is
// storage-agnostic.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"pdfrag/rag"
	"pdfrag/types"
)

// ErrNotFound reports a missing per-document artifact (pages, status,
// summary, index) for a document that may otherwise exist.
var ErrNotFound = errors.New("store: not found")

// DocStore owns all persisted state of one document, keyed by document id.
// Writes happen only from the pipeline; reads may be concurrent.
type DocStore interface {
	SaveDocument(ctx context.Context, doc types.Document) error
	GetDocument(ctx context.Context, docID uuid.UUID) (types.Document, error)

	SavePages(ctx context.Context, docID uuid.UUID, pages []types.Page) error
	LoadPages(ctx context.Context, docID uuid.UUID) ([]types.Page, error)

	SaveStatus(ctx context.Context, status types.DocStatus) error
	LoadStatus(ctx context.Context, docID uuid.UUID) (types.DocStatus, error)

	SaveSummary(ctx context.Context, docID uuid.UUID, mode types.SummaryMode, text string) error
	LoadSummary(ctx context.Context, docID uuid.UUID, mode types.SummaryMode) (string, error)

	SaveIndex(ctx context.Context, docID uuid.UUID, idx *rag.Index) error
	LoadIndex(ctx context.Context, docID uuid.UUID) (*rag.Index, error)

	// Searcher returns the retrieval entry point for the document's evidence,
	// or ErrNotFound while the index has not been built. The in-memory and
	// directory stores hand back the reloaded index itself; the postgres
	// store searches its pgvector column directly.
	Searcher(ctx context.Context, docID uuid.UUID) (rag.Searcher, error)

	// BlobPath resolves the on-disk location for a binary artifact such as
	// source.pdf, audio.mp3 or video.mp4, creating the parent directory.
	BlobPath(docID uuid.UUID, name string) (string, error)

	DeleteDocument(ctx context.Context, docID uuid.UUID) error
}

// New selects a store implementation from configuration.
func New(ctx context.Context, cfg types.Config) (DocStore, error) {
	switch cfg.Store {
	case types.StoreMemory:
		return NewMemoryStore(cfg.DataDir), nil
	case types.StoreDir:
		return NewDirStore(cfg.DataDir)
	case types.StorePostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.DataDir)
	}
	return nil, types.NewConfigError("unknown store backend " + string(cfg.Store))
}
