package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"pdfrag/rag"
	"pdfrag/types"
)

// MemoryStore keeps all document state in process-wide maps. It is the legacy
// ephemeral strategy: everything but binary artifacts is lost on restart.
// Binary artifacts still live on disk under blobDir because collaborators
// (extraction, TTS, video) work with files.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[uuid.UUID]types.Document
	pages     map[uuid.UUID][]types.Page
	statuses  map[uuid.UUID]types.DocStatus
	summaries map[uuid.UUID]map[types.SummaryMode]string
	indexes   map[uuid.UUID]*rag.Index
	blobDir   string
}

func NewMemoryStore(blobDir string) *MemoryStore {
	return &MemoryStore{
		docs:      make(map[uuid.UUID]types.Document),
		pages:     make(map[uuid.UUID][]types.Page),
		statuses:  make(map[uuid.UUID]types.DocStatus),
		summaries: make(map[uuid.UUID]map[types.SummaryMode]string),
		indexes:   make(map[uuid.UUID]*rag.Index),
		blobDir:   blobDir,
	}
}

func (s *MemoryStore) SaveDocument(_ context.Context, doc types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, docID uuid.UUID) (types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return types.Document{}, &types.UnknownDocumentError{DocID: docID.String()}
	}
	return doc, nil
}

func (s *MemoryStore) SavePages(_ context.Context, docID uuid.UUID, pages []types.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[docID] = pages
	return nil
}

func (s *MemoryStore) LoadPages(_ context.Context, docID uuid.UUID) ([]types.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages, ok := s.pages[docID]
	if !ok {
		return nil, ErrNotFound
	}
	return pages, nil
}

func (s *MemoryStore) SaveStatus(_ context.Context, status types.DocStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocID] = status
	return nil
}

func (s *MemoryStore) LoadStatus(_ context.Context, docID uuid.UUID) (types.DocStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[docID]
	if !ok {
		return types.DocStatus{}, &types.UnknownDocumentError{DocID: docID.String()}
	}
	return status, nil
}

func (s *MemoryStore) SaveSummary(_ context.Context, docID uuid.UUID, mode types.SummaryMode, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaries[docID] == nil {
		s.summaries[docID] = make(map[types.SummaryMode]string)
	}
	s.summaries[docID][mode] = text
	return nil
}

func (s *MemoryStore) LoadSummary(_ context.Context, docID uuid.UUID, mode types.SummaryMode) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.summaries[docID][mode]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

func (s *MemoryStore) SaveIndex(_ context.Context, docID uuid.UUID, idx *rag.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[docID] = idx
	return nil
}

func (s *MemoryStore) LoadIndex(_ context.Context, docID uuid.UUID) (*rag.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[docID]
	if !ok {
		return nil, ErrNotFound
	}
	return idx, nil
}

func (s *MemoryStore) Searcher(ctx context.Context, docID uuid.UUID) (rag.Searcher, error) {
	idx, err := s.LoadIndex(ctx, docID)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *MemoryStore) BlobPath(docID uuid.UUID, name string) (string, error) {
	dir := filepath.Join(s.blobDir, "docs", docID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, docID uuid.UUID) error {
	s.mu.Lock()
	delete(s.docs, docID)
	delete(s.pages, docID)
	delete(s.statuses, docID)
	delete(s.summaries, docID)
	delete(s.indexes, docID)
	s.mu.Unlock()
	return os.RemoveAll(filepath.Join(s.blobDir, "docs", docID.String()))
}
