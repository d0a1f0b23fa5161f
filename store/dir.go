package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pdfrag/rag"
	"pdfrag/types"
)

// DirStore keeps one directory per document id under root/docs, holding
// meta.json, pages.json, status.json, per-mode summary files, index.gob and
// binary artifacts. Every JSON write goes through a temp file and rename, so
// a reader never observes a partial file and the directory is independently
// loadable after a process restart.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) docDir(docID uuid.UUID) string {
	return filepath.Join(s.root, "docs", docID.String())
}

func (s *DirStore) SaveDocument(_ context.Context, doc types.Document) error {
	return writeJSON(filepath.Join(s.docDir(doc.ID), "meta.json"), doc)
}

func (s *DirStore) GetDocument(_ context.Context, docID uuid.UUID) (types.Document, error) {
	var doc types.Document
	if err := readJSON(filepath.Join(s.docDir(docID), "meta.json"), &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Document{}, &types.UnknownDocumentError{DocID: docID.String()}
		}
		return types.Document{}, err
	}
	return doc, nil
}

type pagesFile struct {
	Pages []types.Page `json:"pages"`
}

func (s *DirStore) SavePages(_ context.Context, docID uuid.UUID, pages []types.Page) error {
	return writeJSON(filepath.Join(s.docDir(docID), "pages.json"), pagesFile{Pages: pages})
}

func (s *DirStore) LoadPages(_ context.Context, docID uuid.UUID) ([]types.Page, error) {
	var file pagesFile
	if err := readJSON(filepath.Join(s.docDir(docID), "pages.json"), &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file.Pages, nil
}

func (s *DirStore) SaveStatus(_ context.Context, status types.DocStatus) error {
	return writeJSON(filepath.Join(s.docDir(status.DocID), "status.json"), status)
}

func (s *DirStore) LoadStatus(_ context.Context, docID uuid.UUID) (types.DocStatus, error) {
	var status types.DocStatus
	if err := readJSON(filepath.Join(s.docDir(docID), "status.json"), &status); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.DocStatus{}, &types.UnknownDocumentError{DocID: docID.String()}
		}
		return types.DocStatus{}, err
	}
	return status, nil
}

func summaryFile(mode types.SummaryMode) string {
	return fmt.Sprintf("summary_%s.txt", mode)
}

func (s *DirStore) SaveSummary(_ context.Context, docID uuid.UUID, mode types.SummaryMode, text string) error {
	return writeFileAtomic(filepath.Join(s.docDir(docID), summaryFile(mode)), []byte(text))
}

func (s *DirStore) LoadSummary(_ context.Context, docID uuid.UUID, mode types.SummaryMode) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.docDir(docID), summaryFile(mode)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *DirStore) SaveIndex(_ context.Context, docID uuid.UUID, idx *rag.Index) error {
	return idx.Persist(filepath.Join(s.docDir(docID), "index.gob"))
}

func (s *DirStore) LoadIndex(_ context.Context, docID uuid.UUID) (*rag.Index, error) {
	idx, err := rag.LoadIndex(filepath.Join(s.docDir(docID), "index.gob"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return idx, nil
}

func (s *DirStore) Searcher(ctx context.Context, docID uuid.UUID) (rag.Searcher, error) {
	idx, err := s.LoadIndex(ctx, docID)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *DirStore) BlobPath(docID uuid.UUID, name string) (string, error) {
	dir := s.docDir(docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *DirStore) DeleteDocument(_ context.Context, docID uuid.UUID) error {
	return os.RemoveAll(s.docDir(docID))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
