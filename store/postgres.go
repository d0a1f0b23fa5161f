package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"pdfrag/model"
	"pdfrag/rag"
	"pdfrag/types"
)

// PostgresStore keeps document metadata, pipeline status and the evidence
// index in Postgres, with chunk embeddings in a pgvector column. Index writes
// are transactional: either every chunk row lands or none does. Binary
// artifacts stay on the local filesystem under blobDir.
type PostgresStore struct {
	pool    *pgxpool.Pool
	blobDir string
	logger  *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr, blobDir string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool, blobDir: blobDir, logger: slog.Default()}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		num_pages INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE,
		status JSONB,
		pages JSONB,
		summary_brief TEXT,
		summary_detailed TEXT,
		embed_identity TEXT,
		embed_dim INTEGER
	);

	CREATE TABLE IF NOT EXISTS chunks (
		doc_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page INT NOT NULL,
		idx INT NOT NULL,
		start_off INT NOT NULL,
		end_off INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(768),
		PRIMARY KEY (doc_id, page, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, filename, num_pages, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			num_pages = EXCLUDED.num_pages`
	_, err := s.pool.Exec(ctx, query, doc.ID, doc.Filename, doc.PageCount, doc.CreatedAt)
	return err
}

func (s *PostgresStore) GetDocument(ctx context.Context, docID uuid.UUID) (types.Document, error) {
	doc := types.Document{}
	row := s.pool.QueryRow(ctx,
		"SELECT id, filename, num_pages, created_at FROM documents WHERE id = $1", docID)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.PageCount, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Document{}, &types.UnknownDocumentError{DocID: docID.String()}
		}
		return types.Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) SavePages(ctx context.Context, docID uuid.UUID, pages []types.Page) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, "UPDATE documents SET pages = $2 WHERE id = $1", docID, data)
	return err
}

func (s *PostgresStore) LoadPages(ctx context.Context, docID uuid.UUID) ([]types.Page, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT pages FROM documents WHERE id = $1", docID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	var pages []types.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *PostgresStore) SaveStatus(ctx context.Context, status types.DocStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (id, filename, status)
		VALUES ($1, '', $2)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`
	_, err = s.pool.Exec(ctx, query, status.DocID, data)
	return err
}

func (s *PostgresStore) LoadStatus(ctx context.Context, docID uuid.UUID) (types.DocStatus, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT status FROM documents WHERE id = $1", docID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.DocStatus{}, &types.UnknownDocumentError{DocID: docID.String()}
		}
		return types.DocStatus{}, err
	}
	if data == nil {
		return types.DocStatus{}, &types.UnknownDocumentError{DocID: docID.String()}
	}
	var status types.DocStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return types.DocStatus{}, err
	}
	return status, nil
}

func (s *PostgresStore) SaveSummary(ctx context.Context, docID uuid.UUID, mode types.SummaryMode, text string) error {
	column := "summary_detailed"
	if mode == types.SummaryBrief {
		column = "summary_brief"
	}
	query := fmt.Sprintf("UPDATE documents SET %s = $2 WHERE id = $1", column)
	_, err := s.pool.Exec(ctx, query, docID, text)
	return err
}

func (s *PostgresStore) LoadSummary(ctx context.Context, docID uuid.UUID, mode types.SummaryMode) (string, error) {
	column := "summary_detailed"
	if mode == types.SummaryBrief {
		column = "summary_brief"
	}
	var text *string
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", column)
	if err := s.pool.QueryRow(ctx, query, docID).Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if text == nil {
		return "", ErrNotFound
	}
	return *text, nil
}

// SaveIndex writes every chunk row plus the embedding identity in one
// transaction, replacing any previous rows for the document.
func (s *PostgresStore) SaveIndex(ctx context.Context, docID uuid.UUID, idx *rag.Index) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM chunks WHERE doc_id = $1", docID); err != nil {
		return err
	}

	chunks := idx.Chunks()
	vectors := idx.Vectors()
	for i, chunk := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (doc_id, page, idx, start_off, end_off, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			docID, chunk.Page, chunk.Index, chunk.Start, chunk.End, chunk.Text,
			pgvector.NewVector(vectors[i]))
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		"UPDATE documents SET embed_identity = $2, embed_dim = $3 WHERE id = $1",
		docID, idx.Identity(), idx.Dim())
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadIndex reconstructs the in-memory evidence index from the chunk rows,
// preserving position order and the embedding identity.
func (s *PostgresStore) LoadIndex(ctx context.Context, docID uuid.UUID) (*rag.Index, error) {
	var identity *string
	var dim *int
	err := s.pool.QueryRow(ctx,
		"SELECT embed_identity, embed_dim FROM documents WHERE id = $1", docID).Scan(&identity, &dim)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if identity == nil || dim == nil {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT page, idx, start_off, end_off, content, embedding
		 FROM chunks WHERE doc_id = $1 ORDER BY page, idx`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.Chunk
	var vectors [][]float32
	for rows.Next() {
		chunk := types.Chunk{DocID: docID}
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.Page, &chunk.Index, &chunk.Start, &chunk.End, &chunk.Text, &embedding); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
		vectors = append(vectors, embedding.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rag.NewIndex(docID, *identity, *dim, chunks, vectors)
}

// Searcher returns a retrieval handle searching the pgvector column directly,
// without reconstructing the in-memory index. ErrNotFound until SaveIndex has
// committed the chunk rows.
func (s *PostgresStore) Searcher(ctx context.Context, docID uuid.UUID) (rag.Searcher, error) {
	var identity *string
	var dim *int
	err := s.pool.QueryRow(ctx,
		"SELECT embed_identity, embed_dim FROM documents WHERE id = $1", docID).Scan(&identity, &dim)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if identity == nil || dim == nil {
		return nil, ErrNotFound
	}
	return &pgSearcher{pool: s.pool, docID: docID, identity: *identity, dim: *dim}, nil
}

// pgSearcher retrieves evidence with the pgvector cosine distance operator.
// Ordering matches the in-memory index: descending similarity, ties by
// (page, chunk index) ascending.
type pgSearcher struct {
	pool     *pgxpool.Pool
	docID    uuid.UUID
	identity string
	dim      int
}

func (p *pgSearcher) Retrieve(ctx context.Context, query string, k int, embedder model.Embedder) ([]types.Chunk, error) {
	if embedder.Identity() != p.identity {
		return nil, types.NewConfigError(fmt.Sprintf(
			"embedding space mismatch: index built with %q, query embedded with %q",
			p.identity, embedder.Identity()))
	}
	if k <= 0 {
		return []types.Chunk{}, nil
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, &types.EmbeddingServiceError{Err: err}
	}
	if len(queryVec) != p.dim {
		return nil, &types.EmbeddingServiceError{
			Err: fmt.Errorf("query dimension %d does not match index dimension %d", len(queryVec), p.dim),
		}
	}

	rows, err := p.pool.Query(ctx,
		`SELECT page, idx, start_off, end_off, content,
		        1 - (embedding <=> $2) AS score
		 FROM chunks
		 WHERE doc_id = $1
		 ORDER BY embedding <=> $2, page, idx
		 LIMIT $3`,
		p.docID, pgvector.NewVector(queryVec), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := []types.Chunk{}
	for rows.Next() {
		chunk := types.Chunk{DocID: p.docID}
		if err := rows.Scan(&chunk.Page, &chunk.Index, &chunk.Start, &chunk.End, &chunk.Text, &chunk.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *PostgresStore) BlobPath(docID uuid.UUID, name string) (string, error) {
	dir := filepath.Join(s.blobDir, "docs", docID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.blobDir, "docs", docID.String()))
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("postgres connection pool closed")
	}
	return nil
}
