package rag

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"pdfrag/model"
	"pdfrag/types"
)

// Searcher is the retrieval entry point for one document's evidence. The
// in-memory Index implements it with brute-force cosine scoring; a vector
// database can implement it with its own similarity operator, as long as the
// ordering contract holds: descending score, ties by (page, chunk index)
// ascending, k clamped, empty evidence yields an empty result.
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int, embedder model.Embedder) ([]types.Chunk, error)
}

// Index is the embedded, searchable representation of all chunks for one
// document. It is built once and immutable afterwards: concurrent reads are
// safe without locking. Vector position i maps back to Chunks()[i], which is
// how provenance is recovered from raw similarity results.
type Index struct {
	docID    uuid.UUID
	identity string // embedding space the vectors were produced in
	dim      int
	chunks   []types.Chunk
	vectors  [][]float32
}

// BuildIndex embeds every chunk and assembles the index. Any embedding
// failure aborts the whole build: no partial index is ever returned.
func BuildIndex(ctx context.Context, docID uuid.UUID, chunks []types.Chunk, embedder model.Embedder) (*Index, error) {
	idx := &Index{
		docID:    docID,
		identity: embedder.Identity(),
		chunks:   make([]types.Chunk, 0, len(chunks)),
		vectors:  make([][]float32, 0, len(chunks)),
	}

	for _, chunk := range chunks {
		vec, err := embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, &types.EmbeddingServiceError{Err: err}
		}
		if idx.dim == 0 {
			idx.dim = len(vec)
		} else if len(vec) != idx.dim {
			return nil, &types.EmbeddingServiceError{
				Err: fmt.Errorf("dimension changed mid-build: got %d, index has %d", len(vec), idx.dim),
			}
		}
		chunk.Embedding = nil
		idx.chunks = append(idx.chunks, chunk)
		idx.vectors = append(idx.vectors, vec)
	}
	return idx, nil
}

// NewIndex assembles an index from already-embedded rows, e.g. when a store
// reloads persisted vectors. Chunks and vectors must be position-aligned.
func NewIndex(docID uuid.UUID, identity string, dim int, chunks []types.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index rows misaligned: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	return &Index{
		docID:    docID,
		identity: identity,
		dim:      dim,
		chunks:   chunks,
		vectors:  vectors,
	}, nil
}

// Vectors returns the embedding rows in position order.
func (x *Index) Vectors() [][]float32 { return x.vectors }

func (x *Index) DocID() uuid.UUID { return x.docID }
func (x *Index) Identity() string { return x.identity }
func (x *Index) Len() int         { return len(x.chunks) }
func (x *Index) Dim() int         { return x.dim }

// Chunks returns the indexed chunks in vector-position order.
func (x *Index) Chunks() []types.Chunk { return x.chunks }

// Retrieve returns the top-k chunks by cosine similarity to the query, scores
// attached. The query is embedded with the supplied embedder, which must
// belong to the same embedding space the index was built in. Ordering is
// descending score with ties broken by (page, chunk index) ascending. k larger
// than the index is clamped; an empty index yields an empty result, not an
// error.
func (x *Index) Retrieve(ctx context.Context, query string, k int, embedder model.Embedder) ([]types.Chunk, error) {
	if embedder.Identity() != x.identity {
		return nil, types.NewConfigError(fmt.Sprintf(
			"embedding space mismatch: index built with %q, query embedded with %q",
			x.identity, embedder.Identity()))
	}
	if len(x.chunks) == 0 {
		return []types.Chunk{}, nil
	}
	if k <= 0 {
		return []types.Chunk{}, nil
	}
	if k > len(x.chunks) {
		k = len(x.chunks)
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, &types.EmbeddingServiceError{Err: err}
	}
	if len(queryVec) != x.dim {
		return nil, &types.EmbeddingServiceError{
			Err: fmt.Errorf("query dimension %d does not match index dimension %d", len(queryVec), x.dim),
		}
	}

	scored := make([]types.Chunk, len(x.chunks))
	for i, chunk := range x.chunks {
		chunk.Score = cosine(x.vectors[i], queryVec)
		scored[i] = chunk
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Page != scored[j].Page {
			return scored[i].Page < scored[j].Page
		}
		return scored[i].Index < scored[j].Index
	})

	return scored[:k], nil
}

// indexFile is the on-disk representation. Chunks and Vectors are aligned by
// position, preserving the reverse mapping across a round trip.
type indexFile struct {
	DocID    uuid.UUID
	Identity string
	Dim      int
	Chunks   []types.Chunk
	Vectors  [][]float32
}

// Persist writes the index to path atomically: a partial file is never
// observable under the final name.
func (x *Index) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}

	err = gob.NewEncoder(f).Encode(indexFile{
		DocID:    x.docID,
		Identity: x.identity,
		Dim:      x.dim,
		Chunks:   x.chunks,
		Vectors:  x.vectors,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadIndex reads a persisted index. The loaded index retrieves identically
// to the instance that was persisted.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(file.Chunks) != len(file.Vectors) {
		return nil, fmt.Errorf("corrupt index %s: %d chunks, %d vectors", path, len(file.Chunks), len(file.Vectors))
	}

	return &Index{
		docID:    file.DocID,
		identity: file.Identity,
		dim:      file.Dim,
		chunks:   file.Chunks,
		vectors:  file.Vectors,
	}, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
