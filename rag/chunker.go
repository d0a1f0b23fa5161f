package rag

import (
	"fmt"

	"github.com/google/uuid"

	"pdfrag/types"
)

// ChunkPage splits one page's text into overlapping fixed-size chunks with a
// sliding window of width size and stride size-overlap, both measured in
// characters so a multibyte rune is never split across a boundary. Identical
// input always yields identical chunk boundaries. The final chunk is
// truncated to the remaining text, never padded. Spans are byte offsets into
// the page text.
func ChunkPage(docID uuid.UUID, pageNumber int, text string, size, overlap int) ([]types.Chunk, error) {
	if size <= 0 {
		return nil, types.NewConfigError(fmt.Sprintf("chunk size must be positive, got %d", size))
	}
	if overlap < 0 || overlap >= size {
		return nil, types.NewConfigError(fmt.Sprintf("chunk overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", overlap, size))
	}
	if len(text) == 0 {
		return nil, nil
	}

	// Byte offset of every rune boundary, so windows can count characters
	// while spans stay byte-addressed.
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	runes := len(offsets) - 1

	stride := size - overlap
	chunks := make([]types.Chunk, 0, runes/stride+1)

	for start, index := 0, 0; start < runes; start, index = start+stride, index+1 {
		end := start + size
		if end > runes {
			end = runes
		}
		chunks = append(chunks, types.Chunk{
			DocID: docID,
			Page:  pageNumber,
			Index: index,
			Start: offsets[start],
			End:   offsets[end],
			Text:  text[offsets[start]:offsets[end]],
		})
		if end == runes {
			break
		}
	}
	return chunks, nil
}

// ChunkPages chunks every non-empty page of a document in page order.
func ChunkPages(docID uuid.UUID, pages []types.Page, size, overlap int) ([]types.Chunk, error) {
	var all []types.Chunk
	for _, page := range pages {
		chunks, err := ChunkPage(docID, page.Number, page.Text, size, overlap)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}
