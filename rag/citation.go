package rag

import "pdfrag/types"

// Citations derives the citation list for the chunks actually supplied to the
// generator: one p{page}:c{chunk} token per distinct identity, deduplicated
// while preserving first-occurrence order. The list is never sorted, so it
// reflects retrieval order.
func Citations(chunks []types.Chunk) []string {
	citations := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		token := c.Citation()
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		citations = append(citations, token)
	}
	return citations
}
