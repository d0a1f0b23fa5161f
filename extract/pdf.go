// Package extract turns a PDF file into per-page normalized text.
// A page that cannot be decoded degrades to empty text instead of failing the
// whole document.
package extract

import (
	"context"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfrag/types"
)

// Extractor produces the ordered page sequence of a raw document.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) ([]types.Page, error)
}

// PDFExtractor reads page content streams with pdfcpu and decodes the text
// show operators.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{logger: slog.Default()}
}

func (e *PDFExtractor) Extract(ctx context.Context, pdfPath string) ([]types.Page, error) {
	pdfCtx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return nil, &types.ExtractionError{Err: err}
	}

	pages := make([]types.Page, 0, pdfCtx.PageCount)
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := e.extractPage(pdfCtx, pageNr)
		if err != nil {
			// Per-page failure is non-fatal: the page degrades to empty text.
			e.logger.Warn("page extraction failed", "page", pageNr, "error", err)
			text = ""
		}
		pages = append(pages, types.Page{Number: pageNr, Text: normalizeText(text)})
	}
	return pages, nil
}

func (e *PDFExtractor) extractPage(pdfCtx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return decodeContentText(content), nil
}
