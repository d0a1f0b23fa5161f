package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfrag/pipeline"
	"pdfrag/store"
	"pdfrag/types"
)

const sourceBlob = "source.pdf"

// DocumentHandler serves upload, status and artifact routes. Upload extracts
// synchronously so the response already carries the page count; the remaining
// stages run in the background.
type DocumentHandler struct {
	docStore store.DocStore
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

func NewDocumentHandler(docStore store.DocStore, p *pipeline.Pipeline) *DocumentHandler {
	return &DocumentHandler{
		docStore: docStore,
		pipeline: p,
		logger:   slog.Default(),
	}
}

func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return NewError(fiber.StatusBadRequest, "only .pdf uploads are accepted")
	}

	doc := types.Document{
		ID:        uuid.New(),
		Filename:  file.Filename,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.docStore.SaveDocument(c.Context(), doc); err != nil {
		return err
	}

	path, err := h.docStore.BlobPath(doc.ID, sourceBlob)
	if err != nil {
		return err
	}
	if err := c.SaveFile(file, path); err != nil {
		return err
	}
	h.logger.Info("document uploaded", "doc_id", doc.ID, "filename", doc.Filename)

	pages, err := h.pipeline.Extract(c.Context(), doc, path)
	if err != nil {
		return err
	}

	doc.PageCount = len(pages)
	if err := h.docStore.SaveDocument(c.Context(), doc); err != nil {
		return err
	}

	go h.pipeline.Run(context.Background(), doc.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"doc_id":    doc.ID,
		"filename":  doc.Filename,
		"num_pages": doc.PageCount,
	})
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	if _, err := h.docStore.GetDocument(c.Context(), docID); err != nil {
		return err
	}
	if err := h.docStore.DeleteDocument(c.Context(), docID); err != nil {
		return err
	}
	h.logger.Info("document deleted", "doc_id", docID)

	return c.JSON(fiber.Map{"doc_id": docID, "deleted": true})
}

func (h *DocumentHandler) HandleStatus(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	status, err := h.docStore.LoadStatus(c.Context(), docID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *DocumentHandler) HandleSummary(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	params := types.SummaryParams{Mode: c.Query("mode")}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}
	mode, err := types.ParseSummaryMode(params.Mode)
	if err != nil {
		return err
	}

	if _, err := h.docStore.GetDocument(c.Context(), docID); err != nil {
		return err
	}

	text, err := h.docStore.LoadSummary(c.Context(), docID, mode)
	if errors.Is(err, store.ErrNotFound) {
		return &types.NotReadyError{DocID: docID.String(), Artifact: "summary"}
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"doc_id":  docID,
		"mode":    mode,
		"summary": text,
	})
}

func (h *DocumentHandler) HandleAudio(c *fiber.Ctx) error {
	return h.sendArtifact(c, "audio.mp3", "audio", func(s types.DocStatus) bool { return s.HasAudio })
}

func (h *DocumentHandler) HandleVideo(c *fiber.Ctx) error {
	return h.sendArtifact(c, "video.mp4", "video", func(s types.DocStatus) bool { return s.HasVideo })
}

func (h *DocumentHandler) sendArtifact(c *fiber.Ctx, blob, artifact string, done func(types.DocStatus) bool) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	status, err := h.docStore.LoadStatus(c.Context(), docID)
	if err != nil {
		return err
	}
	if !done(status) {
		return &types.NotReadyError{DocID: docID.String(), Artifact: artifact}
	}

	path, err := h.docStore.BlobPath(docID, blob)
	if err != nil {
		return err
	}
	return c.SendFile(path)
}
