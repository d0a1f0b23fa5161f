package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfrag/app/agent"
	"pdfrag/store"
	"pdfrag/types"
)

// ChatHandler answers questions against one document's evidence index.
type ChatHandler struct {
	docStore store.DocStore
	answerer *agent.Answerer
}

func NewChatHandler(docStore store.DocStore, answerer *agent.Answerer) *ChatHandler {
	return &ChatHandler{
		docStore: docStore,
		answerer: answerer,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	docID, err := uuid.Parse(params.DocID)
	if err != nil {
		return ErrInvalidID()
	}
	mode, err := types.ParseAnswerMode(params.Mode)
	if err != nil {
		return err
	}

	if _, err := h.docStore.GetDocument(c.Context(), docID); err != nil {
		return err
	}

	searcher, err := h.docStore.Searcher(c.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		return &types.NotReadyError{DocID: docID.String(), Artifact: "index"}
	}
	if err != nil {
		return err
	}

	result, err := h.answerer.Answer(c.Context(), searcher, params.Question, mode)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
