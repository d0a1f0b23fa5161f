package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfrag/types"
)

// ErrorHandler is the fiber error handler. Typed domain errors map to their
// HTTP status; everything unrecognized becomes a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiError, ok := err.(Error); ok {
		return c.Status(apiError.Code).JSON(apiError)
	}
	if valError, ok := err.(ValidationError); ok {
		return c.Status(valError.Status).JSON(valError)
	}

	apiError := toAPIError(err)
	if apiError.Code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "code", apiError.Code, "error", err)
	}
	return c.Status(apiError.Code).JSON(apiError)
}

func toAPIError(err error) Error {
	var (
		unknownDoc *types.UnknownDocumentError
		notReady   *types.NotReadyError
		confErr    *types.ConfigError
		extractErr *types.ExtractionError
		embedErr   *types.EmbeddingServiceError
		genErr     *types.GenerationServiceError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &unknownDoc):
		return NewError(fiber.StatusNotFound, unknownDoc.Error())
	case errors.As(err, &notReady):
		return NewError(fiber.StatusConflict, notReady.Error())
	case errors.As(err, &confErr):
		return NewError(fiber.StatusUnprocessableEntity, confErr.Error())
	case errors.As(err, &extractErr):
		return NewError(fiber.StatusBadRequest, extractErr.Error())
	case errors.As(err, &embedErr):
		return NewError(fiber.StatusBadGateway, embedErr.Error())
	case errors.As(err, &genErr):
		return NewError(fiber.StatusBadGateway, genErr.Error())
	case errors.As(err, &fiberErr):
		return NewError(fiberErr.Code, fiberErr.Message)
	}
	return NewError(fiber.StatusInternalServerError, err.Error())
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid request",
	}
}

func ErrInvalidID() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid id given",
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}
