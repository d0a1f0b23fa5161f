package types

import "fmt"

// ConfigError reports invalid parameters, rejected before any work begins.
type ConfigError struct {
	Reason string
}

func NewConfigError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// ExtractionError reports a failed page extraction. It is non-fatal: the
// affected page degrades to empty text.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extraction: page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("extraction: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports an unreachable or malformed embedding
// collaborator response. Fatal to the indexing stage.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// GenerationServiceError reports an unreachable or malformed generation
// collaborator response. Fatal to the stage that issued the call.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// UnknownDocumentError reports a document id the service has never seen.
type UnknownDocumentError struct {
	DocID string
}

func (e *UnknownDocumentError) Error() string {
	return fmt.Sprintf("unknown document %s", e.DocID)
}

// NotReadyError reports an artifact requested before its producing stage
// completed. Distinct from a permanent failure: the caller may retry later.
type NotReadyError struct {
	DocID    string
	Artifact string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("document %s: %s not ready", e.DocID, e.Artifact)
}
