package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PipelineState is the coarse processing state of one document.
type PipelineState string

const (
	StateExtracting  PipelineState = "extracting"
	StateIndexing    PipelineState = "indexing"
	StateSummarizing PipelineState = "summarizing"
	StateTTS         PipelineState = "tts"
	StateVideo       PipelineState = "video"
	StateReady       PipelineState = "ready"
	StateError       PipelineState = "error"
)

// Terminal reports whether no further transition is possible.
func (s PipelineState) Terminal() bool {
	return s == StateReady || s == StateError
}

// AnswerMode selects between retrieval-grounded and baseline answering.
type AnswerMode string

const (
	ModeGrounded   AnswerMode = "grounded"
	ModeUngrounded AnswerMode = "ungrounded"
)

// ParseAnswerMode maps a wire string to an AnswerMode. Empty defaults to grounded.
func ParseAnswerMode(s string) (AnswerMode, error) {
	switch AnswerMode(s) {
	case ModeGrounded, ModeUngrounded:
		return AnswerMode(s), nil
	case "":
		return ModeGrounded, nil
	}
	return "", NewConfigError(fmt.Sprintf("unknown answer mode %q", s))
}

// SummaryMode selects the target length of a summary.
type SummaryMode string

const (
	SummaryBrief    SummaryMode = "brief"
	SummaryDetailed SummaryMode = "detailed"
)

// ParseSummaryMode maps a wire string to a SummaryMode. Empty defaults to detailed.
func ParseSummaryMode(s string) (SummaryMode, error) {
	switch SummaryMode(s) {
	case SummaryBrief, SummaryDetailed:
		return SummaryMode(s), nil
	case "":
		return SummaryDetailed, nil
	}
	return "", NewConfigError(fmt.Sprintf("unknown summary mode %q", s))
}

// Page is the normalized text of one PDF page, produced once by extraction
// and read-only thereafter.
type Page struct {
	Number int    `json:"page"` // 1-based
	Text   string `json:"text"`
}

// Chunk is the minimal retrievable evidence unit: a contiguous slice of one
// page's text with stable provenance. Its citation identity is (Page, Index)
// and is never reassigned once created.
type Chunk struct {
	DocID uuid.UUID `json:"doc_id"`
	Page  int       `json:"page"`  // 1-based page number
	Index int       `json:"index"` // 0-based within the page, in text order
	Start int       `json:"start"` // byte span [Start, End) in the page text
	End   int       `json:"end"`
	Text  string    `json:"text"`

	Embedding []float32 `json:"-"`
	Score     float64   `json:"-"`
}

// Citation renders the chunk's citation token.
func (c Chunk) Citation() string {
	return fmt.Sprintf("p%d:c%d", c.Page, c.Index)
}

type Document struct {
	ID        uuid.UUID `json:"doc_id"`
	Filename  string    `json:"filename"`
	PageCount int       `json:"num_pages"`
	CreatedAt time.Time `json:"created_at"`
}

// DocStatus is the externally visible point-in-time pipeline status.
// Artifact flags are independent of State: a later stage failing leaves the
// flags of completed stages set.
type DocStatus struct {
	DocID       uuid.UUID     `json:"doc_id"`
	State       PipelineState `json:"state"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	PageCount   int           `json:"num_pages"`
	HasSummary  bool          `json:"has_summary"`
	HasAudio    bool          `json:"has_audio"`
	HasVideo    bool          `json:"has_video"`

	// Warnings records non-fatal stage failures, e.g. audio synthesis
	// failing while the pipeline proceeds without the artifact.
	Warnings []string `json:"warnings,omitempty"`
}

// QAResult is the answer to one question, with the citations of exactly the
// evidence that was placed in the generation prompt.
type QAResult struct {
	Answer    string    `json:"answer"`
	Citations []string  `json:"citations"`
	Timestamp time.Time `json:"timestamp"`
}
