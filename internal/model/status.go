package model

import "time"

// DocStatus tracks where a document sits in the pipeline. Transitions only
// move forward except for Failed, which is retryable on the next run.
type DocStatus string

const (
	StatusDiscovered DocStatus = "discovered"
	StatusClassified DocStatus = "classified"
	StatusOcrPending DocStatus = "ocr_pending"
	StatusOcrDone    DocStatus = "ocr_done"
	StatusCleaned    DocStatus = "cleaned"
	StatusExtracted  DocStatus = "extracted"
	StatusLinked     DocStatus = "linked"
	StatusStored     DocStatus = "stored"
	StatusIgnored    DocStatus = "ignored"
	StatusFailed     DocStatus = "failed"
)

// Stage names the pipeline phase a failure occurred in.
type Stage string

const (
	StageClassify Stage = "classify"
	StageOcr      Stage = "ocr"
	StageClean    Stage = "clean"
	StageExtract  Stage = "extract"
	StageLink     Stage = "link"
	StageStore    Stage = "store"
)

// FailureKind is the persisted taxonomy of document-level failures.
type FailureKind string

const (
	FailClassificationUnknown FailureKind = "classification_unknown"
	FailOcrTimeout            FailureKind = "ocr_timeout"
	FailOcrTool               FailureKind = "ocr_tool_error"
	FailExtractionInvalid     FailureKind = "extraction_invalid"
	FailExtractionRateLimited FailureKind = "extraction_rate_limited"
	FailLinkingGap            FailureKind = "linking_gap"
)

// Retryable reports whether a failure of this kind should be picked up
// again on the next run without --force.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailOcrTimeout, FailOcrTool, FailExtractionRateLimited:
		return true
	}
	return false
}

// FailureRecord is a persisted per-document failure. A failed document never
// aborts the run; the record is what the gaps report surfaces.
type FailureRecord struct {
	ID         string      `json:"id" db:"id"`
	SourceURL  string      `json:"source_url" db:"source_url"`
	CaseNumber string      `json:"case_number,omitempty" db:"case_number"`
	Stage      Stage       `json:"stage" db:"stage"`
	Kind       FailureKind `json:"kind" db:"kind"`
	Reason     string      `json:"reason" db:"reason"`
	OccurredAt time.Time   `json:"occurred_at" db:"occurred_at"`
}
