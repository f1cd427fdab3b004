// Package ocr converts scanned filings to searchable PDFs with sidecar
// text. Timeouts adapt to page count; failures are typed so the pipeline
// can tell a stalled scan from a broken tool.
package ocr

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds.
const (
	perPageBudget = 30 * time.Second
	minTimeout    = 2 * time.Minute
	maxTimeout    = 30 * time.Minute
)

// TimeoutError marks an OCR pass that exceeded its page-derived budget.
type TimeoutError struct {
	Path    string
	Pages   int
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "ocr: timed out after " + e.Timeout.String() + ": " + e.Path
}

// ToolError marks a failed ocrmypdf or pdftotext invocation.
type ToolError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return "ocr: tool failed for " + e.Path + ": " + e.Stderr
}

func (e *ToolError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is an OCR timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsToolError reports whether err is an OCR tool failure.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}

// TimeoutFor computes the wall-clock budget for one document:
// 30s per page, clamped to [2min, 30min]. A 50-page scan gets 25 minutes;
// a 2-page scan still gets the 2-minute floor.
func TimeoutFor(pages int) time.Duration {
	d := time.Duration(pages) * perPageBudget
	if d < minTimeout {
		return minTimeout
	}
	if d > maxTimeout {
		return maxTimeout
	}
	return d
}

// Result describes one successful OCR pass.
type Result struct {
	SearchablePDF string
	TextPath      string
	Text          string
	Pages         int
	WordCount     int
	Duration      time.Duration
	UsedFallback  bool
}

// Runner performs OCR on a single document. Implementations must honor the
// context deadline and return a typed failure, never panic past the caller.
type Runner interface {
	Run(ctx context.Context, pdfPath, outPDF, outText string) (*Result, error)
}
