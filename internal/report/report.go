// Package report builds the operator-facing rollups: known gaps, per-case
// summaries, and data-quality validation over stored records.
package report

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/store"
)

// Source is the subset of the store the reports read.
type Source interface {
	ListFilings(ctx context.Context, filter store.FilingFilter) ([]model.Filing, error)
	ListComplaints(ctx context.Context) ([]model.Complaint, error)
	ListSettlements(ctx context.Context) ([]model.Settlement, error)
	ListFailures(ctx context.Context) ([]model.FailureRecord, error)
}

// Reporter builds reports from stored records.
type Reporter struct {
	source Source
}

// New builds a Reporter.
func New(source Source) *Reporter {
	return &Reporter{source: source}
}

// WriteYAML renders a report to the writer.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close encoder")
}
