package store

import (
	"context"

	"github.com/boardwatch/filings-cli/internal/model"
)

// FilingFilter specifies criteria for listing filings.
type FilingFilter struct {
	Status model.DocStatus `json:"status,omitempty"`
	Year   int             `json:"year,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the filings pipeline.
// Filings, settlements, and license-only actions key on source URL;
// complaints key on case number. Re-processing a document converges on the
// same row. Lookups by natural key return (nil, nil) when absent.
type Store interface {
	// Filings
	UpsertFiling(ctx context.Context, f *model.Filing) error
	BulkUpsertFilings(ctx context.Context, filings []model.Filing) (int64, error)
	GetFiling(ctx context.Context, sourceURL string) (*model.Filing, error)
	ListFilings(ctx context.Context, filter FilingFilter) ([]model.Filing, error)
	SetFilingStatus(ctx context.Context, sourceURL string, status model.DocStatus) error

	// Complaints
	UpsertComplaint(ctx context.Context, c *model.Complaint) error
	GetComplaint(ctx context.Context, caseNumber string) (*model.Complaint, error)
	ListComplaints(ctx context.Context) ([]model.Complaint, error)
	ListComplaintsByPrefix(ctx context.Context, casePrefix string) ([]model.Complaint, error)

	// Settlements
	UpsertSettlement(ctx context.Context, s *model.Settlement) error
	GetSettlement(ctx context.Context, sourceURL string) (*model.Settlement, error)
	ListSettlements(ctx context.Context) ([]model.Settlement, error)

	// License-only actions
	UpsertLicenseOnly(ctx context.Context, f *model.LicenseOnlyFiling) error
	ListLicenseOnly(ctx context.Context) ([]model.LicenseOnlyFiling, error)

	// Failures
	RecordFailure(ctx context.Context, rec *model.FailureRecord) error
	ClearFailures(ctx context.Context, sourceURL string) error
	ListFailures(ctx context.Context) ([]model.FailureRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
