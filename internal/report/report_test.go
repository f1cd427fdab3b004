package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/store"
)

type fakeSource struct {
	filings     []model.Filing
	complaints  []model.Complaint
	settlements []model.Settlement
	failures    []model.FailureRecord
}

func (f *fakeSource) ListFilings(_ context.Context, _ store.FilingFilter) ([]model.Filing, error) {
	return f.filings, nil
}
func (f *fakeSource) ListComplaints(_ context.Context) ([]model.Complaint, error) {
	return f.complaints, nil
}
func (f *fakeSource) ListSettlements(_ context.Context) ([]model.Settlement, error) {
	return f.settlements, nil
}
func (f *fakeSource) ListFailures(_ context.Context) ([]model.FailureRecord, error) {
	return f.failures, nil
}

func strPtr(s string) *string { return &s }

func TestGaps(t *testing.T) {
	src := &fakeSource{
		filings: []model.Filing{
			{SourceURL: "https://board.example.gov/ok.pdf"},
			{SourceURL: "https://board.example.gov/garbled.pdf", OCRFailed: true},
		},
		complaints: []model.Complaint{
			{CaseNumber: "21-99-1", DocType: "Complaint"},
			{CaseNumber: "21-99-2", DocType: "First Amended Complaint", IsAmended: true, AmendsCaseNum: "21-99-1"},
			{CaseNumber: "22-50-2", DocType: "First Amended Complaint", IsAmended: true},
		},
		settlements: []model.Settlement{
			{SourceURL: "https://board.example.gov/linked.pdf", CaseNumbers: []string{"21-99-1"}, ComplaintRefs: []string{"21-99-2"}},
			{SourceURL: "https://board.example.gov/waiting.pdf", CaseNumbers: []string{"23-1-1"}},
		},
		failures: []model.FailureRecord{
			{SourceURL: "https://board.example.gov/bad.pdf", Stage: model.StageOcr, Kind: model.FailOcrTimeout},
		},
	}

	gaps, err := New(src).Gaps(context.Background())
	require.NoError(t, err)

	assert.Len(t, gaps.Failures, 1)
	require.Len(t, gaps.UnmatchedSettlements, 1)
	assert.Equal(t, "https://board.example.gov/waiting.pdf", gaps.UnmatchedSettlements[0].SourceURL)
	require.Len(t, gaps.OrphanAmendments, 1)
	assert.Equal(t, "22-50-2", gaps.OrphanAmendments[0].CaseNumber)
	assert.Equal(t, []string{"https://board.example.gov/garbled.pdf"}, gaps.OcrFailedDocuments)
	assert.False(t, gaps.GeneratedAt.IsZero())
}

func TestCaseSummaries(t *testing.T) {
	fine := 5000.0
	src := &fakeSource{
		complaints: []model.Complaint{
			{CaseNumber: "21-99-1", CasePrefix: "21-99", DocType: "Complaint", Respondent: "John Doe, MD", FilingYear: 2021, SeriesTotal: 2},
			{CaseNumber: "21-99-2", CasePrefix: "21-99", DocType: "First Amended Complaint", IsAmended: true, SeriesTotal: 2},
			{CaseNumber: "22-50-1", CasePrefix: "22-50", DocType: "Complaint", Respondent: "Jane Roe, DO", FilingYear: 2022, SeriesTotal: 1},
		},
		settlements: []model.Settlement{
			{
				SourceURL:   "https://board.example.gov/settle.pdf",
				CaseNumbers: []string{"21-99-1"},
				Outcome:     model.OutcomeSettlement,
				Extracted:   &model.SettlementFacts{LicenseAction: strPtr("probation"), FineAmount: &fine},
			},
		},
	}

	summaries, err := New(src).CaseSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, "21-99", first.CasePrefix)
	assert.Equal(t, "John Doe, MD", first.Respondent)
	assert.Equal(t, 2, first.Complaints)
	assert.Equal(t, 1, first.Amendments)
	assert.Equal(t, 2, first.SeriesTotal)
	assert.True(t, first.Settled)
	assert.Equal(t, "probation", first.LicenseAction)
	require.NotNil(t, first.FineAmount)
	assert.Equal(t, 5000.0, *first.FineAmount)

	second := summaries[1]
	assert.Equal(t, "22-50", second.CasePrefix)
	assert.False(t, second.Settled)
	assert.Empty(t, second.Outcome)
}

func TestValidate(t *testing.T) {
	src := &fakeSource{
		filings: []model.Filing{
			{SourceURL: "u1", Title: "Complaint - John Doe, MD - Case No 25-8654-1", DocType: "Complaint", CaseNumber: "25-8654-1", FilingYear: 2025},
			{SourceURL: "u2", Title: "Agenda", Status: model.StatusIgnored},
			{SourceURL: "u3", Title: "Complaint - Jane Roe, DO", DocType: "Complaint"},
			{SourceURL: "u4", Title: "broken", DocType: "Complaint", CaseNumber: "25-8654"},
			{SourceURL: "u5", Title: "zero", DocType: "Complaint", CaseNumber: "25-8654-01"},
			{SourceURL: "u6", Title: "year off", DocType: "Complaint", CaseNumber: "24-100-1", FilingYear: 2025},
			{SourceURL: "u7", Title: "license", DocType: "Order of Summary Suspension", CaseNumber: "LICENSE-7041"},
		},
		complaints: []model.Complaint{
			{CaseNumber: "25-8654-1", CasePrefix: "25-8654"},
		},
		settlements: []model.Settlement{
			{SourceURL: "s1", CaseNumbers: []string{"25-8654-1", "23-77-1"}},
		},
	}

	issues, err := New(src).Validate(context.Background())
	require.NoError(t, err)

	kinds := make(map[string][]string)
	for _, issue := range issues {
		kinds[issue.Kind] = append(kinds[issue.Kind], issue.SourceURL)
	}
	assert.Equal(t, []string{"u3"}, kinds[IssueMissingCaseNumber])
	assert.Equal(t, []string{"u4"}, kinds[IssueMalformedCaseNumber])
	assert.Equal(t, []string{"u5"}, kinds[IssueLeadingZeroSuffix])
	assert.Equal(t, []string{"u6"}, kinds[IssueYearMismatch])
	assert.Equal(t, []string{"s1"}, kinds[IssueUnknownPrefix])

	// Clean and ignored filings and license-only numbers produce nothing.
	for _, issue := range issues {
		assert.NotEqual(t, "u1", issue.SourceURL)
		assert.NotEqual(t, "u2", issue.SourceURL)
		assert.NotEqual(t, "u7", issue.SourceURL)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteYAML(&buf, &Gaps{
		GeneratedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		UnmatchedSettlements: []UnmatchedSettlement{
			{SourceURL: "https://board.example.gov/a.pdf", CaseNumbers: []string{"23-1-1"}},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "unmatched_settlements:")
	assert.Contains(t, out, "source_url: https://board.example.gov/a.pdf")
	assert.Contains(t, out, "23-1-1")
}
