package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardwatch/filings-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// anyArgs returns n pgxmock.AnyArg matchers; pgxmock requires the expected
// argument count to match the executed statement.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresStore_GetFiling_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM filings WHERE source_url = \$1`).
		WithArgs("https://board.example.gov/none.pdf").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetFiling(context.Background(), "https://board.example.gov/none.pdf")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFiling(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "source_url", "title", "title_raw", "pdf_path", "text_path", "doc_type",
		"respondent", "case_number", "case_numbers", "filing_year", "filing_date",
		"status", "ocr_failed", "page_count", "discovered_at", "processed_at",
	}).AddRow(
		"id-1", "https://board.example.gov/a.pdf", "Complaint - John Doe, MD", nil, nil, nil, "Complaint",
		nil, strPtr("25-8654-1"), []byte(`["25-8654-1"]`), 2025, nil,
		"classified", false, 12, now, nil,
	)
	mock.ExpectQuery(`(?s)SELECT .* FROM filings WHERE source_url = \$1`).
		WithArgs("https://board.example.gov/a.pdf").
		WillReturnRows(rows)

	got, err := s.GetFiling(context.Background(), "https://board.example.gov/a.pdf")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Complaint", got.DocType)
	assert.Equal(t, []string{"25-8654-1"}, got.CaseNumbers)
	assert.Equal(t, model.StatusClassified, got.Status)
	assert.True(t, got.FilingDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertFiling(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO filings .* ON CONFLICT \(source_url\) DO UPDATE`).
		WithArgs(anyArgs(17)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	f := &model.Filing{
		Title:     "Complaint - John Doe, MD",
		SourceURL: "https://board.example.gov/a.pdf",
		Status:    model.StatusDiscovered,
	}
	err := s.UpsertFiling(context.Background(), f)
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetFilingStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE filings SET status = \$1 WHERE source_url = \$2`).
		WithArgs("ocr_done", "https://board.example.gov/none.pdf").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetFilingStatus(context.Background(), "https://board.example.gov/none.pdf", model.StatusOcrDone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetComplaint_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM complaints WHERE case_number = \$1`).
		WithArgs("19-32539-1").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetComplaint(context.Background(), "19-32539-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertComplaint(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO complaints .* ON CONFLICT \(case_number\) DO UPDATE`).
		WithArgs(anyArgs(18)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.Complaint{
		CaseNumber: "19-32539-1",
		CasePrefix: "19-32539",
		SourceURL:  "https://board.example.gov/a.pdf",
		DocType:    "Complaint",
	}
	err := s.UpsertComplaint(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, c.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertSettlement(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO settlements .* ON CONFLICT \(source_url\) DO UPDATE`).
		WithArgs(anyArgs(14)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	st := &model.Settlement{
		SourceURL:   "https://board.example.gov/settle.pdf",
		DocType:     "Settlement Agreement and Order",
		CaseNumbers: []string{"19-32539-1"},
		Outcome:     model.OutcomeSettlement,
	}
	err := s.UpsertSettlement(context.Background(), st)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO failures .* ON CONFLICT \(source_url, stage\) DO UPDATE`).
		WithArgs(anyArgs(7)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := &model.FailureRecord{
		SourceURL: "https://board.example.gov/bad.pdf",
		Stage:     model.StageExtract,
		Kind:      model.FailExtractionInvalid,
		Reason:    "response failed validation twice",
	}
	err := s.RecordFailure(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
