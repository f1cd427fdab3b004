package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/store"
)

func newBatchStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "filings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func resetBatchFlags(t *testing.T) {
	t.Helper()
	limit, years, retry := batchLimit, batchYears, batchRetry
	t.Cleanup(func() { batchLimit, batchYears, batchRetry = limit, years, retry })
	batchLimit, batchYears, batchRetry = 0, nil, false
}

func seedDiscovered(t *testing.T, st store.Store, url string, year int) {
	t.Helper()
	require.NoError(t, st.UpsertFiling(context.Background(), &model.Filing{
		SourceURL:  url,
		Title:      "Complaint - John Doe, MD",
		Status:     model.StatusDiscovered,
		FilingYear: year,
	}))
}

func seedFailed(t *testing.T, st store.Store, url string, stage model.Stage, kind model.FailureKind) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.UpsertFiling(ctx, &model.Filing{
		SourceURL: url,
		Title:     "Complaint - Jane Roe, DO",
		Status:    model.StatusFailed,
	}))
	require.NoError(t, st.RecordFailure(ctx, &model.FailureRecord{
		SourceURL: url,
		Stage:     stage,
		Kind:      kind,
		Reason:    "seeded",
	}))
}

func pendingURLs(t *testing.T, st store.Store) []string {
	t.Helper()
	filings, err := pendingFilings(context.Background(), st)
	require.NoError(t, err)
	urls := make([]string, 0, len(filings))
	for _, f := range filings {
		urls = append(urls, f.SourceURL)
	}
	return urls
}

func TestPendingFilingsRetriesTransientFailuresWithoutFlags(t *testing.T) {
	resetBatchFlags(t)
	st := newBatchStore(t)

	seedDiscovered(t, st, "https://board.example.gov/new.pdf", 2025)
	seedFailed(t, st, "https://board.example.gov/timeout.pdf", model.StageOcr, model.FailOcrTimeout)
	seedFailed(t, st, "https://board.example.gov/ratelimited.pdf", model.StageExtract, model.FailExtractionRateLimited)
	seedFailed(t, st, "https://board.example.gov/invalid.pdf", model.StageExtract, model.FailExtractionInvalid)

	urls := pendingURLs(t, st)

	assert.Contains(t, urls, "https://board.example.gov/new.pdf")
	assert.Contains(t, urls, "https://board.example.gov/timeout.pdf")
	assert.Contains(t, urls, "https://board.example.gov/ratelimited.pdf")
	assert.NotContains(t, urls, "https://board.example.gov/invalid.pdf")
}

func TestPendingFilingsRetryFlagWidensToPermanentFailures(t *testing.T) {
	resetBatchFlags(t)
	batchRetry = true
	st := newBatchStore(t)

	seedFailed(t, st, "https://board.example.gov/timeout.pdf", model.StageOcr, model.FailOcrTimeout)
	seedFailed(t, st, "https://board.example.gov/invalid.pdf", model.StageExtract, model.FailExtractionInvalid)

	urls := pendingURLs(t, st)

	assert.Contains(t, urls, "https://board.example.gov/timeout.pdf")
	assert.Contains(t, urls, "https://board.example.gov/invalid.pdf")
}

func TestPendingFilingsHonorsLimitAndYears(t *testing.T) {
	resetBatchFlags(t)
	batchYears = []int{2024}
	st := newBatchStore(t)

	seedDiscovered(t, st, "https://board.example.gov/a-2024.pdf", 2024)
	seedDiscovered(t, st, "https://board.example.gov/b-2025.pdf", 2025)

	urls := pendingURLs(t, st)
	assert.Equal(t, []string{"https://board.example.gov/a-2024.pdf"}, urls)

	batchYears = nil
	batchLimit = 1
	assert.Len(t, pendingURLs(t, st), 1)
}
