package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/boardwatch/filings-cli/internal/extract"
	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/ocr"
	"github.com/boardwatch/filings-cli/internal/store"
)

// memStore is an in-memory store.Store for orchestrator tests. It keys
// records the way the real drivers do: filings, settlements, and
// license-only actions by source URL, complaints by case number.
type memStore struct {
	filings     map[string]*model.Filing
	complaints  map[string]*model.Complaint
	settlements map[string]*model.Settlement
	licenseOnly map[string]*model.LicenseOnlyFiling
	failures    []model.FailureRecord
}

func newMemStore() *memStore {
	return &memStore{
		filings:     make(map[string]*model.Filing),
		complaints:  make(map[string]*model.Complaint),
		settlements: make(map[string]*model.Settlement),
		licenseOnly: make(map[string]*model.LicenseOnlyFiling),
	}
}

func (m *memStore) UpsertFiling(_ context.Context, f *model.Filing) error {
	cp := *f
	m.filings[f.SourceURL] = &cp
	return nil
}

func (m *memStore) BulkUpsertFilings(ctx context.Context, filings []model.Filing) (int64, error) {
	for i := range filings {
		if err := m.UpsertFiling(ctx, &filings[i]); err != nil {
			return int64(i), err
		}
	}
	return int64(len(filings)), nil
}

func (m *memStore) GetFiling(_ context.Context, sourceURL string) (*model.Filing, error) {
	f, ok := m.filings[sourceURL]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) ListFilings(_ context.Context, filter store.FilingFilter) ([]model.Filing, error) {
	var out []model.Filing
	for _, key := range sortedKeys(m.filings) {
		f := m.filings[key]
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Year != 0 && f.FilingYear != filter.Year {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

func (m *memStore) SetFilingStatus(_ context.Context, sourceURL string, status model.DocStatus) error {
	if f, ok := m.filings[sourceURL]; ok {
		f.Status = status
	}
	return nil
}

func (m *memStore) UpsertComplaint(_ context.Context, c *model.Complaint) error {
	cp := *c
	m.complaints[c.CaseNumber] = &cp
	return nil
}

func (m *memStore) GetComplaint(_ context.Context, caseNumber string) (*model.Complaint, error) {
	c, ok := m.complaints[caseNumber]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListComplaints(_ context.Context) ([]model.Complaint, error) {
	var out []model.Complaint
	for _, key := range sortedKeys(m.complaints) {
		out = append(out, *m.complaints[key])
	}
	return out, nil
}

func (m *memStore) ListComplaintsByPrefix(_ context.Context, casePrefix string) ([]model.Complaint, error) {
	var out []model.Complaint
	for _, key := range sortedKeys(m.complaints) {
		if m.complaints[key].CasePrefix == casePrefix {
			out = append(out, *m.complaints[key])
		}
	}
	return out, nil
}

func (m *memStore) UpsertSettlement(_ context.Context, s *model.Settlement) error {
	cp := *s
	m.settlements[s.SourceURL] = &cp
	return nil
}

func (m *memStore) GetSettlement(_ context.Context, sourceURL string) (*model.Settlement, error) {
	s, ok := m.settlements[sourceURL]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListSettlements(_ context.Context) ([]model.Settlement, error) {
	var out []model.Settlement
	for _, key := range sortedKeys(m.settlements) {
		out = append(out, *m.settlements[key])
	}
	return out, nil
}

func (m *memStore) UpsertLicenseOnly(_ context.Context, f *model.LicenseOnlyFiling) error {
	cp := *f
	m.licenseOnly[f.SourceURL] = &cp
	return nil
}

func (m *memStore) ListLicenseOnly(_ context.Context) ([]model.LicenseOnlyFiling, error) {
	var out []model.LicenseOnlyFiling
	for _, key := range sortedKeys(m.licenseOnly) {
		out = append(out, *m.licenseOnly[key])
	}
	return out, nil
}

func (m *memStore) RecordFailure(_ context.Context, rec *model.FailureRecord) error {
	for i := range m.failures {
		if m.failures[i].SourceURL == rec.SourceURL && m.failures[i].Stage == rec.Stage {
			m.failures[i] = *rec
			return nil
		}
	}
	m.failures = append(m.failures, *rec)
	return nil
}

func (m *memStore) ClearFailures(_ context.Context, sourceURL string) error {
	kept := m.failures[:0]
	for _, rec := range m.failures {
		if rec.SourceURL != sourceURL {
			kept = append(kept, rec)
		}
	}
	m.failures = kept
	return nil
}

func (m *memStore) ListFailures(_ context.Context) ([]model.FailureRecord, error) {
	return append([]model.FailureRecord(nil), m.failures...), nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

func sortedKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fakeRunner returns canned text, with per-path failures.
type fakeRunner struct {
	text      string
	errByPath map[string]error
	runs      int
}

func (r *fakeRunner) Run(_ context.Context, pdfPath, outPDF, outText string) (*ocr.Result, error) {
	r.runs++
	if err := r.errByPath[pdfPath]; err != nil {
		return nil, err
	}
	return &ocr.Result{
		SearchablePDF: outPDF,
		TextPath:      outText,
		Text:          r.text,
		Pages:         3,
	}, nil
}

// fakeExtractor returns canned facts, consuming queued errors first.
type fakeExtractor struct {
	complaintFacts  *model.ComplaintFacts
	settlementFacts *model.SettlementFacts
	comparison      string
	compareErr      error
	errs            []error
	calls           int
	compareCalls    int
}

func (e *fakeExtractor) nextErr() error {
	if len(e.errs) == 0 {
		return nil
	}
	err := e.errs[0]
	e.errs = e.errs[1:]
	return err
}

func (e *fakeExtractor) version(kind string) *model.ExtractionVersion {
	return &model.ExtractionVersion{
		Model:       "fake-model",
		PromptKind:  kind,
		Chunks:      1,
		ExtractedAt: time.Now().UTC(),
	}
}

func (e *fakeExtractor) ExtractComplaint(_ context.Context, _ extract.Metadata, _ string) (*model.ComplaintFacts, *model.ExtractionVersion, error) {
	e.calls++
	if err := e.nextErr(); err != nil {
		return nil, nil, err
	}
	facts := e.complaintFacts
	if facts == nil {
		facts = &model.ComplaintFacts{Summary: "a complaint"}
	}
	return facts, e.version("complaint"), nil
}

func (e *fakeExtractor) ExtractSettlement(_ context.Context, _ extract.Metadata, _ string) (*model.SettlementFacts, *model.ExtractionVersion, error) {
	e.calls++
	if err := e.nextErr(); err != nil {
		return nil, nil, err
	}
	facts := e.settlementFacts
	if facts == nil {
		facts = &model.SettlementFacts{Summary: "a settlement"}
	}
	return facts, e.version("settlement"), nil
}

func (e *fakeExtractor) CompareAmendment(_ context.Context, _, _ string) (string, error) {
	e.compareCalls++
	if e.compareErr != nil {
		return "", e.compareErr
	}
	return e.comparison, nil
}
