package report

import (
	"context"
	"time"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/store"
)

// Gaps lists everything the pipeline knows it could not finish: recorded
// failures, settlements with no matched complaint, amendments whose
// original was never stored, and documents whose text never survived OCR.
type Gaps struct {
	GeneratedAt          time.Time              `yaml:"generated_at"`
	Failures             []model.FailureRecord  `yaml:"failures,omitempty"`
	UnmatchedSettlements []UnmatchedSettlement  `yaml:"unmatched_settlements,omitempty"`
	OrphanAmendments     []OrphanAmendment      `yaml:"orphan_amendments,omitempty"`
	OcrFailedDocuments   []string               `yaml:"ocr_failed_documents,omitempty"`
}

// UnmatchedSettlement is a settlement none of whose case numbers resolved
// to a stored complaint. Valid state, not an error; the complaint may be
// filed or processed later.
type UnmatchedSettlement struct {
	SourceURL   string   `yaml:"source_url"`
	Respondent  string   `yaml:"respondent,omitempty"`
	CaseNumbers []string `yaml:"case_numbers"`
}

// OrphanAmendment is an amended complaint with no stored original.
type OrphanAmendment struct {
	CaseNumber string    `yaml:"case_number"`
	DocType    string    `yaml:"doc_type"`
	FilingDate time.Time `yaml:"filing_date,omitempty"`
}

// Gaps builds the known-gaps report.
func (r *Reporter) Gaps(ctx context.Context) (*Gaps, error) {
	failures, err := r.source.ListFailures(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := r.source.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}
	var unmatched []UnmatchedSettlement
	for _, s := range settlements {
		if len(s.ComplaintRefs) > 0 {
			continue
		}
		unmatched = append(unmatched, UnmatchedSettlement{
			SourceURL:   s.SourceURL,
			Respondent:  s.Respondent,
			CaseNumbers: s.CaseNumbers,
		})
	}

	complaints, err := r.source.ListComplaints(ctx)
	if err != nil {
		return nil, err
	}
	var orphans []OrphanAmendment
	for _, c := range complaints {
		if c.IsAmended && c.AmendsCaseNum == "" {
			orphans = append(orphans, OrphanAmendment{
				CaseNumber: c.CaseNumber,
				DocType:    c.DocType,
				FilingDate: c.FilingDate,
			})
		}
	}

	filings, err := r.source.ListFilings(ctx, store.FilingFilter{})
	if err != nil {
		return nil, err
	}
	var ocrFailed []string
	for _, f := range filings {
		if f.OCRFailed {
			ocrFailed = append(ocrFailed, f.SourceURL)
		}
	}

	return &Gaps{
		GeneratedAt:          time.Now().UTC(),
		Failures:             failures,
		UnmatchedSettlements: unmatched,
		OrphanAmendments:     orphans,
		OcrFailedDocuments:   ocrFailed,
	}, nil
}
