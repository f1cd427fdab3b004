package report

import (
	"context"
	"sort"

	"github.com/boardwatch/filings-cli/internal/model"
)

// CaseSummary is the rollup of one case series: every complaint sharing a
// case-number prefix plus the settlement that resolved it, if any.
type CaseSummary struct {
	CasePrefix    string   `yaml:"case_prefix"`
	Respondent    string   `yaml:"respondent,omitempty"`
	FilingYear    int      `yaml:"filing_year,omitempty"`
	Complaints    int      `yaml:"complaints"`
	Amendments    int      `yaml:"amendments"`
	SeriesTotal   int      `yaml:"series_total"`
	Settled       bool     `yaml:"settled"`
	Outcome       string   `yaml:"outcome,omitempty"`
	LicenseAction string   `yaml:"license_action,omitempty"`
	FineAmount    *float64 `yaml:"fine_amount,omitempty"`
}

// CaseSummaries groups stored complaints by case prefix and attaches
// settlement outcomes, sorted by prefix.
func (r *Reporter) CaseSummaries(ctx context.Context) ([]CaseSummary, error) {
	complaints, err := r.source.ListComplaints(ctx)
	if err != nil {
		return nil, err
	}
	settlements, err := r.source.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}

	// Settlement by case prefix of each case number it resolves.
	settled := make(map[string]*model.Settlement)
	for i := range settlements {
		s := &settlements[i]
		for _, cn := range s.CaseNumbers {
			if prefix, _, ok := model.SplitCaseNumber(cn); ok {
				settled[prefix] = s
			}
		}
	}

	byPrefix := make(map[string]*CaseSummary)
	for _, c := range complaints {
		sum, ok := byPrefix[c.CasePrefix]
		if !ok {
			sum = &CaseSummary{CasePrefix: c.CasePrefix}
			byPrefix[c.CasePrefix] = sum
		}
		sum.Complaints++
		if c.IsAmended {
			sum.Amendments++
		}
		if c.SeriesTotal > sum.SeriesTotal {
			sum.SeriesTotal = c.SeriesTotal
		}
		if sum.Respondent == "" {
			sum.Respondent = c.Respondent
		}
		if sum.FilingYear == 0 {
			sum.FilingYear = c.FilingYear
		}
	}

	for prefix, sum := range byPrefix {
		s, ok := settled[prefix]
		if !ok {
			continue
		}
		sum.Settled = true
		sum.Outcome = s.Outcome
		if s.Extracted != nil {
			if s.Extracted.LicenseAction != nil {
				sum.LicenseAction = *s.Extracted.LicenseAction
			}
			sum.FineAmount = s.Extracted.FineAmount
		}
	}

	out := make([]CaseSummary, 0, len(byPrefix))
	for _, sum := range byPrefix {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CasePrefix < out[j].CasePrefix })
	return out, nil
}
