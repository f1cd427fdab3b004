package report

import (
	"context"
	"fmt"
	"regexp"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/store"
)

// Issue kinds surfaced by Validate.
const (
	IssueMissingCaseNumber   = "missing_case_number"
	IssueMalformedCaseNumber = "malformed_case_number"
	IssueLeadingZeroSuffix   = "leading_zero_suffix"
	IssueYearMismatch        = "year_mismatch"
	IssueUnparsedTitle       = "unparsed_title"
	IssueUnknownPrefix       = "unknown_prefix"
)

// Issue is one data-quality finding against a stored record.
type Issue struct {
	Kind       string `yaml:"kind"`
	SourceURL  string `yaml:"source_url,omitempty"`
	CaseNumber string `yaml:"case_number,omitempty"`
	Detail     string `yaml:"detail,omitempty"`
}

var leadingZeroSuffixRe = regexp.MustCompile(`-0\d+$`)

// Validate scans stored filings, complaints, and settlements for the
// recurring source-data defects: case numbers that never parsed, suffixes
// carrying a scraped leading zero, years that disagree with the case
// number, titles that never yielded a case number, and settlement case
// numbers whose prefix matches no stored complaint.
func (r *Reporter) Validate(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	filings, err := r.source.ListFilings(ctx, store.FilingFilter{})
	if err != nil {
		return nil, err
	}
	for _, f := range filings {
		if f.Status == model.StatusIgnored {
			continue
		}
		if f.CaseNumber == "" {
			kind := IssueMissingCaseNumber
			if f.DocType == "" {
				kind = IssueUnparsedTitle
			}
			issues = append(issues, Issue{Kind: kind, SourceURL: f.SourceURL, Detail: f.Title})
			continue
		}
		if model.IsLicenseOnly(f.CaseNumber) {
			continue
		}
		if _, _, ok := model.SplitCaseNumber(f.CaseNumber); !ok {
			issues = append(issues, Issue{
				Kind:       IssueMalformedCaseNumber,
				SourceURL:  f.SourceURL,
				CaseNumber: f.CaseNumber,
			})
			continue
		}
		if leadingZeroSuffixRe.MatchString(f.CaseNumber) {
			issues = append(issues, Issue{
				Kind:       IssueLeadingZeroSuffix,
				SourceURL:  f.SourceURL,
				CaseNumber: f.CaseNumber,
			})
		}
		if year := model.YearFromCaseNumber(f.CaseNumber); year != 0 && f.FilingYear != 0 && year != f.FilingYear {
			issues = append(issues, Issue{
				Kind:       IssueYearMismatch,
				SourceURL:  f.SourceURL,
				CaseNumber: f.CaseNumber,
				Detail:     fmt.Sprintf("case number year %d, filing year %d", year, f.FilingYear),
			})
		}
	}

	complaints, err := r.source.ListComplaints(ctx)
	if err != nil {
		return nil, err
	}
	prefixes := make(map[string]bool, len(complaints))
	for _, c := range complaints {
		prefixes[c.CasePrefix] = true
	}

	settlements, err := r.source.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range settlements {
		for _, cn := range s.CaseNumbers {
			prefix, _, ok := model.SplitCaseNumber(cn)
			if !ok {
				issues = append(issues, Issue{
					Kind:       IssueMalformedCaseNumber,
					SourceURL:  s.SourceURL,
					CaseNumber: cn,
				})
				continue
			}
			if !prefixes[prefix] {
				issues = append(issues, Issue{
					Kind:       IssueUnknownPrefix,
					SourceURL:  s.SourceURL,
					CaseNumber: cn,
				})
			}
		}
	}

	return issues, nil
}
