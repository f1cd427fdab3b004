package pipeline

import (
	"github.com/boardwatch/filings-cli/internal/model"
)

// Intake fills a filing's derived fields from its title. Fields the scraper
// already supplied are left alone; the title is the fallback, not the
// authority.
func Intake(f *model.Filing) {
	if f.TitleRaw == "" {
		f.TitleRaw = f.Title
	}
	f.Title = model.FixTitleSpacing(f.TitleRaw)

	parsed := model.ParseTitle(f.TitleRaw)
	if f.DocType == "" {
		f.DocType = parsed.DocType
	}
	if f.Respondent == "" && parsed.Respondent != "" {
		f.Respondent = model.CanonicalRespondent(parsed.Respondent)
	}

	if len(f.CaseNumbers) == 0 {
		raw := f.CaseNumber
		if raw == "" {
			raw = parsed.CaseNumber
		}
		f.CaseNumbers = model.ExpandCaseNumbers(raw)
	}
	if f.CaseNumber == "" && len(f.CaseNumbers) > 0 {
		f.CaseNumber = f.CaseNumbers[0]
	}
	f.CaseNumber = model.FixCaseNumber(f.CaseNumber)

	if f.FilingYear == 0 {
		if !f.FilingDate.IsZero() {
			f.FilingYear = f.FilingDate.Year()
		} else {
			f.FilingYear = model.YearFromCaseNumber(f.CaseNumber)
		}
	}
	if f.Status == "" {
		f.Status = model.StatusDiscovered
	}
}
