package model

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filing is one discovered board document: the scraped PDF plus everything
// the pipeline derives from it. SourceURL is the stable identity of the
// document; a filing is never duplicated across runs.
type Filing struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	TitleRaw     string    `json:"title_raw,omitempty" db:"title_raw"`
	SourceURL    string    `json:"source_url" db:"source_url"`
	PDFPath      string    `json:"pdf_path,omitempty" db:"pdf_path"`
	DocType      string    `json:"doc_type" db:"doc_type"`
	Respondent   string    `json:"respondent" db:"respondent"`
	CaseNumber   string    `json:"case_number" db:"case_number"`
	CaseNumbers  []string  `json:"case_numbers,omitempty" db:"-"`
	FilingYear   int       `json:"filing_year,omitempty" db:"filing_year"`
	FilingDate   time.Time `json:"filing_date,omitempty" db:"filing_date"`
	Status       DocStatus `json:"status" db:"status"`
	OCRFailed    bool      `json:"ocr_failed,omitempty" db:"ocr_failed"`
	PageCount    int       `json:"page_count,omitempty" db:"page_count"`
	TextPath     string    `json:"text_path,omitempty" db:"text_path"`
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`
	ProcessedAt  time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// ParsedTitle is the structured reading of a filing title in the board's
// "Type - Respondent - Case No N" convention.
type ParsedTitle struct {
	DocType     string
	Respondent  string
	CaseNumber  string
	CaseInfoRaw string
}

var (
	dashSpaceLeftRe  = regexp.MustCompile(`([a-zA-Z])- ([a-zA-Z])`)
	dashSpaceRightRe = regexp.MustCompile(`([a-zA-Z]) -([a-zA-Z])`)
	commaCaseNoRe    = regexp.MustCompile(`(?i), (Case Nos?\b)`)
	caeTypoRe        = regexp.MustCompile(`(?i)\bCae No\b`)
	csaeTypoRe       = regexp.MustCompile(`(?i)\bCsae No\b`)
	liceneTypoRe     = regexp.MustCompile(`(?i)\bLicene No\b`)

	titleCaser = cases.Title(language.AmericanEnglish, cases.NoLower)
)

// FixTitleSpacing repairs dashes that lost a flanking space during scraping,
// so "Complaint- John Doe" splits the same as "Complaint - John Doe".
func FixTitleSpacing(title string) string {
	title = dashSpaceLeftRe.ReplaceAllString(title, "$1 - $2")
	title = dashSpaceRightRe.ReplaceAllString(title, "$1 - $2")
	return title
}

// fixCaseInfoTypos corrects the recurring misspellings seen in board titles.
func fixCaseInfoTypos(caseInfo string) string {
	caseInfo = caeTypoRe.ReplaceAllString(caseInfo, "Case No")
	caseInfo = csaeTypoRe.ReplaceAllString(caseInfo, "Case No")
	caseInfo = liceneTypoRe.ReplaceAllString(caseInfo, "License No")
	return caseInfo
}

// ParseTitle splits a filing title into document type, respondent, and case
// number. Comma-separated variants ("Name, MD, Case No 11-5171-1") are
// converted to the dash convention first, and everything after the second
// dash is treated as case info so credentialed names survive intact.
func ParseTitle(title string) ParsedTitle {
	title = FixTitleSpacing(title)
	title = commaCaseNoRe.ReplaceAllString(title, " - $1")

	parts := strings.Split(title, " - ")

	if len(parts) >= 3 {
		caseInfo := fixCaseInfoTypos(strings.TrimSpace(strings.Join(parts[2:], " - ")))
		return ParsedTitle{
			DocType:     strings.TrimSpace(parts[0]),
			Respondent:  strings.TrimSpace(parts[1]),
			CaseNumber:  ExtractCaseNumber(caseInfo),
			CaseInfoRaw: caseInfo,
		}
	}

	if len(parts) == 2 {
		docType := strings.TrimSpace(parts[0])
		second := fixCaseInfoTypos(strings.TrimSpace(parts[1]))
		if strings.Contains(second, "Case No") || strings.Contains(second, "License No") {
			return ParsedTitle{
				DocType:     docType,
				CaseNumber:  ExtractCaseNumber(second),
				CaseInfoRaw: second,
			}
		}
		return ParsedTitle{DocType: docType, Respondent: strings.TrimSpace(parts[1])}
	}

	return ParsedTitle{DocType: strings.TrimSpace(title)}
}

// CanonicalRespondent normalizes a respondent name for cross-filing matching:
// collapsed whitespace and title-cased words, with credentials left as-is.
func CanonicalRespondent(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return titleCaser.String(name)
}
