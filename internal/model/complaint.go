package model

import "time"

// Complaint is a stored complaint filing keyed by case number. One case
// number maps to exactly one complaint record; re-processing converges on
// the same record.
type Complaint struct {
	ID              string             `json:"id" db:"id"`
	CaseNumber      string             `json:"case_number" db:"case_number"`
	CasePrefix      string             `json:"case_prefix" db:"case_prefix"`
	SeriesIndex     int                `json:"series_index" db:"series_index"`
	SeriesTotal     int                `json:"series_total" db:"series_total"`
	SourceURL       string             `json:"source_url" db:"source_url"`
	DocType         string             `json:"doc_type" db:"doc_type"`
	Respondent      string             `json:"respondent" db:"respondent"`
	FilingYear      int                `json:"filing_year" db:"filing_year"`
	FilingDate      time.Time          `json:"filing_date,omitempty" db:"filing_date"`
	IsAmended       bool               `json:"is_amended" db:"is_amended"`
	AmendsCaseNum   string             `json:"amends_case_number,omitempty" db:"amends_case_number"`
	AmendmentSummary string             `json:"amendment_summary,omitempty" db:"amendment_summary"`
	Text            string             `json:"-" db:"text"`
	OCRFailed       bool               `json:"ocr_failed" db:"ocr_failed"`
	Extracted       *ComplaintFacts    `json:"extracted,omitempty" db:"-"`
	Extraction      *ExtractionVersion `json:"extraction,omitempty" db:"-"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// ComplaintFacts is the structured payload the extraction engine produces
// for a complaint. Nullable numerics are pointers so chunk merging can
// distinguish absent from zero.
type ComplaintFacts struct {
	Summary         string        `json:"summary"`
	Specialty       *string       `json:"specialty"`
	Category        *string       `json:"category"`
	CategoryRaw     string        `json:"category_raw,omitempty"`
	Procedure       *string       `json:"procedure"`
	NumComplainants *int          `json:"num_complainants"`
	Complainants    []Complainant `json:"complainants"`
	Drugs           []string      `json:"drugs"`
}

// Complainant describes one patient referenced by a complaint.
type Complainant struct {
	Age *int   `json:"age"`
	Sex string `json:"sex,omitempty"`
}

// ExtractionVersion records provenance for an extraction payload. Extraction
// never mutates in place; each run writes a fresh version.
type ExtractionVersion struct {
	Model       string    `json:"model"`
	PromptKind  string    `json:"prompt_kind"`
	Chunks      int       `json:"chunks"`
	Retried     bool      `json:"retried"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// ComplaintPriority ranks complaint document types so the highest amendment
// wins as the primary version of a case. Unknown types rank 0.
func ComplaintPriority(docType string) int {
	switch docType {
	case "Complaint":
		return 1
	case "First Amended Complaint", "Amended Complaint":
		return 2
	case "Second Amended Complaint":
		return 3
	case "Third Amended Complaint":
		return 4
	}
	return 0
}
