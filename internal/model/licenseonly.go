package model

import "time"

// LicenseOnlyFiling is an administrative action tied to a license number
// rather than a case: summary suspensions, voluntary surrenders, probation
// releases. These carry text and metadata only and never reach extraction.
type LicenseOnlyFiling struct {
	ID            string    `json:"id" db:"id"`
	SourceURL     string    `json:"source_url" db:"source_url"`
	LicenseNumber string    `json:"license_number" db:"license_number"`
	DocType       string    `json:"doc_type" db:"doc_type"`
	Respondent    string    `json:"respondent" db:"respondent"`
	FilingDate    time.Time `json:"filing_date,omitempty" db:"filing_date"`
	Text          string    `json:"-" db:"text"`
	OCRFailed     bool      `json:"ocr_failed" db:"ocr_failed"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
