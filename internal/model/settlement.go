package model

import (
	"strings"
	"time"
)

// Settlement is a stored settlement filing keyed by source URL, not case
// number: one settlement PDF routinely resolves several cases at once.
type Settlement struct {
	ID            string             `json:"id" db:"id"`
	SourceURL     string             `json:"source_url" db:"source_url"`
	DocType       string             `json:"doc_type" db:"doc_type"`
	Respondent    string             `json:"respondent" db:"respondent"`
	CaseNumbers   []string           `json:"case_numbers" db:"-"`
	ComplaintRefs []string           `json:"complaint_refs" db:"-"`
	FilingYear    int                `json:"filing_year" db:"filing_year"`
	FilingDate    time.Time          `json:"filing_date,omitempty" db:"filing_date"`
	Outcome       string             `json:"resolution_outcome" db:"resolution_outcome"`
	Text          string             `json:"-" db:"text"`
	OCRFailed     bool               `json:"ocr_failed" db:"ocr_failed"`
	Extracted     *SettlementFacts   `json:"extracted,omitempty" db:"-"`
	Extraction    *ExtractionVersion `json:"extraction,omitempty" db:"-"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// Resolution outcomes: contested cases that went to a formal hearing produce
// Findings of Fact documents; everything else is a negotiated settlement.
const (
	OutcomeSettlement = "Settlement"
	OutcomeHearing    = "Hearing"
)

// ResolutionOutcome derives the outcome from the settlement's document type.
func ResolutionOutcome(docType string) string {
	if strings.Contains(strings.ToLower(docType), "findings of fact") {
		return OutcomeHearing
	}
	return OutcomeSettlement
}

// SettlementFacts is the structured payload extracted from a settlement.
// Pointer fields are nullable; chunk merging fills them first-wins.
type SettlementFacts struct {
	Summary                   string      `json:"summary"`
	LicenseAction             *string     `json:"license_action"`
	LicenseActionRaw          string      `json:"license_action_raw,omitempty"`
	ProbationMonths           *float64    `json:"probation_months"`
	IneligibleToReapplyMonths *float64    `json:"ineligible_to_reapply_months"`
	FineAmount                *float64    `json:"fine_amount"`
	InvestigationCosts        *float64    `json:"investigation_costs"`
	CharityDonation           *float64    `json:"charity_donation"`
	CostsPaymentDeadlineDays  *int        `json:"costs_payment_deadline_days"`
	CostsStayed               bool        `json:"costs_stayed"`
	CMEHours                  *float64    `json:"cme_hours"`
	CMETopic                  *string     `json:"cme_topic"`
	CMEDeadlineMonths         *int        `json:"cme_deadline_months"`
	PublicReprimand           bool        `json:"public_reprimand"`
	NPDBReport                bool        `json:"npdb_report"`
	PracticeRestrictions      []string    `json:"practice_restrictions"`
	MonitoringRequirements    []string    `json:"monitoring_requirements"`
	ViolationsAdmitted        []Violation `json:"violations_admitted"`
	ViolationsDismissed       []Violation `json:"violations_dismissed"`
}

// Violation is one statutory violation cited in a settlement, identified by
// its NRS code.
type Violation struct {
	NRSCode     string `json:"nrs_code"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}
