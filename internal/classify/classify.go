package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/model"
)

// Kind is the top-level document classification.
type Kind string

const (
	KindComplaint   Kind = "complaint"
	KindSettlement  Kind = "settlement"
	KindLicenseOnly Kind = "license_only"
	KindIgnored     Kind = "ignored"
)

// Result carries the classification plus the sub-kind flags downstream
// stages branch on.
type Result struct {
	Kind             Kind
	IsAmended        bool
	IsFindingsOfFact bool
	IsModification   bool
	Priority         int
}

// Lists is the classifier's lookup data. It is injected configuration, not
// package state, so new filing-type variants are additive config changes.
// ComplaintTypes maps label to amendment priority (Complaint=1, First
// Amended=2, ...). SettlementTypes match exactly or by prefix, which absorbs
// trailing qualifiers the board appends to the standard titles.
type Lists struct {
	ComplaintTypes  map[string]int `mapstructure:"complaint_types" yaml:"complaint_types"`
	SettlementTypes []string       `mapstructure:"settlement_types" yaml:"settlement_types"`
}

// DefaultLists returns the known board filing types observed to date.
func DefaultLists() Lists {
	return Lists{
		ComplaintTypes: map[string]int{
			"Complaint": 1,
			"Complaint and Request for Summary Suspension": 1,
			"Amended Complaint":        2,
			"First Amended Complaint":  2,
			"Second Amended Complaint": 3,
			"Third Amended Complaint":  4,
		},
		SettlementTypes: []string{
			"Settlement Agreement and Order",
			"Settlement, Waiver and Consent Agreement",
			"Settlement, Waiver and Consent Agreement and Order",
			"Settlement Agreement",
			"Amended Settlement Agreement and Order",
			"First Amended Settlement Agreement and Order",
			"Settlement Agreement and Order Lifting Suspension",
			"Stipulation and Settlement, Waiver and Consent Agreement and Order",
			"Consent Agreement for Revocation of License",
			"Order Modifying Previously Approved Settlement Agreement",
			"Order Modifying Terms of Previously Approved Settlement Agreement",
			"Order Modifying Conditions of Settlement Agreement",
			"Order Amending Settlement Agreement",
			"Stipulation and Order Amending Terms of Settlement Agreement",
			"Addendum to Previously Adopted Settlement",
			"Order Vacating Remaining Term of Previously Adopted Settlement, Waiver and Consent Agreement",
			"Findings of Fact, Conclusions of Law and Order",
			"Findings of Fact, Conclusions of Law, and Order",
			"Amended Findings of Fact, Conclusions of Law and Order",
			// Typo that appears in the source data.
			"Findings of Fact, Conclustions of Law and Order",
		},
	}
}

// Classifier resolves filing-type labels against the configured lookup
// lists.
type Classifier struct {
	lists Lists
}

// New builds a Classifier. Empty list fields fall back to the defaults so a
// partial config override does not silently ignore whole categories.
func New(lists Lists) *Classifier {
	def := DefaultLists()
	if len(lists.ComplaintTypes) == 0 {
		lists.ComplaintTypes = def.ComplaintTypes
	}
	if len(lists.SettlementTypes) == 0 {
		lists.SettlementTypes = def.SettlementTypes
	}
	return &Classifier{lists: lists}
}

// Classify maps a document-type label and case number to a Result.
// License-only case numbers win over the label; complaint labels match
// exactly; settlement labels match exactly or by prefix; everything else is
// Ignored and left available for reclassification once the lists grow.
func (c *Classifier) Classify(docType, caseNumber string) Result {
	if model.IsLicenseOnly(caseNumber) {
		return Result{Kind: KindLicenseOnly}
	}

	if prio, ok := c.lists.ComplaintTypes[docType]; ok {
		return Result{
			Kind:      KindComplaint,
			IsAmended: prio > 1,
			Priority:  prio,
		}
	}

	for _, st := range c.lists.SettlementTypes {
		if docType == st || strings.HasPrefix(docType, st) {
			return Result{
				Kind:             KindSettlement,
				IsAmended:        strings.Contains(docType, "Amended Settlement"),
				IsFindingsOfFact: strings.Contains(strings.ToLower(docType), "findings of fact"),
				IsModification:   isModification(docType),
			}
		}
	}

	zap.L().Debug("classify: unrecognized document type",
		zap.String("doc_type", docType),
		zap.String("case_number", caseNumber),
	)
	return Result{Kind: KindIgnored}
}

// Priority returns the configured amendment rank for a complaint label.
// Labels outside the complaint list rank 0.
func (c *Classifier) Priority(docType string) int {
	return c.lists.ComplaintTypes[docType]
}

func isModification(docType string) bool {
	lower := strings.ToLower(docType)
	for _, marker := range []string{"modifying", "amending terms", "addendum", "vacating"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
