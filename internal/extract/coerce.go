package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/model"
)

// Allowed values for enumerated fields. The model is told the sets in the
// prompt; an unrecognized value is still coerced to the fallback here, with
// the raw value kept in a side field for audit.
var (
	allowedLicenseActions = map[string]bool{
		"revocation":  true,
		"suspension":  true,
		"surrender":   true,
		"probation":   true,
		"restriction": true,
		"reprimand":   true,
		"none":        true,
	}
	allowedCategories = map[string]bool{
		"Surgical Error":     true,
		"Medication Error":   true,
		"Misdiagnosis":       true,
		"Failure to Treat":   true,
		"Sexual Misconduct":  true,
		"Substance Abuse":    true,
		"Fraud":              true,
		"Record Keeping":     true,
		"Boundary Violation": true,
		"Other":              true,
	}
)

const (
	fallbackLicenseAction = "none"
	fallbackCategory      = "Other"
)

// coerceSettlement forces license_action into the allowed set. "Terminated"
// becomes "none" with the original preserved in LicenseActionRaw.
func coerceSettlement(f *model.SettlementFacts) {
	if f.LicenseAction == nil {
		return
	}
	normalized := strings.ToLower(strings.TrimSpace(*f.LicenseAction))
	if allowedLicenseActions[normalized] {
		f.LicenseAction = &normalized
		return
	}
	zap.L().Warn("extract: coercing unrecognized license_action",
		zap.String("raw", *f.LicenseAction),
	)
	f.LicenseActionRaw = *f.LicenseAction
	fallback := fallbackLicenseAction
	f.LicenseAction = &fallback
}

// coerceComplaint forces category into the allowed set, preserving the raw
// value for audit.
func coerceComplaint(f *model.ComplaintFacts) {
	if f.Category == nil {
		return
	}
	trimmed := strings.TrimSpace(*f.Category)
	if allowedCategories[trimmed] {
		f.Category = &trimmed
		return
	}
	zap.L().Warn("extract: coercing unrecognized category",
		zap.String("raw", *f.Category),
	)
	f.CategoryRaw = *f.Category
	fallback := fallbackCategory
	f.Category = &fallback
}
