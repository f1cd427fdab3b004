package extract

import "github.com/boardwatch/filings-cli/internal/model"

// mergeSettlementFacts combines per-chunk extractions into one record.
// The first chunk's summary wins; nullable fields take the first non-null
// value; booleans OR; lists concatenate with duplicates removed (violations
// de-duplicated by NRS code).
func mergeSettlementFacts(results []model.SettlementFacts) model.SettlementFacts {
	if len(results) == 1 {
		return results[0]
	}

	merged := model.SettlementFacts{Summary: results[0].Summary}

	for _, r := range results {
		if merged.LicenseAction == nil {
			merged.LicenseAction = r.LicenseAction
		}
		if merged.LicenseActionRaw == "" {
			merged.LicenseActionRaw = r.LicenseActionRaw
		}
		if merged.ProbationMonths == nil {
			merged.ProbationMonths = r.ProbationMonths
		}
		if merged.IneligibleToReapplyMonths == nil {
			merged.IneligibleToReapplyMonths = r.IneligibleToReapplyMonths
		}
		if merged.FineAmount == nil {
			merged.FineAmount = r.FineAmount
		}
		if merged.InvestigationCosts == nil {
			merged.InvestigationCosts = r.InvestigationCosts
		}
		if merged.CharityDonation == nil {
			merged.CharityDonation = r.CharityDonation
		}
		if merged.CostsPaymentDeadlineDays == nil {
			merged.CostsPaymentDeadlineDays = r.CostsPaymentDeadlineDays
		}
		if r.CostsStayed {
			merged.CostsStayed = true
		}
		if merged.CMEHours == nil {
			merged.CMEHours = r.CMEHours
		}
		if merged.CMETopic == nil {
			merged.CMETopic = r.CMETopic
		}
		if merged.CMEDeadlineMonths == nil {
			merged.CMEDeadlineMonths = r.CMEDeadlineMonths
		}
		if r.PublicReprimand {
			merged.PublicReprimand = true
		}
		if r.NPDBReport {
			merged.NPDBReport = true
		}

		merged.PracticeRestrictions = appendUnique(merged.PracticeRestrictions, r.PracticeRestrictions)
		merged.MonitoringRequirements = appendUnique(merged.MonitoringRequirements, r.MonitoringRequirements)
		merged.ViolationsAdmitted = appendUniqueViolations(merged.ViolationsAdmitted, r.ViolationsAdmitted)
		merged.ViolationsDismissed = appendUniqueViolations(merged.ViolationsDismissed, r.ViolationsDismissed)
	}

	return merged
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, existing := range dst {
			if existing == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

func appendUniqueViolations(dst, src []model.Violation) []model.Violation {
	for _, v := range src {
		found := false
		for _, existing := range dst {
			if existing.NRSCode == v.NRSCode {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
