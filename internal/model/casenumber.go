package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Case numbers have the form YY-NNNNN-S: a two-digit filing year, a case
// sequence shared by every document in the case, and a suffix numbering the
// documents within the series. LICENSE-XXXX identifiers mark administrative
// actions tied to a license rather than a case.
var (
	caseNumberRe  = regexp.MustCompile(`^(\d+-\d+)-(\d+)$`)
	licenseOnlyRe = regexp.MustCompile(`^LICENSE-[A-Za-z]*\d+$`)
	leadingZeroRe = regexp.MustCompile(`^(\d+-\d+)-0+(\d+)$`)
	missingDashRe = regexp.MustCompile(`^(\d{2})-(\d{5,})(\d)$`)
	pdfSuffixRe   = regexp.MustCompile(`(?i)pdf$`)
	caseNoRe      = regexp.MustCompile(`(?i)^Case No\.?\s*(.+)$`)
	caseNosRe     = regexp.MustCompile(`(?i)^Case Nos\.?\s*(.+)$`)
	licenseNoRe   = regexp.MustCompile(`(?i)^License No\.?\s*([A-Za-z]*\d+)`)
	fullCaseRe    = regexp.MustCompile(`^\d+-\d+-\d+$`)
	shortRefRe    = regexp.MustCompile(`^-\d+$`)
	bareNumRe     = regexp.MustCompile(`^\d+$`)
)

// FixCaseNumber normalizes a case number for consistent matching:
// a stuck "pdf" suffix is removed (08-12069-1pdf -> 08-12069-1), leading
// zeros in the document suffix are stripped (19-32539-01 -> 19-32539-1),
// and a missing final dash is reinserted (13-1001401 -> 13-10014-1).
func FixCaseNumber(caseNumber string) string {
	if caseNumber == "" {
		return caseNumber
	}

	caseNumber = pdfSuffixRe.ReplaceAllString(caseNumber, "")
	caseNumber = leadingZeroRe.ReplaceAllString(caseNumber, "$1-$2")

	if m := missingDashRe.FindStringSubmatch(caseNumber); m != nil {
		caseNumber = fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}

	return caseNumber
}

// SplitCaseNumber splits a case number into its series prefix and document
// suffix. Returns ok=false for anything that does not match YY-NNNNN-S.
func SplitCaseNumber(caseNumber string) (prefix string, suffix int, ok bool) {
	m := caseNumberRe.FindStringSubmatch(caseNumber)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// IsLicenseOnly reports whether a case number is a license-only identifier
// such as LICENSE-401 or LICENSE-RC36.
func IsLicenseOnly(caseNumber string) bool {
	return licenseOnlyRe.MatchString(caseNumber)
}

// YearFromCaseNumber derives the four-digit filing year from the two-digit
// case number prefix. Prefixes 00-30 map to the 2000s, the rest to the 1900s.
// Returns 0 when the case number carries no year.
func YearFromCaseNumber(caseNumber string) int {
	if len(caseNumber) < 3 || caseNumber[2] != '-' {
		return 0
	}
	yy, err := strconv.Atoi(caseNumber[:2])
	if err != nil {
		return 0
	}
	if yy <= 30 {
		return 2000 + yy
	}
	return 1900 + yy
}

// ExtractCaseNumber pulls the case number out of the case-info segment of a
// filing title. "Case No 25-8654-1" yields "25-8654-1", "License No RC36"
// yields "LICENSE-RC36", and "Case Nos 24-22461-1, -2" is returned raw for
// ExpandCaseNumbers to resolve.
func ExtractCaseNumber(caseInfo string) string {
	caseInfo = strings.TrimSpace(caseInfo)

	if m := licenseNoRe.FindStringSubmatch(caseInfo); m != nil {
		return "LICENSE-" + m[1]
	}
	// Plural before singular: "Case Nos" also matches the singular pattern.
	if m := caseNosRe.FindStringSubmatch(caseInfo); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := caseNoRe.FindStringSubmatch(caseInfo); m != nil {
		return strings.TrimSpace(m[1])
	}

	return caseInfo
}

// ExpandCaseNumbers expands a condensed multi-case reference into individual
// case numbers:
//
//	"24-22461-1, -2, -3"        -> [24-22461-1 24-22461-2 24-22461-3]
//	"12-6816-1 and 13-6816-1"   -> [12-6816-1 13-6816-1]
//	"24-11896-1, 25-11896-1, -2" -> [24-11896-1 25-11896-1 25-11896-2]
//
// Short references (-2, or a bare 2) inherit the prefix of the most recent
// full case number.
func ExpandCaseNumbers(raw string) []string {
	if raw == "" {
		return nil
	}

	raw = strings.ReplaceAll(raw, " and ", ", ")
	if !strings.Contains(raw, ",") {
		return []string{FixCaseNumber(raw)}
	}

	var expanded []string
	var currentPrefix string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case fullCaseRe.MatchString(part):
			expanded = append(expanded, FixCaseNumber(part))
			if p, _, ok := SplitCaseNumber(part); ok {
				currentPrefix = p
			}
		case shortRefRe.MatchString(part) && currentPrefix != "":
			expanded = append(expanded, FixCaseNumber(currentPrefix+part))
		case bareNumRe.MatchString(part) && currentPrefix != "":
			expanded = append(expanded, FixCaseNumber(currentPrefix+"-"+part))
		default:
			expanded = append(expanded, FixCaseNumber(part))
		}
	}
	return expanded
}
