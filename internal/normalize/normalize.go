// Package normalize strips OCR artifacts from sidecar text before
// extraction. Every rule is purely subtractive: lines are dropped, never
// rewritten or reordered, so the cleaner is idempotent by construction.
package normalize

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Line-level artifact patterns from the board's scanned filings. Margin line
// numbers, "N of M" page counters, page-break slashes, and the recurring OCR
// misreads of ruler marks.
var linePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"only_numbers", regexp.MustCompile(`^\s*\d+\s*$`)},
	{"page_numbers", regexp.MustCompile(`(?i)^\s*\d+\s+of\s+\d+\s*$`)},
	{"slash_markers", regexp.MustCompile(`^\s*[/\\|lI1!]{2,}\s*$`)},
	{"only_punctuation", regexp.MustCompile(`^\s*[^\w\s]+\s*$`)},
	{"k_dividers", regexp.MustCompile(`^\s*[KkEeRr\s\*]{3,}\s*$`)},
	{"ocr_page_markers", regexp.MustCompile(`^\s*(Hf|Hil|M1|M1\}|H!|I!|Il|1l)\s*$`)},
	{"single_symbols", regexp.MustCompile(`^\s*[>\-—=]\s*$`)},
	{"ss_artifacts", regexp.MustCompile(`(?i)^\s*:?\s*SS\.\s*$`)},
}

var (
	bePatternRe    = regexp.MustCompile(`([BeE]{2}\s*){3,}`)
	shortSeqRe     = regexp.MustCompile(`^([A-Za-z]{1,3}\s+){4,}[A-Za-z]{1,3}$`)
	phoneLikeRe    = regexp.MustCompile(`\d{3}[-\s]?\d{3,4}`)
	midCaseFlipRe  = regexp.MustCompile(`[A-Z][a-z][A-Z]|[a-z][A-Z][a-z]`)
	faxNonsenseRe  = regexp.MustCompile(`(?i)[LZVXQ]{2,}|ULed|seBeA|SUNVLY|OUNPLI`)
	numberGarbleRe = regexp.MustCompile(`^[BRRESA\s]{10,}$`)
	capsPairRe     = regexp.MustCompile(`[A-Z]{2,3}\s+[A-Z]{2,3}`)
	nonWordRe      = regexp.MustCompile(`[^\w]`)
)

// Indicator substrings produced when OCR reads the 1-28 margin line numbers
// as letters.
var gibberishIndicators = []string{
	"WwW", "wWw", "Ww", "wW",
	"Bw", "wB", "BW",
	"ND", "YN", "NH", "NM",
	"FB", "FF", "FW",
	"eB", "Be", "eH",
	"mw", "mn", "nn",
	"fF", "Ff",
	"Se", "Oe", "oO",
	"HD", "SS",
	"DAH", "DAW", "UDF",
}

// Stats reports what a cleaning pass removed, keyed by rule name.
type Stats struct {
	TotalLines   int
	RemovedLines int
	ByReason     map[string]int
}

// Clean removes artifact lines from raw OCR text. Pages are delimited by
// form feeds in the sidecar output; lines recurring across three or more
// pages are treated as header/footer boilerplate and dropped everywhere.
func Clean(text string) (string, Stats) {
	stats := Stats{ByReason: make(map[string]int)}
	boilerplate := recurringLines(text)

	var out strings.Builder
	out.Grow(len(text))

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		stats.TotalLines++
		if reason, drop := shouldRemove(line, boilerplate); drop {
			stats.RemovedLines++
			stats.ByReason[reason]++
			continue
		}
		out.WriteString(line)
	}

	if stats.RemovedLines > 0 {
		zap.L().Debug("normalize: removed artifact lines",
			zap.Int("total", stats.TotalLines),
			zap.Int("removed", stats.RemovedLines),
		)
	}
	return out.String(), stats
}

func shouldRemove(line string, boilerplate map[string]bool) (string, bool) {
	for _, p := range linePatterns {
		if p.re.MatchString(strings.TrimRight(line, "\n")) {
			return p.name, true
		}
	}
	trimmed := strings.TrimSpace(line)
	if boilerplate[trimmed] {
		return "recurring_header", true
	}
	if isGibberishLine(trimmed) {
		return "gibberish_margin_numbers", true
	}
	if isFaxHeaderGarbage(trimmed) {
		return "fax_header_garbage", true
	}
	if isNumberSequenceGarbage(trimmed) {
		return "number_sequence_garbage", true
	}
	return "", false
}

// recurringLines finds short lines that repeat on three or more pages of the
// same document. Headers and footers repeat verbatim; body text does not.
func recurringLines(text string) map[string]bool {
	pages := strings.Split(text, "\f")
	if len(pages) < 3 {
		return nil
	}

	counts := make(map[string]int)
	for _, page := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || len(trimmed) > 60 || seen[trimmed] {
				continue
			}
			seen[trimmed] = true
			counts[trimmed]++
		}
	}

	boilerplate := make(map[string]bool)
	for line, n := range counts {
		if n >= 3 {
			boilerplate[line] = true
		}
	}
	return boilerplate
}

// isGibberishLine detects OCR gibberish from margin line numbers: short
// random letter sequences like "ana mn FB WwW ND" or "Co mw IN DH FF Ww".
func isGibberishLine(stripped string) bool {
	if stripped == "" {
		return false
	}

	words := strings.Fields(stripped)
	if len(words) < 2 {
		return false
	}

	shortWords := 0
	totalLen := 0
	twoCharWords := 0
	for _, w := range words {
		totalLen += len(w)
		if len(w) <= 3 {
			shortWords++
		}
		if len(w) == 2 {
			twoCharWords++
		}
	}
	shortRatio := float64(shortWords) / float64(len(words))
	if shortRatio < 0.7 {
		return false
	}
	avgLen := float64(totalLen) / float64(len(words))
	if avgLen > 3.5 {
		return false
	}

	indicatorCount := 0
	for _, ind := range gibberishIndicators {
		if strings.Contains(stripped, ind) {
			indicatorCount++
		}
	}
	if indicatorCount >= 2 && shortRatio >= 0.6 {
		return true
	}

	if twoCharWords >= 3 && len(words) >= 4 && avgLen <= 2.5 {
		return true
	}

	if bePatternRe.MatchString(stripped) {
		return true
	}

	// Repeated 1-3 letter sequences like "RN YN YN NNN YD". Real
	// abbreviation runs have more variety than OCR'd line numbers.
	if shortSeqRe.MatchString(stripped) {
		unique := make(map[string]bool)
		for _, w := range words {
			unique[strings.ToUpper(w)] = true
		}
		if float64(len(unique)) < float64(len(words))*0.7 {
			return true
		}
	}

	return false
}

// isFaxHeaderGarbage detects mangled fax headers: phone-like digit runs
// surrounded by OCR nonsense ("h/t L6LV 088-204 OUNPLISUT ULed seBeA Se]").
func isFaxHeaderGarbage(stripped string) bool {
	if stripped == "" || !phoneLikeRe.MatchString(stripped) {
		return false
	}

	nonsense := 0
	for _, word := range strings.Fields(stripped) {
		clean := nonWordRe.ReplaceAllString(word, "")
		if clean == "" || isAllDigits(clean) {
			continue
		}
		if midCaseFlipRe.MatchString(clean) {
			nonsense++
		}
		if faxNonsenseRe.MatchString(clean) {
			nonsense++
		}
	}
	return nonsense >= 2
}

// isNumberSequenceGarbage detects OCR garbage from margin number columns
// like "BRRRFERBRRESV BARA BZEEBHRES".
func isNumberSequenceGarbage(stripped string) bool {
	if stripped == "" {
		return false
	}
	if numberGarbleRe.MatchString(stripped) {
		return true
	}
	if strings.Contains(stripped, "»") && capsPairRe.MatchString(stripped) {
		allShort := true
		for _, w := range strings.Fields(strings.ReplaceAll(stripped, "»", " ")) {
			if isAllLetters(w) && len(w) > 4 {
				allShort = false
				break
			}
		}
		if allShort {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return s != ""
}

// NonBlankLines counts lines with any non-whitespace content. A cleaned
// document with one or fewer such lines is an OCR failure: the scan produced
// nothing extractable.
func NonBlankLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
