package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRemovesArtifactLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"margin line number", "12"},
		{"page counter", "5 of 6"},
		{"page break slashes", "///"},
		{"slash l mix", "//1"},
		{"only punctuation", "...---..."},
		{"k divider", "KKK KEKE"},
		{"ocr page marker", "Hil"},
		{"single symbol", "—"},
		{"ss artifact", ": SS."},
		{"gibberish margin numbers", "ana mn FB WwW ND"},
		{"two char gibberish", "Co mw IN DH FF Ww"},
		{"number sequence garbage", "BRRESABARA BESSBARA"},
		{"fax header garbage", "h/t L6LV 088-204 OUNPLISUT ULed seBeA Se]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "BEFORE THE BOARD OF MEDICAL EXAMINERS\n" + tt.line + "\nThe Investigative Committee alleges as follows.\n"
			out, stats := Clean(in)
			assert.NotContains(t, out, tt.line)
			assert.Contains(t, out, "BEFORE THE BOARD OF MEDICAL EXAMINERS")
			assert.Contains(t, out, "The Investigative Committee alleges as follows.")
			assert.Equal(t, 1, stats.RemovedLines)
		})
	}
}

func TestCleanKeepsLegitimateText(t *testing.T) {
	lines := []string{
		"COMPLAINT",
		"Respondent is licensed to practice medicine in this state.",
		"NRS 630.301(4) provides grounds for discipline.",
		"On or about March 3, 2021, Patient A presented to the clinic.",
		"IT IS SO ORDERED.",
	}
	in := strings.Join(lines, "\n") + "\n"
	out, stats := Clean(in)
	assert.Equal(t, in, out)
	assert.Equal(t, 0, stats.RemovedLines)
}

func TestCleanIdempotent(t *testing.T) {
	in := strings.Join([]string{
		"BEFORE THE BOARD OF MEDICAL EXAMINERS",
		"1",
		"2",
		"ana mn FB WwW ND",
		"The Investigative Committee of the Board alleges:",
		"5 of 6",
		"///",
		"Respondent violated NRS 630.306.",
	}, "\n") + "\n"

	once, _ := Clean(in)
	twice, stats := Clean(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 0, stats.RemovedLines)
}

func TestCleanRemovesRecurringHeaders(t *testing.T) {
	page := "FILED ELECTRONICALLY\nSome unique body text %d goes here with plenty of words.\n"
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteString(strings.Replace(page, "%d", string(rune('A'+i)), 1))
		b.WriteString("\f\n")
	}

	out, stats := Clean(b.String())
	assert.NotContains(t, out, "FILED ELECTRONICALLY")
	assert.Contains(t, out, "Some unique body text A")
	assert.Equal(t, 4, stats.ByReason["recurring_header"])
}

func TestCleanRecurringHeadersNeedThreePages(t *testing.T) {
	in := "HEADER\nbody one line of real text here\n\f\nHEADER\nmore real body text on page two\n"
	out, _ := Clean(in)
	assert.Contains(t, out, "HEADER")
}

func TestCleanPurelySubtractive(t *testing.T) {
	in := "Line one stays.\n17\nLine two stays.\n"
	out, _ := Clean(in)

	// Every surviving line must appear in the input, in the same order.
	var idx int
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		pos := strings.Index(in[idx:], line)
		require.GreaterOrEqual(t, pos, 0)
		idx += pos + len(line)
	}
}

func TestNonBlankLines(t *testing.T) {
	assert.Equal(t, 0, NonBlankLines(""))
	assert.Equal(t, 0, NonBlankLines("\n  \n\t\n"))
	assert.Equal(t, 2, NonBlankLines("a\n\nb\n"))
}
