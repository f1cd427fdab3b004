package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boardwatch/filings-cli/internal/model"
)

func TestIntakeParsesTitle(t *testing.T) {
	f := &model.Filing{
		Title:     "Complaint - John Doe, MD - Case No 25-8654-1",
		SourceURL: "https://board.example.gov/a.pdf",
	}
	Intake(f)

	assert.Equal(t, "Complaint", f.DocType)
	assert.Equal(t, "John Doe, MD", f.Respondent)
	assert.Equal(t, "25-8654-1", f.CaseNumber)
	assert.Equal(t, []string{"25-8654-1"}, f.CaseNumbers)
	assert.Equal(t, 2025, f.FilingYear)
	assert.Equal(t, model.StatusDiscovered, f.Status)
	assert.Equal(t, "Complaint - John Doe, MD - Case No 25-8654-1", f.TitleRaw)
}

func TestIntakeExpandsMultiCaseTitles(t *testing.T) {
	f := &model.Filing{
		Title: "Settlement Agreement and Order - Jane Roe, DO - Case Nos 24-22461-1, -2, -3",
	}
	Intake(f)

	assert.Equal(t, "Settlement Agreement and Order", f.DocType)
	assert.Equal(t, []string{"24-22461-1", "24-22461-2", "24-22461-3"}, f.CaseNumbers)
	assert.Equal(t, "24-22461-1", f.CaseNumber)
	assert.Equal(t, 2024, f.FilingYear)
}

func TestIntakeRepairsBrokenDashSpacing(t *testing.T) {
	f := &model.Filing{
		Title: "Complaint- John Doe, MD - Case No 25-8654-1",
	}
	Intake(f)

	assert.Equal(t, "Complaint", f.DocType)
	assert.Equal(t, "25-8654-1", f.CaseNumber)
}

func TestIntakeNormalizesSuppliedCaseNumber(t *testing.T) {
	f := &model.Filing{
		Title:      "Complaint - John Doe, MD - Case No 19-32539-01",
		CaseNumber: "19-32539-01",
	}
	Intake(f)

	assert.Equal(t, "19-32539-1", f.CaseNumber)
	assert.Equal(t, []string{"19-32539-1"}, f.CaseNumbers)
}

func TestIntakeKeepsSuppliedMetadata(t *testing.T) {
	date := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	f := &model.Filing{
		Title:      "Complaint - Wrong Name - Case No 23-100-1",
		DocType:    "Complaint",
		Respondent: "Jane Roe, DO",
		FilingDate: date,
	}
	Intake(f)

	assert.Equal(t, "Jane Roe, DO", f.Respondent)
	assert.Equal(t, 2023, f.FilingYear)
}

func TestIntakeLicenseNumberTitle(t *testing.T) {
	f := &model.Filing{
		Title: "Order of Summary Suspension - John Doe, MD - License No 7041",
	}
	Intake(f)

	assert.Equal(t, "LICENSE-7041", f.CaseNumber)
	assert.Zero(t, f.FilingYear)
}
