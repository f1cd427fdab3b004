package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := New(Lists{})

	tests := []struct {
		name       string
		docType    string
		caseNumber string
		want       Result
	}{
		{
			"plain complaint",
			"Complaint", "25-8654-1",
			Result{Kind: KindComplaint, Priority: 1},
		},
		{
			"summary suspension complaint",
			"Complaint and Request for Summary Suspension", "25-8654-1",
			Result{Kind: KindComplaint, Priority: 1},
		},
		{
			"first amended complaint",
			"First Amended Complaint", "11-5171-1",
			Result{Kind: KindComplaint, IsAmended: true, Priority: 2},
		},
		{
			"third amended complaint",
			"Third Amended Complaint", "11-5171-1",
			Result{Kind: KindComplaint, IsAmended: true, Priority: 4},
		},
		{
			"settlement exact",
			"Settlement Agreement and Order", "19-32539-1",
			Result{Kind: KindSettlement},
		},
		{
			"settlement prefix match",
			"Settlement Agreement and Order Granting Early Termination of Probation", "19-32539-1",
			Result{Kind: KindSettlement},
		},
		{
			"lifting suspension",
			"Settlement Agreement and Order Lifting Suspension", "19-32539-1",
			Result{Kind: KindSettlement},
		},
		{
			"findings of fact",
			"Findings of Fact, Conclusions of Law and Order", "18-100-1",
			Result{Kind: KindSettlement, IsFindingsOfFact: true},
		},
		{
			"findings of fact source typo",
			"Findings of Fact, Conclustions of Law and Order", "18-100-1",
			Result{Kind: KindSettlement, IsFindingsOfFact: true},
		},
		{
			"modification order",
			"Order Modifying Previously Approved Settlement Agreement", "18-100-1",
			Result{Kind: KindSettlement, IsModification: true},
		},
		{
			"amended settlement",
			"Amended Settlement Agreement and Order", "18-100-1",
			Result{Kind: KindSettlement, IsAmended: true},
		},
		{
			"license only wins over label",
			"Order of Summary Suspension", "LICENSE-401",
			Result{Kind: KindLicenseOnly},
		},
		{
			"unknown label ignored",
			"Public Notice of Hearing", "25-8654-1",
			Result{Kind: KindIgnored},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.docType, tt.caseNumber))
		})
	}
}

func TestNewFallsBackToDefaults(t *testing.T) {
	c := New(Lists{SettlementTypes: []string{"Custom Settlement"}})

	// Custom settlement list replaces the default one.
	assert.Equal(t, KindSettlement, c.Classify("Custom Settlement", "20-1-1").Kind)
	assert.Equal(t, KindIgnored, c.Classify("Settlement Agreement", "20-1-1").Kind)

	// Complaint list was not overridden, so defaults still apply.
	assert.Equal(t, KindComplaint, c.Classify("Complaint", "20-1-1").Kind)
}

func TestPriority(t *testing.T) {
	c := New(Lists{})
	assert.Equal(t, 1, c.Priority("Complaint"))
	assert.Equal(t, 2, c.Priority("First Amended Complaint"))
	assert.Equal(t, 4, c.Priority("Third Amended Complaint"))
	assert.Equal(t, 0, c.Priority("Agenda"))

	extended := New(Lists{ComplaintTypes: map[string]int{"Fourth Amended Complaint": 5}})
	assert.Equal(t, 5, extended.Priority("Fourth Amended Complaint"))
}
