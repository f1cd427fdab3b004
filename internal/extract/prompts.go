package extract

import "fmt"

const complaintPrompt = `You are a legal analyst extracting structured facts from a medical board complaint. Respond with a single valid JSON object and nothing else:
{
  "summary": "<2-3 sentence summary of the alleged conduct>",
  "specialty": "<respondent's medical specialty, or null>",
  "category": "<one of: Surgical Error, Medication Error, Misdiagnosis, Failure to Treat, Sexual Misconduct, Substance Abuse, Fraud, Record Keeping, Boundary Violation, Other>",
  "procedure": "<the procedure at issue, or null>",
  "num_complainants": <number of patients involved, or null>,
  "complainants": [{"age": <number or null>, "sex": "<M/F or empty>"}],
  "drugs": ["<drug names mentioned in the allegations>"]
}
Use null for anything the document does not state. Do not guess.`

const settlementPrompt = `You are a legal analyst extracting the disciplinary terms from a medical board settlement or order. Respond with a single valid JSON object and nothing else:
{
  "summary": "<2-3 sentence summary of the resolution>",
  "license_action": "<one of: revocation, suspension, surrender, probation, restriction, reprimand, none>",
  "probation_months": <number or null>,
  "ineligible_to_reapply_months": <number or null>,
  "fine_amount": <USD number or null>,
  "investigation_costs": <USD number or null>,
  "charity_donation": <USD number or null>,
  "costs_payment_deadline_days": <number or null>,
  "costs_stayed": <true if payment of costs is stayed, else false>,
  "cme_hours": <continuing medical education hours ordered, or null>,
  "cme_topic": "<CME subject matter, or null>",
  "cme_deadline_months": <number or null>,
  "public_reprimand": <true/false>,
  "npdb_report": <true if the order is reported to the National Practitioner Data Bank, else false>,
  "practice_restrictions": ["<each restriction on practice>"],
  "monitoring_requirements": ["<each monitoring or supervision requirement>"],
  "violations_admitted": [{"nrs_code": "<statute cited>", "count": <number>, "description": "<short description>"}],
  "violations_dismissed": [{"nrs_code": "<statute cited>", "count": <number>, "description": "<short description>"}]
}
Report only terms the document actually orders. Use null for absent numerics and empty arrays for absent lists.`

const amendmentPrompt = `You are a legal analyst comparing an amended medical board complaint against the original it supersedes. Respond with a single valid JSON object and nothing else:
{
  "amendment_summary": "<2-4 sentences describing what the amendment adds, removes, or changes: new counts, new patients, revised allegations, corrected facts>"
}`

// Metadata accompanies the document text in every extraction request.
type Metadata struct {
	Title      string
	Respondent string
	CaseNumber string
	Date       string
	DocType    string
}

// userContent renders the request body: filing metadata first, then the
// document text, with a part marker when the document was chunked.
func userContent(meta Metadata, text string, chunk, totalChunks int) string {
	chunkNote := ""
	if totalChunks > 1 {
		chunkNote = fmt.Sprintf("\n\n[This is part %d of %d of the document]", chunk+1, totalChunks)
	}
	return fmt.Sprintf(`## Metadata

- **Title:** %s
- **Respondent:** %s
- **Case Number:** %s
- **Date:** %s
- **Type:** %s%s

## Document Text

%s
`, meta.Title, orUnknown(meta.Respondent), meta.CaseNumber, orUnknown(meta.Date), meta.DocType, chunkNote, text)
}

// amendmentContent renders both complaint texts for comparison, each
// truncated so the pair stays well inside one request.
func amendmentContent(originalText, amendedText string) string {
	const maxChars = 6000
	return fmt.Sprintf(`## Original Complaint Text

%s

## Amended Complaint Text

%s
`, truncate(originalText, maxChars), truncate(amendedText, maxChars))
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
