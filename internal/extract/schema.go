package extract

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response schemas the model must satisfy. Fields outside the schema are
// ignored; missing required fields reject the response as invalid.
const complaintSchema = `{
  "type": "object",
  "required": ["summary", "category"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "specialty": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "procedure": {"type": ["string", "null"]},
    "num_complainants": {"type": ["integer", "null"]},
    "complainants": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "age": {"type": ["integer", "null"]},
          "sex": {"type": ["string", "null"]}
        }
      }
    },
    "drugs": {"type": "array", "items": {"type": "string"}}
  }
}`

const settlementSchema = `{
  "type": "object",
  "required": ["summary", "license_action"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "license_action": {"type": ["string", "null"]},
    "probation_months": {"type": ["number", "null"]},
    "ineligible_to_reapply_months": {"type": ["number", "null"]},
    "fine_amount": {"type": ["number", "null"]},
    "investigation_costs": {"type": ["number", "null"]},
    "charity_donation": {"type": ["number", "null"]},
    "costs_payment_deadline_days": {"type": ["integer", "null"]},
    "costs_stayed": {"type": "boolean"},
    "cme_hours": {"type": ["number", "null"]},
    "cme_topic": {"type": ["string", "null"]},
    "cme_deadline_months": {"type": ["integer", "null"]},
    "public_reprimand": {"type": "boolean"},
    "npdb_report": {"type": "boolean"},
    "practice_restrictions": {"type": "array", "items": {"type": "string"}},
    "monitoring_requirements": {"type": "array", "items": {"type": "string"}},
    "violations_admitted": {"type": "array", "items": {"$ref": "#/$defs/violation"}},
    "violations_dismissed": {"type": "array", "items": {"$ref": "#/$defs/violation"}}
  },
  "$defs": {
    "violation": {
      "type": "object",
      "required": ["nrs_code"],
      "properties": {
        "nrs_code": {"type": "string"},
        "count": {"type": ["integer", "null"]},
        "description": {"type": ["string", "null"]}
      }
    }
  }
}`

const amendmentSchema = `{
  "type": "object",
  "required": ["amendment_summary"],
  "properties": {
    "amendment_summary": {"type": "string", "minLength": 1}
  }
}`

var (
	complaintValidator  = mustCompile("complaint.json", complaintSchema)
	settlementValidator = mustCompile("settlement.json", settlementSchema)
	amendmentValidator  = mustCompile("amendment.json", amendmentSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

// validateJSON parses raw model output and checks it against the schema.
// Returns the parsed document or an *InvalidError describing the rejection.
func validateJSON(raw string, validator *jsonschema.Schema) (map[string]any, error) {
	cleaned := cleanJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &InvalidError{Reason: "response is not valid JSON: " + err.Error(), Raw: raw}
	}
	if err := validator.Validate(doc); err != nil {
		return nil, &InvalidError{Reason: err.Error(), Raw: raw}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &InvalidError{Reason: "response is not a JSON object", Raw: raw}
	}
	return obj, nil
}

// cleanJSON strips markdown fences and surrounding prose from model output.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
