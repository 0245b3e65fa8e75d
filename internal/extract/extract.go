// Package extract recovers a structured intake record from a language model's
// free-text reply. Models are unreliable at strictly following output schemas,
// so extraction is best-effort and all-or-nothing: a reply either yields a
// fully valid record or it is treated as plain conversation.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/symedon/voice-intake-platform/internal/model"
)

// rawRecord mirrors model.IntakeRecord with pointer fields so that a missing
// required key can be told apart from a zero value. A type mismatch on any
// field fails the unmarshal as a whole, which is exactly the discard semantics
// we want.
type rawRecord struct {
	PrimaryConcern        *string         `json:"primaryConcern"`
	SymptomDuration       *float64        `json:"symptomDuration"`
	DurationUnit          *string         `json:"durationUnit"`
	Age                   *float64        `json:"age"`
	Gender                *string         `json:"gender"`
	OtherGender           string          `json:"otherGender"`
	AdditionalSymptoms    string          `json:"additionalSymptoms"`
	PreExistingConditions json.RawMessage `json:"preExistingConditions"`
	Medications           string          `json:"medications"`
	Allergies             string          `json:"allergies"`
}

// FromReply scans reply for an embedded brace-delimited payload and attempts
// to convert it into an intake record.
//
// The scan is deliberately lenient: it captures from the first "{" to the
// last "}" without bracket matching. Prose containing stray braces can
// over-capture, but anything that then fails to parse or validate degrades to
// "no record", so the conversation simply continues.
//
// On success it returns the record, the reply with the JSON fragment stripped
// (what should be shown or spoken to the user), and true. In every other case
// it returns nil, the reply unchanged, and false. It never returns an error:
// malformed payloads are a silent no-op for the extraction path.
func FromReply(reply string) (*model.IntakeRecord, string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, reply, false
	}

	fragment := reply[start : end+1]

	var raw rawRecord
	if err := json.Unmarshal([]byte(fragment), &raw); err != nil {
		return nil, reply, false
	}

	record, ok := raw.validate()
	if !ok {
		return nil, reply, false
	}

	display := strings.TrimSpace(reply[:start] + reply[end+1:])
	return record, display, true
}

// validate enforces the required-field invariant: primary concern, numeric
// symptom duration with a unit, numeric age, and a non-empty gender. Partial
// records are discarded, never merged.
func (r *rawRecord) validate() (*model.IntakeRecord, bool) {
	if r.PrimaryConcern == nil || strings.TrimSpace(*r.PrimaryConcern) == "" {
		return nil, false
	}
	if r.SymptomDuration == nil || r.DurationUnit == nil || strings.TrimSpace(*r.DurationUnit) == "" {
		return nil, false
	}
	if r.Age == nil {
		return nil, false
	}
	if r.Gender == nil || strings.TrimSpace(*r.Gender) == "" {
		return nil, false
	}

	return &model.IntakeRecord{
		PrimaryConcern:        *r.PrimaryConcern,
		SymptomDuration:       *r.SymptomDuration,
		DurationUnit:          *r.DurationUnit,
		Age:                   int(*r.Age),
		Gender:                *r.Gender,
		OtherGender:           r.OtherGender,
		AdditionalSymptoms:    r.AdditionalSymptoms,
		PreExistingConditions: parseConditions(r.PreExistingConditions),
		Medications:           r.Medications,
		Allergies:             r.Allergies,
	}, true
}

// parseConditions accepts either a JSON array of labels or a single free-text
// string; models emit both shapes.
func parseConditions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{single}
	}

	return nil
}
