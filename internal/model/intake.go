package model

// Gender descriptors the intake form accepts. "Other" carries a free-text
// override in OtherGender.
const (
	GenderFemale    = "Female"
	GenderMale      = "Male"
	GenderNonBinary = "Non-binary"
	GenderOther     = "Other"
)

// IntakeRecord is the structured clinical-form data recovered from an
// assistant reply. A record is complete only when every required field is
// present and correctly typed; partial extractions are discarded upstream and
// never reach callers.
type IntakeRecord struct {
	// Required
	PrimaryConcern  string  `json:"primaryConcern"`
	SymptomDuration float64 `json:"symptomDuration"`
	DurationUnit    string  `json:"durationUnit"`
	Age             int     `json:"age"`
	Gender          string  `json:"gender"`

	// Optional
	OtherGender           string   `json:"otherGender,omitempty"`
	AdditionalSymptoms    string   `json:"additionalSymptoms,omitempty"`
	PreExistingConditions []string `json:"preExistingConditions,omitempty"`
	Medications           string   `json:"medications,omitempty"`
	Allergies             string   `json:"allergies,omitempty"`

	// Derived downstream of intake, never by the extractor.
	DifferentialDiagnoses []Diagnosis `json:"differentialDiagnoses,omitempty"`
	SuggestedNextSteps    []string    `json:"suggestedNextSteps,omitempty"`
}

// Diagnosis is one differential-diagnosis suggestion attached to a completed
// intake record.
type Diagnosis struct {
	Condition  string   `json:"condition"`
	Confidence string   `json:"confidence"`
	Rationale  string   `json:"rationale"`
	NextSteps  []string `json:"nextSteps,omitempty"`
}
