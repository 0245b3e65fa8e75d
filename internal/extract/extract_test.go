package extract

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/symedon/voice-intake-platform/internal/model"
)

func TestFromReplyCompleteRecord(t *testing.T) {
	reply := `Thank you, I have everything I need. {"primaryConcern":"headache","symptomDuration":3,"durationUnit":"days","age":34,"gender":"female","additionalSymptoms":"nausea"}`

	record, display, ok := FromReply(reply)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	want := &model.IntakeRecord{
		PrimaryConcern:     "headache",
		SymptomDuration:    3,
		DurationUnit:       "days",
		Age:                34,
		Gender:             "female",
		AdditionalSymptoms: "nausea",
	}
	if !reflect.DeepEqual(record, want) {
		t.Errorf("record = %+v, want %+v", record, want)
	}

	if display != "Thank you, I have everything I need." {
		t.Errorf("display = %q, JSON fragment not stripped", display)
	}
}

func TestFromReplyMissingRequiredField(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "no age",
			reply: `{"primaryConcern":"headache","symptomDuration":3,"durationUnit":"days","gender":"female"}`,
		},
		{
			name:  "no primary concern",
			reply: `{"symptomDuration":3,"durationUnit":"days","age":34,"gender":"female"}`,
		},
		{
			name:  "empty gender",
			reply: `{"primaryConcern":"headache","symptomDuration":3,"durationUnit":"days","age":34,"gender":""}`,
		},
		{
			name:  "no duration unit",
			reply: `{"primaryConcern":"headache","symptomDuration":3,"age":34,"gender":"female"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, display, ok := FromReply(tt.reply)
			if ok || record != nil {
				t.Errorf("expected partial record to be discarded, got %+v", record)
			}
			if display != tt.reply {
				t.Errorf("display = %q, want reply unchanged", display)
			}
		})
	}
}

func TestFromReplyMistypedFields(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "duration as words",
			reply: `{"primaryConcern":"headache","symptomDuration":"three","durationUnit":"days","age":34,"gender":"female"}`,
		},
		{
			name:  "age as string",
			reply: `{"primaryConcern":"headache","symptomDuration":3,"durationUnit":"days","age":"34","gender":"female"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if record, _, ok := FromReply(tt.reply); ok {
				t.Errorf("expected mistyped record to be discarded, got %+v", record)
			}
		})
	}
}

func TestFromReplyNoPayload(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "plain text", reply: "How long have you had the headache?"},
		{name: "empty", reply: ""},
		{name: "open brace only", reply: "consider { this"},
		{name: "closing before opening", reply: "} oops {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, display, ok := FromReply(tt.reply)
			if ok || record != nil {
				t.Errorf("expected no extraction, got %+v", record)
			}
			if display != tt.reply {
				t.Errorf("display = %q, want %q", display, tt.reply)
			}
		})
	}
}

func TestFromReplyMalformedJSON(t *testing.T) {
	reply := `Almost done {primaryConcern: headache, not json}`

	record, display, ok := FromReply(reply)
	if ok || record != nil {
		t.Errorf("expected malformed payload to be a no-op, got %+v", record)
	}
	if display != reply {
		t.Errorf("display = %q, want reply unchanged", display)
	}
}

func TestFromReplyConditionShapes(t *testing.T) {
	base := `{"primaryConcern":"cough","symptomDuration":2,"durationUnit":"weeks","age":52,"gender":"Male","preExistingConditions":%s}`

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "array", raw: `["asthma","diabetes"]`, want: []string{"asthma", "diabetes"}},
		{name: "string", raw: `"asthma"`, want: []string{"asthma"}},
		{name: "null", raw: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := `prefix ` + fmt.Sprintf(base, tt.raw)
			record, _, ok := FromReply(reply)
			if !ok {
				t.Fatal("expected extraction to succeed")
			}
			if !reflect.DeepEqual(record.PreExistingConditions, tt.want) {
				t.Errorf("conditions = %v, want %v", record.PreExistingConditions, tt.want)
			}
		})
	}
}
