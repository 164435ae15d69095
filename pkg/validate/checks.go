package validate

import (
	"fmt"
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
)

const dateLayout = "2006-01-02"

// checkType applies the structural checks each question type carries beyond
// its declared rules. The switch is exhaustive over the QuestionType enum;
// a new type must be handled here before the schema package accepts it.
func checkType(q schema.Question, value any) string {
	switch q.Type {
	case schema.TypeText, schema.TypeTextarea:
		return ""
	case schema.TypeEmail:
		if !validEmail(coerceString(value)) {
			return messageFor(q, schema.RuleEmail, "Invalid email format")
		}
		return ""
	case schema.TypeURL:
		if !validURL(coerceString(value)) {
			return messageFor(q, schema.RuleURL, "Invalid URL format")
		}
		return ""
	case schema.TypeSelect:
		if !optionDeclared(q.Options, coerceString(value)) {
			return "Please select a valid option"
		}
		return ""
	case schema.TypeMultiselect:
		return checkMultiselect(q, value)
	case schema.TypeScale:
		num, ok := coerceNumber(value)
		if !ok {
			return "Must be a number"
		}
		if q.Scale != nil {
			if num < float64(q.Scale.Min) {
				return fmt.Sprintf("Must be at least %d", q.Scale.Min)
			}
			if num > float64(q.Scale.Max) {
				return fmt.Sprintf("Must be at most %d", q.Scale.Max)
			}
		}
		return ""
	case schema.TypeNumber:
		num, ok := coerceNumber(value)
		if !ok {
			return "Must be a number"
		}
		if b := q.Number; b != nil {
			if b.Min != nil && num < *b.Min {
				return fmt.Sprintf("Must be at least %v", *b.Min)
			}
			if b.Max != nil && num > *b.Max {
				return fmt.Sprintf("Must be at most %v", *b.Max)
			}
		}
		return ""
	case schema.TypeDate:
		return checkDate(q, value)
	default:
		// Unknown types are rejected by schema.Validate; treat a stray one
		// as unvalidatable rather than crashing.
		return ""
	}
}

func checkMultiselect(q schema.Question, value any) string {
	values, ok := stringSlice(value)
	if !ok {
		return "Invalid selection"
	}
	for _, v := range values {
		if !optionDeclared(q.Options, v) {
			return "Invalid selection"
		}
	}
	if q.MaxSelections > 0 && len(values) > q.MaxSelections {
		return fmt.Sprintf("Select at most %d options", q.MaxSelections)
	}
	return ""
}

func checkDate(q schema.Question, value any) string {
	parsed, err := time.Parse(dateLayout, coerceString(value))
	if err != nil {
		return "Invalid date format"
	}
	if b := q.Date; b != nil {
		if b.Min != "" {
			if min, err := time.Parse(dateLayout, b.Min); err == nil && parsed.Before(min) {
				return fmt.Sprintf("Date must be on or after %s", b.Min)
			}
		}
		if b.Max != "" {
			if max, err := time.Parse(dateLayout, b.Max); err == nil && parsed.After(max) {
				return fmt.Sprintf("Date must be on or before %s", b.Max)
			}
		}
	}
	return ""
}

func optionDeclared(options []schema.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func stringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = coerceString(item)
		}
		return out, true
	default:
		return nil, false
	}
}
