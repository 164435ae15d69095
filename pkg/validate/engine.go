// Package validate evaluates a form schema against answer data. The engine
// is pure: it holds no mutable state beyond its configuration, reports
// problems as message strings rather than Go errors, and never panics on
// malformed schemas or answers.
package validate

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/condition"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// CustomRule is a caller-registered predicate for rules of kind "custom".
// It returns an error message, or "" when the value passes.
type CustomRule func(value any, answers map[string]any) string

// Engine validates answers against a single schema. Construct one per
// schema; it is safe for concurrent readers because nothing mutates after
// New returns.
type Engine struct {
	schema schema.FormSchema
	custom map[string]CustomRule
}

// Option configures an Engine.
type Option func(*Engine)

// WithCustomRule registers the predicate evaluated by rules whose Custom
// field names it. Unregistered names pass silently.
func WithCustomRule(name string, fn CustomRule) Option {
	return func(e *Engine) {
		if name == "" || fn == nil {
			return
		}
		if e.custom == nil {
			e.custom = make(map[string]CustomRule)
		}
		e.custom[name] = fn
	}
}

// New returns an engine bound to the supplied schema.
func New(s schema.FormSchema, opts ...Option) *Engine {
	e := &Engine{schema: s}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SectionResult aggregates per-field messages for one section.
type SectionResult struct {
	SectionID string            `json:"sectionId"`
	Errors    map[string]string `json:"errors,omitempty"`
	Valid     bool              `json:"valid"`
}

// FormResult aggregates results across every section in schema order.
type FormResult struct {
	Errors   map[string]string `json:"errors,omitempty"`
	Sections []SectionResult   `json:"sections,omitempty"`
	Valid    bool              `json:"valid"`
}

// ValidateField validates a single answer. It returns "" when the value is
// acceptable, including when the question's visibility condition evaluates
// false against the supplied answers (hidden fields are never validated).
// An unknown question id yields a structural message rather than a panic.
func (e *Engine) ValidateField(questionID string, value any, answers map[string]any) string {
	if e == nil {
		return ""
	}
	q, ok := e.schema.Question(questionID)
	if !ok {
		return fmt.Sprintf("unknown question: %s", questionID)
	}

	if !e.visible(q, answers) {
		return ""
	}

	if isEmpty(value) {
		if q.Required {
			return messageFor(q, schema.RuleRequired, "This field is required")
		}
		return ""
	}

	if msg := e.checkRules(q, value, answers); msg != "" {
		return msg
	}
	return checkType(q, value)
}

// ValidateSection validates every question in the named section. Unknown
// section ids produce an invalid result carrying a structural message.
func (e *Engine) ValidateSection(sectionID string, answers map[string]any) SectionResult {
	result := SectionResult{SectionID: sectionID, Valid: true}
	if e == nil {
		return result
	}
	section, ok := e.schema.SectionByID(sectionID)
	if !ok {
		result.Valid = false
		result.Errors = map[string]string{sectionID: fmt.Sprintf("unknown section: %s", sectionID)}
		return result
	}

	for _, q := range section.Questions {
		if msg := e.ValidateField(q.ID, answers[q.ID], answers); msg != "" {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[q.ID] = msg
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateForm validates every section in schema order. Answer keys that do
// not belong to the schema are tolerated and never validated.
func (e *Engine) ValidateForm(answers map[string]any) FormResult {
	result := FormResult{Valid: true}
	if e == nil {
		return result
	}

	for _, section := range e.schema.Sections {
		sr := e.ValidateSection(section.ID, answers)
		result.Sections = append(result.Sections, sr)
		for id, msg := range sr.Errors {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[id] = msg
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// visible resolves the question's VisibleWhen condition. A condition naming
// a field that the schema does not declare and the answers do not carry
// degrades to "always visible"; it never hides a question.
func (e *Engine) visible(q schema.Question, answers map[string]any) bool {
	c := q.VisibleWhen
	if c == nil {
		return true
	}
	if _, declared := e.schema.Question(c.Field); !declared {
		if _, answered := answers[c.Field]; !answered {
			return true
		}
	}
	return condition.Evaluate(c, answers)
}

// isEmpty mirrors the "no answer yet" notion used by required checks: nil,
// blank-trimmed strings, and empty slices.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
