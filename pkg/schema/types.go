package schema

import "time"

// QuestionType is the closed enumeration of supported question kinds.
// Adding a type requires extending the validation engine's dispatch.
type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeTextarea    QuestionType = "textarea"
	TypeSelect      QuestionType = "select"
	TypeMultiselect QuestionType = "multiselect"
	TypeScale       QuestionType = "scale"
	TypeNumber      QuestionType = "number"
	TypeDate        QuestionType = "date"
	TypeEmail       QuestionType = "email"
	TypeURL         QuestionType = "url"
)

// Valid reports whether t is one of the declared question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeSelect, TypeMultiselect, TypeScale,
		TypeNumber, TypeDate, TypeEmail, TypeURL:
		return true
	default:
		return false
	}
}

// Canonical rule kinds evaluated by the validation engine, in the order
// they are checked when a question declares several.
const (
	RuleRequired  = "required"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleEmail     = "email"
	RuleURL       = "url"
	RuleCustom    = "custom"
)

// Rule is a single validation constraint attached to a question. Numeric
// thresholds live in Value, regular expressions in Pattern, and Custom names
// a predicate registered with the validation engine. Message overrides the
// engine's default error text when non-empty.
type Rule struct {
	Kind    string  `json:"kind" yaml:"kind"`
	Value   float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Pattern string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Custom  string  `json:"custom,omitempty" yaml:"custom,omitempty"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// Condition operators evaluated against the referenced field's value.
const (
	OpEquals      = "equals"
	OpNotEquals   = "notEquals"
	OpContains    = "contains"
	OpNotContains = "notContains"
	OpGreaterThan = "greaterThan"
	OpLessThan    = "lessThan"
)

// Condition gates a question's visibility on another field's value. A
// question whose condition evaluates false is hidden and never validated.
type Condition struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// Option is a single choice for select and multiselect questions.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ScaleBounds constrains a scale question to an inclusive integer range.
type ScaleBounds struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// NumberBounds constrains a number question. Nil pointers mean unbounded.
type NumberBounds struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// DateBounds constrains a date question. Bounds use the 2006-01-02 layout;
// empty strings mean unbounded.
type DateBounds struct {
	Min string `json:"min,omitempty" yaml:"min,omitempty"`
	Max string `json:"max,omitempty" yaml:"max,omitempty"`
}

// Question models a single input inside a form. IDs are unique across the
// whole schema, not just the owning section.
type Question struct {
	ID            string        `json:"id" yaml:"id"`
	Type          QuestionType  `json:"type" yaml:"type"`
	Label         string        `json:"label,omitempty" yaml:"label,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder   string        `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required      bool          `json:"required" yaml:"required"`
	Rules         []Rule        `json:"rules,omitempty" yaml:"rules,omitempty"`
	VisibleWhen   *Condition    `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Options       []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	MaxSelections int           `json:"maxSelections,omitempty" yaml:"maxSelections,omitempty"`
	Scale         *ScaleBounds  `json:"scale,omitempty" yaml:"scale,omitempty"`
	Number        *NumberBounds `json:"number,omitempty" yaml:"number,omitempty"`
	Date          *DateBounds   `json:"date,omitempty" yaml:"date,omitempty"`
}

// Section groups an ordered run of questions.
type Section struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool       `json:"required" yaml:"required"`
	Collapsible bool       `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Settings carries form-level behaviour hints consumed by callers rather
// than by the engines themselves.
type Settings struct {
	AutosaveInterval time.Duration `json:"autosaveInterval,omitempty" yaml:"autosaveInterval,omitempty"`
	ShowProgress     bool          `json:"showProgress,omitempty" yaml:"showProgress,omitempty"`
}

// FormSchema is the immutable description of a multi-section questionnaire.
// Load it once per session and share it by reference; nothing mutates it
// after Validate passes.
type FormSchema struct {
	ID          string    `json:"id" yaml:"id"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Settings    Settings  `json:"settings,omitempty" yaml:"settings,omitempty"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// Question returns the question with the given id, searching every section.
func (s FormSchema) Question(id string) (Question, bool) {
	for _, section := range s.Sections {
		for _, q := range section.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// SectionByID returns the section with the given id.
func (s FormSchema) SectionByID(id string) (Section, bool) {
	for _, section := range s.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// SectionIndex returns the position of a section in schema order, or -1.
func (s FormSchema) SectionIndex(id string) int {
	for idx, section := range s.Sections {
		if section.ID == id {
			return idx
		}
	}
	return -1
}

// QuestionIDs returns every question id in schema order.
func (s FormSchema) QuestionIDs() []string {
	var out []string
	for _, section := range s.Sections {
		for _, q := range section.Questions {
			out = append(out, q.ID)
		}
	}
	return out
}
