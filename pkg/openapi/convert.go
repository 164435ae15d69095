package openapi

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// textareaThreshold: string properties allowing more than this many
// characters render better as multi-line input.
const textareaThreshold = 500

func convertProperty(name string, src *openapi3.Schema, required bool) (schema.Question, bool) {
	q := schema.Question{
		ID:          name,
		Label:       labelFromName(name),
		Description: src.Description,
		Required:    required,
	}

	switch firstType(src.Type) {
	case "string":
		convertString(&q, src)
	case "integer", "number":
		q.Type = schema.TypeNumber
		q.Number = numberBounds(src)
		appendNumericRules(&q, src)
	case "boolean":
		q.Type = schema.TypeSelect
		q.Options = []schema.Option{
			{Value: "true", Label: "Yes"},
			{Value: "false", Label: "No"},
		}
	case "array":
		if !convertArray(&q, src) {
			return schema.Question{}, false
		}
	default:
		// Objects and untyped properties have no question equivalent.
		return schema.Question{}, false
	}

	return q, true
}

func convertString(q *schema.Question, src *openapi3.Schema) {
	if len(src.Enum) > 0 {
		q.Type = schema.TypeSelect
		q.Options = enumOptions(src.Enum)
		return
	}

	switch src.Format {
	case "email":
		q.Type = schema.TypeEmail
	case "date":
		q.Type = schema.TypeDate
	case "uri", "url":
		q.Type = schema.TypeURL
	case "textarea":
		q.Type = schema.TypeTextarea
	default:
		q.Type = schema.TypeText
		if src.MaxLength != nil && *src.MaxLength > textareaThreshold {
			q.Type = schema.TypeTextarea
		}
	}

	if src.MinLength > 0 {
		q.Rules = append(q.Rules, schema.Rule{Kind: schema.RuleMinLength, Value: float64(src.MinLength)})
	}
	if src.MaxLength != nil {
		q.Rules = append(q.Rules, schema.Rule{Kind: schema.RuleMaxLength, Value: float64(*src.MaxLength)})
	}
	if src.Pattern != "" {
		q.Rules = append(q.Rules, schema.Rule{Kind: schema.RulePattern, Pattern: src.Pattern})
	}
}

func convertArray(q *schema.Question, src *openapi3.Schema) bool {
	if src.Items == nil || src.Items.Value == nil || len(src.Items.Value.Enum) == 0 {
		return false
	}
	q.Type = schema.TypeMultiselect
	q.Options = enumOptions(src.Items.Value.Enum)
	if src.MaxItems != nil {
		q.MaxSelections = int(*src.MaxItems)
	}
	return true
}

func numberBounds(src *openapi3.Schema) *schema.NumberBounds {
	if src.Min == nil && src.Max == nil {
		return nil
	}
	bounds := &schema.NumberBounds{}
	if src.Min != nil {
		value := *src.Min
		bounds.Min = &value
	}
	if src.Max != nil {
		value := *src.Max
		bounds.Max = &value
	}
	return bounds
}

func appendNumericRules(q *schema.Question, src *openapi3.Schema) {
	if src.Min != nil {
		q.Rules = append(q.Rules, schema.Rule{Kind: schema.RuleMin, Value: *src.Min})
	}
	if src.Max != nil {
		q.Rules = append(q.Rules, schema.Rule{Kind: schema.RuleMax, Value: *src.Max})
	}
}

func enumOptions(values []any) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, value := range values {
		text := fmt.Sprint(value)
		if text == "" {
			continue
		}
		out = append(out, schema.Option{Value: text, Label: labelFromName(text)})
	}
	return out
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

var splitWordsPattern = regexp.MustCompile(`[_\-\s.]+`)

// labelFromName converts a property name into a human-friendly label,
// splitting on separators and camelCase boundaries.
func labelFromName(name string) string {
	if name == "" {
		return ""
	}
	var segments []string
	for _, word := range splitWordsPattern.Split(name, -1) {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var out strings.Builder
	var prev rune
	for i, r := range input {
		if i > 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
		prev = r
	}
	return out.String()
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
