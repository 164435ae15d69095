// Package condition evaluates conditional-visibility rules against an
// answer map. Evaluation is total: missing fields, nil values, and
// non-coercible operands never panic, they simply fail the comparison.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Evaluate reports whether the condition holds against the supplied answers.
// A nil condition is always true. Unknown operators evaluate true so that a
// malformed schema degrades to "field always visible" instead of hiding
// questions silently.
func Evaluate(c *schema.Condition, answers map[string]any) bool {
	if c == nil {
		return true
	}

	var actual any
	if answers != nil {
		actual = answers[c.Field]
	}

	switch c.Operator {
	case schema.OpEquals:
		return looseEqual(actual, c.Value)
	case schema.OpNotEquals:
		return !looseEqual(actual, c.Value)
	case schema.OpContains:
		return contains(actual, c.Value)
	case schema.OpNotContains:
		return !contains(actual, c.Value)
	case schema.OpGreaterThan:
		got, ok1 := coerceNumber(actual)
		want, ok2 := coerceNumber(c.Value)
		return ok1 && ok2 && got > want
	case schema.OpLessThan:
		got, ok1 := coerceNumber(actual)
		want, ok2 := coerceNumber(c.Value)
		return ok1 && ok2 && got < want
	default:
		return true
	}
}

// looseEqual compares with light coercion so "5" == 5 and "true" == true,
// matching how answer values round-trip through JSON.
func looseEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := coerceNumber(actual); ok {
		if b, ok := coerceNumber(expected); ok {
			return a == b
		}
	}
	if a, ok := actual.(bool); ok {
		if b, ok := coerceBool(expected); ok {
			return a == b
		}
	}
	return coerceString(actual) == coerceString(expected)
}

// contains matches substrings for string values and membership for slices.
func contains(actual, needle any) bool {
	switch v := actual.(type) {
	case string:
		return strings.Contains(v, coerceString(needle))
	case []any:
		for _, item := range v {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		want := coerceString(needle)
		for _, item := range v {
			if item == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return false, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
