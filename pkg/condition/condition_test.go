package condition_test

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/condition"
	"github.com/goliatone/go-formflow/pkg/schema"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	answers := map[string]any{
		"color":  "blue",
		"count":  float64(5),
		"agree":  true,
		"tags":   []any{"go", "forms"},
		"remark": "needs work",
	}

	cases := []struct {
		name string
		cond schema.Condition
		want bool
	}{
		{"equals string", schema.Condition{Field: "color", Operator: schema.OpEquals, Value: "blue"}, true},
		{"equals mismatch", schema.Condition{Field: "color", Operator: schema.OpEquals, Value: "red"}, false},
		{"equals coerces numbers", schema.Condition{Field: "count", Operator: schema.OpEquals, Value: "5"}, true},
		{"equals bool", schema.Condition{Field: "agree", Operator: schema.OpEquals, Value: true}, true},
		{"notEquals", schema.Condition{Field: "color", Operator: schema.OpNotEquals, Value: "red"}, true},
		{"contains substring", schema.Condition{Field: "remark", Operator: schema.OpContains, Value: "work"}, true},
		{"contains slice member", schema.Condition{Field: "tags", Operator: schema.OpContains, Value: "go"}, true},
		{"contains missing member", schema.Condition{Field: "tags", Operator: schema.OpContains, Value: "rust"}, false},
		{"notContains", schema.Condition{Field: "tags", Operator: schema.OpNotContains, Value: "rust"}, true},
		{"greaterThan", schema.Condition{Field: "count", Operator: schema.OpGreaterThan, Value: 3}, true},
		{"greaterThan equal is false", schema.Condition{Field: "count", Operator: schema.OpGreaterThan, Value: 5}, false},
		{"lessThan", schema.Condition{Field: "count", Operator: schema.OpLessThan, Value: 10}, true},
		{"greaterThan non-numeric", schema.Condition{Field: "color", Operator: schema.OpGreaterThan, Value: 1}, false},
		{"missing field equals nil literal", schema.Condition{Field: "absent", Operator: schema.OpEquals, Value: nil}, true},
		{"missing field never equals value", schema.Condition{Field: "absent", Operator: schema.OpEquals, Value: "x"}, false},
		{"unknown operator degrades to visible", schema.Condition{Field: "color", Operator: "matches", Value: "blue"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cond := tc.cond
			if got := condition.Evaluate(&cond, answers); got != tc.want {
				t.Fatalf("Evaluate(%+v) = %v, want %v", cond, got, tc.want)
			}
		})
	}
}

func TestEvaluateNilCondition(t *testing.T) {
	t.Parallel()

	if !condition.Evaluate(nil, nil) {
		t.Fatalf("nil condition must evaluate true")
	}
}

func TestEvaluateNilAnswers(t *testing.T) {
	t.Parallel()

	cond := &schema.Condition{Field: "x", Operator: schema.OpEquals, Value: "y"}
	if condition.Evaluate(cond, nil) {
		t.Fatalf("missing answers must not satisfy equals against a value")
	}
}
