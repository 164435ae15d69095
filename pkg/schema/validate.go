package schema

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	errFormIDMissing = errors.New("schema: form id is required")
	errNoSections    = errors.New("schema: at least one section is required")
)

// Validate checks the structural integrity of a schema: unique question ids,
// known question types, options on choice questions, coherent bounds, and
// visibility conditions that reference declared questions. Callers must
// validate a schema before handing it to a controller; after that point the
// engines degrade gracefully instead of failing.
func (s FormSchema) Validate() error {
	if s.ID == "" {
		return errFormIDMissing
	}
	if len(s.Sections) == 0 {
		return errNoSections
	}

	seen := make(map[string]string, 16)
	for _, section := range s.Sections {
		if section.ID == "" {
			return fmt.Errorf("schema: form %q contains a section without an id", s.ID)
		}
		for _, q := range section.Questions {
			if q.ID == "" {
				return fmt.Errorf("schema: section %q contains a question without an id", section.ID)
			}
			if prev, dup := seen[q.ID]; dup {
				return fmt.Errorf("schema: duplicate question id %q (sections %q and %q)", q.ID, prev, section.ID)
			}
			seen[q.ID] = section.ID

			if err := validateQuestion(q); err != nil {
				return err
			}
		}
	}

	// Conditions may only reference declared questions; dangling references
	// degrade to always-visible at runtime, so they are rejected here.
	for _, section := range s.Sections {
		for _, q := range section.Questions {
			cond := q.VisibleWhen
			if cond == nil {
				continue
			}
			if _, ok := seen[cond.Field]; !ok {
				return fmt.Errorf("schema: question %q visibility references unknown field %q", q.ID, cond.Field)
			}
			switch cond.Operator {
			case OpEquals, OpNotEquals, OpContains, OpNotContains, OpGreaterThan, OpLessThan:
			default:
				return fmt.Errorf("schema: question %q uses unknown operator %q", q.ID, cond.Operator)
			}
		}
	}

	return nil
}

func validateQuestion(q Question) error {
	if !q.Type.Valid() {
		return fmt.Errorf("schema: question %q has unknown type %q", q.ID, q.Type)
	}

	switch q.Type {
	case TypeSelect, TypeMultiselect:
		if len(q.Options) == 0 {
			return fmt.Errorf("schema: %s question %q declares no options", q.Type, q.ID)
		}
	case TypeScale:
		if q.Scale != nil && q.Scale.Min >= q.Scale.Max {
			return fmt.Errorf("schema: scale question %q has empty range [%d,%d]", q.ID, q.Scale.Min, q.Scale.Max)
		}
	case TypeNumber:
		if b := q.Number; b != nil && b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return fmt.Errorf("schema: number question %q has min above max", q.ID)
		}
	}

	for _, rule := range q.Rules {
		if rule.Kind == RulePattern {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("schema: question %q pattern rule does not compile: %w", q.ID, err)
			}
		}
	}
	return nil
}
