// Package runner walks a live form session through a terminal prompt
// driver. It is a convenience front end over the state controller; the
// driver abstraction keeps the walk logic testable without a terminal.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/condition"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/state"
)

// Runner drives a controller section by section, re-prompting while a
// field's incremental validation fails.
type Runner struct {
	driver PromptDriver
}

// New returns a runner over the supplied driver. A nil driver defaults to
// the interactive survey implementation.
func New(driver PromptDriver) *Runner {
	if driver == nil {
		driver = NewSurveyDriver()
	}
	return &Runner{driver: driver}
}

// Run prompts for every visible question in schema order, marking each
// section complete as its prompts pass. The context aborts the walk between
// prompts.
func (r *Runner) Run(ctx context.Context, s schema.FormSchema, ctrl *state.Controller) error {
	if r == nil || ctrl == nil {
		return nil
	}

	for _, section := range s.Sections {
		if title := sectionHeading(section); title != "" {
			if err := r.driver.Info(ctx, title); err != nil {
				return err
			}
		}

		for _, q := range section.Questions {
			answers := ctrl.Snapshot().Answers
			if !condition.Evaluate(q.VisibleWhen, answers) {
				continue
			}
			if err := r.askUntilValid(ctx, q, ctrl); err != nil {
				return err
			}
		}

		ctrl.MarkSectionComplete(section.ID)
		ctrl.NextSection()
	}
	return nil
}

func (r *Runner) askUntilValid(ctx context.Context, q schema.Question, ctrl *state.Controller) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := r.ask(ctx, q, ctrl)
		if err != nil {
			return err
		}
		ctrl.SetFieldValue(q.ID, value)
		msg := ctrl.FieldError(q.ID)
		if msg == "" {
			return nil
		}
		if err := r.driver.Info(ctx, msg); err != nil {
			return err
		}
	}
}

func (r *Runner) ask(ctx context.Context, q schema.Question, ctrl *state.Controller) (any, error) {
	message := promptMessage(q)

	switch q.Type {
	case schema.TypeTextarea:
		return r.driver.TextArea(ctx, InputConfig{
			Message: message,
			Help:    q.Description,
			Default: currentString(ctrl, q.ID),
		})
	case schema.TypeSelect:
		return r.driver.Select(ctx, SelectConfig{
			Message:  message,
			Options:  optionValues(q.Options),
			Defaults: currentStrings(ctrl, q.ID),
			Help:     q.Description,
		})
	case schema.TypeMultiselect:
		values, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  optionValues(q.Options),
			Defaults: currentStrings(ctrl, q.ID),
			Help:     q.Description,
		})
		if err != nil {
			return nil, err
		}
		return values, nil
	case schema.TypeNumber, schema.TypeScale:
		raw, err := r.driver.Input(ctx, InputConfig{
			Message: message,
			Help:    q.Description,
			Default: currentString(ctrl, q.ID),
		})
		if err != nil {
			return nil, err
		}
		if num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return num, nil
		}
		// Non-numeric input flows through so validation reports it.
		return raw, nil
	default:
		return r.driver.Input(ctx, InputConfig{
			Message: message,
			Help:    q.Description,
			Default: currentString(ctrl, q.ID),
		})
	}
}

func promptMessage(q schema.Question) string {
	if q.Label != "" {
		return q.Label
	}
	return q.ID
}

func sectionHeading(section schema.Section) string {
	if section.Title != "" {
		return fmt.Sprintf("-- %s --", section.Title)
	}
	return ""
}

func optionValues(options []schema.Option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.Value
	}
	return out
}

func currentString(ctrl *state.Controller, id string) string {
	value, ok := ctrl.FieldValue(id)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func currentStrings(ctrl *state.Controller, id string) []string {
	value, ok := ctrl.FieldValue(id)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
