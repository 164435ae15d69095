// Package formflow renders and validates schema-driven questionnaires and
// reconciles answer snapshots from parallel sessions. The root package
// re-exports the subpackage entry points so small callers can import one
// path; larger integrations should depend on pkg/schema, pkg/validate,
// pkg/state, and pkg/aggregate directly.
package formflow

import (
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/aggregate"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/state"
	"github.com/goliatone/go-formflow/pkg/validate"
)

// FormSchema aliases schema.FormSchema for convenience.
type FormSchema = schema.FormSchema

// Question aliases schema.Question.
type Question = schema.Question

// Section aliases schema.Section.
type Section = schema.Section

// Snapshot aliases state.Snapshot, the unit of persistence and aggregation.
type Snapshot = state.Snapshot

// Conflict aliases aggregate.Conflict.
type Conflict = aggregate.Conflict

// Resolution aliases aggregate.Resolution.
type Resolution = aggregate.Resolution

// ParseSchema decodes, sanitizes, and validates a JSON or YAML schema
// document.
func ParseSchema(data []byte) (FormSchema, error) {
	return schema.Parse(data)
}

// LoadSchemas walks a filesystem for schema documents keyed by form id.
func LoadSchemas(fsys fs.FS) (map[string]FormSchema, error) {
	return schema.LoadFS(fsys)
}

// NewEngine returns a validation engine bound to the schema.
func NewEngine(s FormSchema, opts ...validate.Option) *validate.Engine {
	return validate.New(s, opts...)
}

// NewController starts a session over a validated schema.
func NewController(s FormSchema, opts ...state.Option) *state.Controller {
	return state.NewController(s, opts...)
}

// NewAggregator returns a snapshot reconciler with the default timestamp
// strategy and 5s conflict threshold.
func NewAggregator(opts ...aggregate.Option) *aggregate.Aggregator {
	return aggregate.New(opts...)
}

// Merge reconciles snapshots with a one-shot aggregator, for callers that
// do not need conflict history across calls.
func Merge(snapshots []Snapshot, opts ...aggregate.Option) aggregate.Result {
	return aggregate.New(opts...).Aggregate(snapshots)
}
