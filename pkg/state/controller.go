package state

import (
	"time"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/validate"
)

// Controller owns the authoritative FormState for one active session. It is
// caller-owned and single-threaded by design: every method is synchronous,
// and concurrent sessions get independent instances reconciled later at
// snapshot granularity. All methods are total on a nil or uninitialised
// controller, returning empty results instead of crashing.
type Controller struct {
	schema schema.FormSchema
	engine *validate.Engine
	clock  func() time.Time
	source string

	state  FormState
	errors map[string]string
	ready  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitialData seeds the answer map, e.g. from a restored snapshot.
func WithInitialData(answers map[string]any) Option {
	return func(c *Controller) {
		for k, v := range answers {
			c.state.Answers[k] = deepCopy(v)
		}
	}
}

// WithSnapshot restores a full prior capture: answers, position, completed
// sections, and last-saved timestamp.
func WithSnapshot(snap Snapshot) Option {
	return func(c *Controller) {
		c.state.Answers = cloneAnswers(snap.Answers)
		c.state.Completed = cloneCompleted(snap.Completed)
		c.state.CurrentSection = snap.CurrentSection
		c.state.LastSaved = snap.LastSaved
	}
}

// WithClock overrides the wall-clock source used to stamp snapshots.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithEngine supplies a pre-configured validation engine (for example one
// carrying custom rules). By default the controller builds its own from the
// schema.
func WithEngine(engine *validate.Engine) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithSource tags snapshots produced by this controller, so aggregation can
// attribute conflicting values to their originating session.
func WithSource(id string) Option {
	return func(c *Controller) { c.source = id }
}

// NewController initialises a session over a schema that has already passed
// schema.Validate.
func NewController(s schema.FormSchema, opts ...Option) *Controller {
	c := &Controller{
		schema: s,
		clock:  time.Now,
		state: FormState{
			FormID:        s.ID,
			SchemaVersion: s.Version,
			Answers:       make(map[string]any),
		},
		errors: make(map[string]string),
		ready:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = validate.New(s)
	}
	c.clampSection()
	c.recomputeProgress()
	return c
}

// SetFieldValue writes one answer and re-validates only that field. The
// error map is updated incrementally; a full-form pass never runs here.
// Keys the schema does not declare are stored but never validated, the
// same tolerance ValidateForm applies to stray answer keys.
func (c *Controller) SetFieldValue(id string, value any) {
	if !c.usable() || id == "" {
		return
	}
	if value == nil {
		delete(c.state.Answers, id)
	} else {
		c.state.Answers[id] = deepCopy(value)
	}
	if _, declared := c.schema.Question(id); !declared {
		return
	}

	if msg := c.engine.ValidateField(id, value, c.state.Answers); msg != "" {
		c.errors[id] = msg
	} else {
		delete(c.errors, id)
	}
}

// FieldValue returns the current answer for a question id.
func (c *Controller) FieldValue(id string) (any, bool) {
	if !c.usable() {
		return nil, false
	}
	v, ok := c.state.Answers[id]
	return v, ok
}

// FieldError returns the incremental validation message for one field.
func (c *Controller) FieldError(id string) string {
	if !c.usable() {
		return ""
	}
	return c.errors[id]
}

// Errors returns a copy of the current error map.
func (c *Controller) Errors() map[string]string {
	if !c.usable() || len(c.errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// NextSection advances the section pointer, holding at the last section.
func (c *Controller) NextSection() int {
	if !c.usable() {
		return 0
	}
	if c.state.CurrentSection < len(c.schema.Sections)-1 {
		c.state.CurrentSection++
	}
	return c.state.CurrentSection
}

// PreviousSection steps back, holding at the first section.
func (c *Controller) PreviousSection() int {
	if !c.usable() {
		return 0
	}
	if c.state.CurrentSection > 0 {
		c.state.CurrentSection--
	}
	return c.state.CurrentSection
}

// CurrentSection returns the active section index.
func (c *Controller) CurrentSection() int {
	if !c.usable() {
		return 0
	}
	return c.state.CurrentSection
}

// CurrentSectionID returns the active section's id, or "".
func (c *Controller) CurrentSectionID() string {
	if !c.usable() {
		return ""
	}
	idx := c.state.CurrentSection
	if idx < 0 || idx >= len(c.schema.Sections) {
		return ""
	}
	return c.schema.Sections[idx].ID
}

// MarkSectionComplete records an explicit completion. Completion is
// independent of validation: a section with empty optional fields may be
// completed, and a later validation failure never unmarks it.
func (c *Controller) MarkSectionComplete(id string) {
	if !c.usable() || c.schema.SectionIndex(id) < 0 {
		return
	}
	if c.state.Completed == nil {
		c.state.Completed = make(map[string]bool)
	}
	c.state.Completed[id] = true
	c.recomputeProgress()
}

// MarkSectionIncomplete reverses an explicit completion.
func (c *Controller) MarkSectionIncomplete(id string) {
	if !c.usable() || c.state.Completed == nil {
		return
	}
	delete(c.state.Completed, id)
	c.recomputeProgress()
}

// Progress returns the overall completion percentage in [0,100].
func (c *Controller) Progress() float64 {
	if !c.usable() {
		return 0
	}
	return c.state.Progress
}

// ValidateForm runs a full pass over every section and replaces the error
// map wholesale.
func (c *Controller) ValidateForm() validate.FormResult {
	if !c.usable() {
		return validate.FormResult{Valid: true}
	}
	result := c.engine.ValidateForm(c.state.Answers)
	c.errors = make(map[string]string, len(result.Errors))
	for id, msg := range result.Errors {
		c.errors[id] = msg
	}
	return result
}

// Snapshot produces an immutable capture of the live state. It is the
// controller's sole serialization boundary: persistence and aggregation
// both work from snapshots, never from the live maps.
func (c *Controller) Snapshot() Snapshot {
	if !c.usable() {
		return Snapshot{}
	}
	return Snapshot{
		SourceID:       c.source,
		FormID:         c.state.FormID,
		SchemaVersion:  c.state.SchemaVersion,
		CurrentSection: c.state.CurrentSection,
		Answers:        cloneAnswers(c.state.Answers),
		Completed:      cloneCompleted(c.state.Completed),
		Progress:       c.state.Progress,
		LastSaved:      c.state.LastSaved,
	}
}

// ApplyAnswers installs reconciled answers back into the live state, the
// return path from aggregation. Each applied field is re-validated
// incrementally; nil values clear the field.
func (c *Controller) ApplyAnswers(answers map[string]any) {
	if !c.usable() {
		return
	}
	for id, value := range answers {
		c.SetFieldValue(id, value)
	}
}

// MarkSaved records a successful persistence write.
func (c *Controller) MarkSaved(at time.Time) {
	if !c.usable() {
		return
	}
	c.state.LastSaved = at
}

func (c *Controller) usable() bool {
	return c != nil && c.ready
}

func (c *Controller) clampSection() {
	if c.state.CurrentSection < 0 {
		c.state.CurrentSection = 0
	}
	if max := len(c.schema.Sections) - 1; max >= 0 && c.state.CurrentSection > max {
		c.state.CurrentSection = max
	}
}

func (c *Controller) recomputeProgress() {
	total := len(c.schema.Sections)
	if total == 0 {
		c.state.Progress = 0
		return
	}
	done := 0
	for _, section := range c.schema.Sections {
		if c.state.Completed[section.ID] {
			done++
		}
	}
	c.state.Progress = 100 * float64(done) / float64(total)
}
