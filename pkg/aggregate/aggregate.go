// Package aggregate reconciles answer snapshots from parallel sessions into
// one canonical record. It is schema-agnostic: only keyed answer maps and
// their timestamps matter. Two snapshots disagreeing on a field raise a
// conflict only when their timestamps fall within the configured threshold;
// otherwise the edit is treated as sequential and the newer value silently
// wins. Aggregation is pure and bounded, with no suspension points, and it
// never fails: malformed values compare as equal and fall back to the
// newest contribution.
package aggregate

import (
	"sort"
	"time"

	"github.com/goliatone/go-formflow/pkg/state"
)

// Strategy selects how conflicting values are reconciled.
type Strategy string

const (
	// StrategyTimestamp takes the most recent value. The default.
	StrategyTimestamp Strategy = "timestamp"
	// StrategyPriority is a declared extension point; it currently defers
	// to timestamp ordering.
	StrategyPriority Strategy = "priority"
	// StrategyMerge unions arrays and shallow-merges objects in timestamp
	// order; scalars fall back to the most recent value.
	StrategyMerge Strategy = "merge"
	// StrategyManual records conflicts without resolving them. The most
	// recent value is surfaced as a provisional fallback pending an
	// external override.
	StrategyManual Strategy = "manual"
)

// Valid reports whether s is a recognized strategy name.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyTimestamp, StrategyPriority, StrategyMerge, StrategyManual:
		return true
	default:
		return false
	}
}

// DefaultThreshold is the maximum gap between two differing values for
// them to count as a concurrent edit rather than a sequential update.
const DefaultThreshold = 5 * time.Second

// Result is the plain data triple returned by Aggregate.
type Result struct {
	Answers     map[string]any `json:"aggregatedData"`
	Conflicts   []Conflict     `json:"conflicts"`
	Resolutions []Resolution   `json:"resolutions"`
}

// Aggregator merges snapshots and keeps an in-memory history of every
// conflict/resolution pair across its lifetime.
type Aggregator struct {
	strategy    Strategy
	threshold   time.Duration
	autoResolve bool
	clock       func() time.Time

	history []Record
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStrategy selects the conflict resolution strategy. Unrecognized
// names keep the default; callers taking strategy names from user input
// should reject invalid ones with Strategy.Valid first.
func WithStrategy(s Strategy) Option {
	return func(a *Aggregator) {
		if s.Valid() {
			a.strategy = s
		}
	}
}

// WithThreshold sets the concurrent-edit window. Non-positive values keep
// the default.
func WithThreshold(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.threshold = d
		}
	}
}

// WithAutoResolve controls whether high-severity conflicts are resolved
// automatically. When disabled they are recorded unresolved so a human can
// review them; the newest value still lands in the answers as a fallback.
func WithAutoResolve(enabled bool) Option {
	return func(a *Aggregator) { a.autoResolve = enabled }
}

// WithClock overrides the wall clock stamped on resolutions.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New returns an aggregator with the default timestamp strategy, a 5s
// threshold, and auto-resolution enabled.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		strategy:    StrategyTimestamp,
		threshold:   DefaultThreshold,
		autoResolve: true,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// contribution is one snapshot's non-nil value for a field.
type contribution struct {
	value  any
	ts     time.Time
	source string
	order  int
}

// Aggregate merges an ordered list of same-form snapshots. The result is
// deterministic for identical input order and timestamps.
func (a *Aggregator) Aggregate(snapshots []state.Snapshot) Result {
	result := Result{
		Answers:     make(map[string]any),
		Conflicts:   []Conflict{},
		Resolutions: []Resolution{},
	}
	if a == nil || len(snapshots) == 0 {
		return result
	}
	if len(snapshots) == 1 {
		for k, v := range snapshots[0].Answers {
			result.Answers[k] = v
		}
		return result
	}

	for _, field := range fieldUnion(snapshots) {
		contribs := collect(snapshots, field)
		if len(contribs) == 0 {
			continue
		}
		if len(contribs) == 1 {
			result.Answers[field] = contribs[0].value
			continue
		}

		sort.SliceStable(contribs, func(i, j int) bool {
			if contribs[i].ts.Equal(contribs[j].ts) {
				return contribs[i].order < contribs[j].order
			}
			return contribs[i].ts.Before(contribs[j].ts)
		})

		conflicts := a.detect(field, contribs)
		if len(conflicts) == 0 {
			result.Answers[field] = contribs[len(contribs)-1].value
			continue
		}

		resolved := a.resolve(contribs)
		result.Answers[field] = resolved
		for _, conflict := range conflicts {
			result.Conflicts = append(result.Conflicts, conflict)
			record := Record{Conflict: conflict}
			if a.shouldResolve(conflict) {
				res := Resolution{
					FieldID:    field,
					Value:      resolved,
					Strategy:   a.strategy,
					ResolvedAt: a.clock(),
				}
				result.Resolutions = append(result.Resolutions, res)
				record.Resolution = &res
			}
			a.history = append(a.history, record)
		}
	}

	return result
}

// detect walks timestamp-adjacent pairs. A value equal to its immediate
// predecessor but different from an earlier one is deliberately not
// flagged; the pairwise-adjacent semantic keeps detection linear and
// matches how sequential autosaves behave.
func (a *Aggregator) detect(field string, contribs []contribution) []Conflict {
	var out []Conflict
	for i := 1; i < len(contribs); i++ {
		prev, next := contribs[i-1], contribs[i]
		if canonicalEqual(prev.value, next.value) {
			continue
		}
		if next.ts.Sub(prev.ts) > a.threshold {
			continue
		}
		ctype, severity := classify(prev.value, next.value)
		out = append(out, Conflict{
			FieldID:      field,
			LocalValue:   prev.value,
			RemoteValue:  next.value,
			LocalSource:  prev.source,
			RemoteSource: next.source,
			Timestamp:    next.ts,
			Type:         ctype,
			Severity:     severity,
		})
	}
	return out
}

// resolve computes the canonical value for a conflicted field from every
// contribution, already sorted by timestamp.
func (a *Aggregator) resolve(contribs []contribution) any {
	newest := contribs[len(contribs)-1].value
	switch a.strategy {
	case StrategyMerge:
		return mergeContributions(contribs)
	default:
		// timestamp, priority (extension point), and the manual
		// provisional fallback all surface the most recent value.
		return newest
	}
}

// shouldResolve decides whether a conflict gets an automatic resolution.
// Manual never resolves, and disabling auto-resolution withholds
// high-severity (type mismatch) decisions so they reach a human reviewer;
// lower severities still resolve to keep the merged record usable.
func (a *Aggregator) shouldResolve(conflict Conflict) bool {
	if a.strategy == StrategyManual {
		return false
	}
	if !a.autoResolve && conflict.Severity == SeverityHigh {
		return false
	}
	return true
}

// History returns a copy of every recorded conflict/resolution pair.
func (a *Aggregator) History() []Record {
	if a == nil || len(a.history) == 0 {
		return nil
	}
	return append([]Record(nil), a.history...)
}

// ClearHistory discards the accumulated records.
func (a *Aggregator) ClearHistory() {
	if a == nil {
		return
	}
	a.history = nil
}

// fieldUnion returns every field id present in any snapshot, sorted so the
// merge walks fields deterministically.
func fieldUnion(snapshots []state.Snapshot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, snap := range snapshots {
		for field := range snap.Answers {
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

func collect(snapshots []state.Snapshot, field string) []contribution {
	var out []contribution
	for idx, snap := range snapshots {
		value, ok := snap.Answers[field]
		if !ok || value == nil {
			continue
		}
		source := snap.SourceID
		if source == "" {
			source = snap.FormID
		}
		out = append(out, contribution{value: value, ts: snap.LastSaved, source: source, order: idx})
	}
	return out
}
