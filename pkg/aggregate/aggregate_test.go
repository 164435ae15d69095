package aggregate_test

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/aggregate"
	"github.com/goliatone/go-formflow/pkg/state"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func snap(source string, offset time.Duration, answers map[string]any) state.Snapshot {
	return state.Snapshot{
		SourceID:  source,
		FormID:    "survey",
		Answers:   answers,
		LastSaved: base.Add(offset),
	}
}

func TestStrategyValid(t *testing.T) {
	t.Parallel()

	for _, s := range []aggregate.Strategy{
		aggregate.StrategyTimestamp,
		aggregate.StrategyPriority,
		aggregate.StrategyMerge,
		aggregate.StrategyManual,
	} {
		if !s.Valid() {
			t.Errorf("%q must be valid", s)
		}
	}
	for _, s := range []aggregate.Strategy{"", "manua", "newest", "MERGE"} {
		if s.Valid() {
			t.Errorf("%q must be invalid", s)
		}
	}
}

func TestAggregateEmptyAndSingleton(t *testing.T) {
	t.Parallel()

	agg := aggregate.New()

	empty := agg.Aggregate(nil)
	if len(empty.Answers) != 0 || len(empty.Conflicts) != 0 || len(empty.Resolutions) != 0 {
		t.Fatalf("empty input must yield empty result, got %+v", empty)
	}

	only := snap("a", 0, map[string]any{"q1": "red", "q2": float64(7)})
	single := agg.Aggregate([]state.Snapshot{only})
	if diff := cmp.Diff(only.Answers, single.Answers); diff != "" {
		t.Fatalf("singleton answers mismatch (-want +got):\n%s", diff)
	}
	if len(single.Conflicts) != 0 || len(single.Resolutions) != 0 {
		t.Fatalf("singleton must not conflict, got %+v", single)
	}
}

func TestAggregateEqualValuesNeverConflict(t *testing.T) {
	t.Parallel()

	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": map[string]any{"k": "v"}}),
		snap("b", time.Millisecond, map[string]any{"q1": map[string]any{"k": "v"}}),
		snap("c", 48*time.Hour, map[string]any{"q1": map[string]any{"k": "v"}}),
	})
	if len(result.Conflicts) != 0 {
		t.Fatalf("deeply equal values must not conflict: %+v", result.Conflicts)
	}
	want := map[string]any{"q1": map[string]any{"k": "v"}}
	if diff := cmp.Diff(want, result.Answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateTimestampScenario(t *testing.T) {
	t.Parallel()

	// Snapshot A q1="red" at t0, snapshot B q1="blue" at t0+2s,
	// threshold 5s: one low-severity conflict, resolved to "blue".
	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("device-a", 0, map[string]any{"q1": "red"}),
		snap("device-b", 2*time.Second, map[string]any{"q1": "blue"}),
	})

	if got := result.Answers["q1"]; got != "blue" {
		t.Fatalf("expected blue to win, got %v", got)
	}
	if len(result.Conflicts) != 1 || len(result.Resolutions) != 1 {
		t.Fatalf("expected exactly one conflict and resolution, got %d/%d",
			len(result.Conflicts), len(result.Resolutions))
	}

	conflict := result.Conflicts[0]
	if conflict.FieldID != "q1" || conflict.Type != aggregate.ConflictValue || conflict.Severity != aggregate.SeverityLow {
		t.Fatalf("unexpected conflict classification: %+v", conflict)
	}
	if conflict.LocalSource != "device-a" || conflict.RemoteSource != "device-b" {
		t.Fatalf("unexpected conflict sources: %+v", conflict)
	}

	resolution := result.Resolutions[0]
	if resolution.Value != "blue" || resolution.Strategy != aggregate.StrategyTimestamp {
		t.Fatalf("unexpected resolution: %+v", resolution)
	}
}

func TestAggregateOutsideThresholdIsSequential(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithThreshold(5 * time.Second))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": "red"}),
		snap("b", time.Minute, map[string]any{"q1": "blue"}),
	})

	if len(result.Conflicts) != 0 {
		t.Fatalf("sequential edits must not conflict: %+v", result.Conflicts)
	}
	if got := result.Answers["q1"]; got != "blue" {
		t.Fatalf("newer value must silently win, got %v", got)
	}
}

func TestAggregateMergeArrays(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithStrategy(aggregate.StrategyMerge))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"tags": []any{"a", "b"}}),
		snap("b", time.Second, map[string]any{"tags": []any{"b", "c"}}),
	})

	merged, ok := result.Answers["tags"].([]any)
	if !ok {
		t.Fatalf("expected merged array, got %T", result.Answers["tags"])
	}
	got := make([]string, len(merged))
	for i, v := range merged {
		got[i] = v.(string)
	}
	sort.Strings(got)
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("union mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateMergeObjects(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithStrategy(aggregate.StrategyMerge))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"prefs": map[string]any{"theme": "dark"}}),
		snap("b", time.Second, map[string]any{"prefs": map[string]any{"lang": "en"}}),
	})

	want := map[string]any{"theme": "dark", "lang": "en"}
	if diff := cmp.Diff(want, result.Answers["prefs"]); diff != "" {
		t.Fatalf("merged object mismatch (-want +got):\n%s", diff)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Severity != aggregate.SeverityMedium {
		t.Fatalf("expected one medium-severity conflict, got %+v", result.Conflicts)
	}
}

func TestAggregateMergeObjectsLaterKeysWin(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithStrategy(aggregate.StrategyMerge))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"prefs": map[string]any{"theme": "dark"}}),
		snap("b", time.Second, map[string]any{"prefs": map[string]any{"theme": "light"}}),
	})

	want := map[string]any{"theme": "light"}
	if diff := cmp.Diff(want, result.Answers["prefs"]); diff != "" {
		t.Fatalf("later keys must win (-want +got):\n%s", diff)
	}
}

func TestAggregateTypeMismatchIsHighSeverity(t *testing.T) {
	t.Parallel()

	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": "five"}),
		snap("b", time.Second, map[string]any{"q1": float64(5)}),
	})

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d", len(result.Conflicts))
	}
	conflict := result.Conflicts[0]
	if conflict.Type != aggregate.ConflictStructure || conflict.Severity != aggregate.SeverityHigh {
		t.Fatalf("type mismatch must be structure/high, got %+v", conflict)
	}
}

func TestAggregateManualStrategyLeavesConflictsUnresolved(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithStrategy(aggregate.StrategyManual))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": "red"}),
		snap("b", time.Second, map[string]any{"q1": "blue"}),
	})

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d", len(result.Conflicts))
	}
	if len(result.Resolutions) != 0 {
		t.Fatalf("manual strategy must not auto-resolve, got %+v", result.Resolutions)
	}
	// The newest value is still surfaced as a provisional fallback.
	if got := result.Answers["q1"]; got != "blue" {
		t.Fatalf("expected provisional newest value, got %v", got)
	}

	history := agg.History()
	if len(history) != 1 || history[0].Resolution != nil {
		t.Fatalf("history must hold the unresolved conflict, got %+v", history)
	}
}

func TestAggregateAutoResolveOffWithholdsHighSeverity(t *testing.T) {
	t.Parallel()

	agg := aggregate.New(aggregate.WithAutoResolve(false))
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"scalar": "red", "shape": "text"}),
		snap("b", time.Second, map[string]any{"scalar": "blue", "shape": float64(1)}),
	})

	byField := make(map[string]aggregate.Conflict)
	for _, conflict := range result.Conflicts {
		byField[conflict.FieldID] = conflict
	}
	if byField["shape"].Severity != aggregate.SeverityHigh {
		t.Fatalf("expected high severity on shape, got %+v", byField["shape"])
	}

	// The low-severity conflict still resolves; the high one waits for a
	// human.
	if len(result.Resolutions) != 1 || result.Resolutions[0].FieldID != "scalar" {
		t.Fatalf("expected only scalar to resolve, got %+v", result.Resolutions)
	}
}

func TestAggregatePairwiseAdjacentDetection(t *testing.T) {
	t.Parallel()

	// Three contributions: a value that reverts to an earlier one only
	// conflicts with its immediate predecessor, and a run of equal values
	// after a change yields a single conflict.
	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": "x"}),
		snap("b", time.Second, map[string]any{"q1": "y"}),
		snap("c", 2*time.Second, map[string]any{"q1": "y"}),
	})

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one adjacent conflict, got %d", len(result.Conflicts))
	}
	if got := result.Answers["q1"]; got != "y" {
		t.Fatalf("expected y, got %v", got)
	}
}

func TestAggregateNilValuesDoNotContribute(t *testing.T) {
	t.Parallel()

	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": nil, "q2": "kept"}),
		snap("b", time.Second, map[string]any{"q1": "only"}),
	})

	if got := result.Answers["q1"]; got != "only" {
		t.Fatalf("nil contribution must be skipped, got %v", got)
	}
	if got := result.Answers["q2"]; got != "kept" {
		t.Fatalf("solo field must survive, got %v", got)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("no conflicts expected, got %+v", result.Conflicts)
	}
}

func TestAggregateDeterministicAcrossRepeats(t *testing.T) {
	t.Parallel()

	snapshots := []state.Snapshot{
		snap("a", 0, map[string]any{"q1": "red", "q2": []any{"x"}, "q3": float64(1)}),
		snap("b", time.Second, map[string]any{"q1": "blue", "q2": []any{"y"}, "q3": float64(2)}),
	}

	first := aggregate.New().Aggregate(snapshots)
	for i := 0; i < 5; i++ {
		repeat := aggregate.New().Aggregate(snapshots)
		if diff := cmp.Diff(first.Answers, repeat.Answers); diff != "" {
			t.Fatalf("answers not deterministic (-first +repeat):\n%s", diff)
		}
		if diff := cmp.Diff(conflictFields(first), conflictFields(repeat)); diff != "" {
			t.Fatalf("conflicts not deterministic (-first +repeat):\n%s", diff)
		}
	}
}

func conflictFields(result aggregate.Result) []string {
	out := make([]string, len(result.Conflicts))
	for i, conflict := range result.Conflicts {
		out[i] = conflict.FieldID
	}
	return out
}

func TestHistoryAccumulatesAndClears(t *testing.T) {
	t.Parallel()

	agg := aggregate.New()
	pair := []state.Snapshot{
		snap("a", 0, map[string]any{"q1": "red"}),
		snap("b", time.Second, map[string]any{"q1": "blue"}),
	}

	agg.Aggregate(pair)
	agg.Aggregate(pair)
	if got := len(agg.History()); got != 2 {
		t.Fatalf("expected history of 2, got %d", got)
	}

	agg.ClearHistory()
	if agg.History() != nil {
		t.Fatalf("expected empty history after clear")
	}
}

func TestAggregateUnserializableValuesFallBack(t *testing.T) {
	t.Parallel()

	// Channels cannot be serialized; they compare as equal and the newest
	// value wins without raising.
	agg := aggregate.New()
	result := agg.Aggregate([]state.Snapshot{
		snap("a", 0, map[string]any{"q1": make(chan int)}),
		snap("b", time.Second, map[string]any{"q1": "sane"}),
	})

	if len(result.Conflicts) != 0 {
		t.Fatalf("unserializable values must not conflict, got %+v", result.Conflicts)
	}
	if got := result.Answers["q1"]; got != "sane" {
		t.Fatalf("expected newest value, got %v", got)
	}
}
