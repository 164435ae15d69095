package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-formflow/pkg/state"
)

type fakeStore struct {
	saves   int
	last    state.Snapshot
	failing error
}

func (f *fakeStore) Load(ctx context.Context) (*state.Snapshot, error) {
	snap := f.last
	return &snap, nil
}

func (f *fakeStore) Save(ctx context.Context, snap state.Snapshot) error {
	f.saves++
	if f.failing != nil {
		return f.failing
	}
	f.last = snap
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestFlushTransitionsToSaved(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	saver := state.NewAutosaver(store, state.WithSaveClock(fixedClock(now)))

	if got := saver.Status(); got != state.SaveIdle {
		t.Fatalf("initial status: got %q", got)
	}

	snap := state.Snapshot{FormID: "survey", Answers: map[string]any{"q1": "a"}}
	if err := saver.Flush(context.Background(), snap); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := saver.Status(); got != state.SaveSaved {
		t.Fatalf("status after flush: got %q", got)
	}
	if !saver.LastSaved().Equal(now) {
		t.Fatalf("last saved: got %v", saver.LastSaved())
	}
	if store.saves != 1 {
		t.Fatalf("expected one store write, got %d", store.saves)
	}
	if !store.last.LastSaved.Equal(now) {
		t.Fatalf("snapshot must be stamped before writing, got %v", store.last.LastSaved)
	}
}

func TestFlushSkipsUnchangedContent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	saver := state.NewAutosaver(store)
	snap := state.Snapshot{FormID: "survey", Answers: map[string]any{"q1": "a"}}

	for i := 0; i < 3; i++ {
		if err := saver.Flush(context.Background(), snap); err != nil {
			t.Fatalf("flush %d: %v", i, err)
		}
	}
	if store.saves != 1 {
		t.Fatalf("identical content must not rewrite, got %d writes", store.saves)
	}

	// Re-stamping LastSaved alone is not a content change.
	snap.LastSaved = time.Now()
	if saver.Dirty(snap) {
		t.Fatalf("timestamp-only change must not read as dirty")
	}

	snap.Answers["q1"] = "b"
	if !saver.Dirty(snap) {
		t.Fatalf("changed answer must read as dirty")
	}
	if err := saver.Flush(context.Background(), snap); err != nil {
		t.Fatalf("flush changed: %v", err)
	}
	if store.saves != 2 {
		t.Fatalf("changed content must write, got %d writes", store.saves)
	}
}

func TestFlushErrorStatusAndRetry(t *testing.T) {
	t.Parallel()

	bang := errors.New("disk full")
	store := &fakeStore{failing: bang}
	saver := state.NewAutosaver(store)
	snap := state.Snapshot{FormID: "survey", Answers: map[string]any{"q1": "a"}}

	if err := saver.Flush(context.Background(), snap); !errors.Is(err, bang) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := saver.Status(); got != state.SaveError {
		t.Fatalf("status after failure: got %q", got)
	}
	if !errors.Is(saver.LastError(), bang) {
		t.Fatalf("last error: got %v", saver.LastError())
	}

	// Failed content stays dirty and retries on the next flush.
	store.failing = nil
	if err := saver.Flush(context.Background(), snap); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if got := saver.Status(); got != state.SaveSaved {
		t.Fatalf("status after retry: got %q", got)
	}
	if saver.LastError() != nil {
		t.Fatalf("success must clear last error, got %v", saver.LastError())
	}
	if store.saves != 2 {
		t.Fatalf("expected failed write plus retry, got %d", store.saves)
	}
}

func TestDueGatesOnInterval(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	saver := state.NewAutosaver(store,
		state.WithSaveClock(fixedClock(now)),
		state.WithInterval(30*time.Second),
	)

	// Nothing saved yet: always due.
	if !saver.Due(now) {
		t.Fatalf("first save must be due immediately")
	}

	snap := state.Snapshot{FormID: "survey", Answers: map[string]any{"q1": "a"}}
	if err := saver.Flush(context.Background(), snap); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if saver.Due(now.Add(10 * time.Second)) {
		t.Fatalf("must not be due inside the interval")
	}
	if !saver.Due(now.Add(30 * time.Second)) {
		t.Fatalf("must be due at the interval boundary")
	}
}

func TestNilAutosaverIsTotal(t *testing.T) {
	t.Parallel()

	var saver *state.Autosaver
	if err := saver.Flush(context.Background(), state.Snapshot{}); err != nil {
		t.Fatalf("nil flush: %v", err)
	}
	if got := saver.Status(); got != state.SaveIdle {
		t.Fatalf("nil status: got %q", got)
	}
	if saver.Due(time.Now()) {
		t.Fatalf("nil autosaver must never be due")
	}
	if saver.Dirty(state.Snapshot{}) {
		t.Fatalf("nil autosaver must never be dirty")
	}
}
