package state

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the persistence boundary. Transport, retry, and backoff belong
// to the implementation; the Autosaver only sequences status transitions.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// SaveStatus is the explicit persistence state machine: idle until the
// first flush, saving while a write is in flight, then saved or error.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

// Autosaver debounces snapshot persistence. It schedules nothing itself:
// callers poll Due from their own ticker and invoke Flush, which skips the
// write when the serialized content matches the last successful save.
// Successive flushes must be serialized by the caller.
type Autosaver struct {
	store    Store
	clock    func() time.Time
	interval time.Duration

	status    SaveStatus
	lastSaved time.Time
	lastBody  []byte
	lastErr   error
}

// AutosaverOption configures an Autosaver.
type AutosaverOption func(*Autosaver)

// WithSaveClock overrides the wall clock, mainly for tests.
func WithSaveClock(clock func() time.Time) AutosaverOption {
	return func(a *Autosaver) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithInterval sets the minimum gap between autosave attempts. Zero
// disables the time gate, leaving only the dirty check.
func WithInterval(interval time.Duration) AutosaverOption {
	return func(a *Autosaver) { a.interval = interval }
}

// NewAutosaver wraps a store with debounced, content-aware saving.
func NewAutosaver(store Store, opts ...AutosaverOption) *Autosaver {
	a := &Autosaver{
		store:  store,
		clock:  time.Now,
		status: SaveIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Status returns the current persistence state.
func (a *Autosaver) Status() SaveStatus {
	if a == nil {
		return SaveIdle
	}
	return a.status
}

// LastSaved returns the timestamp of the last successful write.
func (a *Autosaver) LastSaved() time.Time {
	if a == nil {
		return time.Time{}
	}
	return a.lastSaved
}

// LastError returns the error from the most recent failed flush, cleared by
// the next success.
func (a *Autosaver) LastError() error {
	if a == nil {
		return nil
	}
	return a.lastErr
}

// Dirty reports whether the snapshot differs from the last-saved content.
func (a *Autosaver) Dirty(snap Snapshot) bool {
	if a == nil {
		return false
	}
	body, err := canonicalBody(snap)
	if err != nil {
		return true
	}
	return string(body) != string(a.lastBody)
}

// Due reports whether enough time has passed since the last successful save
// for another attempt. It is the caller's periodic-check gate.
func (a *Autosaver) Due(now time.Time) bool {
	if a == nil {
		return false
	}
	if a.interval <= 0 || a.lastSaved.IsZero() {
		return true
	}
	return !now.Before(a.lastSaved.Add(a.interval))
}

// Flush persists the snapshot unless its serialized content matches the
// last successful save, in which case the write is skipped and the status
// is untouched. The snapshot is stamped with the save time before writing.
func (a *Autosaver) Flush(ctx context.Context, snap Snapshot) error {
	if a == nil || a.store == nil {
		return nil
	}
	body, err := canonicalBody(snap)
	if err == nil && string(body) == string(a.lastBody) {
		return nil
	}

	a.status = SaveSaving
	now := a.clock()
	snap.LastSaved = now
	if err := a.store.Save(ctx, snap); err != nil {
		a.status = SaveError
		a.lastErr = err
		return err
	}

	a.status = SaveSaved
	a.lastErr = nil
	a.lastSaved = now
	a.lastBody = body
	return nil
}

// canonicalBody serializes the parts of a snapshot that constitute unsaved
// changes. LastSaved is excluded so re-stamping alone never looks dirty.
func canonicalBody(snap Snapshot) ([]byte, error) {
	snap.LastSaved = time.Time{}
	return json.Marshal(snap)
}
