// Package state owns the live FormState for a single questionnaire session.
// A Controller mediates every mutation through the validation engine,
// snapshots hand answer data to persistence and aggregation, and the
// Autosaver implements the idle/saving/saved/error persistence status
// machine. Nothing here spawns goroutines; the package is built for a
// single-owner, event-driven caller.
package state

import "time"

// FormState is the mutable per-session record: where the user is, what they
// have answered, and which sections they explicitly completed. Progress is
// a percentage in [0,100] that changes only through completion marks, never
// through validation.
type FormState struct {
	FormID         string          `json:"formId"`
	SchemaVersion  string          `json:"schemaVersion,omitempty"`
	CurrentSection int             `json:"currentSection"`
	Answers        map[string]any  `json:"answers"`
	Completed      map[string]bool `json:"completed,omitempty"`
	Progress       float64         `json:"progress"`
	LastSaved      time.Time       `json:"lastSaved"`
}

// Snapshot is an immutable capture of a FormState at a point in time,
// tagged with the session that produced it. Snapshots are plain data: the
// aggregator consumes them without any schema dependency.
type Snapshot struct {
	SourceID       string          `json:"sourceId,omitempty"`
	FormID         string          `json:"formId"`
	SchemaVersion  string          `json:"schemaVersion,omitempty"`
	CurrentSection int             `json:"currentSection"`
	Answers        map[string]any  `json:"answers"`
	Completed      map[string]bool `json:"completed,omitempty"`
	Progress       float64         `json:"progress"`
	LastSaved      time.Time       `json:"lastSaved"`
}

func cloneAnswers(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func cloneCompleted(src map[string]bool) map[string]bool {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
