package aggregate

import (
	"encoding/json"
	"time"
)

// ConflictType distinguishes scalar disagreements from shape-level ones.
type ConflictType string

const (
	ConflictValue     ConflictType = "value"
	ConflictStructure ConflictType = "structure"
)

// Severity ranks how much human attention a conflict deserves.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Conflict records two snapshot values disagreeing on a field within the
// configured threshold. It is an inspectable event, not an error.
type Conflict struct {
	FieldID      string       `json:"fieldId"`
	LocalValue   any          `json:"localValue"`
	RemoteValue  any          `json:"remoteValue"`
	LocalSource  string       `json:"localSource,omitempty"`
	RemoteSource string       `json:"remoteSource,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Type         ConflictType `json:"type"`
	Severity     Severity     `json:"severity"`
}

// Resolution records the value chosen for a conflicted field and the
// strategy that chose it.
type Resolution struct {
	FieldID    string    `json:"fieldId"`
	Value      any       `json:"value"`
	Strategy   Strategy  `json:"strategy"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Record pairs a conflict with its resolution in the aggregator's history.
// Resolution is nil while a conflict awaits an external decision.
type Record struct {
	Conflict   Conflict    `json:"conflict"`
	Resolution *Resolution `json:"resolution,omitempty"`
}

// classify derives a conflict's type and severity from the runtime shapes
// of the two values: high on kind mismatch, medium when both sides are
// containers, low for scalar disagreements.
func classify(a, b any) (ConflictType, Severity) {
	ka, kb := jsonKind(a), jsonKind(b)
	if ka != kb {
		return ConflictStructure, SeverityHigh
	}
	if ka == kindObject || ka == kindArray {
		return ConflictStructure, SeverityMedium
	}
	return ConflictValue, SeverityLow
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
	kindOther
)

func jsonKind(value any) valueKind {
	switch value.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case float64, float32, int, int32, int64, uint, uint64:
		return kindNumber
	case string:
		return kindString
	case []any, []string:
		return kindArray
	case map[string]any:
		return kindObject
	default:
		return kindOther
	}
}

// canonical returns the deterministic serialization used for deep equality.
// encoding/json sorts map keys, so structurally equal values always encode
// to the same bytes.
func canonical(value any) (string, bool) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// canonicalEqual compares two values by canonical serialization. Values
// that cannot be serialized compare as equal, the safe fallback: they
// resolve by timestamp instead of raising.
func canonicalEqual(a, b any) bool {
	ca, okA := canonical(a)
	cb, okB := canonical(b)
	if !okA || !okB {
		return true
	}
	return ca == cb
}
