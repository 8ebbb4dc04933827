package hook

import (
	"encoding/json"
	"reflect"
	"time"
)

// State is the position of one invocation in Pending → {Value | Empty | Failed}.
type State int

const (
	StatePending State = iota
	StateValue
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateValue:
		return "value"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the normalized result of invoking one callable.
type Outcome struct {
	State    State
	Value    any
	Err      error
	Duration time.Duration
}

func valueOutcome(v any) Outcome {
	if IsEmpty(v) {
		return Outcome{State: StateEmpty}
	}
	return Outcome{State: StateValue, Value: v}
}

func failedOutcome(err error) Outcome {
	return Outcome{State: StateFailed, Err: err}
}

// IsEmpty reports whether a hook return value counts as "not handled":
// nil, a nil pointer/map/slice/interface/func/chan, an empty map, slice,
// array or string, or a JSON null.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if raw, ok := v.(json.RawMessage); ok {
		return len(raw) == 0 || string(raw) == "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Map, reflect.Slice:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array, reflect.String:
		return rv.Len() == 0
	}
	return false
}
