package statechart

import "reflect"

// Event is a named signal with an optional keyed payload.
//
// Events are immutable once created: NewEvent copies the payload map, and
// Payload returns the internal map which callers must not mutate. Equality
// is by name and payload, which is what trace comparison and predicate
// matching rely on.
type Event struct {
	name    string
	payload map[string]any
}

// NewEvent creates an event with the given name and payload.
// The payload map is copied, so later mutations of the argument do not
// affect the event.
func NewEvent(name string, payload map[string]any) *Event {
	var copied map[string]any
	if len(payload) > 0 {
		copied = make(map[string]any, len(payload))
		for k, v := range payload {
			copied[k] = v
		}
	}
	return &Event{name: name, payload: copied}
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// Payload returns the event payload. May be nil. Callers must treat the
// returned map as read-only.
func (e *Event) Payload() map[string]any {
	return e.payload
}

// Equal reports whether two events have the same name and payload.
// A nil event is only equal to another nil event.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.name != other.name {
		return false
	}
	if len(e.payload) != len(other.payload) {
		return false
	}
	if len(e.payload) == 0 {
		return true
	}
	return reflect.DeepEqual(e.payload, other.payload)
}

// String returns the event name, for diagnostics.
func (e *Event) String() string {
	if e == nil {
		return "<none>"
	}
	return e.name
}
