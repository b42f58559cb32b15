package statechart

import (
	"fmt"
	"strings"
)

// Step is one unit of progress of an execution engine: the states entered
// (outer to inner), the states exited (inner to outer), the event consumed
// to trigger the step (nil for an eventless or initial step), and the
// transition fired (nil when the step consumed an event that enabled no
// transition, or performed the initial entry).
//
// A nil *Step returned by an engine means execution has terminated.
type Step struct {
	Entered    []string
	Exited     []string
	Event      *Event
	Transition *Transition
}

// ConsumedEvent returns the name of the consumed event, or "" if the step
// consumed none.
func (s *Step) ConsumedEvent() string {
	if s == nil || s.Event == nil {
		return ""
	}
	return s.Event.Name()
}

// ProcessedEvent returns the name of the event that triggered the fired
// transition, or "" if no transition fired or it was eventless.
func (s *Step) ProcessedEvent() string {
	if s == nil || s.Transition == nil {
		return ""
	}
	return s.Transition.Event
}

// String renders a compact summary used in enriched failure messages.
func (s *Step) String() string {
	if s == nil {
		return "<none>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "step(entered=[%s], exited=[%s]", strings.Join(s.Entered, ", "), strings.Join(s.Exited, ", "))
	if s.Event != nil {
		fmt.Fprintf(&b, ", consumed=%s", s.Event.Name())
	}
	if s.Transition != nil {
		fmt.Fprintf(&b, ", transition=%s", s.Transition)
	}
	b.WriteByte(')')
	return b.String()
}
