package harness

import "github.com/solenne/chartest/internal/statechart"

// Overlay key set written into every tester's evaluation context. The set
// is fixed: the harness never injects other keys.
const (
	KeyEntered   = "entered"
	KeyExited    = "exited"
	KeyActive    = "active"
	KeyProcessed = "processed"
	KeyConsumed  = "consumed"
	KeyContext   = "context"
)

// ObservationContext is an immutable snapshot built once per relayed
// synthetic event. It answers the step-scoped predicates (entered, exited,
// processed, consumed) from precomputed sets and the live predicates
// (active, context) from the subject engine.
//
// A context built with no step (start and stop relays) answers false to
// every step-scoped predicate while active and context still reflect the
// subject's current state.
type ObservationContext struct {
	subject   Engine
	step      *statechart.Step
	entered   map[string]bool
	exited    map[string]bool
	processed string
	consumed  string
}

// NewObservationContext builds the snapshot for one relay. step may be nil
// for the start and stop relays.
func NewObservationContext(subject Engine, step *statechart.Step) *ObservationContext {
	o := &ObservationContext{
		subject: subject,
		step:    step,
		entered: make(map[string]bool),
		exited:  make(map[string]bool),
	}
	if step != nil {
		for _, name := range step.Entered {
			o.entered[name] = true
		}
		for _, name := range step.Exited {
			o.exited[name] = true
		}
		o.processed = step.ProcessedEvent()
		o.consumed = step.ConsumedEvent()
	}
	return o
}

// Step returns the originating step, or nil for a start/stop context.
func (o *ObservationContext) Step() *statechart.Step {
	return o.step
}

// Entered reports whether the state was entered during the current step.
func (o *ObservationContext) Entered(stateName string) bool {
	return o.entered[stateName]
}

// Exited reports whether the state was exited during the current step.
func (o *ObservationContext) Exited(stateName string) bool {
	return o.exited[stateName]
}

// Active reports whether the state is currently in the subject's live
// configuration, independent of the current step.
func (o *ObservationContext) Active(stateName string) bool {
	for _, name := range o.subject.Configuration() {
		if name == stateName {
			return true
		}
	}
	return false
}

// Processed reports whether the fired transition's triggering event has
// the given name.
func (o *ObservationContext) Processed(eventName string) bool {
	return o.processed != "" && o.processed == eventName
}

// Consumed reports whether the step's consumed event has the given name.
func (o *ObservationContext) Consumed(eventName string) bool {
	return o.consumed != "" && o.consumed == eventName
}

// Context returns the subject's live evaluation context. Read-only view
// for tester expressions; only the subject engine mutates it.
func (o *ObservationContext) Context() map[string]any {
	return o.subject.Context()
}

// ActiveStates returns the subject's current configuration.
func (o *ObservationContext) ActiveStates() []string {
	return o.subject.Configuration()
}

// Overlay writes the fixed observation key set into a tester's evaluation
// context, set-or-replace per key. The entered, exited and active keys are
// maps over every subject state name, so tester guard expressions can
// select them by field: entered.s2, active."wait floor". The processed and
// consumed keys are event names, empty when absent, and context is the
// subject's live context map.
func (o *ObservationContext) Overlay(target map[string]any) {
	names := o.subject.Chart().StateNames()
	entered := make(map[string]bool, len(names))
	exited := make(map[string]bool, len(names))
	active := make(map[string]bool, len(names))
	for _, name := range names {
		entered[name] = o.entered[name]
		exited[name] = o.exited[name]
		active[name] = false
	}
	for _, name := range o.subject.Configuration() {
		active[name] = true
	}

	target[KeyEntered] = entered
	target[KeyExited] = exited
	target[KeyActive] = active
	target[KeyProcessed] = o.processed
	target[KeyConsumed] = o.consumed
	target[KeyContext] = o.subject.Context()
}
