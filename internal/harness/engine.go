package harness

import (
	"github.com/solenne/chartest/internal/engine"
	"github.com/solenne/chartest/internal/evaluator"
	"github.com/solenne/chartest/internal/statechart"
)

// Engine is the execution-engine contract the harness consumes, for both
// the subject and tester roles. internal/engine provides the default
// implementation; anything satisfying this interface can be substituted
// through an EngineFactory.
type Engine interface {
	// Send enqueues an event for future processing without executing it.
	Send(ev *statechart.Event)

	// ExecuteStep performs exactly one unit of progress. It returns the
	// step taken, or nil when no progress is possible.
	ExecuteStep() (*statechart.Step, error)

	// Execute repeatedly steps the engine, collecting at most maxSteps
	// steps (unbounded when maxSteps <= 0).
	Execute(maxSteps int) ([]*statechart.Step, error)

	// Configuration returns the names of the currently active states.
	Configuration() []string

	// Running reports whether at least one active state is non-final.
	Running() bool

	// Context returns the live evaluation context.
	Context() map[string]any

	// Chart returns the interpreted statechart definition.
	Chart() *statechart.Chart
}

// EngineFactory builds a ready engine instance for a chart. Descriptors
// that name no factory use DefaultEngineFactory.
type EngineFactory func(chart *statechart.Chart, eval evaluator.Evaluator) (Engine, error)

// DefaultEngineFactory builds the interpreter from internal/engine.
func DefaultEngineFactory(chart *statechart.Chart, eval evaluator.Evaluator) (Engine, error) {
	return engine.New(chart, eval), nil
}
