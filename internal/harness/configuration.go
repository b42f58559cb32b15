package harness

import (
	"fmt"
	"log/slog"

	"github.com/solenne/chartest/internal/evaluator"
	"github.com/solenne/chartest/internal/statechart"
)

// descriptor declares one execution: a chart, an optional evaluator and an
// optional engine factory, both resolved to defaults at build time.
type descriptor struct {
	chart   *statechart.Chart
	eval    evaluator.Evaluator
	factory EngineFactory
}

func (d descriptor) build() (Engine, error) {
	factory := d.factory
	if factory == nil {
		factory = DefaultEngineFactory
	}
	eng, err := factory(d.chart, d.eval)
	if err != nil {
		return nil, fmt.Errorf("chart %q: %w", d.chart.Name, err)
	}
	return eng, nil
}

// Configuration is the declarative description of a harness: one subject
// and zero or more testers. It is consumed by BuildHarness without being
// mutated, so the same configuration can build any number of independent
// harnesses, each with fresh engine instances.
type Configuration struct {
	subject descriptor
	testers []descriptor

	// Logger receives debug-level relay logging. Nil discards.
	Logger *slog.Logger

	// Observer, when set, is handed to every harness built from this
	// configuration and receives each relayed synthetic event.
	Observer Observer
}

// NewConfiguration declares the subject under test. A nil evaluator or
// factory selects the defaults (the CUE evaluator and the interpreter
// engine) when the harness is built.
func NewConfiguration(chart *statechart.Chart, eval evaluator.Evaluator, factory EngineFactory) *Configuration {
	return &Configuration{
		subject: descriptor{chart: chart, eval: eval, factory: factory},
	}
}

// AddTest appends a tester declaration. Order is preserved and determines
// relay order. Chart well-formedness is the engine's concern; the
// configuration only refuses a nil chart.
func (c *Configuration) AddTest(chart *statechart.Chart, eval evaluator.Evaluator, factory EngineFactory) {
	if chart == nil {
		panic("harness: AddTest called with nil chart")
	}
	c.testers = append(c.testers, descriptor{chart: chart, eval: eval, factory: factory})
}

// BuildHarness instantiates fresh subject and tester engines and constructs
// a harness around them: the synthetic start event is relayed to every
// tester eagerly and the scenario events are enqueued on the subject. An
// assertion failure during the start relay fails the build.
func (c *Configuration) BuildHarness(events []*statechart.Event) (*Harness, error) {
	if c.subject.chart == nil {
		return nil, fmt.Errorf("harness: configuration has no subject chart")
	}
	subject, err := c.subject.build()
	if err != nil {
		return nil, err
	}
	testers := make([]Engine, 0, len(c.testers))
	for _, d := range c.testers {
		tester, err := d.build()
		if err != nil {
			return nil, err
		}
		testers = append(testers, tester)
	}
	return newHarness(subject, testers, events, c.Logger, c.Observer)
}
