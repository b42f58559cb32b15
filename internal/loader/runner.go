package loader

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/solenne/chartest/internal/harness"
	"github.com/solenne/chartest/internal/statechart"
	"github.com/solenne/chartest/internal/trace"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when no assertion failed and every tester reached a
	// final configuration.
	Pass bool

	// SubjectName is the subject chart's name, for reporting.
	SubjectName string

	// Steps is the number of subject steps executed.
	Steps int

	// Trace holds one record per relayed synthetic event.
	Trace []trace.RelayRecord

	// Errors holds the rendered failure messages. Empty when Pass.
	Errors []string
}

// RunOptions tweak scenario execution.
type RunOptions struct {
	// Logger receives debug relay logging. Nil discards.
	Logger *slog.Logger

	// Recorder, when set, additionally persists the relay trace.
	Recorder *trace.Recorder
}

// Run loads the scenario's charts, builds a harness and executes it to
// subject termination (or the scenario's step bound). Assertion and
// finality failures are reported in the Result; loading and engine
// failures are returned as errors.
func Run(scenario *Scenario, opts RunOptions) (*Result, error) {
	subjectChart, err := LoadChart(scenario.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject %s: %w", scenario.Subject, err)
	}

	cfg := harness.NewConfiguration(subjectChart, nil, nil)
	for _, path := range scenario.Testers {
		testerChart, err := LoadChart(path)
		if err != nil {
			return nil, fmt.Errorf("tester %s: %w", path, err)
		}
		cfg.AddTest(testerChart, nil, nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Logger = logger

	collector := trace.NewCollector()
	if opts.Recorder != nil {
		cfg.Observer = multiObserver{collector, opts.Recorder}
	} else {
		cfg.Observer = collector
	}

	events := make([]*statechart.Event, len(scenario.Events))
	for i, doc := range scenario.Events {
		events[i] = doc.Event()
	}

	result := &Result{SubjectName: subjectChart.Name}

	h, err := cfg.BuildHarness(events)
	if err != nil {
		if !harness.IsAssertionFailure(err) {
			return nil, err
		}
		result.Trace = collector.Records()
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	steps, err := h.Execute(scenario.MaxSteps)
	result.Steps = len(steps)
	result.Trace = collector.Records()
	if err != nil {
		if !harness.IsAssertionFailure(err) {
			return nil, err
		}
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	if opts.Recorder != nil {
		if err := opts.Recorder.Err(); err != nil {
			return nil, err
		}
	}

	result.Pass = true
	return result, nil
}

// multiObserver fans one relay notification out to several observers.
type multiObserver []harness.Observer

func (m multiObserver) OnRelay(synthetic string, step *statechart.Step, octx *harness.ObservationContext) {
	for _, o := range m {
		o.OnRelay(synthetic, step, octx)
	}
}
