package harness

import (
	"errors"
	"io"
	"log/slog"

	"github.com/solenne/chartest/internal/evaluator"
	"github.com/solenne/chartest/internal/statechart"
)

// Synthetic lifecycle event names delivered to testers.
const (
	SyntheticStart = "start"
	SyntheticStep  = "step"
	SyntheticStop  = "stop"
)

// Observer receives every relayed synthetic event together with its
// observation context, before any tester sees it. Used for trace recording
// and CLI reporting; a failing tester does not suppress the notification.
type Observer interface {
	OnRelay(synthetic string, step *statechart.Step, octx *ObservationContext)
}

// Harness owns one subject engine and a list of tester engines, exclusively.
// It drives the subject with the configured event scenario and relays every
// observed step to the testers.
type Harness struct {
	subject  Engine
	testers  []Engine
	logger   *slog.Logger
	observer Observer
}

// newHarness performs the construction contract: relay a synthetic start
// event with a no-step context to every tester (fail-fast, left to right),
// then enqueue the whole scenario on the subject without executing it.
func newHarness(subject Engine, testers []Engine, events []*statechart.Event, logger *slog.Logger, observer Observer) (*Harness, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Harness{
		subject:  subject,
		testers:  testers,
		logger:   logger,
		observer: observer,
	}

	octx := NewObservationContext(subject, nil)
	if err := h.relay(nil, SyntheticStart, octx); err != nil {
		return nil, err
	}

	for _, ev := range events {
		subject.Send(ev)
	}
	return h, nil
}

// ExecuteOnce advances the subject by exactly one unit of progress. A
// produced step is relayed to the testers as a synthetic step event and
// returned. When the subject has no more progress to make, ExecuteOnce
// calls Stop, which performs the finality checks, and returns nil.
func (h *Harness) ExecuteOnce() (*statechart.Step, error) {
	step, err := h.subject.ExecuteStep()
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, h.Stop()
	}

	h.logger.Debug("subject step",
		"subject", h.subject.Chart().Name,
		"entered", step.Entered,
		"exited", step.Exited,
		"consumed", step.ConsumedEvent(),
	)

	octx := NewObservationContext(h.subject, step)
	if err := h.relay(step, SyntheticStep, octx); err != nil {
		return nil, err
	}
	return step, nil
}

// Execute repeatedly calls ExecuteOnce and collects every produced step,
// stopping when the subject terminates or when maxSteps (if positive)
// steps have been collected, whichever comes first. Cutting the loop short
// with maxSteps skips the finality checks for this call; a later call
// continues where this one stopped.
func (h *Harness) Execute(maxSteps int) ([]*statechart.Step, error) {
	var steps []*statechart.Step
	for {
		step, err := h.ExecuteOnce()
		if err != nil {
			return steps, err
		}
		if step == nil {
			return steps, nil
		}
		steps = append(steps, step)
		if maxSteps > 0 && len(steps) == maxSteps {
			return steps, nil
		}
	}
}

// Stop relays a synthetic stop event with a no-step context to every
// tester and checks that each one has reached a final configuration. Every
// tester gets its own relay and finality check: a failure for one does not
// suppress the others, and all failures are aggregated.
//
// Stop is invoked automatically when the subject terminates; calling it
// again re-runs the relays and checks and may double-report.
func (h *Harness) Stop() error {
	octx := NewObservationContext(h.subject, nil)
	if h.observer != nil {
		h.observer.OnRelay(SyntheticStop, nil, octx)
	}

	var errs []error
	for _, tester := range h.testers {
		if err := h.relayTo(tester, nil, SyntheticStop, octx); err != nil {
			errs = append(errs, err)
			continue
		}
		if tester.Running() {
			errs = append(errs, &FinalityError{
				Tester:        tester.Chart().Name,
				Configuration: tester.Configuration(),
			})
		}
	}
	return errors.Join(errs...)
}

// relay delivers one synthetic event to every tester in configuration
// order, aborting at the first failure so later testers never see the
// event for this relay.
func (h *Harness) relay(step *statechart.Step, synthetic string, octx *ObservationContext) error {
	if h.observer != nil {
		h.observer.OnRelay(synthetic, step, octx)
	}
	for _, tester := range h.testers {
		if err := h.relayTo(tester, step, synthetic, octx); err != nil {
			return err
		}
	}
	return nil
}

// relayTo delivers the synthetic event to a single tester: send, overlay
// the observation context onto the tester's live context, then run the
// tester to quiescence. Assertion failures are enriched into a *TestError;
// engine and evaluator failures propagate unchanged.
func (h *Harness) relayTo(tester Engine, step *statechart.Step, synthetic string, octx *ObservationContext) error {
	tester.Send(statechart.NewEvent(synthetic, nil))
	octx.Overlay(tester.Context())

	for {
		st, err := tester.ExecuteStep()
		if err != nil {
			var ae *evaluator.AssertionError
			if errors.As(err, &ae) {
				return &TestError{
					Subject:              h.subject.Chart().Name,
					Tester:               tester.Chart().Name,
					Cause:                err,
					TesterConfiguration:  tester.Configuration(),
					SubjectConfiguration: h.subject.Configuration(),
					Step:                 step,
				}
			}
			// Engine and evaluator failures are not this core's concern
			// and propagate unchanged.
			return err
		}
		if st == nil {
			return nil
		}
	}
}

// Subject returns the subject engine. Exposed for callers that inspect the
// live configuration or context between steps; the harness stays the sole
// driver of execution.
func (h *Harness) Subject() Engine {
	return h.subject
}

// Testers returns the tester engines in relay order. Read-only.
func (h *Harness) Testers() []Engine {
	return h.testers
}
