package trace

import (
	"fmt"

	"github.com/solenne/chartest/internal/harness"
	"github.com/solenne/chartest/internal/statechart"
)

// Recorder persists every relay of one harness run. It implements
// harness.Observer. Write failures are remembered and reported by Err
// rather than interrupting the run: trace recording is diagnostics, not
// part of the harness failure model.
type Recorder struct {
	store *Store
	runID string
	seq   int64
	err   error
}

// NewRecorder registers a run and returns a recorder bound to it.
func NewRecorder(store *Store, scenario, subject string) (*Recorder, error) {
	runID, err := store.BeginRun(scenario, subject)
	if err != nil {
		return nil, err
	}
	return &Recorder{store: store, runID: runID}, nil
}

// RunID returns the identifier of the recorded run.
func (r *Recorder) RunID() string {
	return r.runID
}

// OnRelay implements harness.Observer.
func (r *Recorder) OnRelay(synthetic string, step *statechart.Step, octx *harness.ObservationContext) {
	if r.err != nil {
		return
	}
	r.seq++
	rec := NewRelayRecord(r.seq, synthetic, step, octx.ActiveStates())
	if err := r.store.WriteRelay(r.runID, rec); err != nil {
		r.err = fmt.Errorf("run %s: %w", r.runID, err)
	}
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	return r.err
}
