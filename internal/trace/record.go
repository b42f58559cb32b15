// Package trace records the relay trace of a harness run: one record per
// synthetic event delivered to the testers, capturing what the subject did.
//
// Records can be collected in memory (Collector), persisted to SQLite
// (Store/Recorder) and serialized to canonical JSON for golden-file
// comparison (Snapshot).
package trace

import (
	"github.com/solenne/chartest/internal/harness"
	"github.com/solenne/chartest/internal/statechart"
)

// RelayRecord captures one relayed synthetic event.
type RelayRecord struct {
	Seq           int64    `json:"seq"`
	Synthetic     string   `json:"synthetic"`
	Entered       []string `json:"entered,omitempty"`
	Exited        []string `json:"exited,omitempty"`
	Consumed      string   `json:"consumed,omitempty"`
	Processed     string   `json:"processed,omitempty"`
	Configuration []string `json:"configuration"`
}

// NewRelayRecord builds a record from a relay notification. step is nil
// for start and stop relays.
func NewRelayRecord(seq int64, synthetic string, step *statechart.Step, configuration []string) RelayRecord {
	rec := RelayRecord{
		Seq:           seq,
		Synthetic:     synthetic,
		Configuration: configuration,
	}
	if step != nil {
		rec.Entered = step.Entered
		rec.Exited = step.Exited
		rec.Consumed = step.ConsumedEvent()
		rec.Processed = step.ProcessedEvent()
	}
	return rec
}

// Collector accumulates relay records in memory. It implements
// harness.Observer. Not safe for concurrent use, matching the harness's
// single-threaded execution model.
type Collector struct {
	records []RelayRecord
	seq     int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// OnRelay implements harness.Observer.
func (c *Collector) OnRelay(synthetic string, step *statechart.Step, octx *harness.ObservationContext) {
	c.seq++
	c.records = append(c.records, NewRelayRecord(c.seq, synthetic, step, octx.ActiveStates()))
}

// Records returns the collected records in relay order.
func (c *Collector) Records() []RelayRecord {
	return c.records
}

// Snapshot is the canonical serialization unit for golden-file comparison
// of a whole run.
type Snapshot struct {
	ScenarioName string
	SubjectName  string
	Relays       []RelayRecord
}

// MarshalCanonical serializes the snapshot to canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	relays := make([]any, len(s.Relays))
	for i, rec := range s.Relays {
		m := map[string]any{
			"seq":           rec.Seq,
			"synthetic":     rec.Synthetic,
			"configuration": toAnySlice(rec.Configuration),
		}
		if len(rec.Entered) > 0 {
			m["entered"] = toAnySlice(rec.Entered)
		}
		if len(rec.Exited) > 0 {
			m["exited"] = toAnySlice(rec.Exited)
		}
		if rec.Consumed != "" {
			m["consumed"] = rec.Consumed
		}
		if rec.Processed != "" {
			m["processed"] = rec.Processed
		}
		relays[i] = m
	}
	return MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"subject":       s.SubjectName,
		"relays":        relays,
	})
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
