package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/chartest/internal/statechart"
)

func subjectAt(config ...string) *fakeSubject {
	s := newFakeSubject()
	s.config = config
	return s
}

func TestObservationContext_StepScopedPredicates(t *testing.T) {
	subject := subjectAt("s2")
	step := &statechart.Step{
		Entered: []string{"s2"},
		Exited:  []string{"s1"},
		Event:   statechart.NewEvent("goto s2", nil),
	}
	octx := NewObservationContext(subject, step)

	assert.True(t, octx.Entered("s2"))
	assert.False(t, octx.Entered("s1"))
	assert.True(t, octx.Exited("s1"))
	assert.False(t, octx.Exited("s2"))
	assert.True(t, octx.Consumed("goto s2"))
	assert.False(t, octx.Consumed("goto s3"))
	assert.Equal(t, step, octx.Step())
}

func TestObservationContext_PredicatesAreNotRetained(t *testing.T) {
	// Each snapshot answers only for its own step: what the previous step
	// entered is not entered now.
	subject := subjectAt("s3")
	later := NewObservationContext(subject, &statechart.Step{
		Entered: []string{"s3"},
		Exited:  []string{"s2"},
	})

	assert.True(t, later.Entered("s3"))
	assert.False(t, later.Entered("s2"), "previous step's entry must not leak")
	assert.False(t, later.Exited("s1"))
}

func TestObservationContext_NoStep(t *testing.T) {
	// Start and stop relays carry no step: step-scoped predicates are
	// false while active and context stay live.
	subject := subjectAt("s2")
	subject.ctx["floor"] = 4
	octx := NewObservationContext(subject, nil)

	assert.Nil(t, octx.Step())
	assert.False(t, octx.Entered("s2"))
	assert.False(t, octx.Exited("s1"))
	assert.False(t, octx.Consumed("goto s2"))
	assert.False(t, octx.Processed("goto s2"))

	assert.True(t, octx.Active("s2"))
	assert.False(t, octx.Active("s1"))
	assert.Equal(t, 4, octx.Context()["floor"])
	assert.Equal(t, []string{"s2"}, octx.ActiveStates())
}

func TestObservationContext_ProcessedVsConsumed(t *testing.T) {
	// An eventless transition processes nothing even though it fired.
	subject := subjectAt("s3")
	idle := &statechart.State{Name: "s2"}
	octx := NewObservationContext(subject, &statechart.Step{
		Entered:    []string{"s3"},
		Exited:     []string{"s2"},
		Transition: &statechart.Transition{Source: idle, Target: "s3"},
	})

	assert.False(t, octx.Processed("goto s3"))
	assert.False(t, octx.Consumed("goto s3"))
}

func TestObservationContext_EmptyNameNeverMatches(t *testing.T) {
	subject := subjectAt("s1")
	octx := NewObservationContext(subject, &statechart.Step{Entered: []string{"s1"}})

	assert.False(t, octx.Consumed(""))
	assert.False(t, octx.Processed(""))
}

func TestObservationContext_OverlayKeySet(t *testing.T) {
	subject := subjectAt("s2")
	octx := NewObservationContext(subject, &statechart.Step{
		Entered: []string{"s2"},
		Exited:  []string{"s1"},
		Event:   statechart.NewEvent("goto s2", nil),
	})

	target := map[string]any{"mine": 1}
	octx.Overlay(target)

	// Tester-owned keys survive; the fixed key set is written over.
	assert.Equal(t, 1, target["mine"])
	for _, key := range []string{KeyEntered, KeyExited, KeyActive, KeyProcessed, KeyConsumed, KeyContext} {
		assert.Contains(t, target, key)
	}

	assert.Equal(t, map[string]bool{"s1": false, "s2": true, "s3": false}, target[KeyEntered])
	assert.Equal(t, map[string]bool{"s1": true, "s2": false, "s3": false}, target[KeyExited])
	assert.Equal(t, map[string]bool{"s1": false, "s2": true, "s3": false}, target[KeyActive])
	assert.Equal(t, "goto s2", target[KeyProcessed])
	assert.Equal(t, "goto s2", target[KeyConsumed])
}

func TestObservationContext_OverlayReplacesPreviousRelay(t *testing.T) {
	subject := subjectAt("s2")
	target := map[string]any{}

	NewObservationContext(subject, &statechart.Step{
		Entered: []string{"s2"},
		Exited:  []string{"s1"},
		Event:   statechart.NewEvent("goto s2", nil),
	}).Overlay(target)
	NewObservationContext(subject, nil).Overlay(target)

	assert.Equal(t, map[string]bool{"s1": false, "s2": false, "s3": false}, target[KeyEntered])
	assert.Equal(t, "", target[KeyConsumed])
}

func TestObservationContext_ContextIsLive(t *testing.T) {
	subject := subjectAt("s1")
	octx := NewObservationContext(subject, nil)

	target := map[string]any{}
	octx.Overlay(target)

	subject.ctx["floor"] = 9
	ctx, ok := target[KeyContext].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 9, ctx["floor"], "overlayed context tracks the subject's mutations")
}
