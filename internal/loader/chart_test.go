package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChart(t *testing.T) {
	chart, err := LoadChart("testdata/charts/subject.yaml")
	require.NoError(t, err)

	assert.Equal(t, "subject", chart.Name)
	assert.Equal(t, "s1", chart.Initial)
	assert.Equal(t, []string{"s1", "s2", "s3"}, chart.StateNames())

	s1, ok := chart.State("s1")
	require.True(t, ok)
	require.Len(t, s1.Transitions, 1)
	assert.Equal(t, "goto s2", s1.Transitions[0].Event)
	assert.Equal(t, "s2", s1.Transitions[0].Target)

	s3, ok := chart.State("s3")
	require.True(t, ok)
	assert.True(t, s3.Final)
}

func TestLoadChart_MissingFile(t *testing.T) {
	_, err := LoadChart("testdata/charts/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read chart file")
}

func TestParseChart_Nested(t *testing.T) {
	chart, err := ParseChart([]byte(`
statechart:
  name: machine
  initial: operating
  states:
    - name: operating
      initial: running
      states:
        - name: running
          on_entry:
            - speed = 1
          transitions:
            - target: paused
              event: pause
              guard: speed > 0
              action: speed = 0
        - name: paused
      transitions:
        - target: shutdown
          event: off
    - name: shutdown
      final: true
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"operating", "running", "paused", "shutdown"}, chart.StateNames())

	running, ok := chart.State("running")
	require.True(t, ok)
	require.NotNil(t, running.Parent)
	assert.Equal(t, "operating", running.Parent.Name)
	assert.Equal(t, []string{"speed = 1"}, running.OnEntry)

	tr := running.Transitions[0]
	assert.Equal(t, "speed > 0", tr.Guard)
	assert.Equal(t, "speed = 0", tr.Action)
	assert.Equal(t, running, tr.Source)
}

func TestParseChart_UnknownFieldRejected(t *testing.T) {
	_, err := ParseChart([]byte(`
statechart:
  name: machine
  initial: a
  states:
    - name: a
      finall: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse chart YAML")
}

func TestParseChart_InvalidChart(t *testing.T) {
	_, err := ParseChart([]byte(`
statechart:
  name: machine
  initial: nowhere
  states:
    - name: a
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chart")
}
