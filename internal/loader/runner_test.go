package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/chartest/internal/trace"
)

func TestRun_Pass(t *testing.T) {
	scenario, err := LoadScenario("testdata/pass_scenario.yaml")
	require.NoError(t, err)

	result, err := Run(scenario, RunOptions{})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "subject", result.SubjectName)
	assert.Equal(t, 3, result.Steps)
	assert.Empty(t, result.Errors)

	// start, three steps, stop.
	require.Len(t, result.Trace, 5)
	assert.Equal(t, "start", result.Trace[0].Synthetic)
	assert.Equal(t, "step", result.Trace[1].Synthetic)
	assert.Equal(t, []string{"s1"}, result.Trace[1].Entered)
	assert.Equal(t, "goto s2", result.Trace[2].Consumed)
	assert.Equal(t, []string{"s3"}, result.Trace[3].Entered)
	assert.Equal(t, "stop", result.Trace[4].Synthetic)
	assert.Equal(t, []string{"s3"}, result.Trace[4].Configuration)
}

func TestRun_AssertionFailure(t *testing.T) {
	scenario, err := LoadScenario("testdata/fail_scenario.yaml")
	require.NoError(t, err)

	result, err := Run(scenario, RunOptions{})
	require.NoError(t, err, "assertion failures are a result, not an error")

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `an assertion failed while testing "subject"`)
	assert.Contains(t, result.Errors[0], `"s1 stays active"`)

	// The failing relay was still observed: start, initial entry, the
	// offending step.
	require.Len(t, result.Trace, 3)
	assert.Equal(t, []string{"s2"}, result.Trace[2].Entered)
}

func TestRun_MaxStepsBoundsTheRun(t *testing.T) {
	scenario, err := LoadScenario("testdata/pass_scenario.yaml")
	require.NoError(t, err)
	scenario.MaxSteps = 1

	result, err := Run(scenario, RunOptions{})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, 1, result.Steps)
	// No stop relay: the bound cut the run before subject termination.
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "step", result.Trace[1].Synthetic)
}

func TestRun_WithRecorder(t *testing.T) {
	scenario, err := LoadScenario("testdata/pass_scenario.yaml")
	require.NoError(t, err)

	store, err := trace.Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer store.Close()

	recorder, err := trace.NewRecorder(store, scenario.Name, "subject")
	require.NoError(t, err)

	result, err := Run(scenario, RunOptions{Recorder: recorder})
	require.NoError(t, err)
	require.True(t, result.Pass)

	persisted, err := store.ReadRun(recorder.RunID())
	require.NoError(t, err)
	require.Len(t, persisted, len(result.Trace))
	for i, want := range result.Trace {
		got := persisted[i]
		assert.Equal(t, want.Seq, got.Seq)
		assert.Equal(t, want.Synthetic, got.Synthetic)
		assert.Equal(t, want.Consumed, got.Consumed)
		assert.ElementsMatch(t, want.Entered, got.Entered)
		assert.ElementsMatch(t, want.Configuration, got.Configuration)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRun_BrokenSubjectChart(t *testing.T) {
	dir := t.TempDir()
	chartPath := filepath.Join(dir, "subject.yaml")
	writeFile(t, chartPath, `
statechart:
  name: broken
  initial: nowhere
  states:
    - name: a
`)
	scenarioPath := filepath.Join(dir, "scenario.yaml")
	writeFile(t, scenarioPath, `
name: broken subject
subject: subject.yaml
`)

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	_, err = Run(scenario, RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chart")
}
