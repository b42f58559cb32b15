package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/chartest/internal/engine"
	"github.com/solenne/chartest/internal/harness"
	"github.com/solenne/chartest/internal/testutil"
)

func TestRecorder_PersistsRelays(t *testing.T) {
	store := openTestStore(t, "run-1")

	recorder, err := NewRecorder(store, "subject reaches s3", "subject")
	require.NoError(t, err)
	assert.Equal(t, "run-1", recorder.RunID())

	subject := engine.New(testutil.SubjectS123(), nil)
	recorder.OnRelay("start", nil, harness.NewObservationContext(subject, nil))

	step, err := subject.ExecuteStep()
	require.NoError(t, err)
	recorder.OnRelay("step", step, harness.NewObservationContext(subject, step))

	require.NoError(t, recorder.Err())

	records, err := store.ReadRun("run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "start", records[0].Synthetic)
	assert.Equal(t, []string{"s1"}, records[1].Entered)
	assert.Equal(t, []string{"s1"}, records[1].Configuration)
}

func TestRecorder_RemembersWriteFailure(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	store.SetRunIDGenerator(testutil.NewFixedRunIDs("run-1"))

	recorder, err := NewRecorder(store, "s", "c")
	require.NoError(t, err)

	// Closing the store makes every later write fail; the failure is
	// remembered rather than raised mid-run.
	require.NoError(t, store.Close())

	subject := engine.New(testutil.SubjectS123(), nil)
	recorder.OnRelay("start", nil, harness.NewObservationContext(subject, nil))

	err = recorder.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run run-1")

	// Later relays are dropped without overwriting the first failure.
	recorder.OnRelay("stop", nil, harness.NewObservationContext(subject, nil))
	assert.Equal(t, err, recorder.Err())
}
