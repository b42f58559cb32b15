package statechart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChart() *Chart {
	return &Chart{
		Name:    "elevator",
		Initial: "root",
		States: []*State{
			{
				Name:    "root",
				Initial: "idle",
				Children: []*State{
					{Name: "idle", Transitions: []*Transition{{Target: "moving", Event: "go"}}},
					{Name: "moving", Transitions: []*Transition{{Target: "idle"}}},
				},
			},
			{Name: "broken", Final: true},
		},
	}
}

func TestChart_Seal(t *testing.T) {
	chart := validChart()
	require.NoError(t, chart.Seal())

	assert.Equal(t, []string{"root", "idle", "moving", "broken"}, chart.StateNames())

	idle, ok := chart.State("idle")
	require.True(t, ok)
	require.NotNil(t, idle.Parent)
	assert.Equal(t, "root", idle.Parent.Name)

	// Seal wires transition sources.
	assert.Equal(t, idle, idle.Transitions[0].Source)
}

func TestChart_Seal_DuplicateState(t *testing.T) {
	chart := validChart()
	chart.States = append(chart.States, &State{Name: "idle"})

	err := chart.Seal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate state name "idle"`)
}

func TestChart_Seal_MissingInitial(t *testing.T) {
	chart := validChart()
	chart.Initial = "nowhere"

	err := chart.Seal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `initial state "nowhere" does not exist`)
}

func TestChart_Seal_InitialMustBeRoot(t *testing.T) {
	chart := validChart()
	chart.Initial = "idle"

	err := chart.Seal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a root state")
}

func TestChart_Seal_CompoundWithoutInitial(t *testing.T) {
	chart := validChart()
	chart.States[0].Initial = ""

	err := chart.Seal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `compound state "root" has no initial child`)
}

func TestChart_Seal_DanglingTarget(t *testing.T) {
	chart := validChart()
	chart.States[0].Children[0].Transitions[0].Target = "orbit"

	err := chart.Seal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `transition target "orbit" does not exist`)
}

func TestState_PathAndDepth(t *testing.T) {
	chart := validChart()
	require.NoError(t, chart.Seal())

	idle, _ := chart.State("idle")
	assert.Equal(t, 1, idle.Depth())

	path := idle.Path()
	require.Len(t, path, 2)
	assert.Equal(t, "root", path[0].Name)
	assert.Equal(t, "idle", path[1].Name)
}

func TestStep_Summaries(t *testing.T) {
	var none *Step
	assert.Equal(t, "<none>", none.String())
	assert.Equal(t, "", none.ConsumedEvent())
	assert.Equal(t, "", none.ProcessedEvent())

	chart := validChart()
	require.NoError(t, chart.Seal())
	idle, _ := chart.State("idle")

	step := &Step{
		Entered:    []string{"moving"},
		Exited:     []string{"idle"},
		Event:      NewEvent("go", nil),
		Transition: idle.Transitions[0],
	}
	assert.Equal(t, "go", step.ConsumedEvent())
	assert.Equal(t, "go", step.ProcessedEvent())
	assert.Contains(t, step.String(), "entered=[moving]")
	assert.Contains(t, step.String(), "consumed=go")
}
