package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupekit/troupe/sim"
)

// A tank draining at 1.0/hr from 100 reads 95 at t=5 and, deactivated at
// t=10, freezes at 90 no matter how far the clock runs on.
func TestLinearActiveState(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
	)
	task := newTaskRun("drain", &TaskDef{Steps: []Step{nil}}, a, nil)

	require.NoError(t, a.ActivateLinear("fuel", -1.0, task))
	assert.True(t, a.IsActive("fuel"))

	require.NoError(t, stage.Env().Schedule(5.0, func() {
		v, err := a.GetFloat("fuel")
		assert.NoError(t, err)
		assert.InDelta(t, 95.0, v, 1e-12)
	}))
	require.NoError(t, stage.Env().Schedule(10.0, func() {
		assert.NoError(t, a.Deactivate("fuel", task))
	}))
	require.NoError(t, stage.Env().Run())
	require.NoError(t, stage.Env().RunUntil(25.0))

	assert.False(t, a.IsActive("fuel"))
	v, err := a.GetFloat("fuel")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, v, 1e-12)
}

func TestDuplicateActivation(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 50.0}),
	)
	task := newTaskRun("drain", &TaskDef{Steps: []Step{nil}}, a, nil)
	require.NoError(t, a.ActivateLinear("fuel", -1.0, task))
	err := a.ActivateLinear("fuel", -2.0, task)
	assert.True(t, sim.IsConfigurationError(err))
}

func TestActiveStateRejectsDirectWrite(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 50.0}),
	)
	task := newTaskRun("drain", &TaskDef{Steps: []Step{nil}}, a, nil)
	require.NoError(t, a.ActivateLinear("fuel", -1.0, task))
	assert.True(t, sim.IsConfigurationError(a.Set("fuel", 10.0)))
}

func TestPathActiveState(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "position", Kind: StatePath, Default: Point{X: 0, Y: 0}}),
	)
	task := newTaskRun("drive", &TaskDef{Steps: []Step{nil}}, a, nil)

	// 0,0 -> 30,0 -> 30,40: 70 distance units at speed 10 is 7 time units.
	waypoints := []Point{{X: 30}, {X: 30, Y: 40}}
	tt, err := a.TravelTime("position", 10.0, waypoints)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, tt, 1e-12)

	require.NoError(t, a.ActivatePath("position", 10.0, waypoints, task))

	require.NoError(t, stage.Env().Schedule(2.0, func() {
		p, err := a.GetPoint("position")
		assert.NoError(t, err)
		assert.InDelta(t, 20.0, p.X, 1e-9)
		assert.InDelta(t, 0.0, p.Y, 1e-9)
	}))
	require.NoError(t, stage.Env().Schedule(5.0, func() {
		p, err := a.GetPoint("position")
		assert.NoError(t, err)
		assert.InDelta(t, 30.0, p.X, 1e-9)
		assert.InDelta(t, 20.0, p.Y, 1e-9)
	}))
	require.NoError(t, stage.Env().Schedule(7.0, func() {
		assert.NoError(t, a.Deactivate("position", task))
	}))
	require.NoError(t, stage.Env().Run())

	p, err := a.GetPoint("position")
	require.NoError(t, err)
	assert.InDelta(t, 30.0, p.X, 1e-9)
	assert.InDelta(t, 40.0, p.Y, 1e-9)
}

func TestPathOverrunIsError(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "position", Kind: StatePath, Default: Point{}}),
	)
	task := newTaskRun("drive", &TaskDef{Steps: []Step{nil}}, a, nil)
	require.NoError(t, a.ActivatePath("position", 10.0, []Point{{X: 10}}, task))

	require.NoError(t, stage.Env().RunUntil(50.0))
	_, err := a.Get("position")
	assert.True(t, sim.IsSimulationError(err))
}

func TestDeactivateAllByTask(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
		WithState(StateDef{Name: "charge", Kind: StateLinear, Default: 50.0}),
		WithState(StateDef{Name: "water", Kind: StateLinear, Default: 20.0}),
	)
	mine := newTaskRun("mine", &TaskDef{Steps: []Step{nil}}, a, nil)
	other := newTaskRun("other", &TaskDef{Steps: []Step{nil}}, a, nil)

	require.NoError(t, a.ActivateLinear("fuel", -1.0, mine))
	require.NoError(t, a.ActivateLinear("charge", -2.0, mine))
	require.NoError(t, a.ActivateLinear("water", -0.5, other))

	assert.Equal(t, []string{"fuel", "charge"}, a.ActiveStates(mine))
	require.NoError(t, a.DeactivateAll(mine))
	assert.Empty(t, a.ActiveStates(mine))
	assert.True(t, a.IsActive("water"), "another task's activation survives")
}

func TestDeactivateLockedToOtherTask(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
	)
	owner := newTaskRun("owner", &TaskDef{Steps: []Step{nil}}, a, nil)
	thief := newTaskRun("thief", &TaskDef{Steps: []Step{nil}}, a, nil)
	require.NoError(t, a.ActivateLinear("fuel", -1.0, owner))
	assert.True(t, sim.IsSimulationError(a.Deactivate("fuel", thief)))
}

type recordingObserver struct {
	activated   []ActivationInfo
	deactivated []string
}

func (o *recordingObserver) StateActivated(a *Actor, info ActivationInfo) {
	o.activated = append(o.activated, info)
}

func (o *recordingObserver) StateDeactivated(a *Actor, state string, finalValue any) {
	o.deactivated = append(o.deactivated, state)
}

func TestActivationObserver(t *testing.T) {
	stage := sim.NewStage()
	obs := &recordingObserver{}
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
		WithObserver(obs),
	)
	task := newTaskRun("drain", &TaskDef{Steps: []Step{nil}}, a, nil)

	require.NoError(t, a.ActivateLinear("fuel", -3.0, task))
	require.NoError(t, a.Deactivate("fuel", task))

	require.Len(t, obs.activated, 1)
	assert.Equal(t, "fuel", obs.activated[0].State)
	assert.Equal(t, -3.0, obs.activated[0].Rate)
	assert.Equal(t, []string{"fuel"}, obs.deactivated)
}
