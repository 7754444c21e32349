package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupekit/troupe/resource"
	"github.com/troupekit/troupe/sim"
)

// drainTask drains fuel at rate for d time units.
func drainTask(rate, d float64) *TaskDef {
	return &TaskDef{
		Steps: []Step{
			func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
				if err := a.ActivateLinear("fuel", rate, t); err != nil {
					return nil, err
				}
				return sim.NewWait(a.Stage().Env(), d), nil
			},
			func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
				return nil, a.Deactivate("fuel", t)
			},
		},
	}
}

func TestRehearseTaskElapsedAndIsolation(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
	)

	clone, elapsed, err := RehearseTask(a, "drain", drainTask(-2.0, 5.0), nil)
	require.NoError(t, err)

	assert.Equal(t, 5.0, elapsed)
	fuel, err := clone.GetFloat("fuel")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, fuel, 1e-12)

	// The live actor and clock are untouched.
	liveFuel, err := a.GetFloat("fuel")
	require.NoError(t, err)
	assert.Equal(t, 100.0, liveFuel)
	assert.Equal(t, 0.0, stage.Now())
	assert.Equal(t, 0, stage.Env().Pending())
}

func TestRehearseTaskIdempotent(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
	)
	def := drainTask(-2.0, 5.0)

	c1, e1, err := RehearseTask(a, "drain", def, nil)
	require.NoError(t, err)
	c2, e2, err := RehearseTask(a, "drain", def, nil)
	require.NoError(t, err)

	assert.Equal(t, e1, e2)
	f1, err := c1.GetFloat("fuel")
	require.NoError(t, err)
	f2, err := c2.GetFloat("fuel")
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestRehearseGetResolvesToPlanningFactor(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)
	store := resource.NewStore(stage.Env(), resource.WithItems("pallet"))

	var planned any
	def := &TaskDef{
		Steps: []Step{
			func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
				return store.Get(sim.WithPlanningDuration(2.0)), nil
			},
			func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
				planned = t.LastValue()
				return nil, nil
			},
		},
	}
	_, elapsed, err := RehearseTask(a, "grab", def, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, elapsed)
	assert.Equal(t, sim.PlanningFactor, planned)
	assert.Equal(t, 1, store.Len(), "rehearsal must not consume live items")
}

func TestRehearseKnowledgeOverlay(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)
	require.NoError(t, a.SetKnowledge("speed", 10.0, false))

	var seen any
	def := &TaskDef{
		Steps: []Step{func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
			v, err := a.MustKnowledge("speed")
			seen = v
			return nil, err
		}},
	}
	_, _, err := RehearseTask(a, "check", def, map[string]any{"speed": 25.0})
	require.NoError(t, err)
	assert.Equal(t, 25.0, seen)

	// The overlay never reached the live actor.
	v, err := a.MustKnowledge("speed")
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestRehearseNetworkFollowsQueueToEndTask(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage,
		WithState(StateDef{Name: "fuel", Kind: StateLinear, Default: 100.0}),
	)
	def := &NetworkDef{
		Name: "ops",
		Tasks: map[string]*TaskDef{
			"drain": drainTask(-1.0, 10.0),
			"pause": waitTask(3.0),
			"done":  stampTask("done-at"),
		},
		Links: map[string]Links{
			"drain": {Default: "pause", Allowed: []string{"pause"}},
			"pause": {Default: "done", Allowed: []string{"done"}},
		},
	}
	require.NoError(t, a.AddNetwork(def))
	net := mustNetwork(t, a, "ops")

	clone, elapsed, err := net.Rehearse([]string{"drain"}, nil, "done")
	require.NoError(t, err)

	assert.Equal(t, 13.0, elapsed)
	fuel, err := clone.GetFloat("fuel")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, fuel, 1e-12)
	_, ok := clone.Knowledge("done-at")
	assert.True(t, ok)
	_, ok = a.Knowledge("done-at")
	assert.False(t, ok)
}

func TestRehearseNetworkIllegalTransition(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)
	def := &NetworkDef{
		Name:  "ops",
		Tasks: map[string]*TaskDef{"a": waitTask(1), "b": waitTask(1)},
		Links: map[string]Links{"a": {Default: "b", Allowed: []string{"b"}}},
	}
	require.NoError(t, a.AddNetwork(def))
	net := mustNetwork(t, a, "ops")

	_, _, err := net.Rehearse([]string{"b", "a"}, nil, "")
	assert.True(t, sim.IsConfigurationError(err))
}

func TestRehearseDecisionUsesRehearseDecide(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)

	liveRan, rehearsalRan := false, false
	choose := &TaskDef{
		Decide:         func(a *Actor, t *TaskRun) error { liveRan = true; return nil },
		RehearseDecide: func(a *Actor, t *TaskRun) error { rehearsalRan = true; return nil },
	}
	_, _, err := RehearseTask(a, "choose", choose, nil)
	require.NoError(t, err)
	assert.True(t, rehearsalRan)
	assert.False(t, liveRan)
}

func TestRehearseWaitUsesRealDuration(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)
	_, elapsed, err := RehearseTask(a, "hold", waitTask(7.5), nil)
	require.NoError(t, err)
	assert.Equal(t, 7.5, elapsed)
}

func TestNetworkCannotStartOnClone(t *testing.T) {
	stage := sim.NewStage()
	a := newTestActor(t, stage)
	require.NoError(t, a.AddNetwork(SingleLooping("ops", "spin", waitTask(1))))

	clone, err := a.Clone(sim.NewMockEnvironment(0), nil)
	require.NoError(t, err)
	cloneNet, ok := clone.Network("ops")
	require.True(t, ok)
	assert.True(t, sim.IsSimulationError(cloneNet.Start("spin")))
}
