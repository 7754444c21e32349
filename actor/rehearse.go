package actor

import "github.com/troupekit/troupe/sim"

// rehearsalTransitionCap bounds queue/default walking during a network
// rehearsal so an unreachable end task fails instead of spinning.
const rehearsalTransitionCap = 100000

// RehearseTask runs def's body on a clone of a against a synthetic clock
// and reports the clone plus the planned elapsed time. The live actor,
// clock and resources are untouched: awaitables are never begun, their
// planning duration and planning value are consumed instead. Extra
// knowledge overlays the clone's bag before the run.
func RehearseTask(a *Actor, name string, def *TaskDef, knowledge map[string]any) (*Actor, float64, error) {
	if err := def.validate(name); err != nil {
		return nil, 0, err
	}
	mock := sim.NewMockEnvironment(a.clock.Now())
	clone, err := a.Clone(mock, knowledge)
	if err != nil {
		return nil, 0, err
	}
	start := mock.Now()
	if err := rehearseOne(clone, mock, name, def); err != nil {
		return nil, 0, err
	}
	return clone, mock.Now() - start, nil
}

// Rehearse plays a sequence of this network's tasks on a clone of the
// actor. The named tasks run first; when endTask is non-empty the walk then
// follows the clone's queue and the default links until endTask completes.
// Transitions are validated against the allowed sets throughout.
func (n *TaskNetwork) Rehearse(taskNames []string, knowledge map[string]any, endTask string) (*Actor, float64, error) {
	if len(taskNames) == 0 {
		return nil, 0, sim.NewConfigurationError("network %q rehearsal needs at least one task", n.def.Name)
	}
	if endTask != "" {
		if _, ok := n.def.Tasks[endTask]; !ok {
			return nil, 0, sim.NewConfigurationError("network %q has no end task %q", n.def.Name, endTask)
		}
	}
	mock := sim.NewMockEnvironment(n.actor.clock.Now())
	clone, err := n.actor.Clone(mock, knowledge)
	if err != nil {
		return nil, 0, err
	}
	start := mock.Now()

	prev := ""
	for _, name := range taskNames {
		def, ok := n.def.Tasks[name]
		if !ok {
			return nil, 0, sim.NewConfigurationError("network %q has no task %q", n.def.Name, name)
		}
		if prev != "" && !n.def.allowed(prev, name) {
			return nil, 0, sim.NewConfigurationError(
				"network %q rehearsal: transition %q -> %q is not allowed", n.def.Name, prev, name)
		}
		if err := rehearseOne(clone, mock, name, def); err != nil {
			return nil, 0, err
		}
		prev = name
	}

	if endTask != "" && prev != endTask {
		for i := 0; ; i++ {
			if i >= rehearsalTransitionCap {
				return nil, 0, sim.NewConfigurationError(
					"network %q rehearsal never reached end task %q", n.def.Name, endTask)
			}
			next, popped := clone.popQueue(n.def.Name)
			if !popped {
				next = n.def.Links[prev].Default
				if next == "" {
					return nil, 0, sim.NewConfigurationError(
						"network %q rehearsal: task %q has no default transition and an empty queue",
						n.def.Name, prev)
				}
			}
			if !n.def.allowed(prev, next) {
				return nil, 0, sim.NewConfigurationError(
					"network %q rehearsal: transition %q -> %q is not allowed", n.def.Name, prev, next)
			}
			if err := rehearseOne(clone, mock, next, n.def.Tasks[next]); err != nil {
				return nil, 0, err
			}
			prev = next
			if next == endTask {
				break
			}
		}
	}
	return clone, mock.Now() - start, nil
}

// rehearseOne plays a single task definition on the clone. Steps run for
// real; suspension is replaced by advancing the mock clock by the
// awaitable's planning duration and adopting its planning value.
func rehearseOne(clone *Actor, mock *sim.MockEnvironment, name string, def *TaskDef) error {
	t := newTaskRun(name, def, clone, nil)
	if def.Decide != nil {
		fn := def.RehearseDecide
		if fn == nil {
			fn = def.Decide
		}
		return fn(clone, t)
	}
	for _, step := range def.Steps {
		aw, err := step(clone, t)
		if err != nil {
			return err
		}
		t.stepIdx++
		if aw == nil {
			continue
		}
		if err := mock.Advance(aw.PlanningDuration()); err != nil {
			return err
		}
		t.lastValue = aw.PlanningValue()
	}
	if left := clone.ActiveStates(t); len(left) > 0 {
		return sim.NewSimulationError("rehearsed task %q ended with states still active: %v", name, left)
	}
	t.state = TaskEnded
	return nil
}
