package actor

import "github.com/troupekit/troupe/sim"

// activation records everything needed to compute an activated state's
// value from the clock alone. Nothing ticks: reads evaluate the closed-form
// expression at the current time.
type activation struct {
	task      *TaskRun
	kind      StateKind
	startTime float64
	// linear
	startValue float64
	rate       float64
	// path
	startPoint Point
	speed      float64
	waypoints  []Point
	legEnds    []float64 // cumulative leg end distances from startPoint
}

// pathSlack absorbs float error when a read lands exactly at the end of the
// route.
const pathSlack = 1e-9

func (act *activation) valueAt(now float64) (any, error) {
	elapsed := now - act.startTime
	if elapsed < 0 {
		return nil, sim.NewSimulationError("activation read at %f predates its start %f", now, act.startTime)
	}
	switch act.kind {
	case StateLinear:
		return act.startValue + act.rate*elapsed, nil
	case StatePath:
		return act.pathAt(elapsed)
	default:
		return nil, sim.NewSimulationError("state kind %s cannot be activated", act.kind)
	}
}

func (act *activation) pathAt(elapsed float64) (any, error) {
	travelled := act.speed * elapsed
	total := act.legEnds[len(act.legEnds)-1]
	if travelled > total+pathSlack {
		return nil, sim.NewSimulationError(
			"path read overran the route: travelled %f of %f", travelled, total)
	}
	if travelled >= total {
		return act.waypoints[len(act.waypoints)-1], nil
	}
	from := act.startPoint
	legStart := 0.0
	for i, end := range act.legEnds {
		to := act.waypoints[i]
		if travelled <= end {
			legLen := end - legStart
			if legLen <= 0 {
				return to, nil
			}
			frac := (travelled - legStart) / legLen
			return from.Add(to.Sub(from).Scale(frac)), nil
		}
		from = to
		legStart = end
	}
	return act.waypoints[len(act.waypoints)-1], nil
}

// ActivationInfo is the read-only view handed to activation observers.
type ActivationInfo struct {
	State     string
	Kind      StateKind
	StartTime float64
	Rate      float64
	Speed     float64
	Waypoints []Point
}

// ActivationObserver is the hook an external motion or visibility layer
// implements to learn about activation parameter changes.
type ActivationObserver interface {
	StateActivated(a *Actor, info ActivationInfo)
	StateDeactivated(a *Actor, state string, finalValue any)
}

// ActivateLinear puts a linear state into motion at rate per time unit,
// locked to task. Activating an already active state is a
// ConfigurationError.
func (a *Actor) ActivateLinear(name string, rate float64, task *TaskRun) error {
	slot, err := a.slot(name)
	if err != nil {
		return err
	}
	if slot.def.Kind != StateLinear {
		return sim.NewConfigurationError("state %q of %s is %s, not linear", name, a.name, slot.def.Kind)
	}
	if slot.active != nil {
		return sim.NewConfigurationError("state %q of %s is already active", name, a.name)
	}
	start, ok := slot.value.(float64)
	if !ok {
		return sim.NewConfigurationError("linear state %q of %s holds %T, not float64", name, a.name, slot.value)
	}
	slot.active = &activation{
		task:       task,
		kind:       StateLinear,
		startTime:  a.clock.Now(),
		startValue: start,
		rate:       rate,
	}
	a.notifyActivated(slot)
	return nil
}

// ActivatePath puts a path state into motion along waypoints at speed,
// locked to task. The route starts from the state's current Point.
func (a *Actor) ActivatePath(name string, speed float64, waypoints []Point, task *TaskRun) error {
	slot, err := a.slot(name)
	if err != nil {
		return err
	}
	if slot.def.Kind != StatePath {
		return sim.NewConfigurationError("state %q of %s is %s, not path", name, a.name, slot.def.Kind)
	}
	if slot.active != nil {
		return sim.NewConfigurationError("state %q of %s is already active", name, a.name)
	}
	if speed <= 0 {
		return sim.NewConfigurationError("path state %q of %s needs a positive speed, got %f", name, a.name, speed)
	}
	if len(waypoints) == 0 {
		return sim.NewConfigurationError("path state %q of %s needs at least one waypoint", name, a.name)
	}
	start, ok := slot.value.(Point)
	if !ok {
		return sim.NewConfigurationError("path state %q of %s holds %T, not Point", name, a.name, slot.value)
	}
	legEnds := make([]float64, len(waypoints))
	from := start
	dist := 0.0
	for i, wp := range waypoints {
		dist += from.Dist(wp)
		legEnds[i] = dist
		from = wp
	}
	slot.active = &activation{
		task:       task,
		kind:       StatePath,
		startTime:  a.clock.Now(),
		startPoint: start,
		speed:      speed,
		waypoints:  append([]Point(nil), waypoints...),
		legEnds:    legEnds,
	}
	a.notifyActivated(slot)
	return nil
}

// TravelTime returns the time a path activation over waypoints would take
// from the state's current position at speed. Tasks typically activate the
// path and then Wait for exactly this long before deactivating.
func (a *Actor) TravelTime(name string, speed float64, waypoints []Point) (float64, error) {
	slot, err := a.slot(name)
	if err != nil {
		return 0, err
	}
	if speed <= 0 {
		return 0, sim.NewConfigurationError("travel time for %q of %s needs a positive speed", name, a.name)
	}
	var from Point
	if slot.active != nil && slot.active.kind == StatePath {
		v, err := slot.active.valueAt(a.clock.Now())
		if err != nil {
			return 0, err
		}
		from = v.(Point)
	} else {
		p, ok := slot.value.(Point)
		if !ok {
			return 0, sim.NewConfigurationError("path state %q of %s holds %T, not Point", name, a.name, slot.value)
		}
		from = p
	}
	dist := 0.0
	for _, wp := range waypoints {
		dist += from.Dist(wp)
		from = wp
	}
	return dist / speed, nil
}

// Deactivate freezes an active state at its current computed value. A state
// that is not active is left alone, which keeps teardown idempotent.
// Deactivating a state locked to a different task is a SimulationError.
func (a *Actor) Deactivate(name string, task *TaskRun) error {
	slot, err := a.slot(name)
	if err != nil {
		return err
	}
	if slot.active == nil {
		return nil
	}
	if slot.active.task != task {
		return sim.NewSimulationError("state %q of %s is locked to another task", name, a.name)
	}
	return a.freeze(slot)
}

// DeactivateAll freezes every state the given task activated.
func (a *Actor) DeactivateAll(task *TaskRun) error {
	for _, name := range a.stateOrder {
		slot := a.states[name]
		if slot.active != nil && slot.active.task == task {
			if err := a.freeze(slot); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsActive reports whether the named state is currently activated.
func (a *Actor) IsActive(name string) bool {
	slot, ok := a.states[name]
	return ok && slot.active != nil
}

// ActiveStates returns the names of the states task has activated. A nil
// task selects every active state.
func (a *Actor) ActiveStates(task *TaskRun) []string {
	var out []string
	for _, name := range a.stateOrder {
		slot := a.states[name]
		if slot.active == nil {
			continue
		}
		if task == nil || slot.active.task == task {
			out = append(out, name)
		}
	}
	return out
}

func (a *Actor) freeze(slot *stateSlot) error {
	v, err := slot.active.valueAt(a.clock.Now())
	if err != nil {
		return err
	}
	slot.active = nil
	if err := a.setValue(slot, v); err != nil {
		return err
	}
	a.notifyDeactivated(slot, v)
	return nil
}

func (a *Actor) notifyActivated(slot *stateSlot) {
	if a.rehearsing {
		return
	}
	act := slot.active
	info := ActivationInfo{
		State:     slot.def.Name,
		Kind:      act.kind,
		StartTime: act.startTime,
		Rate:      act.rate,
		Speed:     act.speed,
		Waypoints: append([]Point(nil), act.waypoints...),
	}
	for _, obs := range a.observers {
		obs.StateActivated(a, info)
	}
}

func (a *Actor) notifyDeactivated(slot *stateSlot, finalValue any) {
	if a.rehearsing {
		return
	}
	for _, obs := range a.observers {
		obs.StateDeactivated(a, slot.def.Name, finalValue)
	}
}
