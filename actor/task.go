package actor

import "github.com/troupekit/troupe/sim"

// TaskState tracks where a task run is in its lifecycle.
type TaskState int

const (
	// TaskCreated means the run exists but has not yet suspended.
	TaskCreated TaskState = iota
	// TaskSuspended means the run is parked on an awaitable.
	TaskSuspended
	// TaskInterrupted is the transient state while a verdict is resolved.
	TaskInterrupted
	// TaskEnded means the run finished, naturally or by an END verdict.
	TaskEnded
	// TaskRestarting is the transient state while a RESTART verdict
	// rewinds the run.
	TaskRestarting
)

// String returns the state name.
func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "CREATED"
	case TaskSuspended:
		return "SUSPENDED"
	case TaskInterrupted:
		return "INTERRUPTED"
	case TaskEnded:
		return "ENDED"
	case TaskRestarting:
		return "RESTARTING"
	default:
		return "UNKNOWN"
	}
}

// Verdict is a task's answer to an interrupt.
type Verdict int

const (
	// VerdictEnd cancels the awaited events, deactivates the task's
	// states and lets the network advance. The default.
	VerdictEnd Verdict = iota
	// VerdictIgnore leaves the task suspended as if nothing happened.
	VerdictIgnore
	// VerdictRestart performs END cleanup, clears the marker and reruns
	// the task from its first step.
	VerdictRestart
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictEnd:
		return "END"
	case VerdictIgnore:
		return "IGNORE"
	case VerdictRestart:
		return "RESTART"
	default:
		return "INVALID"
	}
}

// Step is one segment of a task body. It does synchronous work against the
// actor, then either returns an awaitable to suspend on or nil to fall
// through to the next step. Steps run again verbatim on RESTART and during
// rehearsal, so they must derive everything from the actor and the run.
type Step func(a *Actor, t *TaskRun) (sim.Awaitable, error)

// TaskDef is the immutable definition of a task. Exactly one of Steps or
// Decide must be set: step tasks spend time, decision tasks only route.
type TaskDef struct {
	// Steps is the body of a step task.
	Steps []Step
	// OnInterrupt maps an interrupt cause to a verdict. When nil the
	// marker's default verdict applies (END unless a marker said
	// otherwise).
	OnInterrupt func(a *Actor, t *TaskRun, cause any) Verdict
	// Decide is the body of a decision task. It must not suspend; it may
	// only adjust knowledge, states and task queues.
	Decide func(a *Actor, t *TaskRun) error
	// RehearseDecide replaces Decide during rehearsal, for decisions that
	// must not commit live side effects while planning. Defaults to
	// Decide.
	RehearseDecide func(a *Actor, t *TaskRun) error
	// Writes declares the state names this task sets, so a nucleus can
	// reject self-interrupting subscriptions up front.
	Writes []string
	// Terminal marks a parking task that never exits and treats any
	// interrupt as an error.
	Terminal bool
}

// terminalStandIn dwarfs any plausible plan horizon.
const terminalStandIn = 1e24

// NewTerminalTask returns a definition that parks the actor forever.
func NewTerminalTask() *TaskDef {
	return &TaskDef{
		Terminal: true,
		Steps: []Step{func(a *Actor, t *TaskRun) (sim.Awaitable, error) {
			return sim.NewEvent(a.stage.Env(), sim.WithPlanningDuration(terminalStandIn)), nil
		}},
	}
}

func (d *TaskDef) validate(name string) error {
	hasSteps := len(d.Steps) > 0
	hasDecide := d.Decide != nil
	if hasSteps == hasDecide {
		return sim.NewConfigurationError("task %q must define exactly one of Steps or Decide", name)
	}
	if d.RehearseDecide != nil && !hasDecide {
		return sim.NewConfigurationError("task %q has RehearseDecide without Decide", name)
	}
	return nil
}

// TaskRun is one execution of a TaskDef on an actor.
type TaskRun struct {
	id             string
	name           string
	def            *TaskDef
	actor          *Actor
	network        *TaskNetwork
	state          TaskState
	stepIdx        int
	awaiting       sim.Awaitable
	lastValue      any
	marker         string
	markerTime     float64
	hasMarker      bool
	markerVerdict  Verdict
	interruptCause any
}

func newTaskRun(name string, def *TaskDef, a *Actor, n *TaskNetwork) *TaskRun {
	return &TaskRun{
		id:      sim.NewID(),
		name:    name,
		def:     def,
		actor:   a,
		network: n,
	}
}

// ID returns the run's unique identifier.
func (t *TaskRun) ID() string { return t.id }

// Name returns the task's node name.
func (t *TaskRun) Name() string { return t.name }

// State returns the run's lifecycle state.
func (t *TaskRun) State() TaskState { return t.state }

// Actor returns the actor the run operates on.
func (t *TaskRun) Actor() *Actor { return t.actor }

// LastValue returns the resolved value of the most recently completed
// awaitable, letting a step consume what the previous step waited for.
func (t *TaskRun) LastValue() any { return t.lastValue }

// Awaiting returns the awaitable the run is suspended on, or nil.
func (t *TaskRun) Awaiting() sim.Awaitable { return t.awaiting }

// InterruptCause returns the cause of the most recent interrupt.
func (t *TaskRun) InterruptCause() any { return t.interruptCause }

// SetMarker labels the run so a later interrupt handler can see what phase
// the task was in. Markers survive suspension; only RESTART or ClearMarker
// remove them.
func (t *TaskRun) SetMarker(marker string) {
	t.marker = marker
	t.markerTime = t.actor.clock.Now()
	t.hasMarker = true
}

// SetMarkerVerdict labels the run and sets the default verdict applied when
// no OnInterrupt handler is defined.
func (t *TaskRun) SetMarkerVerdict(marker string, v Verdict) {
	t.SetMarker(marker)
	t.markerVerdict = v
}

// Marker returns the current marker label.
func (t *TaskRun) Marker() string { return t.marker }

// HasMarker reports whether a marker is set.
func (t *TaskRun) HasMarker() bool { return t.hasMarker }

// MarkerTime returns when the marker was set.
func (t *TaskRun) MarkerTime() float64 { return t.markerTime }

// ClearMarker removes the marker and resets the default verdict to END.
func (t *TaskRun) ClearMarker() {
	t.marker = ""
	t.markerTime = 0
	t.hasMarker = false
	t.markerVerdict = VerdictEnd
}

// start kicks off a live run.
func (t *TaskRun) start() error {
	if t.def.Decide != nil {
		return t.decide()
	}
	return t.run()
}

// run executes steps until one suspends or the body is exhausted.
func (t *TaskRun) run() error {
	for t.stepIdx < len(t.def.Steps) {
		step := t.def.Steps[t.stepIdx]
		aw, err := step(t.actor, t)
		if err != nil {
			return err
		}
		t.stepIdx++
		if aw == nil {
			continue
		}
		t.awaiting = aw
		if err := aw.OnComplete(t.resumed); err != nil {
			return err
		}
		if err := aw.Begin(); err != nil {
			return err
		}
		t.state = TaskSuspended
		return nil
	}
	return t.finish()
}

// resumed is the completion continuation for the awaited event. Delivery is
// queue-scheduled, so by the time it runs an interrupt may already have
// torn the run down; the guards make stale deliveries no-ops.
func (t *TaskRun) resumed(aw sim.Awaitable) {
	if t.state != TaskSuspended || t.awaiting != aw {
		return
	}
	t.state = TaskCreated
	t.awaiting = nil
	t.lastValue = aw.Value()
	if err := t.run(); err != nil {
		t.actor.stage.Env().Fail(err)
	}
}

// finish ends the run and hands control to the network. A task that exits
// with states still activated forgot its own cleanup, which is an error
// rather than a leak.
func (t *TaskRun) finish() error {
	if left := t.actor.ActiveStates(t); len(left) > 0 {
		return sim.NewSimulationError("task %q ended with states still active: %v", t.name, left)
	}
	t.state = TaskEnded
	if t.network != nil {
		return t.network.taskEnded(t)
	}
	return nil
}

// decide runs a decision body and schedules the network advance behind a
// zero timeout, so a chain of decisions cannot grow the stack.
func (t *TaskRun) decide() error {
	if err := t.def.Decide(t.actor, t); err != nil {
		return err
	}
	t.state = TaskEnded
	if t.network == nil {
		return nil
	}
	return t.actor.stage.Env().Schedule(0, func() {
		if err := t.network.taskEnded(t); err != nil {
			t.actor.stage.Env().Fail(err)
		}
	})
}

// Interrupt delivers cause to a suspended run and applies the verdict.
// Interrupting a run that is not suspended, or a terminal task at all, is a
// SimulationError. Several interrupts landing at the same simulated time
// resolve strictly in delivery order: each sees the state the previous one
// left behind.
func (t *TaskRun) Interrupt(cause any) error {
	if t.def.Terminal {
		return sim.NewSimulationError("terminal task %q cannot be interrupted", t.name)
	}
	if t.state != TaskSuspended {
		return sim.NewSimulationError("task %q is %s, not suspended", t.name, t.state)
	}
	t.state = TaskInterrupted
	t.interruptCause = cause

	verdict := t.markerVerdict
	if t.def.OnInterrupt != nil {
		verdict = t.def.OnInterrupt(t.actor, t, cause)
	}
	t.actor.Log("task %s interrupted: verdict %s", t.name, verdict)

	switch verdict {
	case VerdictIgnore:
		t.state = TaskSuspended
		return nil
	case VerdictEnd:
		if err := t.teardown(); err != nil {
			return err
		}
		t.state = TaskEnded
		if t.network != nil {
			return t.network.taskEnded(t)
		}
		return nil
	case VerdictRestart:
		if err := t.teardown(); err != nil {
			return err
		}
		t.ClearMarker()
		t.state = TaskRestarting
		t.stepIdx = 0
		t.lastValue = nil
		t.state = TaskCreated
		return t.run()
	default:
		return sim.NewConfigurationError("task %q returned invalid verdict %d", t.name, verdict)
	}
}

// teardown cancels the awaited event and freezes every state this run
// activated. Unconditional: no verdict that ends or rewinds the run may
// leave an orphaned timer or a still-drifting state behind.
func (t *TaskRun) teardown() error {
	if t.awaiting != nil {
		t.awaiting.Cancel()
		t.awaiting = nil
	}
	return t.actor.DeactivateAll(t)
}
