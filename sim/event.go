package sim

import "github.com/google/uuid"

// EventState tracks the lifecycle of an awaitable.
type EventState int

const (
	// Pending means the event has neither succeeded nor been cancelled.
	Pending EventState = iota
	// Succeeded means the event fired; its value is final.
	Succeeded
	// Cancelled means the event was withdrawn before firing. Terminal:
	// a cancelled event can never succeed.
	Cancelled
)

// String returns the state name.
func (s EventState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Succeeded:
		return "SUCCEEDED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// NewID returns a new unique identifier.
func NewID() string {
	return uuid.NewString()
}

// planningFactor is the type of the PlanningFactor sentinel.
type planningFactor struct{}

func (planningFactor) String() string { return "PLANNING_FACTOR" }

// PlanningFactor is the stand-in value a rehearsed operation resolves to
// when its real value cannot be known without running the live simulation.
var PlanningFactor = planningFactor{}

// Awaitable is anything a task can suspend on: a manual Event, a Wait timer,
// a resource request, or a composite of those.
//
// Awaitables are lazy. Construction records intent only; Begin arms the
// operation against the live environment. Rehearsal never calls Begin, it
// consumes PlanningDuration and PlanningValue instead, which is what keeps
// planned execution from touching live clocks and resources.
type Awaitable interface {
	// Begin arms the operation on the live environment.
	Begin() error
	// OnComplete registers the completion continuation. At most one
	// continuation may be outstanding per awaitable.
	OnComplete(fn func(Awaitable)) error
	// Cancel withdraws a pending operation. Idempotent; calling it on a
	// completed awaitable has no effect.
	Cancel()
	// State returns the lifecycle state.
	State() EventState
	// Value returns the resolved value. Meaningful only once Succeeded.
	Value() any
	// PlanningDuration is the synthetic duration a rehearsal consumes in
	// place of running the operation.
	PlanningDuration() float64
	// PlanningValue is the value a rehearsed operation resolves to.
	PlanningValue() any
}

// EventOptions configures construction of an Event.
type EventOptions struct {
	// PlanningDuration is the stand-in duration used during rehearsal.
	// Defaults to 0: an externally succeeded event costs no planned time.
	PlanningDuration float64
	// PlanningValue overrides the PlanningFactor sentinel during rehearsal.
	PlanningValue any
}

// WithPlanningDuration sets the rehearsal stand-in duration.
func WithPlanningDuration(d float64) func(o *EventOptions) {
	return func(o *EventOptions) { o.PlanningDuration = d }
}

// WithPlanningValue sets the rehearsal stand-in value.
func WithPlanningValue(v any) func(o *EventOptions) {
	return func(o *EventOptions) { o.PlanningValue = v }
}

// Event is the base awaitable: a one-shot latch that external code fires
// with Succeed. Wait, resource requests and the composites build on it.
//
// Cancellation and firing are mutually exclusive. Whichever is requested
// first wins; the loser becomes a no-op. A fired-then-cancelled ordering
// cannot be observed.
type Event struct {
	id            string
	env           *Environment
	state         EventState
	value         any
	continuation  func(Awaitable)
	delivered     bool
	self          Awaitable
	planningDur   float64
	planningValue any
}

// NewEvent creates a pending Event bound to env. The env may be nil for
// events that only ever serve as rehearsal placeholders.
func NewEvent(env *Environment, optFns ...func(o *EventOptions)) *Event {
	opts := EventOptions{PlanningValue: PlanningFactor}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Event{
		id:            NewID(),
		env:           env,
		state:         Pending,
		planningDur:   opts.PlanningDuration,
		planningValue: opts.PlanningValue,
	}
}

// ID returns the event's unique identifier.
func (e *Event) ID() string { return e.id }

// State returns the lifecycle state.
func (e *Event) State() EventState { return e.state }

// Value returns the resolved value.
func (e *Event) Value() any { return e.value }

// PlanningDuration returns the rehearsal stand-in duration.
func (e *Event) PlanningDuration() float64 { return e.planningDur }

// PlanningValue returns the rehearsal stand-in value.
func (e *Event) PlanningValue() any { return e.planningValue }

// Begin arms the event. A manual Event has nothing to arm; the method exists
// so Event satisfies Awaitable and composites can treat members uniformly.
func (e *Event) Begin() error { return nil }

// OnComplete registers the single completion continuation. If the event has
// already succeeded the continuation is scheduled to run at the current
// simulated time. Continuations are never invoked for cancelled events.
func (e *Event) OnComplete(fn func(Awaitable)) error {
	if e.continuation != nil {
		return NewSimulationError("event %s already has a completion continuation", e.id)
	}
	if fn == nil {
		return NewSimulationError("nil completion continuation for event %s", e.id)
	}
	e.continuation = fn
	if e.state == Succeeded {
		return e.deliver()
	}
	return nil
}

// Succeed fires the event with value. Succeeding a cancelled event is a
// silent no-op: the cancel arrived first and wins. Succeeding twice is a
// SimulationError.
func (e *Event) Succeed(value any) error {
	return e.SucceedAs(e, value)
}

// SucceedAs fires the event on behalf of an embedding awaitable, so the
// continuation sees the wrapper rather than the inner Event. Resource
// requests and other wrapper types use it; plain callers use Succeed.
func (e *Event) SucceedAs(self Awaitable, value any) error {
	switch e.state {
	case Cancelled:
		return nil
	case Succeeded:
		return NewSimulationError("event %s has already succeeded", e.id)
	}
	return e.complete(self, value)
}

// Cancel withdraws a pending event. Idempotent; completed events are
// unaffected, so a succeed-then-cancel sequence keeps the success.
func (e *Event) Cancel() {
	if e.state == Pending {
		e.state = Cancelled
	}
}

// complete marks success and hands the continuation to the scheduler. The
// state flips immediately so a later Cancel in the same time step loses;
// delivery happens as a fresh queue entry at the current time, which keeps
// continuations from re-entering whatever callback triggered the success.
// self is the awaitable passed to the continuation, letting wrapper types
// such as resource requests present themselves rather than the inner Event.
func (e *Event) complete(self Awaitable, value any) error {
	e.state = Succeeded
	e.value = value
	e.self = self
	return e.deliver()
}

func (e *Event) deliver() error {
	if e.continuation == nil || e.delivered {
		return nil
	}
	if e.env == nil {
		return NewSimulationError("event %s is not bound to an environment", e.id)
	}
	e.delivered = true
	fn := e.continuation
	self := e.self
	if self == nil {
		self = e
	}
	return e.env.Schedule(0, func() {
		if e.state == Succeeded {
			fn(self)
		}
	})
}
