package actor

// StateKind selects how a state behaves while activated.
type StateKind int

const (
	// StatePlain holds a value that only changes on explicit writes.
	StatePlain StateKind = iota
	// StateLinear holds a float64 that drifts at a constant rate while
	// activated.
	StateLinear
	// StatePath holds a Point that follows waypoints at constant speed
	// while activated.
	StatePath
)

// String returns the kind name.
func (k StateKind) String() string {
	switch k {
	case StatePlain:
		return "plain"
	case StateLinear:
		return "linear"
	case StatePath:
		return "path"
	default:
		return "unknown"
	}
}

// StateDef declares one named state of an actor.
type StateDef struct {
	Name string
	Kind StateKind
	// Default is the value used when construction supplies none. A nil
	// Default with no DefaultFactory makes the state required.
	Default any
	// DefaultFactory builds a fresh default per actor, for mutable
	// defaults that must not be shared between actors.
	DefaultFactory func() any
	// Frozen states accept exactly one value, at construction.
	Frozen bool
	// Recording states append a (time, value) sample on every write.
	Recording bool
}

// Sample is one point of a recorded state history.
type Sample struct {
	Time  float64
	Value any
}

// stateSlot is the per-actor storage for one declared state.
type stateSlot struct {
	def     StateDef
	value   any
	set     bool
	history []Sample
	active  *activation
}

func (s *stateSlot) copySlot() *stateSlot {
	ns := &stateSlot{def: s.def, value: deepCopyValue(s.value), set: s.set}
	if len(s.history) > 0 {
		ns.history = make([]Sample, len(s.history))
		copy(ns.history, s.history)
	}
	if s.active != nil {
		act := *s.active
		ns.active = &act
	}
	return ns
}

// deepCopyValue copies common container values one level deep. Anything
// else is copied by assignment, which keeps collaborator references such as
// stores and containers shared between an actor and its rehearsal clone.
func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = e
		}
		return out
	case []any:
		out := make([]any, len(tv))
		copy(out, tv)
		return out
	case []float64:
		out := make([]float64, len(tv))
		copy(out, tv)
		return out
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	case []Point:
		out := make([]Point, len(tv))
		copy(out, tv)
		return out
	default:
		return v
	}
}
