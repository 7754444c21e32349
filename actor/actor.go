// Package actor implements autonomous simulation entities: typed state with
// recording and computed-on-read activation, a knowledge scratchpad with
// explicit contracts, interruptible step-sequence tasks arranged into task
// networks, the nucleus state-to-network interrupt bridge, and rehearsal of
// tasks on a cloned actor against a synthetic clock.
package actor

import (
	"fmt"
	"sort"

	"github.com/troupekit/troupe/logging"
	"github.com/troupekit/troupe/sim"
)

// Options configures construction of an Actor.
type Options struct {
	// States declares the actor's typed state slots.
	States []StateDef
	// Values supplies initial state values by name.
	Values map[string]any
	// Groups registers the actor in stage entity groups.
	Groups []string
	// Logger overrides the stage logger for this actor.
	Logger logging.Logger
	// Observers receive activation parameter changes.
	Observers []ActivationObserver
}

// WithState declares a state.
func WithState(def StateDef) func(o *Options) {
	return func(o *Options) { o.States = append(o.States, def) }
}

// WithValue supplies an initial state value.
func WithValue(name string, value any) func(o *Options) {
	return func(o *Options) {
		if o.Values == nil {
			o.Values = map[string]any{}
		}
		o.Values[name] = value
	}
}

// WithGroups registers the actor in the given stage entity groups.
func WithGroups(groups ...string) func(o *Options) {
	return func(o *Options) { o.Groups = append(o.Groups, groups...) }
}

// WithLogger overrides the stage logger for this actor.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithObserver registers an activation observer.
func WithObserver(obs ActivationObserver) func(o *Options) {
	return func(o *Options) { o.Observers = append(o.Observers, obs) }
}

// Actor is a named simulation entity. All of an actor's behavior runs in
// tasks; the actor itself is the passive bundle of state, knowledge, task
// queues and networks those tasks operate on.
type Actor struct {
	name       string
	stage      *sim.Stage
	clock      sim.Clock
	logger     logging.Logger
	states     map[string]*stateSlot
	stateOrder []string
	knowledge  map[string]any
	queues     map[string][]string
	networks   map[string]*TaskNetwork
	nucleus    *Nucleus
	observers  []ActivationObserver
	debugLog   []string
	rehearsing bool
	cloneCount int
}

// New creates an Actor on stage. Every declared state must end up with a
// value, either from Options.Values or from the state's default.
func New(name string, stage *sim.Stage, optFns ...func(o *Options)) (*Actor, error) {
	if name == "" {
		return nil, sim.NewConfigurationError("actor needs a name")
	}
	if stage == nil {
		return nil, sim.NewConfigurationError("actor %q needs a stage", name)
	}
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = stage.Logger()
	}
	a := &Actor{
		name:      name,
		stage:     stage,
		clock:     stage.Env(),
		logger:    logger,
		states:    map[string]*stateSlot{},
		knowledge: map[string]any{},
		queues:    map[string][]string{},
		networks:  map[string]*TaskNetwork{},
		observers: opts.Observers,
	}
	for _, def := range opts.States {
		if def.Name == "" {
			return nil, sim.NewConfigurationError("actor %q has a state with no name", name)
		}
		if _, ok := a.states[def.Name]; ok {
			return nil, sim.NewConfigurationError("actor %q declares state %q twice", name, def.Name)
		}
		a.states[def.Name] = &stateSlot{def: def}
		a.stateOrder = append(a.stateOrder, def.Name)
	}
	for valName := range opts.Values {
		if _, ok := a.states[valName]; !ok {
			return nil, sim.NewConfigurationError("actor %q got a value for undeclared state %q", name, valName)
		}
	}
	for _, stName := range a.stateOrder {
		slot := a.states[stName]
		if v, ok := opts.Values[stName]; ok {
			if err := a.setValue(slot, v); err != nil {
				return nil, err
			}
			continue
		}
		switch {
		case slot.def.DefaultFactory != nil:
			if err := a.setValue(slot, slot.def.DefaultFactory()); err != nil {
				return nil, err
			}
		case slot.def.Default != nil:
			if err := a.setValue(slot, slot.def.Default); err != nil {
				return nil, err
			}
		default:
			return nil, sim.NewConfigurationError("actor %q state %q has no value and no default", name, stName)
		}
	}
	for _, g := range opts.Groups {
		stage.RegisterEntity(g, a)
	}
	return a, nil
}

// Name returns the actor's name.
func (a *Actor) Name() string { return a.name }

// EntityName implements sim.NamedEntity.
func (a *Actor) EntityName() string { return a.name }

// Stage returns the stage the actor lives on.
func (a *Actor) Stage() *sim.Stage { return a.stage }

// Clock returns the clock the actor reads time from. Live actors share the
// stage environment; rehearsal clones carry a mock clock.
func (a *Actor) Clock() sim.Clock { return a.clock }

// IsRehearsing reports whether this actor is a rehearsal clone.
func (a *Actor) IsRehearsing() bool { return a.rehearsing }

// Logger returns the actor's logger.
func (a *Actor) Logger() logging.Logger { return a.logger }

func (a *Actor) slot(name string) (*stateSlot, error) {
	slot, ok := a.states[name]
	if !ok {
		return nil, sim.NewConfigurationError("actor %q has no state %q", a.name, name)
	}
	return slot, nil
}

// StateNames returns the declared state names in declaration order.
func (a *Actor) StateNames() []string {
	out := make([]string, len(a.stateOrder))
	copy(out, a.stateOrder)
	return out
}

// Get reads a state. An active state is recomputed from its activation
// parameters and the current clock; the computed value is written back, so
// recording states capture every observation.
func (a *Actor) Get(name string) (any, error) {
	slot, err := a.slot(name)
	if err != nil {
		return nil, err
	}
	if slot.active != nil {
		v, err := slot.active.valueAt(a.clock.Now())
		if err != nil {
			return nil, err
		}
		if err := a.setValue(slot, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if !slot.set {
		return nil, sim.NewConfigurationError("state %q of %s has no value", name, a.name)
	}
	return slot.value, nil
}

// GetFloat reads a state and asserts float64.
func (a *Actor) GetFloat(name string) (float64, error) {
	v, err := a.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, sim.NewConfigurationError("state %q of %s holds %T, not float64", name, a.name, v)
	}
	return f, nil
}

// GetPoint reads a state and asserts Point.
func (a *Actor) GetPoint(name string) (Point, error) {
	v, err := a.Get(name)
	if err != nil {
		return Point{}, err
	}
	p, ok := v.(Point)
	if !ok {
		return Point{}, sim.NewConfigurationError("state %q of %s holds %T, not Point", name, a.name, v)
	}
	return p, nil
}

// Set writes a state. Frozen states reject any write after their
// construction value; active states reject direct writes while activated.
func (a *Actor) Set(name string, value any) error {
	slot, err := a.slot(name)
	if err != nil {
		return err
	}
	if slot.def.Frozen && slot.set {
		return sim.NewConfigurationError("state %q of %s is frozen", name, a.name)
	}
	if slot.active != nil {
		return sim.NewConfigurationError("state %q of %s is active; deactivate before writing", name, a.name)
	}
	return a.setValue(slot, value)
}

// setValue is the single write path: it stores, records, logs, and lets the
// nucleus broadcast. Activation freezes and active reads come through here
// too, so watchers see computed values the same as explicit writes.
func (a *Actor) setValue(slot *stateSlot, value any) error {
	slot.value = value
	slot.set = true
	if slot.def.Recording {
		slot.history = append(slot.history, Sample{Time: a.clock.Now(), Value: value})
	}
	if a.nucleus != nil {
		if err := a.nucleus.stateChanged(slot.def.Name, value); err != nil {
			return err
		}
	}
	return nil
}

// History returns a copy of a recording state's samples.
func (a *Actor) History(name string) ([]Sample, error) {
	slot, err := a.slot(name)
	if err != nil {
		return nil, err
	}
	out := make([]Sample, len(slot.history))
	copy(out, slot.history)
	return out, nil
}

// Knowledge looks up a knowledge item.
func (a *Actor) Knowledge(name string) (any, bool) {
	v, ok := a.knowledge[name]
	return v, ok
}

// MustKnowledge looks up a knowledge item that has to exist. A miss is a
// KnowledgeError: the caller declared a dependency the actor cannot meet.
func (a *Actor) MustKnowledge(name string) (any, error) {
	v, ok := a.knowledge[name]
	if !ok {
		return nil, sim.NewKnowledgeError("actor %q has no knowledge %q", a.name, name)
	}
	return v, nil
}

// SetKnowledge stores a knowledge item. Overwriting an existing item
// without overwrite set is a KnowledgeError; silent clobbering between
// tasks is exactly the bug class the contract exists to catch.
func (a *Actor) SetKnowledge(name string, value any, overwrite bool) error {
	if _, ok := a.knowledge[name]; ok && !overwrite {
		return sim.NewKnowledgeError("actor %q already has knowledge %q", a.name, name)
	}
	a.knowledge[name] = value
	return nil
}

// ClearKnowledge removes knowledge items. Clearing a missing item is a
// KnowledgeError.
func (a *Actor) ClearKnowledge(names ...string) error {
	for _, name := range names {
		if _, ok := a.knowledge[name]; !ok {
			return sim.NewKnowledgeError("actor %q has no knowledge %q to clear", a.name, name)
		}
		delete(a.knowledge, name)
	}
	return nil
}

// KnowledgeNames returns the sorted knowledge keys.
func (a *Actor) KnowledgeNames() []string {
	names := make([]string, 0, len(a.knowledge))
	for name := range a.knowledge {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateKnowledgeEvent stores a fresh pending Event under name, for
// cross-actor signalling. The name must be free.
func (a *Actor) CreateKnowledgeEvent(name string, optFns ...func(o *sim.EventOptions)) (*sim.Event, error) {
	ev := sim.NewEvent(a.stage.Env(), optFns...)
	if err := a.SetKnowledge(name, ev, false); err != nil {
		return nil, err
	}
	return ev, nil
}

// SucceedKnowledgeEvent fires the Event stored under name.
func (a *Actor) SucceedKnowledgeEvent(name string, value any) error {
	v, err := a.MustKnowledge(name)
	if err != nil {
		return err
	}
	ev, ok := v.(*sim.Event)
	if !ok {
		return sim.NewKnowledgeError("knowledge %q of %s holds %T, not an event", name, a.name, v)
	}
	return ev.Succeed(value)
}

// TaskQueue returns a copy of the pending task queue for a network.
func (a *Actor) TaskQueue(network string) []string {
	q := a.queues[network]
	out := make([]string, len(q))
	copy(out, q)
	return out
}

// SetTaskQueue replaces the pending queue for a network. The queue must be
// empty first; see TaskNetwork.SetQueue for the validation rules.
func (a *Actor) SetTaskQueue(network string, names []string) error {
	net, ok := a.networks[network]
	if !ok {
		return sim.NewConfigurationError("actor %q has no task network %q", a.name, network)
	}
	return net.SetQueue(names)
}

// ClearTaskQueue empties the pending queue for a network.
func (a *Actor) ClearTaskQueue(network string) {
	delete(a.queues, network)
}

func (a *Actor) popQueue(network string) (string, bool) {
	q := a.queues[network]
	if len(q) == 0 {
		return "", false
	}
	head := q[0]
	a.queues[network] = q[1:]
	return head, true
}

// AddNetwork binds an instance of def to the actor.
func (a *Actor) AddNetwork(def *NetworkDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, ok := a.networks[def.Name]; ok {
		return sim.NewConfigurationError("actor %q already has task network %q", a.name, def.Name)
	}
	a.networks[def.Name] = &TaskNetwork{def: def, actor: a}
	return nil
}

// Network looks up a bound task network.
func (a *Actor) Network(name string) (*TaskNetwork, bool) {
	n, ok := a.networks[name]
	return n, ok
}

// NetworkNames returns the sorted bound network names.
func (a *Actor) NetworkNames() []string {
	names := make([]string, 0, len(a.networks))
	for name := range a.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartNetwork begins a network's task loop at initial.
func (a *Actor) StartNetwork(name, initial string) error {
	net, ok := a.networks[name]
	if !ok {
		return sim.NewConfigurationError("actor %q has no task network %q", a.name, name)
	}
	return net.Start(initial)
}

// InterruptNetwork interrupts the suspended current task of a network.
func (a *Actor) InterruptNetwork(name string, cause any) error {
	net, ok := a.networks[name]
	if !ok {
		return sim.NewConfigurationError("actor %q has no task network %q", a.name, name)
	}
	return net.Interrupt(cause)
}

// AddActivationObserver registers an observer after construction.
func (a *Actor) AddActivationObserver(obs ActivationObserver) {
	a.observers = append(a.observers, obs)
}

// Log appends a timestamped line to the actor's debug log and mirrors it to
// the structured logger.
func (a *Actor) Log(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.debugLog = append(a.debugLog, fmt.Sprintf("[%.3f] %s", a.clock.Now(), msg))
	a.logger.Debug(msg, "actor", a.name, "sim_time", a.clock.Now())
}

// DebugLog returns a copy of the actor's debug log.
func (a *Actor) DebugLog() []string {
	out := make([]string, len(a.debugLog))
	copy(out, a.debugLog)
	return out
}

// Clone copies the actor for rehearsal: states, histories, knowledge and
// queues by value, stage and collaborator references shared, networks as
// fresh unbound instances, clock swapped for the mock. Extra knowledge
// overlays the copied bag.
func (a *Actor) Clone(mock *sim.MockEnvironment, knowledge map[string]any) (*Actor, error) {
	if mock == nil {
		return nil, sim.NewConfigurationError("clone of %q needs a mock environment", a.name)
	}
	clone := &Actor{
		name:       fmt.Sprintf("%s [CLONE %d]", a.name, a.cloneCount),
		stage:      a.stage,
		clock:      mock,
		logger:     a.logger,
		states:     make(map[string]*stateSlot, len(a.states)),
		stateOrder: append([]string(nil), a.stateOrder...),
		knowledge:  make(map[string]any, len(a.knowledge)),
		queues:     make(map[string][]string, len(a.queues)),
		networks:   make(map[string]*TaskNetwork, len(a.networks)),
		debugLog:   append([]string(nil), a.debugLog...),
		rehearsing: true,
	}
	a.cloneCount++
	for name, slot := range a.states {
		clone.states[name] = slot.copySlot()
	}
	for name, v := range a.knowledge {
		clone.knowledge[name] = deepCopyValue(v)
	}
	for k, v := range knowledge {
		clone.knowledge[k] = v
	}
	for name, q := range a.queues {
		clone.queues[name] = append([]string(nil), q...)
	}
	for name, net := range a.networks {
		clone.networks[name] = &TaskNetwork{def: net.def, actor: clone}
	}
	return clone, nil
}
