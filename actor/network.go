package actor

import "github.com/troupekit/troupe/sim"

// Links names the transitions out of a task: the default taken when the
// queue is empty, and the complete set of legal successors. A default that
// is not in the allowed set is a definition error.
type Links struct {
	Default string
	Allowed []string
}

func (l Links) allows(name string) bool {
	for _, n := range l.Allowed {
		if n == name {
			return true
		}
	}
	return false
}

// NetworkDef is the immutable task graph: task definitions by node name and
// the links between them. One def can be bound to any number of actors.
type NetworkDef struct {
	Name  string
	Tasks map[string]*TaskDef
	Links map[string]Links
}

// Validate checks the graph's internal consistency.
func (d *NetworkDef) Validate() error {
	if d.Name == "" {
		return sim.NewConfigurationError("task network needs a name")
	}
	if len(d.Tasks) == 0 {
		return sim.NewConfigurationError("task network %q has no tasks", d.Name)
	}
	for name, def := range d.Tasks {
		if def == nil {
			return sim.NewConfigurationError("network %q task %q is nil", d.Name, name)
		}
		if err := def.validate(name); err != nil {
			return err
		}
	}
	for from, links := range d.Links {
		if _, ok := d.Tasks[from]; !ok {
			return sim.NewConfigurationError("network %q links unknown task %q", d.Name, from)
		}
		for _, to := range links.Allowed {
			if _, ok := d.Tasks[to]; !ok {
				return sim.NewConfigurationError("network %q task %q allows unknown task %q", d.Name, from, to)
			}
		}
		if links.Default != "" && !links.allows(links.Default) {
			return sim.NewConfigurationError("network %q task %q default %q is not in its allowed set", d.Name, from, links.Default)
		}
	}
	return nil
}

func (d *NetworkDef) allowed(from, to string) bool {
	return d.Links[from].allows(to)
}

// SingleLooping builds a one-task network that repeats its task forever.
func SingleLooping(name, taskName string, def *TaskDef) *NetworkDef {
	return &NetworkDef{
		Name:  name,
		Tasks: map[string]*TaskDef{taskName: def},
		Links: map[string]Links{taskName: {Default: taskName, Allowed: []string{taskName}}},
	}
}

// SingleTerminating builds a one-task network that runs its task once and
// parks in a terminal task.
func SingleTerminating(name, taskName string, def *TaskDef) *NetworkDef {
	return OrderedTerminating(name, []string{taskName}, map[string]*TaskDef{taskName: def})
}

// terminalNode is the parking task appended by the terminating factories.
const terminalNode = "__terminal__"

// OrderedTerminating builds a network that runs order's tasks once in
// sequence and then parks in a terminal task.
func OrderedTerminating(name string, order []string, defs map[string]*TaskDef) *NetworkDef {
	tasks := make(map[string]*TaskDef, len(defs)+1)
	for n, d := range defs {
		tasks[n] = d
	}
	tasks[terminalNode] = NewTerminalTask()
	links := chainLinks(append(append([]string(nil), order...), terminalNode))
	return &NetworkDef{Name: name, Tasks: tasks, Links: links}
}

// OrderedLoop builds a network that cycles through order's tasks forever.
func OrderedLoop(name string, order []string, defs map[string]*TaskDef) *NetworkDef {
	tasks := make(map[string]*TaskDef, len(defs))
	for n, d := range defs {
		tasks[n] = d
	}
	links := chainLinks(order)
	if len(order) > 0 {
		last := order[len(order)-1]
		links[last] = Links{Default: order[0], Allowed: []string{order[0]}}
	}
	return &NetworkDef{Name: name, Tasks: tasks, Links: links}
}

func chainLinks(order []string) map[string]Links {
	links := make(map[string]Links, len(order))
	for i := 0; i < len(order)-1; i++ {
		links[order[i]] = Links{Default: order[i+1], Allowed: []string{order[i+1]}}
	}
	return links
}

// TaskNetwork is one actor's live instance of a NetworkDef: the current
// task run plus the pending queue stored on the actor.
type TaskNetwork struct {
	def         *NetworkDef
	actor       *Actor
	currentName string
	current     *TaskRun
}

// Name returns the network's name.
func (n *TaskNetwork) Name() string { return n.def.Name }

// Def returns the underlying definition.
func (n *TaskNetwork) Def() *NetworkDef { return n.def }

// CurrentTaskName returns the node name of the current task, or "".
func (n *TaskNetwork) CurrentTaskName() string { return n.currentName }

// CurrentTask returns the current task run, or nil.
func (n *TaskNetwork) CurrentTask() *TaskRun { return n.current }

// Start schedules the network's first task at the current simulated time.
// A queued head task takes precedence over initial.
func (n *TaskNetwork) Start(initial string) error {
	if n.current != nil {
		return sim.NewSimulationError("network %q on %s is already running", n.def.Name, n.actor.name)
	}
	if n.actor.rehearsing {
		return sim.NewSimulationError("network %q cannot start on rehearsal clone %s", n.def.Name, n.actor.name)
	}
	first := initial
	if head, ok := n.actor.popQueue(n.def.Name); ok {
		first = head
	}
	if _, ok := n.def.Tasks[first]; !ok {
		return sim.NewConfigurationError("network %q has no task %q to start with", n.def.Name, first)
	}
	return n.actor.stage.Env().Schedule(0, func() {
		if err := n.begin(first); err != nil {
			n.actor.stage.Env().Fail(err)
		}
	})
}

func (n *TaskNetwork) begin(name string) error {
	def, ok := n.def.Tasks[name]
	if !ok {
		return sim.NewConfigurationError("network %q has no task %q", n.def.Name, name)
	}
	n.actor.Log("network %s: entering task %s", n.def.Name, name)
	n.currentName = name
	n.current = newTaskRun(name, def, n.actor, n)
	return n.current.start()
}

// taskEnded picks and begins the successor of t: the queue head when one is
// waiting, otherwise the default link. Runs at the same simulated time the
// task ended.
func (n *TaskNetwork) taskEnded(t *TaskRun) error {
	if t != n.current {
		return nil
	}
	next, popped := n.actor.popQueue(n.def.Name)
	if !popped {
		next = n.def.Links[n.currentName].Default
		if next == "" {
			return sim.NewConfigurationError(
				"network %q on %s: task %q ended with no default transition and an empty queue",
				n.def.Name, n.actor.name, n.currentName)
		}
	}
	if !n.def.allowed(n.currentName, next) {
		return sim.NewConfigurationError(
			"network %q on %s: transition %q -> %q is not allowed",
			n.def.Name, n.actor.name, n.currentName, next)
	}
	return n.begin(next)
}

// SetQueue installs a pending task sequence. The existing queue must be
// empty: replacing live routing silently is exactly the mistake the rule
// prevents, so callers clear first when they mean it. The whole chain is
// validated before anything is stored.
func (n *TaskNetwork) SetQueue(names []string) error {
	if len(n.actor.queues[n.def.Name]) > 0 {
		return sim.NewConfigurationError(
			"network %q on %s already has a queue; clear it before setting a new one",
			n.def.Name, n.actor.name)
	}
	prev := n.currentName
	for _, name := range names {
		if _, ok := n.def.Tasks[name]; !ok {
			return sim.NewConfigurationError("network %q has no task %q", n.def.Name, name)
		}
		if prev != "" && !n.def.allowed(prev, name) {
			return sim.NewConfigurationError(
				"network %q on %s: queued transition %q -> %q is not allowed",
				n.def.Name, n.actor.name, prev, name)
		}
		prev = name
	}
	n.actor.queues[n.def.Name] = append([]string(nil), names...)
	return nil
}

// ClearQueue empties the pending queue.
func (n *TaskNetwork) ClearQueue() {
	n.actor.ClearTaskQueue(n.def.Name)
}

// Queue returns a copy of the pending queue.
func (n *TaskNetwork) Queue() []string {
	return n.actor.TaskQueue(n.def.Name)
}

// Interrupt forwards cause to the suspended current task.
func (n *TaskNetwork) Interrupt(cause any) error {
	if n.current == nil {
		return sim.NewSimulationError("network %q on %s has no running task", n.def.Name, n.actor.name)
	}
	return n.current.Interrupt(cause)
}
