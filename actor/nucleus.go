package actor

import (
	"sort"

	"github.com/troupekit/troupe/sim"
)

// Interrupt is the cause a nucleus delivers when a watched state changes.
type Interrupt struct {
	StateName string
	Value     any
}

// Nucleus bridges state writes to task interrupts: networks subscribe to
// state names, and every write to a watched state interrupts the
// subscriber's suspended task at the same simulated time. At most one
// nucleus attaches per actor.
type Nucleus struct {
	actor   *Actor
	watches map[string]map[string]bool // state name -> network names
}

// NewNucleus attaches a nucleus to a.
func NewNucleus(a *Actor) (*Nucleus, error) {
	if a.nucleus != nil {
		return nil, sim.NewConfigurationError("actor %q already has a nucleus", a.name)
	}
	n := &Nucleus{actor: a, watches: map[string]map[string]bool{}}
	a.nucleus = n
	return n, nil
}

// Watch subscribes a network to state changes. A network whose tasks
// declare writes to any of the watched states is rejected here: it would
// interrupt itself on its own write, and that cycle is easier to forbid at
// subscription than to untangle at delivery.
func (n *Nucleus) Watch(network string, states ...string) error {
	net, ok := n.actor.networks[network]
	if !ok {
		return sim.NewConfigurationError("actor %q has no task network %q", n.actor.name, network)
	}
	if len(states) == 0 {
		return sim.NewConfigurationError("nucleus watch for %q names no states", network)
	}
	for _, st := range states {
		if _, ok := n.actor.states[st]; !ok {
			return sim.NewConfigurationError("actor %q has no state %q", n.actor.name, st)
		}
		for taskName, def := range net.def.Tasks {
			for _, w := range def.Writes {
				if w == st {
					return sim.NewConfigurationError(
						"network %q task %q writes %q; watching it would self-interrupt",
						network, taskName, st)
				}
			}
		}
	}
	for _, st := range states {
		if n.watches[st] == nil {
			n.watches[st] = map[string]bool{}
		}
		n.watches[st][network] = true
	}
	return nil
}

// Unwatch removes a network's subscriptions. With no states given, every
// subscription of that network is removed.
func (n *Nucleus) Unwatch(network string, states ...string) {
	if len(states) == 0 {
		for _, subs := range n.watches {
			delete(subs, network)
		}
		return
	}
	for _, st := range states {
		if subs := n.watches[st]; subs != nil {
			delete(subs, network)
		}
	}
}

// stateChanged fans a write out to the subscribed networks, in sorted name
// order for determinism. A subscribed network whose current task is not
// suspended is mid-write itself: an undeclared self-interrupt, reported
// rather than recursed into.
func (n *Nucleus) stateChanged(state string, value any) error {
	subs := n.watches[state]
	if len(subs) == 0 {
		return nil
	}
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		net := n.actor.networks[name]
		if net == nil || net.current == nil {
			continue
		}
		if net.current.state != TaskSuspended {
			return sim.NewConfigurationError(
				"nucleus write to %q would self-interrupt network %q (current task %q is %s)",
				state, name, net.currentName, net.current.state)
		}
		if err := net.current.Interrupt(Interrupt{StateName: state, Value: value}); err != nil {
			return err
		}
	}
	return nil
}
