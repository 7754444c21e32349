package sim

import "math"

// AnyOf succeeds when the first of its members succeeds. The remaining
// members are left untouched: whoever awaits the composite decides whether
// to cancel the losers or keep them running. Cancelling the composite,
// however, cascades to every still-pending member, which is what a task
// teardown needs.
type AnyOf struct {
	*Event
	members []Awaitable
	winner  Awaitable
}

// NewAnyOf creates a first-of-N composite over members.
func NewAnyOf(env *Environment, members ...Awaitable) *AnyOf {
	return &AnyOf{Event: NewEvent(env), members: members}
}

// Members returns a copy of the member list.
func (a *AnyOf) Members() []Awaitable {
	out := make([]Awaitable, len(a.members))
	copy(out, a.members)
	return out
}

// Winner returns the member that resolved the composite, or nil while the
// composite is still pending.
func (a *AnyOf) Winner() Awaitable { return a.winner }

// Begin arms every member.
func (a *AnyOf) Begin() error {
	if len(a.members) == 0 {
		return NewConfigurationError("AnyOf requires at least one member")
	}
	for _, m := range a.members {
		if err := m.OnComplete(a.memberDone); err != nil {
			return err
		}
		if err := m.Begin(); err != nil {
			return err
		}
	}
	return nil
}

func (a *AnyOf) memberDone(m Awaitable) {
	if a.state != Pending {
		return
	}
	a.winner = m
	if err := a.complete(a, m.Value()); err != nil {
		a.env.Fail(err)
	}
}

// Cancel withdraws the composite and every still-pending member.
func (a *AnyOf) Cancel() {
	a.Event.Cancel()
	for _, m := range a.members {
		m.Cancel()
	}
}

// PlanningDuration is the minimum over the members: in a plan, the first
// member that could finish resolves the composite.
func (a *AnyOf) PlanningDuration() float64 {
	d := math.Inf(1)
	for _, m := range a.members {
		d = math.Min(d, m.PlanningDuration())
	}
	if math.IsInf(d, 1) {
		return 0
	}
	return d
}

// AllOf succeeds once every member has succeeded. Its value is the slice of
// member values in member order.
type AllOf struct {
	*Event
	members   []Awaitable
	remaining int
}

// NewAllOf creates an all-of-N composite over members.
func NewAllOf(env *Environment, members ...Awaitable) *AllOf {
	return &AllOf{Event: NewEvent(env), members: members}
}

// Members returns a copy of the member list.
func (a *AllOf) Members() []Awaitable {
	out := make([]Awaitable, len(a.members))
	copy(out, a.members)
	return out
}

// Begin arms every member.
func (a *AllOf) Begin() error {
	if len(a.members) == 0 {
		return NewConfigurationError("AllOf requires at least one member")
	}
	a.remaining = len(a.members)
	for _, m := range a.members {
		if err := m.OnComplete(a.memberDone); err != nil {
			return err
		}
		if err := m.Begin(); err != nil {
			return err
		}
	}
	return nil
}

func (a *AllOf) memberDone(Awaitable) {
	if a.state != Pending {
		return
	}
	a.remaining--
	if a.remaining > 0 {
		return
	}
	values := make([]any, len(a.members))
	for i, m := range a.members {
		values[i] = m.Value()
	}
	if err := a.complete(a, values); err != nil {
		a.env.Fail(err)
	}
}

// Cancel withdraws the composite and every still-pending member.
func (a *AllOf) Cancel() {
	a.Event.Cancel()
	for _, m := range a.members {
		m.Cancel()
	}
}

// PlanningDuration is the maximum over the members: in a plan, the slowest
// member gates the composite.
func (a *AllOf) PlanningDuration() float64 {
	var d float64
	for _, m := range a.members {
		d = math.Max(d, m.PlanningDuration())
	}
	return d
}
