package resource

import (
	"math"

	"github.com/troupekit/troupe/sim"
)

// ContainerOptions configures construction of a Container.
type ContainerOptions struct {
	// Capacity bounds the level. Zero or negative means unbounded.
	Capacity float64
	// Initial is the starting level.
	Initial float64
}

// WithContainerCapacity bounds the container level.
func WithContainerCapacity(c float64) func(o *ContainerOptions) {
	return func(o *ContainerOptions) { o.Capacity = c }
}

// WithInitialLevel sets the starting level.
func WithInitialLevel(l float64) func(o *ContainerOptions) {
	return func(o *ContainerOptions) { o.Initial = l }
}

// Container is a continuous quantity pool (fuel, water, charge). Takes
// block until the level covers the requested amount; fills block until a
// bounded container has room. Both queues are strictly FIFO: the head
// request blocks everything behind it.
type Container struct {
	env      *sim.Environment
	capacity float64
	level    float64
	takers   []*TakeRequest
	fillers  []*FillRequest
	onChange func(level float64)
}

// NewContainer creates a Container bound to env.
func NewContainer(env *sim.Environment, optFns ...func(o *ContainerOptions)) *Container {
	opts := ContainerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	cap := opts.Capacity
	if cap <= 0 {
		cap = math.Inf(1)
	}
	return &Container{env: env, capacity: cap, level: opts.Initial}
}

// Level returns the current quantity.
func (c *Container) Level() float64 { return c.level }

// Capacity returns the level bound, +Inf for unbounded.
func (c *Container) Capacity() float64 { return c.capacity }

// Get creates a lazy request to withdraw amount.
func (c *Container) Get(amount float64, optFns ...func(o *sim.EventOptions)) *TakeRequest {
	return &TakeRequest{Event: sim.NewEvent(c.env, optFns...), container: c, amount: amount}
}

// Put creates a lazy request to deposit amount.
func (c *Container) Put(amount float64, optFns ...func(o *sim.EventOptions)) *FillRequest {
	return &FillRequest{Event: sim.NewEvent(c.env, optFns...), container: c, amount: amount}
}

// TakeRequest is a pending withdrawal. Completes with the amount taken.
type TakeRequest struct {
	*sim.Event
	container *Container
	amount    float64
}

// Amount returns the requested quantity.
func (r *TakeRequest) Amount() float64 { return r.amount }

// Begin joins the container's wait queue.
func (r *TakeRequest) Begin() error {
	if r.amount <= 0 {
		return sim.NewSimulationError("container get amount %f must be positive", r.amount)
	}
	r.container.takers = append(r.container.takers, r)
	return r.container.trigger()
}

// Cancel withdraws a pending request and lets the container retry the
// queue: removing a blocked head take can unblock smaller takes behind it.
func (r *TakeRequest) Cancel() {
	if r.State() != sim.Pending {
		return
	}
	r.Event.Cancel()
	if err := r.container.trigger(); err != nil {
		r.container.env.Fail(err)
	}
}

// FillRequest is a pending deposit. Completes with the amount added.
type FillRequest struct {
	*sim.Event
	container *Container
	amount    float64
}

// Amount returns the deposited quantity.
func (r *FillRequest) Amount() float64 { return r.amount }

// Begin joins the container's wait queue.
func (r *FillRequest) Begin() error {
	if r.amount <= 0 {
		return sim.NewSimulationError("container put amount %f must be positive", r.amount)
	}
	r.container.fillers = append(r.container.fillers, r)
	return r.container.trigger()
}

// Cancel withdraws a pending request and lets the container retry the queue.
func (r *FillRequest) Cancel() {
	if r.State() != sim.Pending {
		return
	}
	r.Event.Cancel()
	if err := r.container.trigger(); err != nil {
		r.container.env.Fail(err)
	}
}

func (c *Container) trigger() error {
	for {
		c.prune()
		progressed := false

		for len(c.fillers) > 0 {
			f := c.fillers[0]
			if c.level+f.amount > c.capacity {
				break
			}
			c.fillers = c.fillers[1:]
			c.level += f.amount
			c.changed()
			if err := f.Event.SucceedAs(f, f.amount); err != nil {
				return err
			}
			progressed = true
		}

		for len(c.takers) > 0 {
			t := c.takers[0]
			if t.amount > c.level {
				break
			}
			c.takers = c.takers[1:]
			c.level -= t.amount
			c.changed()
			if err := t.Event.SucceedAs(t, t.amount); err != nil {
				return err
			}
			progressed = true
		}

		if !progressed {
			return nil
		}
	}
}

func (c *Container) prune() {
	takers := c.takers[:0]
	for _, t := range c.takers {
		if t.State() == sim.Pending {
			takers = append(takers, t)
		}
	}
	c.takers = takers
	fillers := c.fillers[:0]
	for _, f := range c.fillers {
		if f.State() == sim.Pending {
			fillers = append(fillers, f)
		}
	}
	c.fillers = fillers
}

func (c *Container) changed() {
	if c.onChange != nil {
		c.onChange(c.level)
	}
}
