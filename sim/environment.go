// Package sim implements the discrete-event core: a logical clock with an
// ordered callback queue, the Event lifecycle, timer and composite
// awaitables, and the Stage object that carries simulation-wide singletons.
//
// The whole kernel is single goroutine by design. Determinism comes from the
// queue ordering rule: entries fire in (time, insertion sequence) order, so
// two runs with the same seed produce identical traces.
package sim

import (
	"container/heap"
	"math"

	"github.com/troupekit/troupe/logging"
)

// Clock is the read-only view of simulated time. The live Environment and
// the rehearsal MockEnvironment both satisfy it.
type Clock interface {
	Now() float64
}

type scheduled struct {
	at  float64
	seq uint64
	fn  func()
}

type scheduleQueue []*scheduled

func (q scheduleQueue) Len() int { return len(q) }

func (q scheduleQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q scheduleQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *scheduleQueue) Push(x any) { *q = append(*q, x.(*scheduled)) }

func (q *scheduleQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// EnvironmentOptions configures construction of an Environment.
type EnvironmentOptions struct {
	// InitialTime is the clock value before any callback has run.
	InitialTime float64
	// Logger receives kernel-level diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Environment is the simulation clock plus the pending callback queue.
// Time is purely logical: it jumps from one scheduled entry to the next and
// has no relationship to wall-clock time.
type Environment struct {
	now     float64
	seq     uint64
	queue   scheduleQueue
	failure error
	logger  logging.Logger
}

// NewEnvironment creates an Environment.
func NewEnvironment(optFns ...func(o *EnvironmentOptions)) *Environment {
	opts := EnvironmentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Environment{now: opts.InitialTime, logger: opts.Logger}
}

// Now returns the current simulated time.
func (e *Environment) Now() float64 { return e.now }

// Pending returns the number of queued callbacks.
func (e *Environment) Pending() int { return e.queue.Len() }

// Logger returns the environment's logger.
func (e *Environment) Logger() logging.Logger { return e.logger }

// Schedule enqueues fn to run at now+delay. Entries scheduled for the same
// time fire in insertion order.
func (e *Environment) Schedule(delay float64, fn func()) error {
	if delay < 0 {
		return NewSimulationError("cannot schedule %f in the past at time %f", delay, e.now)
	}
	if fn == nil {
		return NewSimulationError("cannot schedule a nil callback")
	}
	e.seq++
	heap.Push(&e.queue, &scheduled{at: e.now + delay, seq: e.seq, fn: fn})
	return nil
}

// Fail records err and aborts the run loop before the next callback. Used by
// continuations that have no caller to return an error to.
func (e *Environment) Fail(err error) {
	if e.failure == nil {
		e.failure = err
	}
}

// Run executes callbacks until the queue drains or Fail was called.
func (e *Environment) Run() error {
	return e.run(math.Inf(1))
}

// RunUntil executes callbacks until the clock would pass until, then leaves
// the clock at exactly until. Callbacks scheduled at until still run.
func (e *Environment) RunUntil(until float64) error {
	if until < e.now {
		return NewSimulationError("cannot run until %f, already at %f", until, e.now)
	}
	return e.run(until)
}

func (e *Environment) run(until float64) error {
	for e.queue.Len() > 0 {
		if e.failure != nil {
			return e.failure
		}
		if e.queue[0].at > until {
			break
		}
		item := heap.Pop(&e.queue).(*scheduled)
		e.now = item.at
		item.fn()
	}
	if e.failure != nil {
		return e.failure
	}
	if !math.IsInf(until, 1) && until > e.now {
		e.now = until
	}
	return nil
}
