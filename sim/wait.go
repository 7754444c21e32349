package sim

import "math/rand"

// Wait is a pure passage of simulated time. It is the only awaitable whose
// rehearsal cost defaults to its real duration, since the duration is known
// without running the simulation.
type Wait struct {
	*Event
	duration float64
}

// NewWait creates a timer for duration time units. The timer arms on Begin,
// not on construction. A negative duration is reported by Begin.
func NewWait(env *Environment, duration float64, optFns ...func(o *EventOptions)) *Wait {
	fns := append([]func(o *EventOptions){WithPlanningDuration(duration)}, optFns...)
	return &Wait{Event: NewEvent(env, fns...), duration: duration}
}

// NewUniformWait creates a Wait whose duration is drawn uniformly from
// [low, high) using rng. Use the Stage's generator to stay deterministic
// under a fixed seed.
func NewUniformWait(env *Environment, rng *rand.Rand, low, high float64, optFns ...func(o *EventOptions)) (*Wait, error) {
	if rng == nil {
		return nil, NewConfigurationError("uniform wait requires a random generator")
	}
	if high < low {
		return nil, NewConfigurationError("uniform wait bounds reversed: [%f, %f)", low, high)
	}
	return NewWait(env, low+rng.Float64()*(high-low), optFns...), nil
}

// Duration returns the timer's duration.
func (w *Wait) Duration() float64 { return w.duration }

// Begin schedules the timer. Cancelling the Wait afterwards defuses the
// timer: the queue entry still fires but finds a non-pending event and does
// nothing.
func (w *Wait) Begin() error {
	if w.duration < 0 {
		return NewSimulationError("wait duration %f is negative", w.duration)
	}
	return w.env.Schedule(w.duration, func() {
		if w.state != Pending {
			return
		}
		if err := w.complete(w, nil); err != nil {
			w.env.Fail(err)
		}
	})
}
