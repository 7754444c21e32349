// Package troupe is a discrete-event simulation kernel for autonomous
// actors that execute interruptible, composable task networks.
//
// The building blocks live in the subpackages:
//
//   - sim: the logical clock, event lifecycle, timers, composites and the
//     Stage of simulation-wide singletons
//   - resource: blocking item stores and quantity containers
//   - actor: actors, states, tasks, task networks, nucleus and rehearsal
//   - logging: the pluggable structured logging surface
//
// A minimal simulation builds a Stage, creates actors with task networks,
// starts the networks and runs the environment:
//
//	stage := troupe.NewStage(sim.WithSeed(42))
//	truck, err := actor.New("truck", stage, ...)
//	// bind and start networks, then:
//	err = stage.Env().Run()
package troupe

import "github.com/troupekit/troupe/sim"

// Version is the library version.
const Version = "0.3.0"

// NewStage creates a simulation Stage. It is a convenience alias for
// sim.NewStage so short programs only import the root package and sim's
// option helpers.
func NewStage(optFns ...func(o *sim.StageOptions)) *sim.Stage {
	return sim.NewStage(optFns...)
}
