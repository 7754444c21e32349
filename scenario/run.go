package scenario

import (
	"fmt"

	"github.com/troupekit/troupe/actor"
	"github.com/troupekit/troupe/logging"
	"github.com/troupekit/troupe/resource"
	"github.com/troupekit/troupe/sim"
)

const (
	cargoKey = "cargo"
	tripsKey = "trips-done"
)

// MoverResult is one mover's end-of-run summary.
type MoverResult struct {
	Name        string
	Trips       int
	Fuel        float64
	FuelHistory []actor.Sample
	Parked      bool
}

// StoreResult is one store's end-of-run summary.
type StoreResult struct {
	Name     string
	Count    int
	Readings []resource.Reading
}

// ContainerResult is one container's end-of-run summary.
type ContainerResult struct {
	Name     string
	Level    float64
	Readings []resource.Reading
}

// Result is everything a finished run reports.
type Result struct {
	Scenario   string
	Elapsed    float64
	TimeUnit   string
	Movers     []MoverResult
	Stores     []StoreResult
	Containers []ContainerResult
}

// Run builds the simulation the scenario describes and runs it to
// completion, or to the scenario's until bound when one is set.
func Run(s *Scenario, logger logging.Logger) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	stageOpts := []func(o *sim.StageOptions){sim.WithSeed(s.Seed)}
	if s.TimeUnit != "" {
		stageOpts = append(stageOpts, sim.WithTimeUnit(s.TimeUnit))
	}
	if logger != nil {
		stageOpts = append(stageOpts, sim.WithLogger(logger))
	}
	stage := sim.NewStage(stageOpts...)

	stores := map[string]*resource.SelfMonitoringStore{}
	for _, def := range s.Stores {
		items := make([]any, len(def.Items))
		for i, it := range def.Items {
			items[i] = it
		}
		stores[def.Name] = resource.NewSelfMonitoringStore(stage.Env(),
			resource.WithCapacity(def.Capacity), resource.WithItems(items...))
	}
	containers := map[string]*resource.SelfMonitoringContainer{}
	for _, def := range s.Containers {
		containers[def.Name] = resource.NewSelfMonitoringContainer(stage.Env(),
			resource.WithContainerCapacity(def.Capacity), resource.WithInitialLevel(def.Level))
	}

	movers := make([]*actor.Actor, 0, len(s.Movers))
	for _, def := range s.Movers {
		m, err := buildMover(stage, def, stores, containers)
		if err != nil {
			return nil, err
		}
		movers = append(movers, m)
	}
	for _, m := range movers {
		if err := m.StartNetwork("haul", "load"); err != nil {
			return nil, err
		}
	}

	var err error
	if s.Until > 0 {
		err = stage.Env().RunUntil(s.Until)
	} else {
		err = stage.Env().Run()
	}
	if err != nil {
		return nil, err
	}

	return collect(s, stage, movers, stores, containers)
}

// buildMover wires one actor and its haul network. The network cycles
// load -> haul -> refuel -> route until the trip count is met, then parks.
func buildMover(stage *sim.Stage, def MoverDef, stores map[string]*resource.SelfMonitoringStore, containers map[string]*resource.SelfMonitoringContainer) (*actor.Actor, error) {
	a, err := actor.New(def.Name, stage,
		actor.WithState(actor.StateDef{Name: "fuel", Kind: actor.StateLinear, Default: def.Fuel, Recording: true}),
		actor.WithGroups("movers"),
	)
	if err != nil {
		return nil, err
	}
	if err := a.SetKnowledge(tripsKey, 0, false); err != nil {
		return nil, err
	}

	pickup := stores[def.Pickup]
	dropoff := stores[def.Dropoff]
	refill := def.Drain * def.TripTime

	load := &actor.TaskDef{
		Steps: []actor.Step{
			func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
				return pickup.Get(sim.WithPlanningDuration(0)), nil
			},
			func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
				return nil, a.SetKnowledge(cargoKey, t.LastValue(), true)
			},
		},
	}
	haul := &actor.TaskDef{
		Steps: []actor.Step{
			func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
				if err := a.ActivateLinear("fuel", -def.Drain, t); err != nil {
					return nil, err
				}
				return sim.NewWait(stage.Env(), def.TripTime), nil
			},
			func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
				if err := a.Deactivate("fuel", t); err != nil {
					return nil, err
				}
				cargo, err := a.MustKnowledge(cargoKey)
				if err != nil {
					return nil, err
				}
				return dropoff.Put(cargo, sim.WithPlanningDuration(0)), nil
			},
			func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
				done, err := tripsDone(a)
				if err != nil {
					return nil, err
				}
				return nil, a.SetKnowledge(tripsKey, done+1, true)
			},
		},
	}
	route := &actor.TaskDef{
		Decide: func(a *actor.Actor, t *actor.TaskRun) error {
			done, err := tripsDone(a)
			if err != nil {
				return err
			}
			if done >= def.Trips {
				return a.SetTaskQueue("haul", []string{"park"})
			}
			return a.SetTaskQueue("haul", []string{"load"})
		},
		RehearseDecide: func(a *actor.Actor, t *actor.TaskRun) error {
			return a.SetTaskQueue("haul", []string{"park"})
		},
	}

	tasks := map[string]*actor.TaskDef{
		"load":  load,
		"haul":  haul,
		"route": route,
		"park":  actor.NewTerminalTask(),
	}
	links := map[string]actor.Links{
		"load":  {Default: "haul", Allowed: []string{"haul"}},
		"route": {Default: "park", Allowed: []string{"load", "park"}},
	}
	if def.FuelSource != "" {
		farm := containers[def.FuelSource]
		tasks["refuel"] = &actor.TaskDef{
			Steps: []actor.Step{
				func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
					return farm.Get(refill, sim.WithPlanningDuration(0)), nil
				},
				func(a *actor.Actor, t *actor.TaskRun) (sim.Awaitable, error) {
					fuel, err := a.GetFloat("fuel")
					if err != nil {
						return nil, err
					}
					return nil, a.Set("fuel", fuel+refill)
				},
			},
		}
		links["haul"] = actor.Links{Default: "refuel", Allowed: []string{"refuel"}}
		links["refuel"] = actor.Links{Default: "route", Allowed: []string{"route"}}
	} else {
		links["haul"] = actor.Links{Default: "route", Allowed: []string{"route"}}
	}

	net := &actor.NetworkDef{Name: "haul", Tasks: tasks, Links: links}
	if err := a.AddNetwork(net); err != nil {
		return nil, err
	}
	return a, nil
}

func tripsDone(a *actor.Actor) (int, error) {
	v, err := a.MustKnowledge(tripsKey)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("mover %s trip counter holds %T", a.Name(), v)
	}
	return n, nil
}

func collect(s *Scenario, stage *sim.Stage, movers []*actor.Actor, stores map[string]*resource.SelfMonitoringStore, containers map[string]*resource.SelfMonitoringContainer) (*Result, error) {
	res := &Result{Scenario: s.Name, Elapsed: stage.Now(), TimeUnit: stage.TimeUnit()}
	for _, m := range movers {
		fuel, err := m.GetFloat("fuel")
		if err != nil {
			return nil, err
		}
		hist, err := m.History("fuel")
		if err != nil {
			return nil, err
		}
		trips, err := tripsDone(m)
		if err != nil {
			return nil, err
		}
		net, _ := m.Network("haul")
		res.Movers = append(res.Movers, MoverResult{
			Name:        m.Name(),
			Trips:       trips,
			Fuel:        fuel,
			FuelHistory: hist,
			Parked:      net.CurrentTaskName() == "park",
		})
	}
	for _, def := range s.Stores {
		st := stores[def.Name]
		res.Stores = append(res.Stores, StoreResult{Name: def.Name, Count: st.Len(), Readings: st.Readings()})
	}
	for _, def := range s.Containers {
		c := containers[def.Name]
		res.Containers = append(res.Containers, ContainerResult{Name: def.Name, Level: c.Level(), Readings: c.Readings()})
	}
	return res, nil
}
