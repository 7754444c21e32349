package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario models a troupe scenario file. Stores and containers are shared
// resources; each mover is an actor hauling items from its pickup store to
// its dropoff store, burning fuel on the way and refuelling from a container
// between trips.
type Scenario struct {
	Name     string  `yaml:"name"`
	Seed     int64   `yaml:"seed"`
	TimeUnit string  `yaml:"time_unit"`
	Until    float64 `yaml:"until"`

	Stores     []StoreDef     `yaml:"stores"`
	Containers []ContainerDef `yaml:"containers"`
	Movers     []MoverDef     `yaml:"movers"`
}

// StoreDef declares a named item store. Capacity zero means unbounded.
type StoreDef struct {
	Name     string   `yaml:"name"`
	Capacity int      `yaml:"capacity"`
	Items    []string `yaml:"items"`
}

// ContainerDef declares a named bulk container. Capacity zero means
// unbounded.
type ContainerDef struct {
	Name     string  `yaml:"name"`
	Capacity float64 `yaml:"capacity"`
	Level    float64 `yaml:"level"`
}

// MoverDef declares one hauling actor.
type MoverDef struct {
	Name       string  `yaml:"name"`
	Fuel       float64 `yaml:"fuel"`
	Drain      float64 `yaml:"drain"`
	TripTime   float64 `yaml:"trip_time"`
	Trips      int     `yaml:"trips"`
	Pickup     string  `yaml:"pickup"`
	Dropoff    string  `yaml:"dropoff"`
	FuelSource string  `yaml:"fuel_source"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates scenario bytes.
func FromYAML(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate ensures the scenario is internally consistent.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario.name is required")
	}
	if s.Until < 0 {
		return fmt.Errorf("scenario.until must not be negative")
	}

	stores := map[string]bool{}
	for _, st := range s.Stores {
		if st.Name == "" {
			return fmt.Errorf("every store needs a name")
		}
		if stores[st.Name] {
			return fmt.Errorf("duplicate store %q", st.Name)
		}
		if st.Capacity > 0 && len(st.Items) > st.Capacity {
			return fmt.Errorf("store %q starts with %d items over capacity %d", st.Name, len(st.Items), st.Capacity)
		}
		stores[st.Name] = true
	}

	containers := map[string]bool{}
	for _, c := range s.Containers {
		if c.Name == "" {
			return fmt.Errorf("every container needs a name")
		}
		if containers[c.Name] {
			return fmt.Errorf("duplicate container %q", c.Name)
		}
		if c.Level < 0 {
			return fmt.Errorf("container %q has a negative level", c.Name)
		}
		if c.Capacity > 0 && c.Level > c.Capacity {
			return fmt.Errorf("container %q starts above capacity", c.Name)
		}
		containers[c.Name] = true
	}

	movers := map[string]bool{}
	for _, m := range s.Movers {
		if m.Name == "" {
			return fmt.Errorf("every mover needs a name")
		}
		if movers[m.Name] {
			return fmt.Errorf("duplicate mover %q", m.Name)
		}
		movers[m.Name] = true
		if m.Fuel <= 0 {
			return fmt.Errorf("mover %q needs fuel above zero", m.Name)
		}
		if m.Drain < 0 {
			return fmt.Errorf("mover %q has a negative drain rate", m.Name)
		}
		if m.TripTime <= 0 {
			return fmt.Errorf("mover %q needs trip_time above zero", m.Name)
		}
		if m.Trips <= 0 {
			return fmt.Errorf("mover %q needs at least one trip", m.Name)
		}
		if !stores[m.Pickup] {
			return fmt.Errorf("mover %q picks up from unknown store %q", m.Name, m.Pickup)
		}
		if !stores[m.Dropoff] {
			return fmt.Errorf("mover %q drops off at unknown store %q", m.Name, m.Dropoff)
		}
		if m.FuelSource != "" && !containers[m.FuelSource] {
			return fmt.Errorf("mover %q refuels from unknown container %q", m.Name, m.FuelSource)
		}
	}
	return nil
}
