package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const depotYAML = `
name: depot
seed: 7
time_unit: hr
stores:
  - name: dock
    items: [crate-1, crate-2]
  - name: depot
containers:
  - name: farm
    level: 100
movers:
  - name: truck-1
    fuel: 100
    drain: 2.0
    trip_time: 4.0
    trips: 2
    pickup: dock
    dropoff: depot
    fuel_source: farm
`

func TestFromYAML(t *testing.T) {
	s, err := FromYAML([]byte(depotYAML))
	require.NoError(t, err)
	assert.Equal(t, "depot", s.Name)
	assert.Equal(t, int64(7), s.Seed)
	require.Len(t, s.Movers, 1)
	assert.Equal(t, 4.0, s.Movers[0].TripTime)
}

func TestFromYAMLRejectsGarbage(t *testing.T) {
	_, err := FromYAML([]byte("movers: {not: [a, list"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Scenario {
		s, err := FromYAML([]byte(depotYAML))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"negative until", func(s *Scenario) { s.Until = -1 }, "until"},
		{"duplicate store", func(s *Scenario) { s.Stores[1].Name = "dock" }, "duplicate store"},
		{"items over capacity", func(s *Scenario) { s.Stores[0].Capacity = 1 }, "over capacity"},
		{"container over capacity", func(s *Scenario) { s.Containers[0].Capacity = 50 }, "above capacity"},
		{"unknown pickup", func(s *Scenario) { s.Movers[0].Pickup = "ghost" }, "unknown store"},
		{"unknown fuel source", func(s *Scenario) { s.Movers[0].FuelSource = "ghost" }, "unknown container"},
		{"no trips", func(s *Scenario) { s.Movers[0].Trips = 0 }, "at least one trip"},
		{"no trip time", func(s *Scenario) { s.Movers[0].TripTime = 0 }, "trip_time"},
		{"no fuel", func(s *Scenario) { s.Movers[0].Fuel = 0 }, "fuel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunDepotScenario(t *testing.T) {
	s, err := FromYAML([]byte(depotYAML))
	require.NoError(t, err)

	res, err := Run(s, nil)
	require.NoError(t, err)

	// Two 4-hour trips back to back.
	assert.Equal(t, 8.0, res.Elapsed)
	assert.Equal(t, "hr", res.TimeUnit)

	require.Len(t, res.Movers, 1)
	m := res.Movers[0]
	assert.Equal(t, "truck-1", m.Name)
	assert.Equal(t, 2, m.Trips)
	assert.True(t, m.Parked)
	// Each trip burns 8 and the refuel puts 8 back.
	assert.InDelta(t, 100.0, m.Fuel, 1e-12)
	assert.NotEmpty(t, m.FuelHistory)

	byName := map[string]StoreResult{}
	for _, st := range res.Stores {
		byName[st.Name] = st
	}
	assert.Equal(t, 0, byName["dock"].Count)
	assert.Equal(t, 2, byName["depot"].Count)
	assert.NotEmpty(t, byName["depot"].Readings)

	require.Len(t, res.Containers, 1)
	assert.InDelta(t, 84.0, res.Containers[0].Level, 1e-12)
}

func TestRunStopsAtUntil(t *testing.T) {
	s, err := FromYAML([]byte(depotYAML))
	require.NoError(t, err)
	s.Until = 5.0

	res, err := Run(s, nil)
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.Elapsed)
	require.Len(t, res.Movers, 1)
	assert.Equal(t, 1, res.Movers[0].Trips)
	assert.False(t, res.Movers[0].Parked)
}

func TestRunWithoutFuelSource(t *testing.T) {
	s, err := FromYAML([]byte(depotYAML))
	require.NoError(t, err)
	s.Containers = nil
	s.Movers[0].FuelSource = ""

	res, err := Run(s, nil)
	require.NoError(t, err)

	assert.Equal(t, 8.0, res.Elapsed)
	// No refuelling, so two trips of burn stay gone.
	assert.InDelta(t, 84.0, res.Movers[0].Fuel, 1e-12)
}
