package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupekit/troupe/sim"
)

var (
	_ sim.Awaitable = (*GetRequest)(nil)
	_ sim.Awaitable = (*PutRequest)(nil)
	_ sim.Awaitable = (*TakeRequest)(nil)
	_ sim.Awaitable = (*FillRequest)(nil)
)

func TestStoreGetMatchesImmediately(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env, WithItems("crate-a", "crate-b"))

	g := s.Get()
	var got any
	require.NoError(t, g.OnComplete(func(aw sim.Awaitable) { got = aw.Value() }))
	require.NoError(t, g.Begin())
	require.NoError(t, env.Run())

	assert.Equal(t, "crate-a", got)
	assert.Equal(t, []any{"crate-b"}, s.Items())
}

func TestStoreGetBlocksUntilPut(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env)

	g := s.Get()
	var gotAt float64 = -1
	require.NoError(t, g.OnComplete(func(sim.Awaitable) { gotAt = env.Now() }))
	require.NoError(t, g.Begin())

	require.NoError(t, env.Schedule(4.0, func() {
		p := s.Put("crate")
		assert.NoError(t, p.OnComplete(func(sim.Awaitable) {}))
		assert.NoError(t, p.Begin())
	}))
	require.NoError(t, env.Run())

	assert.Equal(t, 4.0, gotAt)
	assert.Equal(t, 0, s.Len())
}

func TestStoreGettersServedInArrivalOrder(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env)

	var served []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		g := s.Get()
		require.NoError(t, g.OnComplete(func(sim.Awaitable) { served = append(served, name) }))
		require.NoError(t, g.Begin())
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(i).Begin())
	}
	require.NoError(t, env.Run())

	assert.Equal(t, []string{"first", "second", "third"}, served)
}

func TestStoreCapacityBlocksPut(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env, WithCapacity(1), WithItems("full"))

	p := s.Put("extra")
	var putAt float64 = -1
	require.NoError(t, p.OnComplete(func(sim.Awaitable) { putAt = env.Now() }))
	require.NoError(t, p.Begin())

	require.NoError(t, env.Schedule(2.0, func() {
		g := s.Get()
		assert.NoError(t, g.Begin())
	}))
	require.NoError(t, env.Run())

	assert.Equal(t, 2.0, putAt)
	assert.Equal(t, []any{"extra"}, s.Items())
}

func TestStoreCancelRemovesRequest(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env)

	g1 := s.Get()
	g2 := s.Get()
	var got any
	require.NoError(t, g1.Begin())
	require.NoError(t, g2.OnComplete(func(aw sim.Awaitable) { got = aw.Value() }))
	require.NoError(t, g2.Begin())

	g1.Cancel()
	require.NoError(t, s.Put("crate").Begin())
	require.NoError(t, env.Run())

	assert.Equal(t, sim.Cancelled, g1.State())
	assert.Equal(t, "crate", got, "cancelled head must not consume the item")
}

func TestFilterStoreSkipsBlockedHead(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewFilterStore(env, WithItems("bolt", "gear"))

	noMatch := s.Get(func(item any) bool { return item == "widget" })
	require.NoError(t, noMatch.Begin())

	match := s.Get(func(item any) bool { return item == "gear" })
	var got any
	require.NoError(t, match.OnComplete(func(aw sim.Awaitable) { got = aw.Value() }))
	require.NoError(t, match.Begin())
	require.NoError(t, env.Run())

	assert.Equal(t, "gear", got)
	assert.Equal(t, sim.Pending, noMatch.State())
	assert.Equal(t, []any{"bolt"}, s.Items())
}

func TestSortedFilterStorePicksMinimalKey(t *testing.T) {
	env := sim.NewEnvironment()
	type part struct {
		name string
		wear float64
	}
	s := NewSortedFilterStore(env, WithItems(
		part{"p1", 0.9}, part{"p2", 0.1}, part{"p3", 0.5},
	))

	g := s.GetSorted(
		func(item any) bool { return item.(part).wear < 0.8 },
		func(item any) float64 { return item.(part).wear },
	)
	var got any
	require.NoError(t, g.OnComplete(func(aw sim.Awaitable) { got = aw.Value() }))
	require.NoError(t, g.Begin())
	require.NoError(t, env.Run())

	assert.Equal(t, part{"p2", 0.1}, got)
	assert.Len(t, s.Items(), 2)
}

func TestSelfMonitoringStoreReadings(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewSelfMonitoringStore(env, WithItems("a"))

	require.NoError(t, env.Schedule(1.0, func() {
		assert.NoError(t, s.Put("b").Begin())
	}))
	require.NoError(t, env.Schedule(3.0, func() {
		assert.NoError(t, s.Get().Begin())
		assert.NoError(t, s.Get().Begin())
	}))
	require.NoError(t, env.Run())

	readings := s.Readings()
	require.Len(t, readings, 4)
	assert.Equal(t, Reading{Time: 0.0, Quantity: 1}, readings[0])
	assert.Equal(t, Reading{Time: 1.0, Quantity: 2}, readings[1])
	assert.Equal(t, Reading{Time: 3.0, Quantity: 1}, readings[2])
	assert.Equal(t, Reading{Time: 3.0, Quantity: 0}, readings[3])
}

func TestStorePlanningValues(t *testing.T) {
	env := sim.NewEnvironment()
	s := NewStore(env)
	g := s.Get(sim.WithPlanningDuration(2.0))
	assert.Equal(t, 2.0, g.PlanningDuration())
	assert.Equal(t, sim.PlanningFactor, g.PlanningValue())
	assert.Equal(t, 0, s.Len(), "constructing a request must not touch the store")
}
