package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupekit/troupe/sim"
)

func TestContainerTakeAndFill(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewContainer(env, WithContainerCapacity(100), WithInitialLevel(30))

	g := c.Get(20)
	require.NoError(t, g.Begin())
	require.NoError(t, env.Run())
	assert.Equal(t, 10.0, c.Level())

	p := c.Put(55)
	require.NoError(t, p.Begin())
	require.NoError(t, env.Run())
	assert.Equal(t, 65.0, c.Level())
}

func TestContainerTakeBlocksUntilLevelCovers(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewContainer(env, WithInitialLevel(5))

	g := c.Get(50)
	var gotAt float64 = -1
	require.NoError(t, g.OnComplete(func(sim.Awaitable) { gotAt = env.Now() }))
	require.NoError(t, g.Begin())

	require.NoError(t, env.Schedule(2.0, func() { assert.NoError(t, c.Put(20).Begin()) }))
	require.NoError(t, env.Schedule(6.0, func() { assert.NoError(t, c.Put(30).Begin()) }))
	require.NoError(t, env.Run())

	assert.Equal(t, 6.0, gotAt)
	assert.Equal(t, 5.0, c.Level())
}

func TestContainerFIFOHeadBlocks(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewContainer(env, WithInitialLevel(10))

	big := c.Get(50)
	small := c.Get(5)
	var order []string
	require.NoError(t, big.OnComplete(func(sim.Awaitable) { order = append(order, "big") }))
	require.NoError(t, small.OnComplete(func(sim.Awaitable) { order = append(order, "small") }))
	require.NoError(t, big.Begin())
	require.NoError(t, small.Begin())

	// The small take fits but waits behind the blocked head.
	require.NoError(t, env.Run())
	assert.Empty(t, order)

	require.NoError(t, c.Put(45).Begin())
	require.NoError(t, env.Run())
	assert.Equal(t, []string{"big", "small"}, order)
}

func TestContainerCancelledHeadUnblocksQueue(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewContainer(env, WithInitialLevel(10))

	big := c.Get(50)
	small := c.Get(5)
	served := false
	require.NoError(t, big.Begin())
	require.NoError(t, small.OnComplete(func(sim.Awaitable) { served = true }))
	require.NoError(t, small.Begin())

	big.Cancel()
	require.NoError(t, env.Run())
	assert.True(t, served)
	assert.Equal(t, 5.0, c.Level())
}

func TestContainerRejectsNonPositiveAmounts(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewContainer(env)
	assert.True(t, sim.IsSimulationError(c.Get(0).Begin()))
	assert.True(t, sim.IsSimulationError(c.Put(-3).Begin()))
}

func TestContainerUnboundedCapacity(t *testing.T) {
	c := NewContainer(sim.NewEnvironment())
	assert.True(t, math.IsInf(c.Capacity(), 1))
}

func TestSelfMonitoringContainerReadings(t *testing.T) {
	env := sim.NewEnvironment()
	c := NewSelfMonitoringContainer(env, WithInitialLevel(100))

	require.NoError(t, env.Schedule(5.0, func() { assert.NoError(t, c.Get(40).Begin()) }))
	require.NoError(t, env.Schedule(9.0, func() { assert.NoError(t, c.Put(15).Begin()) }))
	require.NoError(t, env.Run())

	readings := c.Readings()
	require.Len(t, readings, 3)
	assert.Equal(t, Reading{Time: 0.0, Quantity: 100}, readings[0])
	assert.Equal(t, Reading{Time: 5.0, Quantity: 60}, readings[1])
	assert.Equal(t, Reading{Time: 9.0, Quantity: 75}, readings[2])
}
