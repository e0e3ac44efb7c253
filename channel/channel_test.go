package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossOneNeverDelivers(t *testing.T) {
	c := New[int](Config{Lag: 0.05, Loss: 1}, WithSeed("lossy", 1))
	for i := range 100 {
		c.Send(float64(i), i)
	}
	assert.Empty(t, c.Drain(1e9))
	assert.Equal(t, Stats{Sent: 100, Dropped: 100}, c.Stats())
}

func TestDeliveryWithinDelayBounds(t *testing.T) {
	conf := Config{Lag: 0.1, LagVariance: 0.05}
	c := New[int](conf, WithSeed("bounds", 7))
	for i := range 50 {
		c.Send(10, i)
	}

	assert.Empty(t, c.Drain(10+conf.MinDelay()-1e-9), "nothing may arrive before lag - variance")
	got := c.Drain(10 + conf.MaxDelay())
	assert.Len(t, got, 50, "everything has arrived after lag + variance")
}

func TestNeverBeforeSendTime(t *testing.T) {
	c := New[int](Config{Lag: 0, LagVariance: 1}, WithSeed("early", 3))
	for i := range 50 {
		c.Send(5, i)
	}
	_, ok := c.Fetch(4.999)
	assert.False(t, ok)
	assert.Len(t, c.Drain(6), 50)
}

func TestFetchReturnsEarliestArrival(t *testing.T) {
	c := New[string](Config{})
	c.Send(1, "late")
	c.Send(0.5, "early")
	c.Send(3, "future")

	assert.Equal(t, []string{"early", "late"}, c.Drain(2))
	_, ok := c.Fetch(2)
	assert.False(t, ok)

	v, ok := c.Fetch(3)
	require.True(t, ok)
	assert.Equal(t, "future", v)
}

func TestExactlyOnceDelivery(t *testing.T) {
	c := New[int](Config{Lag: 0.1, LagVariance: 0.08, Loss: 0.2}, WithSeed("once", 42))

	const n = 500
	seen := make(map[int]int)
	now := 0.0
	for i := range n {
		c.Send(now, i)
		now += 0.01
		for _, v := range c.Drain(now) {
			seen[v]++
		}
	}
	for _, v := range c.Drain(now + 1) {
		seen[v]++
	}

	stats := c.Stats()
	assert.Equal(t, uint64(n), stats.Sent)
	assert.Equal(t, stats.Sent, stats.Dropped+stats.Delivered+stats.InFlight)
	assert.Zero(t, stats.InFlight)
	assert.Len(t, seen, int(stats.Delivered))
	for v, count := range seen {
		assert.Equal(t, 1, count, "message %d delivered more than once", v)
	}
}

func TestStatsCountInFlight(t *testing.T) {
	c := New[int](Config{Lag: 1})
	c.Send(0, 1)
	c.Send(0, 2)
	assert.Equal(t, Stats{Sent: 2, InFlight: 2}, c.Stats())

	_, ok := c.Fetch(1)
	require.True(t, ok)
	assert.Equal(t, Stats{Sent: 2, Delivered: 1, InFlight: 1}, c.Stats())
}

func TestSeededChannelsAreReproducible(t *testing.T) {
	run := func(label string) []int {
		c := New[int](Config{Lag: 0.1, LagVariance: 0.1, Loss: 0.3}, WithSeed(label, 99))
		for i := range 100 {
			c.Send(float64(i)*0.001, i)
		}
		return c.Drain(10)
	}
	assert.Equal(t, run("a"), run("a"))
	assert.NotEqual(t, run("a"), run("b"))
}

func TestOnDeliver(t *testing.T) {
	c := New[int](Config{})
	var (
		times  []float64
		values []int
	)
	c.OnDeliver(func(now float64, v int) {
		times = append(times, now)
		values = append(values, v)
	})
	c.Send(0, 1)
	c.Send(0.5, 2)
	c.Drain(2)
	assert.Equal(t, []float64{2, 2}, times)
	assert.Equal(t, []int{1, 2}, values)
}

func TestSetConfig(t *testing.T) {
	c := New[int](Config{Lag: 1})
	c.Send(0, 1)

	require.NoError(t, c.SetConfig(Config{}))
	assert.Equal(t, Config{}, c.Config())

	// Messages already in flight keep the arrival time they were given.
	_, ok := c.Fetch(0.5)
	assert.False(t, ok)
	c.Send(0.5, 2)
	v, ok := c.Fetch(0.5)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Error(t, c.SetConfig(Config{Loss: 1.5}))
	assert.Equal(t, Config{}, c.Config())
}

func TestNewPanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() { New[int](Config{Lag: -1}) })
}

func TestConfig(t *testing.T) {
	for _, conf := range []Config{{Lag: -0.1}, {LagVariance: -1}, {Loss: -0.1}, {Loss: 1.1}} {
		assert.Error(t, conf.Validate(), "%+v", conf)
	}
	assert.NoError(t, Config{Lag: 0.1, LagVariance: 0.2, Loss: 1}.Validate())

	conf := Config{Lag: 0.1, LagVariance: 0.25, Loss: 0.125}
	assert.Equal(t, 0.0, conf.MinDelay())
	assert.InDelta(t, 0.35, conf.MaxDelay(), 1e-12)
	assert.Equal(t, "Lag: 100ms\nLagVariance: 250ms\nLoss: 12.5%", conf.String())
}
