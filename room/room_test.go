package room

import (
	"context"
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/settings"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// perfectLinks returns settings for two clients on lossless links without any lag.
func perfectLinks() settings.Settings {
	s := settings.DefaultSettings()
	s.Room.Duration = 2
	s.Level.Boxes = s.Level.Boxes[:1]
	s.Clients = []settings.Client{
		{
			Name:   "A",
			Spawn:  []float64{0, 0.01, 0},
			Script: []settings.Segment{{Start: 0.2, End: 1, MoveY: 1}},
		},
		{
			Name:   "B",
			JoinAt: 0.1,
			Spawn:  []float64{3, 0.01, 0},
		},
	}
	return s
}

func TestMirrorsConverge(t *testing.T) {
	r, err := New(discardLogger(), perfectLinks())
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	clients := r.Clients()
	require.Len(t, clients, 2)
	a, b := clients[0], clients[1]
	require.True(t, a.Connected())
	require.True(t, b.Connected())
	assert.Equal(t, uint32(1), a.Local().ID())
	assert.Equal(t, uint32(2), b.Local().ID())

	// A walked forward and then stopped; B's mirror has caught up with it.
	assert.Greater(t, a.Local().Position().Z(), float32(2))
	mirror, ok := b.Remote(1)
	require.True(t, ok)
	assert.Equal(t, a.Local().Position(), mirror.Position())

	mirror, ok = a.Remote(2)
	require.True(t, ok)
	assert.Equal(t, b.Local().Position(), mirror.Position())

	state, ok := r.Server().State(1)
	require.True(t, ok)
	assert.Equal(t, a.Local().Position(), state.Position)

	samples := b.Divergence()
	require.NotEmpty(t, samples)
	assert.Zero(t, samples[len(samples)-1])
}

func TestParallelMatchesSequential(t *testing.T) {
	run := func(parallel bool) []mgl32.Vec3 {
		s := settings.DefaultSettings()
		s.Room.Duration = 3
		s.Room.Parallel = parallel
		r, err := New(discardLogger(), s)
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))

		var out []mgl32.Vec3
		for _, c := range r.Clients() {
			for _, p := range c.Players() {
				out = append(out, p.Position())
			}
		}
		return out
	}
	assert.Equal(t, run(false), run(true))
}

func TestReport(t *testing.T) {
	s := perfectLinks()
	s.Clients = append(s.Clients, settings.Client{Name: "late", JoinAt: 100})
	r, err := New(discardLogger(), s)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	reports := r.Report()
	require.Len(t, reports, 2, "clients that never joined are left out")
	rep := reports[0]
	assert.Equal(t, "A", rep.Name)
	assert.Equal(t, 1, rep.Remotes)
	assert.NotZero(t, rep.UplinkSent)
	assert.Zero(t, rep.UplinkDropped)
	// The state sent during the last frame is still on its way.
	assert.Equal(t, rep.UplinkSent-1, rep.UplinkDelivered)
	assert.Contains(t, rep.String(), "A (id 1)")
}

func TestRunStopsOnCancel(t *testing.T) {
	r, err := New(discardLogger(), perfectLinks())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	assert.Zero(t, r.Now())
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	s := perfectLinks()
	s.Room.TickRate = 0
	_, err := New(discardLogger(), s)
	assert.Error(t, err)
}

func TestScript(t *testing.T) {
	script := Script{
		{Start: 0, End: 2, MoveY: 1},
		{Start: 1, End: 3, MoveX: 1, Jump: true},
	}
	assert.Equal(t, player.Input{Move: mgl32.Vec2{0, 1}}, script.Input(0.5))
	assert.Equal(t, player.Input{Move: mgl32.Vec2{1, 0}, Jump: true}, script.Input(1.5))
	assert.Equal(t, player.Input{}, script.Input(3))
}

func TestSetInput(t *testing.T) {
	s := perfectLinks()
	s.Room.Duration = 1
	r, err := New(discardLogger(), s)
	require.NoError(t, err)

	b := r.Clients()[1]
	b.SetInput(InputFunc(func(float64) player.Input {
		return player.Input{Move: mgl32.Vec2{1, 0}}
	}))
	require.NoError(t, r.Run(context.Background()))
	assert.Greater(t, b.Local().Position().X(), float32(4))
}
