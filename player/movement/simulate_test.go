package movement

import (
	"image/color"
	"io"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = float32(1.0 / 60)

func newWorld(obstacles ...*physics.Obstacle) *physics.World {
	floor := physics.NewBox(mgl32.Vec3{-50, -1, -50}, mgl32.Vec3{50, 0, 50})
	return physics.NewWorld(append([]*physics.Obstacle{floor}, obstacles...)...)
}

func newPlayer(pos mgl32.Vec3) *player.Player {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	p := player.NewLocal(log, pos, mgl32.QuatIdent(), color.RGBA{A: 255}, player.DefaultCollider())
	p.Dbg.Toggle(player.DebugModeMovementSim)
	return p
}

func run(p *player.Player, w *physics.World, frames int) {
	for range frames {
		Simulate(p, w, DefaultConfig(), dt)
	}
}

func TestRestingIsIdempotent(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})

	for i := range 120 {
		pk := Simulate(p, w, DefaultConfig(), dt)
		require.Equal(t, mgl32.Vec3{0, 0.01, 0}, p.Position(), "frame %d", i)
		require.Equal(t, player.ModeWalking, p.Movement().Mode(), "frame %d", i)
		require.Equal(t, uint32(i+1), pk.Sequence)
	}
}

func TestDepenetration(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, -0.2, 0})
	require.NotEmpty(t, w.OverlapCapsule(p.Movement().Shape().World(), physics.MaskAll))

	Simulate(p, w, DefaultConfig(), dt)
	assert.InDelta(t, 0.01, p.Position().Y(), 1e-3)
	assert.Empty(t, w.OverlapCapsule(p.Movement().Shape().World(), physics.MaskAll))
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
}

func TestFallAndLand(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 2, 0})

	Simulate(p, w, DefaultConfig(), dt)
	require.Equal(t, player.ModeFalling, p.Movement().Mode())

	run(p, w, 120)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
	assert.InDelta(t, 0.01, p.Position().Y(), 5e-3)
	assert.Zero(t, p.Movement().Vel().Y())
	assert.LessOrEqual(t, p.Movement().GroundDistance(), game.FloatTolerance)
}

func TestJump(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	run(p, w, 2)

	p.Movement().SetInput(player.Input{Jump: true})
	Simulate(p, w, DefaultConfig(), dt)
	require.Equal(t, player.ModeFalling, p.Movement().Mode())
	assert.Greater(t, p.Position().Y(), float32(0.01))

	p.Movement().SetInput(player.Input{})
	var peak float32
	for range 120 {
		Simulate(p, w, DefaultConfig(), dt)
		peak = max(peak, p.Position().Y())
	}
	assert.InDelta(t, 1.27, peak, 0.1)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
	assert.InDelta(t, 0.01, p.Position().Y(), 5e-3)
}

func TestWallBlocks(t *testing.T) {
	w := newWorld(physics.NewBox(mgl32.Vec3{2, 0, -5}, mgl32.Vec3{3, 3, 5}))
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	run(p, w, 120)
	assert.InDelta(t, 1.49, p.Position().X(), 5e-3)
	assert.InDelta(t, 0.01, p.Position().Y(), 5e-3)
	assert.InDelta(t, 0, p.Movement().Vel().X(), 1e-3)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
}

func TestSlideAlongWall(t *testing.T) {
	w := newWorld(physics.NewBox(mgl32.Vec3{2, 0, -50}, mgl32.Vec3{3, 3, 50}))
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	// Walk diagonally into the wall: the x part is blocked, the z part survives.
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 1}})

	run(p, w, 120)
	assert.LessOrEqual(t, p.Position().X(), float32(1.5))
	assert.Greater(t, p.Position().Z(), float32(3))
}

func TestStepUp(t *testing.T) {
	w := newWorld(physics.NewBox(mgl32.Vec3{2, 0, -5}, mgl32.Vec3{20, 0.2, 5}))
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	run(p, w, 180)
	assert.Greater(t, p.Position().X(), float32(3))
	assert.InDelta(t, 0.21, p.Position().Y(), 0.02)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
}

func TestTooTallToStep(t *testing.T) {
	w := newWorld(physics.NewBox(mgl32.Vec3{2, 0, -5}, mgl32.Vec3{20, 0.5, 5}))
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	run(p, w, 120)
	assert.Less(t, p.Position().X(), float32(1.5))
	assert.InDelta(t, 0.01, p.Position().Y(), 5e-3)
}

func TestRotatesTowardMoveDirection(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	Simulate(p, w, DefaultConfig(), dt)
	assert.InDelta(t, DefaultConfig().RotateSpeed*dt, game.QuatAngle(mgl32.QuatIdent(), p.Rotation()), 0.1)

	run(p, w, 30)
	assert.True(t, game.Vec3ApproxEq(mgl32.Vec3{1, 0, 0}, p.Rotation().Rotate(game.Forward), 1e-3))
}

func TestWalkingSpeedIsCapped(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{0, 1}})

	run(p, w, 60)
	assert.InDelta(t, DefaultConfig().MaxSpeed, p.Movement().Vel().Len(), 1e-3)

	// Releasing the input brakes to a halt.
	p.Movement().SetInput(player.Input{})
	run(p, w, 60)
	assert.Zero(t, p.Movement().Vel().Len())
}

const slopeAngle = float32(15)

// newSlope returns a ramp rising toward +x whose top surface meets the floor at x = 2.
func newSlope() *physics.Obstacle {
	rad := mgl32.DegToRad(slopeAngle)
	along := mgl32.Vec3{math32.Cos(rad), math32.Sin(rad), 0}
	normal := mgl32.Vec3{-math32.Sin(rad), math32.Cos(rad), 0}
	center := mgl32.Vec3{2, 0, 0}.Add(along.Mul(8)).Sub(normal.Mul(0.5))
	return physics.NewOrientedBox(center, mgl32.Vec3{10, 0.5, 5}, mgl32.QuatRotate(rad, mgl32.Vec3{0, 0, 1}))
}

// slopeHeight returns the height of a player resting on the ramp from newSlope at x.
func slopeHeight(x float32) float32 {
	rad := mgl32.DegToRad(slopeAngle)
	return (0.5+math32.Sin(rad)*(x-2))/math32.Cos(rad) - 0.5
}

func TestRampVectorFollowsSurface(t *testing.T) {
	rad := mgl32.DegToRad(slopeAngle)
	normal := mgl32.Vec3{-math32.Sin(rad), math32.Cos(rad), 0}
	uphill := mgl32.Vec3{math32.Cos(rad), math32.Sin(rad), 0}

	ramp := rampVector(game.Horizontal(uphill), normal).Normalize()
	assert.InDelta(t, 0, normal.Dot(ramp), 1e-5)
	assert.True(t, game.Vec3ApproxEq(uphill, ramp, 1e-5))

	// Flat ground keeps the horizontal direction.
	down := mgl32.Vec3{1, -1, 0}.Normalize()
	assert.True(t, game.Vec3ApproxEq(mgl32.Vec3{1, 0, 0}, rampVector(game.Horizontal(down), game.Up).Normalize(), 1e-5))
}

func TestWalkUpSlope(t *testing.T) {
	w := newWorld(newSlope())
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	run(p, w, 120)
	pos := p.Position()
	require.Greater(t, pos.X(), float32(5))
	assert.InDelta(t, slopeHeight(pos.X()), pos.Y(), 0.05)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(slopeAngle)), p.Movement().GroundNormal().Y(), 1e-3)
	assert.Greater(t, p.Movement().Vel().Y(), float32(0))
	// The ramp keeps the walking speed.
	assert.InDelta(t, DefaultConfig().MaxSpeed, p.Movement().Vel().Len(), 1e-2)
}

func TestWalkDownSlopeOntoFloor(t *testing.T) {
	w := newWorld(newSlope())
	p := newPlayer(mgl32.Vec3{6, slopeHeight(6) + 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{-1, 0}})

	for i := range 120 {
		Simulate(p, w, DefaultConfig(), dt)
		require.Equal(t, player.ModeWalking, p.Movement().Mode(), "frame %d", i)
	}
	pos := p.Position()
	require.Less(t, pos.X(), float32(1))
	assert.GreaterOrEqual(t, pos.Y(), float32(0))
	assert.LessOrEqual(t, pos.Y(), game.FloatTolerance)
	assert.InDelta(t, 1, p.Movement().GroundNormal().Y(), 1e-5)
}

func TestHoveringSettlesOnGround(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.16, 0})
	require.Equal(t, player.ModeWalking, p.Movement().Mode())

	last := p.Position().Y()
	for i := range 60 {
		Simulate(p, w, DefaultConfig(), dt)
		y := p.Position().Y()
		require.LessOrEqual(t, y, last+1e-5, "frame %d moved up", i)
		last = y
	}
	assert.InDelta(t, 0.01, last, 1e-3)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
}

func TestJumpRequestIsUsedOnce(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Jump: true})

	Simulate(p, w, DefaultConfig(), dt)
	require.Equal(t, player.ModeFalling, p.Movement().Mode())
	assert.False(t, p.Movement().Input().Jump)

	jumps, mode := 1, player.ModeFalling
	for range 300 {
		Simulate(p, w, DefaultConfig(), dt)
		if m := p.Movement().Mode(); m != mode {
			if m == player.ModeFalling {
				jumps++
			}
			mode = m
		}
	}
	assert.Equal(t, 1, jumps)
	assert.Equal(t, player.ModeWalking, mode)
}

func TestFallingSlidesDownWall(t *testing.T) {
	w := newWorld(physics.NewBox(mgl32.Vec3{2, 0, -5}, mgl32.Vec3{3, 10, 5}))
	p := newPlayer(mgl32.Vec3{0.5, 3, 0})
	p.Movement().SetMode(player.ModeFalling)
	p.Movement().SetVel(mgl32.Vec3{3, 0, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{1, 0}})

	var touched bool
	for i := range 180 {
		Simulate(p, w, DefaultConfig(), dt)
		pos := p.Position()
		require.LessOrEqual(t, pos.X(), float32(1.52), "frame %d", i)
		if p.Movement().Mode() == player.ModeFalling && pos.X() > 1.48 {
			// Pressed against the wall while still in the air.
			touched = true
		}
	}
	assert.True(t, touched)
	assert.Equal(t, player.ModeWalking, p.Movement().Mode())
	assert.InDelta(t, 0.01, p.Position().Y(), 5e-3)
	assert.InDelta(t, 1.49, p.Position().X(), 1e-2)
}

func TestBrakingUsesGroundDeceleration(t *testing.T) {
	w := newWorld()
	p := newPlayer(mgl32.Vec3{0, 0.01, 0})
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{0, 1}})
	run(p, w, 60)
	require.InDelta(t, DefaultConfig().MaxSpeed, p.Movement().Vel().Z(), 1e-3)

	conf := DefaultConfig()
	p.Movement().SetInput(player.Input{Move: mgl32.Vec2{0, -1}})
	Simulate(p, w, conf, dt)
	assert.InDelta(t, conf.MaxSpeed-conf.GroundDeceleration*dt, p.Movement().Vel().Z(), 1e-3)
	Simulate(p, w, conf, dt)
	assert.InDelta(t, conf.MaxSpeed-2*conf.GroundDeceleration*dt, p.Movement().Vel().Z(), 1e-3)
}

func TestSimulateRemotePanics(t *testing.T) {
	p := player.NewRemote(nil, protocol.PlayerSpawnInfo{PlayerID: 1})
	assert.Panics(t, func() { Simulate(p, newWorld(), DefaultConfig(), dt) })
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	conf := DefaultConfig()
	conf.MinGroundNormal = 0
	assert.Error(t, conf.Validate())

	conf = DefaultConfig()
	conf.SkinWidth = 0
	assert.Error(t, conf.Validate())
}
