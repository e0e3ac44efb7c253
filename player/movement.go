package player

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/capsule"
	"github.com/oomph-ac/netmove/game"
)

// Mode is the locomotion state of a local player.
type Mode uint8

const (
	ModeWalking Mode = iota
	ModeFalling
)

// String ...
func (m Mode) String() string {
	if m == ModeWalking {
		return "walking"
	}
	return "falling"
}

// Collider is the capsule attached to a local player.
type Collider = capsule.Collider

// DefaultCollider returns a 2 unit tall, upright capsule with its base at the player's position.
func DefaultCollider() Collider {
	return Collider{Center: mgl32.Vec3{0, 1, 0}, Height: 2, Radius: 0.5, Axis: capsule.AxisY}
}

// Input is what a local player was asked to do during one frame.
type Input struct {
	// Move is the planar move input, x to the right and y forward, each within [-1, 1].
	Move mgl32.Vec2
	// Jump requests a jump. It is cleared once a frame has been simulated.
	Jump bool
	// Yaw is the heading, in degrees, the move input is relative to.
	Yaw float32
}

// Direction returns the world space direction of the move input.
func (i Input) Direction() mgl32.Vec3 {
	local := mgl32.Vec3{i.Move.X(), 0, i.Move.Y()}
	if local.LenSqr() > 1 {
		local = local.Normalize()
	}
	return mgl32.QuatRotate(mgl32.DegToRad(i.Yaw), game.Up).Rotate(local)
}

// Movement holds the locomotion state of a local player.
type Movement struct {
	collider Collider
	shape    *capsule.Cache

	vel  mgl32.Vec3
	mode Mode

	groundNormal   mgl32.Vec3
	groundDistance float32

	input Input
}

func newMovement(p *Player, collider Collider) *Movement {
	m := &Movement{collider: collider, mode: ModeWalking, groundNormal: game.Up}
	m.shape = capsule.NewCache(p, &m.collider)
	return m
}

// Collider returns the raw capsule definition, which may be changed in place.
func (m *Movement) Collider() *Collider {
	return &m.collider
}

// Shape ...
func (m *Movement) Shape() *capsule.Cache {
	return m.shape
}

// Vel ...
func (m *Movement) Vel() mgl32.Vec3 {
	return m.vel
}

// SetVel ...
func (m *Movement) SetVel(vel mgl32.Vec3) {
	m.vel = vel
}

// Mode ...
func (m *Movement) Mode() Mode {
	return m.mode
}

// SetMode ...
func (m *Movement) SetMode(mode Mode) {
	m.mode = mode
}

// GroundNormal returns the normal of the ground the player last stood on.
func (m *Movement) GroundNormal() mgl32.Vec3 {
	return m.groundNormal
}

// GroundDistance returns the clearance between the player and the ground it last stood on.
func (m *Movement) GroundDistance() float32 {
	return m.groundDistance
}

// SetGround ...
func (m *Movement) SetGround(normal mgl32.Vec3, distance float32) {
	m.groundNormal = normal
	m.groundDistance = distance
}

// Input ...
func (m *Movement) Input() Input {
	return m.input
}

// SetInput sets the input used by the next simulated frame.
func (m *Movement) SetInput(input Input) {
	m.input = input
}

// ClearJump drops a pending jump request, so that it is only acted on for one frame.
func (m *Movement) ClearJump() {
	m.input.Jump = false
}
