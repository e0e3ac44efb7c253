package player

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/protocol"
	"github.com/sirupsen/logrus"
)

// Player is a character taking part in a session. A local player is moved by its own movement
// simulation; a remote player is a mirror that only changes when a newer MoveUpdate arrives.
type Player struct {
	log *logrus.Logger

	id    uint32
	color color.RGBA
	local bool

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
	sequence uint32

	movement *Movement

	Dbg *Debugger
}

// NewRemote creates a mirror of a player owned by someone else.
func NewRemote(log *logrus.Logger, info protocol.PlayerSpawnInfo) *Player {
	p := &Player{
		log:      log,
		id:       info.PlayerID,
		color:    info.Color,
		position: info.Position,
		rotation: normalizedOrIdent(info.Rotation),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	p.Dbg = newDebugger(p)
	return p
}

// NewLocal creates the player a client controls. Its id is unknown until the server assigns one.
func NewLocal(log *logrus.Logger, pos mgl32.Vec3, rot mgl32.Quat, c color.RGBA, collider Collider) *Player {
	p := &Player{
		log:      log,
		color:    c,
		local:    true,
		position: pos,
		rotation: normalizedOrIdent(rot),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	p.Dbg = newDebugger(p)
	p.movement = newMovement(p, collider)
	return p
}

// Log returns the logger of the player.
func (p *Player) Log() *logrus.Logger {
	return p.log
}

// ID returns the id the server assigned to the player, or 0 if it has none yet.
func (p *Player) ID() uint32 {
	return p.id
}

// SetID ...
func (p *Player) SetID(id uint32) {
	p.id = id
}

// Color ...
func (p *Player) Color() color.RGBA {
	return p.color
}

// Local returns true if the player is simulated by this process.
func (p *Player) Local() bool {
	return p.local
}

// Position ...
func (p *Player) Position() mgl32.Vec3 {
	return p.position
}

// SetPosition ...
func (p *Player) SetPosition(pos mgl32.Vec3) {
	p.position = pos
}

// Rotation ...
func (p *Player) Rotation() mgl32.Quat {
	return p.rotation
}

// SetRotation ...
func (p *Player) SetRotation(rot mgl32.Quat) {
	p.rotation = rot
}

// Scale ...
func (p *Player) Scale() mgl32.Vec3 {
	return p.scale
}

// SetScale ...
func (p *Player) SetScale(scale mgl32.Vec3) {
	p.scale = scale
}

// Sequence returns the sequence of the last state produced or accepted for the player.
func (p *Player) Sequence() uint32 {
	return p.sequence
}

// Movement returns the movement state of a local player, or nil for a remote one.
func (p *Player) Movement() *Movement {
	return p.movement
}

// SpawnInfo describes the player as it is announced to others.
func (p *Player) SpawnInfo() protocol.PlayerSpawnInfo {
	return protocol.PlayerSpawnInfo{
		PlayerID: p.id,
		Position: p.position,
		Rotation: p.rotation,
		Color:    p.color,
	}
}

// State returns the player's current transform as a MoveUpdate, without advancing its sequence.
func (p *Player) State() *protocol.MoveUpdate {
	return &protocol.MoveUpdate{
		Sequence: p.sequence,
		PlayerID: p.id,
		Position: p.position,
		Rotation: p.rotation,
	}
}

// NextMoveUpdate advances the sequence of the player and returns its current transform.
func (p *Player) NextMoveUpdate() *protocol.MoveUpdate {
	p.sequence++
	return p.State()
}

// ApplyMoveUpdate overwrites the transform of the player with the one in pk if pk is newer than
// the last accepted update. Stale and duplicate updates are ignored. It reports whether pk was
// applied.
func (p *Player) ApplyMoveUpdate(pk *protocol.MoveUpdate) bool {
	if pk.Sequence <= p.sequence {
		p.Dbg.Notify(DebugModeNetwork, true, "discarded update seq=%d (have %d)", pk.Sequence, p.sequence)
		return false
	}
	p.sequence = pk.Sequence
	p.position = pk.Position
	p.rotation = normalizedOrIdent(pk.Rotation)
	return true
}

func normalizedOrIdent(q mgl32.Quat) mgl32.Quat {
	if q.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}
