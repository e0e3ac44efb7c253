package movement

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
)

type movementContext struct {
	mPlayer  *player.Player
	movement *player.Movement
	engine   physics.Engine
	conf     Config
	dt       float32

	// contacts are the normals velocity is clipped against once the frame's move is done.
	contacts []mgl32.Vec3
}

// capsule returns the player's capsule at its current pose.
func (ctx *movementContext) capsule() physics.Capsule {
	return ctx.movement.Shape().World()
}

func (ctx *movementContext) walkable(normal mgl32.Vec3) bool {
	return normal.Y() >= ctx.conf.MinGroundNormal
}

func (ctx *movementContext) sweep(c physics.Capsule, dir mgl32.Vec3, dist float32) (physics.Hit, bool) {
	if dist <= 0 {
		return physics.Hit{}, false
	}
	return ctx.engine.SweepCapsule(c, dir, dist, ctx.conf.Mask)
}

func (ctx *movementContext) move(delta mgl32.Vec3) {
	ctx.mPlayer.SetPosition(ctx.mPlayer.Position().Add(delta))
}
