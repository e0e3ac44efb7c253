package movement

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
)

// groundRayNudge moves the fallback ray past the edge a capsule rests on.
const groundRayNudge = float32(1e-3)

// updateGround looks for ground below the player and switches between walking and falling.
func (ctx *movementContext) updateGround() {
	movement := ctx.movement
	c := ctx.capsule()

	hit, ok := ctx.sweep(c, game.Up.Mul(-1), ctx.conf.GroundProbeDistance)
	if ok {
		near := movement.Mode() == player.ModeWalking || hit.Distance <= ctx.conf.FloatTolerance
		normal, valid := hit.Normal, near && ctx.walkable(hit.Normal)
		if !valid && near {
			// Resting on an edge gives a slanted contact normal. The surface under the contact
			// point tells more about whether the player is standing.
			if ray, ok := ctx.raycastGround(c, hit); ok && ctx.walkable(ray.Normal) {
				normal, valid = ray.Normal, true
			}
		}
		if valid {
			movement.SetGround(normal, hit.Distance)
			if movement.Vel().Y() <= 0 && movement.Mode() != player.ModeWalking {
				movement.SetMode(player.ModeWalking)
				ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "landed (n=%v d=%.4f)", normal, hit.Distance)
			}
			return
		}
	}

	if movement.Mode() != player.ModeFalling {
		ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "lost ground")
	}
	movement.SetGround(movement.GroundNormal(), math32.MaxFloat32)
	movement.SetMode(player.ModeFalling)
}

// raycastGround casts a ray straight down through the point a ground sweep hit, starting from
// the height the capsule was swept from.
func (ctx *movementContext) raycastGround(c physics.Capsule, hit physics.Hit) (physics.Hit, bool) {
	axis := c.Bottom()
	nudge := game.SafeNormalize(game.Horizontal(hit.Point.Sub(axis))).Mul(groundRayNudge)
	height := hit.Distance + ctx.conf.SkinWidth
	origin := hit.Point.Add(nudge).Add(mgl32.Vec3{0, height, 0})
	return ctx.engine.Raycast(origin, game.Up.Mul(-1), height+ctx.conf.FloatTolerance, ctx.conf.Mask)
}
