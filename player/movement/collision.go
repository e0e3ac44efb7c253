package movement

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
)

// resolvePenetration pushes the player out of anything its capsule overlaps. Every pass sums the
// separation needed from each overlapping collider and checks again from the pushed position. The
// total push is applied even if overlaps remain after the last pass.
func (ctx *movementContext) resolvePenetration() {
	base := ctx.capsule()

	var offset mgl32.Vec3
	for pass := 0; pass < game.MaxResolveOverlapCount; pass++ {
		c := base.Translate(offset)
		overlaps := ctx.engine.OverlapCapsule(c, ctx.conf.Mask)
		if len(overlaps) == 0 {
			break
		}
		for _, other := range overlaps {
			dir, dist, ok := ctx.engine.ComputePenetration(c, other)
			if !ok {
				continue
			}
			offset = offset.Add(dir.Mul(dist + ctx.conf.SkinWidth))
		}
		ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "depenetration pass %d: %d overlaps, offset=%v", pass, len(overlaps), offset)
	}
	ctx.move(offset)
}

// safeMove moves the player by delta, sliding along whatever it runs into.
func (ctx *movementContext) safeMove(delta mgl32.Vec3) {
	remaining := delta.Len()
	if remaining < 1e-6 {
		return
	}
	dir := delta.Mul(1 / remaining)

	for i := 0; i < game.MaxSafeMoveIterations && remaining > 1e-6; i++ {
		hit, ok := ctx.sweep(ctx.capsule(), dir, remaining+ctx.conf.SkinWidth)
		if !ok {
			ctx.move(dir.Mul(remaining))
			return
		}

		advance := mgl32.Clamp(hit.Distance-ctx.conf.SkinWidth, 0, remaining)
		ctx.move(dir.Mul(advance))
		remaining -= advance

		walking := ctx.movement.Mode() == player.ModeWalking
		switch {
		case walking && !ctx.walkable(hit.Normal):
			if climbed, ok := ctx.tryStepUp(hit, dir, remaining); ok {
				remaining -= climbed
				continue
			}
			dir, remaining = ctx.slide(dir, remaining, hit.Normal)
		case walking:
			ramp := rampVector(game.Horizontal(dir), hit.Normal)
			if ramp.LenSqr() == 0 {
				return
			}
			dir = ramp.Normalize()
		default:
			dir, remaining = ctx.slide(dir, remaining, hit.Normal)
		}
		ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "safe move %d: hit n=%v d=%.4f, remaining=%.4f", i, hit.Normal, hit.Distance, remaining)
	}
}

// slide projects the move direction onto a blocking surface seen as a vertical wall, and scales
// what is left of the move by how much of it survives the projection.
func (ctx *movementContext) slide(dir mgl32.Vec3, remaining float32, normal mgl32.Vec3) (mgl32.Vec3, float32) {
	wall := game.SafeNormalize(game.Horizontal(normal))
	if wall.LenSqr() == 0 {
		// Floors and ceilings have no horizontal part to flatten to.
		wall = normal
	}
	ctx.contacts = append(ctx.contacts, wall)

	projected := game.ProjectOnPlane(dir, wall)
	length := projected.Len()
	if length < 1e-6 {
		return mgl32.Vec3{}, 0
	}
	return projected.Mul(1 / length), remaining * length
}

// tryStepUp attempts to climb the obstacle behind hit. It lifts the capsule by at most the stair
// height, moves it forward and then looks for walkable ground underneath. On success the player
// is placed on the step and the horizontal distance covered is returned.
func (ctx *movementContext) tryStepUp(hit physics.Hit, dir mgl32.Vec3, remaining float32) (float32, bool) {
	forward := game.SafeNormalize(game.Horizontal(dir))
	if forward.LenSqr() == 0 || remaining <= 0 || ctx.conf.MaxStairHeight <= 0 {
		return 0, false
	}
	start := ctx.capsule()
	feet := start.Bottom().Y() - start.Radius
	if hit.Point.Y()-feet > ctx.conf.MaxStairHeight {
		return 0, false
	}

	up := ctx.conf.MaxStairHeight
	if h, ok := ctx.sweep(start, game.Up, up+ctx.conf.SkinWidth); ok {
		up = h.Distance - ctx.conf.SkinWidth
	}
	if up <= ctx.conf.SkinWidth {
		return 0, false
	}
	lifted := start.Translate(game.Up.Mul(up))

	across := remaining
	if h, ok := ctx.sweep(lifted, forward, remaining+ctx.conf.SkinWidth); ok {
		across = h.Distance - ctx.conf.SkinWidth
	}
	if across <= 1e-4 {
		return 0, false
	}
	moved := lifted.Translate(forward.Mul(across))

	down, ok := ctx.sweep(moved, game.Up.Mul(-1), up+ctx.conf.FloatTolerance)
	if !ok {
		return 0, false
	}
	if !ctx.walkable(down.Normal) {
		ray, ok := ctx.raycastGround(moved, down)
		if !ok || !ctx.walkable(ray.Normal) {
			return 0, false
		}
	}

	drop := max(down.Distance-ctx.conf.SkinWidth, 0)
	ctx.move(game.Up.Mul(up - drop).Add(forward.Mul(across)))
	ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "stepped up %.4f", up-drop)
	return across, true
}

// clipVelocity removes the part of the velocity that pushes into surfaces slid along this frame.
func (ctx *movementContext) clipVelocity() {
	vel := ctx.movement.Vel()
	for _, n := range ctx.contacts {
		if into := vel.Dot(n); into < 0 {
			vel = vel.Sub(n.Mul(into))
		}
	}
	ctx.movement.SetVel(vel)
}
