package movement

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/game"
)

// integrateWalking updates the velocity of a player standing on the ground.
func (ctx *movementContext) integrateWalking() {
	movement := ctx.movement
	vel := movement.Vel()
	hv := ctx.accelerate(game.Horizontal(vel), ctx.conf.GroundAcceleration, ctx.conf.GroundDeceleration)

	ramp := rampVector(hv, movement.GroundNormal())
	if movement.GroundDistance() > ctx.conf.FloatTolerance {
		// Still walking, but hovering above the ground: fall on top of the slope velocity. Rising
		// faster than the slope does is not carried over.
		ramp[1] = min(ramp[1], vel[1]) + ctx.conf.Gravity*ctx.dt
	}
	movement.SetVel(ramp)
}

// integrateFalling updates the velocity of an airborne player.
func (ctx *movementContext) integrateFalling() {
	movement := ctx.movement
	vel := movement.Vel()
	hv := ctx.accelerate(game.Horizontal(vel), ctx.conf.AirAcceleration, ctx.conf.AirDeceleration)
	movement.SetVel(mgl32.Vec3{hv[0], vel[1] + ctx.conf.Gravity*ctx.dt, hv[2]})
}

// accelerate moves the horizontal velocity hv toward the velocity asked for by the input.
func (ctx *movementContext) accelerate(hv mgl32.Vec3, accel, decel float32) mgl32.Vec3 {
	wish := game.Horizontal(ctx.movement.Input().Direction())
	if wish.LenSqr() < 1e-8 {
		return game.MoveTowards(hv, mgl32.Vec3{}, decel*ctx.dt)
	}

	rate := accel
	if decel > accel && hv.Dot(wish) < 0 {
		// Turning around brakes harder than speeding up.
		rate = decel
	}
	return game.MoveTowards(hv, wish.Mul(ctx.conf.MaxSpeed), rate*ctx.dt)
}

// rampVector bends the horizontal velocity hv so that it runs along a surface with the given
// normal, keeping its speed.
func rampVector(hv, normal mgl32.Vec3) mgl32.Vec3 {
	speed := hv.Len()
	if speed == 0 || normal.Y() <= 0 || normal.Y() > 1 {
		return hv
	}
	ramp := mgl32.Vec3{hv[0], -normal.Dot(hv) / normal.Y(), hv[2]}
	return ramp.Normalize().Mul(speed)
}
