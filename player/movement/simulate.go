package movement

import (
	"github.com/oomph-ac/netmove/assert"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/protocol"
)

// Simulate advances the local player p by dt seconds using the input set on its movement, and
// returns the state to send to the server. A frame always completes: queries that find nothing
// mean nothing is in the way.
func Simulate(p *player.Player, engine physics.Engine, conf Config, dt float32) *protocol.MoveUpdate {
	assert.IsTrue(p.Local(), "movement simulated for remote player %d", p.ID())
	movement := p.Movement()

	p.Dbg.Notify(player.DebugModeMovementSim, true, "BEGIN movement sim for seq %d", p.Sequence()+1)
	defer p.Dbg.Notify(player.DebugModeMovementSim, true, "END movement sim for seq %d", p.Sequence())

	ctx := newCtx(p, engine, conf, dt)
	defer putCtx(ctx)

	if movement.Shape().Refresh() {
		p.Dbg.Notify(player.DebugModeMovementSim, true, "capsule rebuilt: r=%.3f h=%.3f", movement.Shape().Radius(), movement.Shape().Height())
	}
	ctx.resolvePenetration()
	ctx.tryJump()

	switch movement.Mode() {
	case player.ModeWalking:
		ctx.integrateWalking()
	default:
		ctx.integrateFalling()
	}
	p.Dbg.Notify(player.DebugModeMovementSim, true, "mode=%v vel=%v", movement.Mode(), movement.Vel())

	ctx.safeMove(movement.Vel().Mul(dt))
	ctx.clipVelocity()
	ctx.updateGround()
	ctx.rotate()

	p.Dbg.Notify(player.DebugModeMovementSim, true, "pos=%v mode=%v ground=%v", p.Position(), movement.Mode(), movement.GroundNormal())
	return p.NextMoveUpdate()
}

// tryJump launches a walking player upward if a jump was requested. The request is used up
// whether or not the player could jump.
func (ctx *movementContext) tryJump() {
	movement := ctx.movement
	jump := movement.Input().Jump
	movement.ClearJump()
	if !jump || movement.Mode() != player.ModeWalking {
		return
	}
	vel := movement.Vel()
	vel[1] = max(vel[1]+ctx.conf.JumpSpeed, ctx.conf.JumpSpeed)
	movement.SetVel(vel)
	movement.SetMode(player.ModeFalling)
	ctx.mPlayer.Dbg.Notify(player.DebugModeMovementSim, true, "jump (vy=%.4f)", vel[1])
}

// rotate turns the player toward its move direction, never faster than the configured speed.
func (ctx *movementContext) rotate() {
	input := ctx.movement.Input()
	if input.Move.LenSqr() == 0 {
		return
	}
	dir := input.Direction()
	if dir.LenSqr() == 0 {
		return
	}
	target := game.LookRotation(dir, game.Up)
	ctx.mPlayer.SetRotation(game.RotateTowards(ctx.mPlayer.Rotation(), target, ctx.conf.RotateSpeed*ctx.dt))
}
