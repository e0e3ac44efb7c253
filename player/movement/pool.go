package movement

import (
	"sync"

	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
)

var ctxPool = sync.Pool{
	New: func() any {
		return &movementContext{}
	},
}

func newCtx(p *player.Player, engine physics.Engine, conf Config, dt float32) *movementContext {
	ctx := ctxPool.Get().(*movementContext)
	ctx.mPlayer = p
	ctx.movement = p.Movement()
	ctx.engine = engine
	ctx.conf = conf
	ctx.dt = dt
	return ctx
}

func putCtx(ctx *movementContext) {
	ctx.reset()
	ctxPool.Put(ctx)
}

func (ctx *movementContext) reset() {
	ctx.mPlayer = nil
	ctx.movement = nil
	ctx.engine = nil
	ctx.conf = Config{}
	ctx.dt = 0
	ctx.contacts = ctx.contacts[:0]
}
