package room

import (
	"context"
	"math/rand/v2"

	"github.com/oomph-ac/netmove/capture"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/player/movement"
	"github.com/oomph-ac/netmove/server"
	"github.com/oomph-ac/netmove/session"
	"github.com/oomph-ac/netmove/settings"
	"github.com/oomph-ac/netmove/utils"
	"github.com/oomph-ac/netmove/worker"
	"github.com/sirupsen/logrus"
)

// Option configures a Room.
type Option func(*Room)

// WithTrace records every delivered datagram to tr.
func WithTrace(tr *capture.Trace) Option {
	return func(r *Room) {
		r.trace = tr
	}
}

// WithEngine replaces the world built from the level settings.
func WithEngine(e physics.Engine) Option {
	return func(r *Room) {
		r.engine = e
	}
}

// Room hosts a server and its clients in one process and advances them on a shared clock.
type Room struct {
	log  *logrus.Logger
	conf settings.Settings

	engine   physics.Engine
	movement movement.Config
	server   *server.Server
	clients  []*Client
	trace    *capture.Trace
	rng      *rand.Rand

	now   float64
	frame uint64
}

// New sets up a room from the settings. Clients listed in the settings are created right away and
// connect once their join time is reached.
func New(log *logrus.Logger, conf settings.Settings, opts ...Option) (*Room, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	seed := conf.Room.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	r := &Room{
		log:      log,
		conf:     conf,
		movement: conf.Movement.Config(),
		server:   server.New(server.Config{Log: log, Seed: seed}),
		rng:      rand.New(rand.NewPCG(seed, ^seed)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		world := physics.NewWorld()
		for _, b := range conf.Level.Boxes {
			o, err := b.Obstacle()
			if err != nil {
				return nil, err
			}
			world.Add(o)
		}
		r.engine = world
	}

	for _, c := range conf.Clients {
		if _, err := r.AddClient(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// AddClient creates a client that connects to the server once the clock reaches its join time.
func (r *Room) AddClient(conf settings.Client) (*Client, error) {
	pos, err := conf.SpawnPosition()
	if err != nil {
		return nil, err
	}
	local := player.NewLocal(r.log, pos, conf.SpawnRotation(), game.HSVToRGBA(r.rng.Float32(), 1, 1), player.DefaultCollider())
	for _, name := range r.conf.Debug.Modes {
		if mode, ok := player.ParseDebugMode(name); ok {
			local.Dbg.Toggle(mode)
		} else {
			r.log.Warnf("unknown debug mode %q", name)
		}
	}

	c := &Client{
		Session: session.New(session.Config{
			Log:      r.log,
			Name:     conf.Name,
			Engine:   r.engine,
			Movement: r.movement,
		}, local),
		conf:       conf,
		divergence: utils.NewCircularQueue[float64](divergenceWindow),
	}
	if len(conf.Script) > 0 {
		c.input = Script(conf.Script)
	}
	r.clients = append(r.clients, c)
	return c, nil
}

// Server ...
func (r *Room) Server() *server.Server {
	return r.server
}

// Clients ...
func (r *Room) Clients() []*Client {
	return r.clients
}

// Engine returns the physics engine players move in.
func (r *Room) Engine() physics.Engine {
	return r.engine
}

// Now returns the current simulated time.
func (r *Room) Now() float64 {
	return r.now
}

// Tick advances the room by one frame at the configured tick rate.
func (r *Room) Tick() {
	dt := 1 / float64(r.conf.Room.TickRate)
	r.Advance(r.now+dt, float32(dt))
}

// Advance runs one frame at time now. Clients due to join connect first; then the server runs,
// and only once it is done does every client drain its inbound link and move its player.
func (r *Room) Advance(now float64, dt float32) {
	r.now = now
	r.frame++

	for _, c := range r.clients {
		if !c.joined && now >= c.conf.JoinAt {
			r.join(c)
		}
	}

	r.server.Advance(now)

	if r.conf.Room.Parallel {
		steps := make([]func(), len(r.clients))
		for i, c := range r.clients {
			steps[i] = func() { r.stepClient(c, now, dt) }
		}
		worker.Run(steps...)
	} else {
		for _, c := range r.clients {
			r.stepClient(c, now, dt)
		}
	}

	r.sampleDivergence()
}

// Run ticks the room until its configured duration has elapsed or ctx is done.
func (r *Room) Run(ctx context.Context) error {
	for r.now < r.conf.Room.Duration {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Tick()
	}
	return nil
}

func (r *Room) stepClient(c *Client, now float64, dt float32) {
	c.applyInput(now)
	c.Advance(now, dt)
}

func (r *Room) join(c *Client) {
	up, down := c.conf.Uplink.Config(), c.conf.Downlink.Config()
	conn := c.Join(r.server, up, down)
	c.conn, c.joined = conn, true

	if r.trace != nil {
		id := conn.ID()
		conn.Uplink().OnDeliver(func(now float64, data server.Datagram) {
			r.trace.Record(now, id, capture.ServerID, data)
		})
		conn.Downlink().OnDeliver(func(now float64, data server.Datagram) {
			r.trace.Record(now, capture.ServerID, id, data)
		})
	}
	r.log.WithFields(logrus.Fields{"client": c.Name(), "id": conn.ID()}).Infof("joining\n%s", c.LinkInfo())
}

func (r *Room) sampleDivergence() {
	owners := make(map[uint32]*player.Player, len(r.clients))
	for _, c := range r.clients {
		if c.Connected() {
			owners[c.Local().ID()] = c.Local()
		}
	}
	for _, c := range r.clients {
		c.sampleDivergence(owners)
	}
}
