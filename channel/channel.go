package channel

import (
	"math"
	"math/rand/v2"

	"github.com/oomph-ac/netmove/assert"
	"github.com/sasha-s/go-deadlock"
	"github.com/zeebo/xxh3"
)

// envelope is a message in flight together with the time it becomes deliverable.
type envelope[T any] struct {
	arrival float64
	payload T
}

// Stats counts what happened to the messages sent on a channel.
type Stats struct {
	Sent      uint64
	Dropped   uint64
	Delivered uint64
	InFlight  uint64
}

// Option configures a Channel on creation.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithSeed makes the channel's random draws reproducible. The label is hashed into the seed so
// that channels created from the same seed still behave differently from one another.
func WithSeed(label string, seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, xxh3.HashString(label)))
	}
}

// WithRand uses r for every random draw of the channel.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// Channel simulates one direction of an unreliable link. Messages may be dropped when sent, are
// delayed by a jittered lag and are delivered in the order they arrive, not the order they were
// sent in. A Channel is safe for concurrent use.
type Channel[T any] struct {
	mu deadlock.Mutex

	conf     Config
	rng      *rand.Rand
	inFlight []envelope[T]
	stats    Stats
	tap      func(now float64, payload T)
}

// New creates a Channel with the given link conditions. It panics if conf is invalid.
func New[T any](conf Config, opts ...Option) *Channel[T] {
	err := conf.Validate()
	assert.IsTrue(err == nil, "invalid channel config: %v", err)

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Channel[T]{conf: conf, rng: o.rng}
}

// OnDeliver sets a function called with every message Fetch hands out.
func (c *Channel[T]) OnDeliver(f func(now float64, payload T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tap = f
}

// Config returns the current link conditions.
func (c *Channel[T]) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conf
}

// SetConfig changes the link conditions. Messages already in flight keep their arrival time.
func (c *Channel[T]) SetConfig(conf Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conf = conf
	return nil
}

// Send puts payload on the link at time now. The message is silently dropped with the configured
// loss probability.
func (c *Channel[T]) Send(now float64, payload T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Sent++
	if c.rng.Float64() < c.conf.Loss {
		c.stats.Dropped++
		return
	}
	jitter := (c.rng.Float64()*2 - 1) * c.conf.LagVariance
	c.inFlight = append(c.inFlight, envelope[T]{
		arrival: now + math.Max(0, c.conf.Lag+jitter),
		payload: payload,
	})
}

// Fetch removes and returns the message with the earliest arrival time that is due at now. It
// never blocks and returns false if no message is due.
func (c *Channel[T]) Fetch(now float64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetch(now)
}

// Drain fetches every message due at now, earliest arrival first.
func (c *Channel[T]) Drain(now float64) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []T
	for {
		payload, ok := c.fetch(now)
		if !ok {
			return out
		}
		out = append(out, payload)
	}
}

// Stats returns a snapshot of the channel's counters.
func (c *Channel[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.InFlight = uint64(len(c.inFlight))
	return s
}

func (c *Channel[T]) fetch(now float64) (T, bool) {
	index := -1
	for i, env := range c.inFlight {
		if env.arrival > now {
			continue
		}
		if index == -1 || env.arrival < c.inFlight[index].arrival {
			index = i
		}
	}
	if index == -1 {
		var zero T
		return zero, false
	}

	env := c.inFlight[index]
	last := len(c.inFlight) - 1
	c.inFlight[index] = c.inFlight[last]
	c.inFlight[last] = envelope[T]{}
	c.inFlight = c.inFlight[:last]

	c.stats.Delivered++
	if c.tap != nil {
		c.tap(now, env.payload)
	}
	return env.payload, true
}
