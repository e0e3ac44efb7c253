package room

import (
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/server"
	"github.com/oomph-ac/netmove/session"
	"github.com/oomph-ac/netmove/settings"
	"github.com/oomph-ac/netmove/utils"
)

// divergenceWindow is the number of frames of divergence kept per client.
const divergenceWindow = 600

// Client is a session taking part in a room, together with what drives its player.
type Client struct {
	*session.Session

	conf   settings.Client
	input  InputSource
	conn   *server.Conn
	joined bool

	// divergence holds, per frame, the mean distance between this client's mirrors and where
	// their owners actually are.
	divergence *utils.CircularQueue[float64]
}

// Joined returns true once the client connected to the server.
func (c *Client) Joined() bool {
	return c.joined
}

// Conn returns the server side of the client's connection, or nil before it joined.
func (c *Client) Conn() *server.Conn {
	return c.conn
}

// SetInput replaces what drives the client's player.
func (c *Client) SetInput(src InputSource) {
	c.input = src
}

// Divergence returns the divergence samples kept for the client, oldest first.
func (c *Client) Divergence() []float64 {
	return c.divergence.Slice()
}

func (c *Client) applyInput(now float64) {
	if c.input == nil {
		return
	}
	c.Local().Movement().SetInput(c.input.Input(now))
}

// sampleDivergence records how far this client's mirrors are from their owners' local players.
func (c *Client) sampleDivergence(owners map[uint32]*player.Player) {
	var (
		total float64
		count int
	)
	for _, mirror := range c.Remotes() {
		owner, ok := owners[mirror.ID()]
		if !ok {
			continue
		}
		total += float64(mirror.Position().Sub(owner.Position()).Len())
		count++
	}
	if count == 0 {
		return
	}
	_ = c.divergence.Append(total / float64(count))
}
