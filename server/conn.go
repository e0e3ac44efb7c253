package server

import "github.com/oomph-ac/netmove/channel"

// Datagram is an encoded message on a simulated link.
type Datagram = []byte

// Conn is the server side of a client's connection: a pair of simulated links, one in each
// direction.
type Conn struct {
	id uint32

	uplink   *channel.Channel[Datagram]
	downlink *channel.Channel[Datagram]
}

// ID returns the id of the player the connection belongs to.
func (c *Conn) ID() uint32 {
	return c.id
}

// Uplink returns the link carrying messages from the client to the server.
func (c *Conn) Uplink() *channel.Channel[Datagram] {
	return c.uplink
}

// Downlink returns the link carrying messages from the server to the client.
func (c *Conn) Downlink() *channel.Channel[Datagram] {
	return c.downlink
}
