package session

import (
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/protocol"
)

// Handler is notified of the messages a session received, after the session applied them.
type Handler interface {
	// HandleConnectAck is called when the server assigned the local player its id.
	HandleConnectAck(s *Session, pk *protocol.ConnectAck)
	// HandlePlayerSpawn is called for every remote mirror created.
	HandlePlayerSpawn(s *Session, p *player.Player)
	// HandleMoveUpdate is called for every update addressed to a known remote player. applied is
	// false if the update was stale.
	HandleMoveUpdate(s *Session, p *player.Player, pk *protocol.MoveUpdate, applied bool)
}

// NopHandler implements Handler without doing anything.
type NopHandler struct{}

func (NopHandler) HandleConnectAck(*Session, *protocol.ConnectAck)                       {}
func (NopHandler) HandlePlayerSpawn(*Session, *player.Player)                            {}
func (NopHandler) HandleMoveUpdate(*Session, *player.Player, *protocol.MoveUpdate, bool) {}
