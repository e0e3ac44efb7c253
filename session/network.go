package session

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/oomph-ac/netmove/oerror"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/player/movement"
	"github.com/oomph-ac/netmove/protocol"
)

// Advance runs one client frame at time now: every message due on the inbound link is applied
// first, then the local player is moved by dt seconds and its new state is sent to the server.
func (s *Session) Advance(now float64, dt float32) {
	s.Receive(now)
	if pk := s.step(dt); pk != nil {
		s.SendLocalState(now, pk)
	}
}

// Receive drains the inbound link and applies every message due at now.
func (s *Session) Receive(now float64) {
	if s.recv == nil {
		return
	}
	for _, data := range s.recv.Drain(now) {
		msg, err := protocol.Decode(data)
		if err != nil {
			s.Log().WithError(err).Warn("dropped malformed datagram")
			continue
		}
		s.dispatch(msg)
	}
}

// SendLocalState sends the state of the local player to the server. Nothing is sent until the
// session is connected.
func (s *Session) SendLocalState(now float64, pk *protocol.MoveUpdate) {
	if !s.connected || s.send == nil {
		return
	}
	s.send.Send(now, protocol.Encode(pk))
}

func (s *Session) dispatch(msg protocol.Message) {
	switch pk := msg.(type) {
	case *protocol.ConnectAck:
		s.handleConnectAck(pk)
	case *protocol.PlayerSpawnInfo:
		s.spawnRemote(*pk)
	case *protocol.MoveUpdate:
		p, ok := s.remotes.Get(pk.PlayerID)
		if !ok {
			return
		}
		applied := p.ApplyMoveUpdate(pk)
		s.handler().HandleMoveUpdate(s, p, pk, applied)
	default:
		panic(oerror.New("unhandled message %T", msg))
	}
}

func (s *Session) handleConnectAck(pk *protocol.ConnectAck) {
	if s.connected {
		s.Log().Warnf("ignored second ConnectAck (id %d)", pk.AssignedID)
		return
	}
	s.local.SetID(pk.AssignedID)
	s.connected = true
	for _, info := range pk.RemotePlayers {
		s.spawnRemote(info)
	}
	s.Log().WithField("remotes", s.remotes.Len()).Info("connected")
	s.handler().HandleConnectAck(s, pk)
}

// spawnRemote creates the mirror of a remote player unless it already exists.
func (s *Session) spawnRemote(info protocol.PlayerSpawnInfo) {
	if _, ok := s.remotes.Get(info.PlayerID); ok || (s.connected && info.PlayerID == s.local.ID()) {
		return
	}
	p := player.NewRemote(s.log, info)
	s.remotes.Set(info.PlayerID, p)
	s.Log().WithField("remote", info.PlayerID).Debug("spawned remote player")
	s.handler().HandlePlayerSpawn(s, p)
}

// step simulates the local player. A panic in the simulation is reported and the frame's state
// is not sent.
func (s *Session) step(dt float32) (pk *protocol.MoveUpdate) {
	if s.engine == nil {
		return nil
	}
	defer func() {
		if err := recover(); err != nil {
			s.Log().Errorf("step() panic: %v", err)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("client", s.name)
				scope.SetTag("player", fmt.Sprint(s.local.ID()))
			})
			hub.Recover(oerror.New("%v", err))
			hub.Flush(time.Second * 5)
			pk = nil
		}
	}()
	return movement.Simulate(s.local, s.engine, s.movement, dt)
}
