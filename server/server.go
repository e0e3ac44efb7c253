package server

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/netmove/channel"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/protocol"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Config ...
type Config struct {
	Log *logrus.Logger
	// Seed makes the random draws of every link reproducible. Zero seeds randomly.
	Seed uint64
}

// pendingJoin is a connection waiting to be admitted at the end of the next Advance.
type pendingJoin struct {
	conn  *Conn
	spawn protocol.PlayerSpawnInfo
}

// Server keeps the last known state of every player and relays it to every other client. It
// trusts whatever transform a client reports for its own player.
type Server struct {
	log  *logrus.Logger
	seed uint64

	mu     deadlock.Mutex
	idSeed uint32

	players *orderedmap.OrderedMap[uint32, *player.Player]
	conns   *orderedmap.OrderedMap[uint32, *Conn]
	pending []pendingJoin
}

// New ...
func New(conf Config) *Server {
	if conf.Log == nil {
		conf.Log = logrus.StandardLogger()
	}
	return &Server{
		log:     conf.Log,
		seed:    conf.Seed,
		idSeed:  1,
		players: orderedmap.NewOrderedMap[uint32, *player.Player](),
		conns:   orderedmap.NewOrderedMap[uint32, *Conn](),
	}
}

// Connect opens a connection for a new player spawning with the given state. The player gets the
// next free id immediately, but is only admitted, and told its id, at the end of the next
// Advance. The id field of spawn is ignored.
func (s *Server) Connect(spawn protocol.PlayerSpawnInfo, uplink, downlink channel.Config) *Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idSeed
	s.idSeed++
	spawn.PlayerID = id

	conn := &Conn{
		id:       id,
		uplink:   channel.New[Datagram](uplink, s.channelOpts(fmt.Sprintf("uplink-%d", id))...),
		downlink: channel.New[Datagram](downlink, s.channelOpts(fmt.Sprintf("downlink-%d", id))...),
	}
	s.pending = append(s.pending, pendingJoin{conn: conn, spawn: spawn})
	s.log.WithField("id", id).Debug("connection queued")
	return conn
}

// Advance runs one server tick at time now. Every inbound link is drained first, then the state
// of every player is sent to every other connection, and finally connections opened since the
// last tick are admitted.
func (s *Server) Advance(now float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.conns.Keys() {
		conn, _ := s.conns.Get(id)
		for _, data := range conn.uplink.Drain(now) {
			s.handle(conn, data)
		}
	}
	s.broadcast(now)
	s.admit(now)
}

// handle applies a datagram received from conn.
func (s *Server) handle(conn *Conn, data Datagram) {
	msg, err := protocol.Decode(data)
	if err != nil {
		s.log.WithError(err).WithField("conn", conn.id).Warn("dropped malformed datagram")
		return
	}
	switch pk := msg.(type) {
	case *protocol.MoveUpdate:
		p, ok := s.players.Get(pk.PlayerID)
		if !ok {
			return
		}
		p.ApplyMoveUpdate(pk)
	default:
		s.log.WithField("conn", conn.id).Debugf("unexpected %T from client", msg)
	}
}

// broadcast sends the current state of every player to every connection except its own.
func (s *Server) broadcast(now float64) {
	states := lo.Map(s.players.Keys(), func(id uint32, _ int) *protocol.MoveUpdate {
		p, _ := s.players.Get(id)
		return p.State()
	})
	encoded := lo.Map(states, func(state *protocol.MoveUpdate, _ int) Datagram {
		return protocol.Encode(state)
	})
	conns := s.connList()

	for _, conn := range conns {
		for i, state := range states {
			if state.PlayerID == conn.id {
				continue
			}
			conn.downlink.Send(now, encoded[i])
		}
	}
}

// admit completes the joins queued since the last tick, in the order they connected.
func (s *Server) admit(now float64) {
	for _, join := range s.pending {
		ack := &protocol.ConnectAck{
			AssignedID:    join.conn.id,
			RemotePlayers: s.roster(),
		}
		join.conn.downlink.Send(now, protocol.Encode(ack))

		spawn := protocol.Encode(&join.spawn)
		for _, conn := range s.connList() {
			conn.downlink.Send(now, spawn)
		}

		s.players.Set(join.conn.id, player.NewRemote(s.log, join.spawn))
		s.conns.Set(join.conn.id, join.conn)
		s.log.WithFields(logrus.Fields{"id": join.conn.id, "players": s.players.Len()}).Info("player joined")
	}
	s.pending = s.pending[:0]
}

// roster returns the spawn info of every admitted player, in join order.
func (s *Server) roster() []protocol.PlayerSpawnInfo {
	return lo.Map(s.players.Keys(), func(id uint32, _ int) protocol.PlayerSpawnInfo {
		p, _ := s.players.Get(id)
		return p.SpawnInfo()
	})
}

func (s *Server) connList() []*Conn {
	return lo.Map(s.conns.Keys(), func(id uint32, _ int) *Conn {
		conn, _ := s.conns.Get(id)
		return conn
	})
}

func (s *Server) channelOpts(label string) []channel.Option {
	if s.seed == 0 {
		return nil
	}
	return []channel.Option{channel.WithSeed(label, s.seed)}
}

// Players returns the spawn info of every admitted player, carrying their latest known transform.
func (s *Server) Players() []protocol.PlayerSpawnInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster()
}

// State returns the latest known state of a player.
func (s *Server) State(id uint32) (*protocol.MoveUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players.Get(id)
	if !ok {
		return nil, false
	}
	return p.State(), true
}

// ConnCount returns the number of admitted connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns.Len()
}
