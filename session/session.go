package session

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/netmove/channel"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/player/movement"
	"github.com/oomph-ac/netmove/protocol"
	"github.com/oomph-ac/netmove/server"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Connector opens connections to a server.
type Connector interface {
	Connect(spawn protocol.PlayerSpawnInfo, uplink, downlink channel.Config) *server.Conn
}

// Config ...
type Config struct {
	Log  *logrus.Logger
	Name string

	// Engine is queried by the local player's movement.
	Engine   physics.Engine
	Movement movement.Config
}

// Session is the client side of a connection. It owns the local player and a mirror of every
// remote player the server told it about.
type Session struct {
	log  *logrus.Logger
	name string

	engine   physics.Engine
	movement movement.Config

	local   *player.Player
	remotes *orderedmap.OrderedMap[uint32, *player.Player]

	send *channel.Channel[server.Datagram]
	recv *channel.Channel[server.Datagram]

	connected bool

	hMutex deadlock.RWMutex
	h      Handler
}

// New creates a session around the local player.
func New(conf Config, local *player.Player) *Session {
	if conf.Log == nil {
		conf.Log = logrus.StandardLogger()
	}
	return &Session{
		log:      conf.Log,
		name:     conf.Name,
		engine:   conf.Engine,
		movement: conf.Movement,
		local:    local,
		remotes:  orderedmap.NewOrderedMap[uint32, *player.Player](),
		h:        NopHandler{},
	}
}

// Name ...
func (s *Session) Name() string {
	return s.name
}

// Log ...
func (s *Session) Log() *logrus.Entry {
	return s.log.WithFields(logrus.Fields{"client": s.name, "id": s.local.ID()})
}

// Join connects to srv with the given link conditions and returns the server side of the
// connection. The session is only connected once the server's ConnectAck arrives.
func (s *Session) Join(srv Connector, uplink, downlink channel.Config) *server.Conn {
	conn := srv.Connect(s.local.SpawnInfo(), uplink, downlink)
	s.Attach(conn.Uplink(), conn.Downlink())
	return conn
}

// Attach uses send and recv as the links to the server.
func (s *Session) Attach(send, recv *channel.Channel[server.Datagram]) {
	s.send, s.recv = send, recv
}

// Connected returns true once the session was assigned an id.
func (s *Session) Connected() bool {
	return s.connected
}

// Handle sets the handler notified of incoming messages. Passing nil resets it.
func (s *Session) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	s.hMutex.Lock()
	defer s.hMutex.Unlock()
	s.h = h
}

func (s *Session) handler() Handler {
	s.hMutex.RLock()
	defer s.hMutex.RUnlock()
	return s.h
}

// Local returns the player simulated by this session.
func (s *Session) Local() *player.Player {
	return s.local
}

// Remote returns the mirror of a remote player.
func (s *Session) Remote(id uint32) (*player.Player, bool) {
	return s.remotes.Get(id)
}

// Remotes returns every remote mirror, in the order they were created.
func (s *Session) Remotes() []*player.Player {
	out := make([]*player.Player, 0, s.remotes.Len())
	for _, id := range s.remotes.Keys() {
		p, _ := s.remotes.Get(id)
		out = append(out, p)
	}
	return out
}

// Players returns the local player followed by every remote mirror.
func (s *Session) Players() []*player.Player {
	return append([]*player.Player{s.local}, s.Remotes()...)
}

// LinkInfo describes the conditions of the session's links.
func (s *Session) LinkInfo() string {
	if s.send == nil {
		return "not connected"
	}
	return "up:\n" + s.send.Config().String() + "\ndown:\n" + s.recv.Config().String()
}
