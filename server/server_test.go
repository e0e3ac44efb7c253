package server

import (
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/channel"
	"github.com/oomph-ac/netmove/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(Config{Log: log, Seed: 1})
}

func spawnAt(x float32) protocol.PlayerSpawnInfo {
	return protocol.PlayerSpawnInfo{Position: mgl32.Vec3{x, 0, 0}, Rotation: mgl32.QuatIdent()}
}

// receive decodes everything due on the downlink of conn.
func receive(t *testing.T, conn *Conn, now float64) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for _, data := range conn.Downlink().Drain(now) {
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func TestJoin(t *testing.T) {
	s := newServer()

	a := s.Connect(spawnAt(1), channel.Config{}, channel.Config{})
	assert.Equal(t, uint32(1), a.ID())
	assert.Zero(t, s.ConnCount(), "joins are admitted on the next tick")

	s.Advance(1)
	msgs := receive(t, a, 1)
	require.Len(t, msgs, 1)
	ack := msgs[0].(*protocol.ConnectAck)
	assert.Equal(t, uint32(1), ack.AssignedID)
	assert.Empty(t, ack.RemotePlayers)

	b := s.Connect(spawnAt(2), channel.Config{}, channel.Config{})
	s.Advance(2)

	msgs = receive(t, b, 2)
	require.Len(t, msgs, 1)
	ack = msgs[0].(*protocol.ConnectAck)
	assert.Equal(t, uint32(2), ack.AssignedID)
	require.Len(t, ack.RemotePlayers, 1)
	assert.Equal(t, uint32(1), ack.RemotePlayers[0].PlayerID)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, ack.RemotePlayers[0].Position)

	// A alone was connected when the tick broadcast, so it only learns about B.
	msgs = receive(t, a, 2)
	require.Len(t, msgs, 1)
	spawn := msgs[0].(*protocol.PlayerSpawnInfo)
	assert.Equal(t, uint32(2), spawn.PlayerID)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, spawn.Position)

	assert.Equal(t, 2, s.ConnCount())
	assert.Len(t, s.Players(), 2)
}

func TestIDsAreSequential(t *testing.T) {
	s := newServer()
	for want := uint32(1); want <= 5; want++ {
		assert.Equal(t, want, s.Connect(spawnAt(0), channel.Config{}, channel.Config{}).ID())
	}
	s.Advance(0)
	assert.Equal(t, 5, s.ConnCount())
}

func TestBroadcastSkipsOwnPlayer(t *testing.T) {
	s := newServer()
	a := s.Connect(spawnAt(0), channel.Config{}, channel.Config{})
	b := s.Connect(spawnAt(0), channel.Config{}, channel.Config{})
	s.Advance(1)
	receive(t, a, 1)
	receive(t, b, 1)

	a.Uplink().Send(1.5, protocol.Encode(&protocol.MoveUpdate{Sequence: 1, PlayerID: 1, Position: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent()}))
	s.Advance(2)

	msgs := receive(t, b, 2)
	require.Len(t, msgs, 1)
	update := msgs[0].(*protocol.MoveUpdate)
	assert.Equal(t, uint32(1), update.PlayerID)
	assert.Equal(t, uint32(1), update.Sequence)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, update.Position)

	msgs = receive(t, a, 2)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint32(2), msgs[0].(*protocol.MoveUpdate).PlayerID)
}

func TestStaleUpdatesAreIgnored(t *testing.T) {
	s := newServer()
	a := s.Connect(spawnAt(0), channel.Config{}, channel.Config{})
	s.Advance(0)

	for i, seq := range []uint32{5, 3, 7, 7, 6} {
		a.Uplink().Send(0.1*float64(i+1), protocol.Encode(&protocol.MoveUpdate{
			Sequence: seq,
			PlayerID: 1,
			Position: mgl32.Vec3{float32(i), 0, 0},
			Rotation: mgl32.QuatIdent(),
		}))
	}
	s.Advance(1)

	state, ok := s.State(1)
	require.True(t, ok)
	assert.Equal(t, uint32(7), state.Sequence)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, state.Position)
}

func TestUnknownPlayerAndGarbageAreDropped(t *testing.T) {
	s := newServer()
	a := s.Connect(spawnAt(0), channel.Config{}, channel.Config{})
	s.Advance(0)

	a.Uplink().Send(0.5, protocol.Encode(&protocol.MoveUpdate{Sequence: 1, PlayerID: 42}))
	a.Uplink().Send(0.5, []byte{0xff, 0x00})
	a.Uplink().Send(0.5, nil)
	a.Uplink().Send(0.5, protocol.Encode(&protocol.ConnectAck{AssignedID: 9}))
	assert.NotPanics(t, func() { s.Advance(1) })

	_, ok := s.State(42)
	assert.False(t, ok)
	state, ok := s.State(1)
	require.True(t, ok)
	assert.Zero(t, state.Sequence)
}

func TestLossyDownlink(t *testing.T) {
	s := newServer()
	a := s.Connect(spawnAt(0), channel.Config{}, channel.Config{Loss: 1})
	s.Advance(0)

	assert.Empty(t, receive(t, a, 10))
	assert.Equal(t, uint64(1), a.Downlink().Stats().Dropped)
	assert.Equal(t, 1, s.ConnCount(), "the server admits the player even if the ack is lost")
}
