// Package protocol contains the messages exchanged between clients and the server, and their
// binary encoding.
package protocol

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

const (
	IDPlayerSpawnInfo uint8 = iota + 1
	IDConnectAck
	IDMoveUpdate
)

// Message is a value sent over a simulated channel.
type Message interface {
	// ID returns the discriminant written in front of the message on the wire.
	ID() uint8
	// Marshal encodes or decodes the message, depending on the IO passed.
	Marshal(io protocol.IO)
}

// PlayerSpawnInfo announces a player and the state it spawned with.
type PlayerSpawnInfo struct {
	PlayerID uint32
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Color    color.RGBA
}

// ID ...
func (*PlayerSpawnInfo) ID() uint8 {
	return IDPlayerSpawnInfo
}

// Marshal ...
func (pk *PlayerSpawnInfo) Marshal(io protocol.IO) {
	io.Varuint32(&pk.PlayerID)
	io.Vec3(&pk.Position)
	quat(io, &pk.Rotation)
	io.Uint8(&pk.Color.R)
	io.Uint8(&pk.Color.G)
	io.Uint8(&pk.Color.B)
	io.Uint8(&pk.Color.A)
}

// ConnectAck is sent by the server to a client that joined. It carries the id assigned to the
// client's player and every player that was already known.
type ConnectAck struct {
	AssignedID    uint32
	RemotePlayers []PlayerSpawnInfo
}

// ID ...
func (*ConnectAck) ID() uint8 {
	return IDConnectAck
}

// Marshal ...
func (pk *ConnectAck) Marshal(io protocol.IO) {
	io.Varuint32(&pk.AssignedID)
	protocol.Slice(io, &pk.RemotePlayers)
}

// MoveUpdate carries the latest transform of a player. Clients send it for their own player and
// the server forwards it to everyone else. Sequence grows by one for every frame the player
// simulated.
type MoveUpdate struct {
	Sequence uint32
	PlayerID uint32
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// ID ...
func (*MoveUpdate) ID() uint8 {
	return IDMoveUpdate
}

// Marshal ...
func (pk *MoveUpdate) Marshal(io protocol.IO) {
	io.Varuint32(&pk.Sequence)
	io.Varuint32(&pk.PlayerID)
	io.Vec3(&pk.Position)
	quat(io, &pk.Rotation)
}

func quat(io protocol.IO, q *mgl32.Quat) {
	io.Float32(&q.W)
	io.Vec3(&q.V)
}
