package protocol

import (
	"bytes"
	"fmt"

	"github.com/oomph-ac/netmove/internal"
	"github.com/oomph-ac/netmove/oerror"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// pool maps a message ID to a function returning a fresh message of that type.
var pool = map[uint8]func() Message{
	IDPlayerSpawnInfo: func() Message { return &PlayerSpawnInfo{} },
	IDConnectAck:      func() Message { return &ConnectAck{} },
	IDMoveUpdate:      func() Message { return &MoveUpdate{} },
}

// Encode writes msg to a new byte slice, prefixed with its ID.
func Encode(msg Message) []byte {
	buf := internal.BufferPool.Get().(*bytes.Buffer)
	defer internal.BufferPool.Put(buf)
	buf.Reset()

	buf.WriteByte(msg.ID())
	msg.Marshal(protocol.NewWriter(buf, 0))
	return bytes.Clone(buf.Bytes())
}

// Decode reads a message previously written by Encode.
func Decode(data []byte) (msg Message, err error) {
	if len(data) == 0 {
		return nil, oerror.New("empty message")
	}
	newMsg, ok := pool[data[0]]
	if !ok {
		return nil, oerror.New("unknown message id %d", data[0])
	}

	defer func() {
		// The reader panics on truncated or oversized input.
		if r := recover(); r != nil {
			msg, err = nil, fmt.Errorf("decode message %d: %v", data[0], r)
		}
	}()

	buf := bytes.NewBuffer(data[1:])
	msg = newMsg()
	msg.Marshal(protocol.NewReader(buf, 0, true))
	if buf.Len() != 0 {
		return nil, oerror.New("message %d has %d trailing bytes", data[0], buf.Len())
	}
	return msg, nil
}
