package internal

import (
	"bytes"
	"sync"
)

// BufferPool holds scratch buffers for encoding messages.
var BufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 64))
	},
}
