//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: github.com/bassosimone/uis pcap.go, which was adapted from
// https://github.com/ooni/netem/blob/6e0d618f0cb48b96c78cd066e23cf3aa1208b1dd/pcap.go
//

// Package capture writes the datagrams exchanged over simulated links to a pcap file, so that a
// session can be inspected with the usual packet tools.
package capture

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const (
	// Port is the UDP port every endpoint uses in the capture.
	Port = 19132
	// ServerID is the endpoint id of the server.
	ServerID = 0

	defaultBuffer  = 4096
	defaultSnapLen = 65535
)

// Epoch is the wall clock time simulated time zero is written as.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Addr returns the address an endpoint is shown with. The server is 10.0.0.1 and players are
// numbered from 10.1.0.1 up by their id.
func Addr(id uint32) net.IP {
	if id == ServerID {
		return net.IPv4(10, 0, 0, 1).To4()
	}
	return net.IPv4(10, byte(1+id>>16), byte(id>>8), byte(id)).To4()
}

// snapshot is a packet waiting to be written.
type snapshot struct {
	at     time.Time
	data   []byte
	length int
}

// Option configures a Trace.
type Option func(*Trace)

// WithBuffer sets how many packets may wait to be written before new ones are dropped.
func WithBuffer(n int) Option {
	return func(tr *Trace) {
		tr.snaps = make(chan snapshot, n)
	}
}

// WithSnapLen sets how many bytes of every packet are written.
func WithSnapLen(n uint16) Option {
	return func(tr *Trace) {
		tr.snapLen = n
	}
}

// Trace is an open pcap trace. Packets are written by a background goroutine, so recording never
// blocks the simulation.
type Trace struct {
	cancel  context.CancelFunc
	dropped atomic.Uint64
	errch   chan error
	snaps   chan snapshot
	once    sync.Once
	snapLen uint16
	wc      io.WriteCloser
}

// NewTrace starts a trace written to wc.
func NewTrace(wc io.WriteCloser, opts ...Option) *Trace {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &Trace{
		cancel:  cancel,
		errch:   make(chan error, 1),
		snaps:   make(chan snapshot, defaultBuffer),
		snapLen: defaultSnapLen,
		wc:      wc,
	}
	for _, opt := range opts {
		opt(tr)
	}
	go tr.saveLoop(ctx)
	return tr
}

// Record adds a datagram sent from one endpoint to another, delivered at simulated time now.
func (tr *Trace) Record(now float64, from, to uint32, payload []byte) {
	packet, err := encapsulate(from, to, payload)
	if err != nil {
		tr.dropped.Add(1)
		return
	}
	tr.Dump(SimTime(now), packet)
}

// Dump adds a raw IPv4 packet captured at the given time.
func (tr *Trace) Dump(at time.Time, packet []byte) {
	snapLen := min(len(packet), int(tr.snapLen))
	data := make([]byte, snapLen)
	copy(data, packet)
	select {
	case tr.snaps <- snapshot{at: at, data: data, length: len(packet)}:
	default:
		tr.dropped.Add(1)
	}
}

// Dropped returns the number of packets that were not written because the buffer was full or
// they could not be encoded.
func (tr *Trace) Dropped() uint64 {
	return tr.dropped.Load()
}

// Close stops the background goroutine once every buffered packet is written, then closes the
// underlying writer.
func (tr *Trace) Close() (err error) {
	tr.once.Do(func() {
		tr.cancel()
		err1 := <-tr.errch
		err2 := tr.wc.Close()
		err = errors.Join(err1, err2)
	})
	return
}

func (tr *Trace) saveLoop(ctx context.Context) {
	w := pcapgo.NewWriter(tr.wc)
	if err := w.WriteFileHeader(uint32(tr.snapLen), layers.LinkTypeRaw); err != nil {
		tr.errch <- err
		return
	}

	for {
		select {
		case <-ctx.Done():
			// Drain what is left before returning.
			for {
				select {
				case snap := <-tr.snaps:
					if err := tr.save(w, snap); err != nil {
						tr.errch <- err
						return
					}
				default:
					tr.errch <- nil
					return
				}
			}
		case snap := <-tr.snaps:
			if err := tr.save(w, snap); err != nil {
				tr.errch <- err
				return
			}
		}
	}
}

func (tr *Trace) save(w *pcapgo.Writer, snap snapshot) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     snap.at,
		CaptureLength: len(snap.data),
		Length:        snap.length,
	}
	return w.WritePacket(ci, snap.data)
}

// SimTime converts simulated seconds to the wall clock time written in the trace.
func SimTime(now float64) time.Time {
	sec, frac := math.Modf(now)
	return Epoch.Add(time.Duration(sec)*time.Second + time.Duration(frac*float64(time.Second)))
}

// encapsulate wraps payload in IPv4 and UDP headers addressed between two endpoints.
func encapsulate(from, to uint32, payload []byte) ([]byte, error) {
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    Addr(from),
		DstIP:    Addr(to),
	}
	udp := &layers.UDP{
		SrcPort: Port,
		DstPort: Port,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
