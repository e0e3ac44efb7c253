package room

import (
	"fmt"
	"strings"

	"github.com/oomph-ac/netmove/omath"
)

// ClientReport summarises a client's run.
type ClientReport struct {
	Name     string
	ID       uint32
	Remotes  int
	Sequence uint32

	UplinkSent, UplinkDropped, UplinkDelivered       uint64
	DownlinkSent, DownlinkDropped, DownlinkDelivered uint64

	// Divergence statistics, in world units, over the kept window.
	MeanDivergence   float64
	StdDevDivergence float64
	P95Divergence    float64
	MaxDivergence    float64
}

// Report summarises every client that joined.
func (r *Room) Report() []ClientReport {
	var out []ClientReport
	for _, c := range r.clients {
		if !c.joined {
			continue
		}
		samples := c.Divergence()
		rep := ClientReport{
			Name:             c.Name(),
			ID:               c.Local().ID(),
			Remotes:          len(c.Remotes()),
			Sequence:         c.Local().Sequence(),
			MeanDivergence:   omath.Mean(samples),
			StdDevDivergence: omath.StandardDeviation(samples),
			P95Divergence:    omath.Percentile(samples, 95),
			MaxDivergence:    omath.Max(samples),
		}
		if conn := c.conn; conn != nil {
			up, down := conn.Uplink().Stats(), conn.Downlink().Stats()
			rep.UplinkSent, rep.UplinkDropped, rep.UplinkDelivered = up.Sent, up.Dropped, up.Delivered
			rep.DownlinkSent, rep.DownlinkDropped, rep.DownlinkDelivered = down.Sent, down.Dropped, down.Delivered
		}
		out = append(out, rep)
	}
	return out
}

// String ...
func (rep ClientReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (id %d): seq=%d remotes=%d\n", rep.Name, rep.ID, rep.Sequence, rep.Remotes)
	fmt.Fprintf(&b, "  up:   sent=%d dropped=%d delivered=%d\n", rep.UplinkSent, rep.UplinkDropped, rep.UplinkDelivered)
	fmt.Fprintf(&b, "  down: sent=%d dropped=%d delivered=%d\n", rep.DownlinkSent, rep.DownlinkDropped, rep.DownlinkDelivered)
	fmt.Fprintf(&b, "  divergence: mean=%.3f stddev=%.3f p95=%.3f max=%.3f",
		rep.MeanDivergence, rep.StdDevDivergence, rep.P95Divergence, rep.MaxDivergence)
	return b.String()
}
