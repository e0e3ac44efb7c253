package channel

import (
	"fmt"
	"math"

	"github.com/oomph-ac/netmove/oerror"
)

// Config describes the conditions of one direction of a simulated link.
type Config struct {
	// Lag is the base one way delay in seconds.
	Lag float64
	// LagVariance is the largest deviation from Lag in seconds. The actual deviation of each
	// message is drawn uniformly from [-LagVariance, LagVariance].
	LagVariance float64
	// Loss is the probability, between 0 and 1, that a message is dropped when it is sent.
	Loss float64
}

// Validate returns an error if any of the values are out of range.
func (c Config) Validate() error {
	switch {
	case c.Lag < 0 || math.IsNaN(c.Lag):
		return oerror.New("channel lag must be >= 0, got %v", c.Lag)
	case c.LagVariance < 0 || math.IsNaN(c.LagVariance):
		return oerror.New("channel lag variance must be >= 0, got %v", c.LagVariance)
	case c.Loss < 0 || c.Loss > 1 || math.IsNaN(c.Loss):
		return oerror.New("channel loss must be within [0, 1], got %v", c.Loss)
	}
	return nil
}

// MinDelay returns the shortest delay a delivered message can have.
func (c Config) MinDelay() float64 {
	return math.Max(0, c.Lag-c.LagVariance)
}

// MaxDelay returns the longest delay a delivered message can have.
func (c Config) MaxDelay() float64 {
	return c.Lag + c.LagVariance
}

// String formats the config the way it is shown next to a client.
func (c Config) String() string {
	return fmt.Sprintf("Lag: %dms\nLagVariance: %dms\nLoss: %.1f%%",
		int(math.Round(c.Lag*1000)), int(math.Round(c.LagVariance*1000)), c.Loss*100)
}
