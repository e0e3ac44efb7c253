package room

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/player"
	"github.com/oomph-ac/netmove/settings"
)

// InputSource decides what a local player does at a given time.
type InputSource interface {
	Input(now float64) player.Input
}

// Script plays back segments of input. Where segments overlap, the last one listed wins; outside
// of every segment the player stands still.
type Script []settings.Segment

// Input ...
func (s Script) Input(now float64) player.Input {
	var in player.Input
	for _, seg := range s {
		if now < seg.Start || now >= seg.End {
			continue
		}
		in = player.Input{
			Move: mgl32.Vec2{float32(seg.MoveX), float32(seg.MoveY)},
			Jump: seg.Jump,
			Yaw:  float32(seg.Yaw),
		}
	}
	return in
}

// InputFunc adapts a function to an InputSource.
type InputFunc func(now float64) player.Input

// Input ...
func (f InputFunc) Input(now float64) player.Input {
	return f(now)
}
