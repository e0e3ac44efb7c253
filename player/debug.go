package player

import "github.com/sirupsen/logrus"

const (
	DebugModeMovementSim = iota
	DebugModeNetwork
	debugModeCount
)

var debugModeNames = [debugModeCount]string{
	DebugModeMovementSim: "movement",
	DebugModeNetwork:     "network",
}

// Debugger writes per-player debug output for the modes that were switched on.
type Debugger struct {
	p     *Player
	modes [debugModeCount]bool
}

func newDebugger(p *Player) *Debugger {
	return &Debugger{p: p}
}

// Toggle switches a debug mode on or off.
func (d *Debugger) Toggle(mode int) {
	d.modes[mode] = !d.modes[mode]
}

// Enabled ...
func (d *Debugger) Enabled(mode int) bool {
	return mode >= 0 && mode < debugModeCount && d.modes[mode]
}

// Notify logs the message at debug level if the mode is enabled and cond holds.
func (d *Debugger) Notify(mode int, cond bool, format string, args ...any) {
	if !cond || !d.Enabled(mode) || d.p.log == nil || !d.p.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	d.p.log.WithFields(logrus.Fields{
		"player": d.p.id,
		"mode":   debugModeNames[mode],
	}).Debugf(format, args...)
}

// ParseDebugMode returns the debug mode with the given name.
func ParseDebugMode(name string) (int, bool) {
	for mode, n := range debugModeNames {
		if n == name {
			return mode, true
		}
	}
	return 0, false
}
