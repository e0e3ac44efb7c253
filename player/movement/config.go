package movement

import (
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/oerror"
	"github.com/oomph-ac/netmove/physics"
)

// Config holds the tunables of the movement simulation. Speeds are in units per second,
// accelerations in units per second squared and angles in degrees.
type Config struct {
	MaxSpeed           float32
	GroundAcceleration float32
	GroundDeceleration float32
	AirAcceleration    float32
	AirDeceleration    float32
	JumpSpeed          float32
	// Gravity is the vertical acceleration, negative to pull downward.
	Gravity float32

	// MaxStairHeight is the tallest obstacle a walking player climbs without jumping.
	MaxStairHeight float32
	// MinGroundNormal is the smallest vertical component of a surface normal that can be walked on.
	MinGroundNormal float32
	RotateSpeed     float32

	SkinWidth           float32
	FloatTolerance      float32
	GroundProbeDistance float32

	Mask physics.Mask
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		MaxSpeed:            game.DefaultMaxSpeed,
		GroundAcceleration:  game.DefaultGroundAcceleration,
		GroundDeceleration:  game.DefaultGroundDeceleration,
		AirAcceleration:     game.DefaultAirAcceleration,
		AirDeceleration:     game.DefaultAirDeceleration,
		JumpSpeed:           game.DefaultJumpSpeed,
		Gravity:             game.DefaultGravity,
		MaxStairHeight:      game.DefaultMaxStairHeight,
		MinGroundNormal:     game.DefaultMinGroundNormal,
		RotateSpeed:         game.DefaultRotateSpeed,
		SkinWidth:           game.SkinWidth,
		FloatTolerance:      game.FloatTolerance,
		GroundProbeDistance: game.DefaultGroundProbe,
		Mask:                physics.MaskAll,
	}
}

// Validate ...
func (c Config) Validate() error {
	switch {
	case c.MaxSpeed < 0:
		return oerror.New("max speed must not be negative")
	case c.GroundAcceleration < 0 || c.GroundDeceleration < 0 || c.AirAcceleration < 0 || c.AirDeceleration < 0:
		return oerror.New("accelerations must not be negative")
	case c.MinGroundNormal <= 0 || c.MinGroundNormal > 1:
		return oerror.New("min ground normal must be within (0, 1], got %v", c.MinGroundNormal)
	case c.SkinWidth <= 0:
		return oerror.New("skin width must be positive")
	case c.FloatTolerance < 0 || c.MaxStairHeight < 0 || c.GroundProbeDistance <= 0:
		return oerror.New("float tolerance, stair height and ground probe distance must not be negative")
	case c.RotateSpeed <= 0:
		return oerror.New("rotate speed must be positive")
	}
	return nil
}
