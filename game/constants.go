package game

const (
	DefaultMaxSpeed           = float32(5)
	DefaultGroundAcceleration = float32(40)
	DefaultGroundDeceleration = float32(60)
	DefaultAirAcceleration    = float32(10)
	DefaultAirDeceleration    = float32(5)
	DefaultJumpSpeed          = float32(5)
	DefaultGravity            = float32(-9.81)
	DefaultMaxStairHeight     = float32(0.3)
	DefaultMinGroundNormal    = float32(0.7)
	DefaultRotateSpeed        = float32(720)
	DefaultGroundProbe        = float32(0.3)

	// SkinWidth is the gap kept between a moving capsule and whatever it was swept against.
	SkinWidth = float32(0.01)
	// FloatTolerance is the clearance under which a capsule still counts as resting on the ground.
	FloatTolerance = float32(0.02)

	MaxResolveOverlapCount = 3
	MaxSafeMoveIterations  = 3
)
