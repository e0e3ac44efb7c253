package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/channel"
	"github.com/oomph-ac/netmove/game"
	"github.com/oomph-ac/netmove/physics"
	"github.com/oomph-ac/netmove/player/movement"
	"github.com/pelletier/go-toml"
)

// Settings contains everything a room is set up from.
type Settings struct {
	Room     Room     `toml:"room"`
	Movement Movement `toml:"movement"`
	Level    Level    `toml:"level"`
	Clients  []Client `toml:"clients"`
	Debug    Debug    `toml:"debug"`
}

// Room holds the settings of the host loop.
type Room struct {
	// TickRate is the number of frames simulated per second.
	TickRate int `toml:"tick_rate"`
	// Duration is the simulated time, in seconds, to run for.
	Duration float64 `toml:"duration"`
	// Seed makes a run reproducible. Zero picks a random seed.
	Seed uint64 `toml:"seed"`
	// Parallel steps clients concurrently.
	Parallel bool `toml:"parallel"`
}

// Movement holds the tunables of the movement simulation. See movement.Config.
type Movement struct {
	MaxSpeed            float64 `toml:"max_speed"`
	GroundAcceleration  float64 `toml:"ground_acceleration"`
	GroundDeceleration  float64 `toml:"ground_deceleration"`
	AirAcceleration     float64 `toml:"air_acceleration"`
	AirDeceleration     float64 `toml:"air_deceleration"`
	JumpSpeed           float64 `toml:"jump_speed"`
	Gravity             float64 `toml:"gravity"`
	MaxStairHeight      float64 `toml:"max_stair_height"`
	MinGroundNormal     float64 `toml:"min_ground_normal"`
	RotateSpeed         float64 `toml:"rotate_speed"`
	SkinWidth           float64 `toml:"skin_width"`
	FloatTolerance      float64 `toml:"float_tolerance"`
	GroundProbeDistance float64 `toml:"ground_probe_distance"`
}

// Level lists the static obstacles of the room.
type Level struct {
	Boxes []Box `toml:"boxes"`
}

// Box is an obstacle. Rotation holds Euler angles in degrees, applied in X, Y, Z order.
type Box struct {
	Name     string    `toml:"name"`
	Center   []float64 `toml:"center"`
	Size     []float64 `toml:"size"`
	Rotation []float64 `toml:"rotation"`
}

// Client describes a client joining the room.
type Client struct {
	Name string `toml:"name"`
	// JoinAt is the simulated time the client connects at.
	JoinAt   float64   `toml:"join_at"`
	Spawn    []float64 `toml:"spawn"`
	Yaw      float64   `toml:"yaw"`
	Uplink   Link      `toml:"uplink"`
	Downlink Link      `toml:"downlink"`
	Script   []Segment `toml:"script"`
}

// Link holds the conditions of one direction of a client's connection, in seconds.
type Link struct {
	Lag         float64 `toml:"lag"`
	LagVariance float64 `toml:"lag_variance"`
	Loss        float64 `toml:"loss"`
}

// Segment is a span of scripted input, active from Start until End.
type Segment struct {
	Start float64 `toml:"start"`
	End   float64 `toml:"end"`
	MoveX float64 `toml:"move_x"`
	MoveY float64 `toml:"move_y"`
	Yaw   float64 `toml:"yaw"`
	Jump  bool    `toml:"jump"`
}

// Debug holds the diagnostics settings.
type Debug struct {
	LogLevel string `toml:"log_level"`
	// Modes are the player debug modes turned on for every local player.
	Modes         []string `toml:"modes"`
	PcapFile      string   `toml:"pcap_file"`
	SentryDSN     string   `toml:"sentry_dsn"`
	StatsviewAddr string   `toml:"statsview_addr"`
}

// DefaultSettings returns settings for two clients walking across a small course: a floor, a low
// step, a wall and a ramp.
func DefaultSettings() Settings {
	s := Settings{}
	s.Room.TickRate = 60
	s.Room.Duration = 10
	s.Room.Seed = 1

	s.Movement = DefaultMovement()

	s.Level.Boxes = []Box{
		{Name: "floor", Center: []float64{0, -0.5, 0}, Size: []float64{100, 1, 100}},
		{Name: "step", Center: []float64{0, 0.1, 6}, Size: []float64{4, 0.2, 2}},
		{Name: "wall", Center: []float64{6, 1.5, 0}, Size: []float64{0.5, 3, 8}},
		{Name: "ramp", Center: []float64{-6, 0, 4}, Size: []float64{3, 0.5, 6}, Rotation: []float64{-15, 0, 0}},
	}

	s.Clients = []Client{
		{
			Name:     "A",
			Spawn:    []float64{0, 0.01, 0},
			Uplink:   Link{Lag: 0.05, LagVariance: 0.01, Loss: 0.01},
			Downlink: Link{Lag: 0.05, LagVariance: 0.01, Loss: 0.01},
			Script: []Segment{
				{Start: 0.5, End: 3, MoveY: 1},
				{Start: 3, End: 3.1, Jump: true},
				{Start: 4, End: 6, MoveX: 1},
			},
		},
		{
			Name:     "B",
			JoinAt:   0.5,
			Spawn:    []float64{2, 0.01, -2},
			Yaw:      90,
			Uplink:   Link{Lag: 0.15, LagVariance: 0.05, Loss: 0.05},
			Downlink: Link{Lag: 0.1, LagVariance: 0.03, Loss: 0.02},
			Script: []Segment{
				{Start: 1, End: 5, MoveY: 1, Yaw: 90},
				{Start: 5, End: 8, MoveX: -1, MoveY: 1},
			},
		},
	}

	s.Debug.LogLevel = "info"
	return s
}

// DefaultMovement returns the default movement tunables.
func DefaultMovement() Movement {
	c := movement.DefaultConfig()
	return Movement{
		MaxSpeed:            float64(c.MaxSpeed),
		GroundAcceleration:  float64(c.GroundAcceleration),
		GroundDeceleration:  float64(c.GroundDeceleration),
		AirAcceleration:     float64(c.AirAcceleration),
		AirDeceleration:     float64(c.AirDeceleration),
		JumpSpeed:           float64(c.JumpSpeed),
		Gravity:             float64(c.Gravity),
		MaxStairHeight:      float64(c.MaxStairHeight),
		MinGroundNormal:     float64(c.MinGroundNormal),
		RotateSpeed:         float64(c.RotateSpeed),
		SkinWidth:           float64(c.SkinWidth),
		FloatTolerance:      float64(c.FloatTolerance),
		GroundProbeDistance: float64(c.GroundProbeDistance),
	}
}

// Config converts the tunables to a movement.Config.
func (m Movement) Config() movement.Config {
	c := movement.DefaultConfig()
	c.MaxSpeed = float32(m.MaxSpeed)
	c.GroundAcceleration = float32(m.GroundAcceleration)
	c.GroundDeceleration = float32(m.GroundDeceleration)
	c.AirAcceleration = float32(m.AirAcceleration)
	c.AirDeceleration = float32(m.AirDeceleration)
	c.JumpSpeed = float32(m.JumpSpeed)
	c.Gravity = float32(m.Gravity)
	c.MaxStairHeight = float32(m.MaxStairHeight)
	c.MinGroundNormal = float32(m.MinGroundNormal)
	c.RotateSpeed = float32(m.RotateSpeed)
	c.SkinWidth = float32(m.SkinWidth)
	c.FloatTolerance = float32(m.FloatTolerance)
	c.GroundProbeDistance = float32(m.GroundProbeDistance)
	return c
}

// Config converts the link to a channel.Config.
func (l Link) Config() channel.Config {
	return channel.Config{Lag: l.Lag, LagVariance: l.LagVariance, Loss: l.Loss}
}

// Obstacle builds the obstacle described by the box.
func (b Box) Obstacle() (*physics.Obstacle, error) {
	center, err := vec3(b.Center, "center")
	if err != nil {
		return nil, fmt.Errorf("box %q: %w", b.Name, err)
	}
	size, err := vec3(b.Size, "size")
	if err != nil {
		return nil, fmt.Errorf("box %q: %w", b.Name, err)
	}
	if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
		return nil, fmt.Errorf("box %q: size must be positive, got %v", b.Name, size)
	}

	rot := mgl32.QuatIdent()
	if len(b.Rotation) != 0 {
		angles, err := vec3(b.Rotation, "rotation")
		if err != nil {
			return nil, fmt.Errorf("box %q: %w", b.Name, err)
		}
		rot = mgl32.AnglesToQuat(mgl32.DegToRad(angles.X()), mgl32.DegToRad(angles.Y()), mgl32.DegToRad(angles.Z()), mgl32.XYZ)
	}
	o := physics.NewOrientedBox(center, size.Mul(0.5), rot)
	o.Name = b.Name
	return o, nil
}

// SpawnPosition ...
func (c Client) SpawnPosition() (mgl32.Vec3, error) {
	if len(c.Spawn) == 0 {
		return mgl32.Vec3{}, nil
	}
	return vec3(c.Spawn, "spawn")
}

// SpawnRotation ...
func (c Client) SpawnRotation() mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(float32(c.Yaw)), game.Up)
}

// Validate checks the settings for values the room cannot run with.
func (s Settings) Validate() error {
	if s.Room.TickRate <= 0 {
		return errors.New("room tick rate must be positive")
	}
	if s.Room.Duration < 0 {
		return errors.New("room duration must not be negative")
	}
	if err := s.Movement.Config().Validate(); err != nil {
		return fmt.Errorf("movement: %w", err)
	}
	for _, b := range s.Level.Boxes {
		if _, err := b.Obstacle(); err != nil {
			return err
		}
	}
	for _, c := range s.Clients {
		if _, err := c.SpawnPosition(); err != nil {
			return fmt.Errorf("client %q: %w", c.Name, err)
		}
		if err := c.Uplink.Config().Validate(); err != nil {
			return fmt.Errorf("client %q uplink: %w", c.Name, err)
		}
		if err := c.Downlink.Config().Validate(); err != nil {
			return fmt.Errorf("client %q downlink: %w", c.Name, err)
		}
	}
	return nil
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("settings file already exists")
	}
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %w", err)
	}
	return nil
}

// Load will load the settings from your settings file, and return an error if the file does not exist.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, errors.New("settings file doesn't exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading config: %w", err)
	}

	var settings Settings
	if err = toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %w", err)
	}
	return settings, settings.Validate()
}

func vec3(v []float64, what string) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", what, len(v))
	}
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}, nil
}
