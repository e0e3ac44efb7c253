package physics

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// LayerDefault is the layer obstacles are placed on unless told otherwise.
const LayerDefault Mask = 1

// Obstacle is a static box with an arbitrary orientation.
type Obstacle struct {
	// Name is only used for logging.
	Name string

	box      cube.BBox
	position mgl32.Vec3
	rotation mgl32.Quat
	inverse  mgl32.Quat
	layer    Mask
}

// NewBox returns an axis aligned obstacle spanning min to max.
func NewBox(min, max mgl32.Vec3) *Obstacle {
	center := min.Add(max).Mul(0.5)
	return NewOrientedBox(center, max.Sub(min).Mul(0.5), mgl32.QuatIdent())
}

// NewOrientedBox returns an obstacle centered on center with the given half extents, rotated by rot.
func NewOrientedBox(center, halfExtents mgl32.Vec3, rot mgl32.Quat) *Obstacle {
	rot = rot.Normalize()
	return &Obstacle{
		box:      cube.Box(-halfExtents[0], -halfExtents[1], -halfExtents[2], halfExtents[0], halfExtents[1], halfExtents[2]),
		position: center,
		rotation: rot,
		inverse:  rot.Conjugate(),
		layer:    LayerDefault,
	}
}

// WithLayer places the obstacle on a different layer.
func (o *Obstacle) WithLayer(layer Mask) *Obstacle {
	o.layer = layer
	return o
}

// Layer ...
func (o *Obstacle) Layer() Mask {
	return o.layer
}

// Position returns the center of the obstacle.
func (o *Obstacle) Position() mgl32.Vec3 {
	return o.position
}

// Rotation ...
func (o *Obstacle) Rotation() mgl32.Quat {
	return o.rotation
}

// LocalBox returns the obstacle's box in its own frame.
func (o *Obstacle) LocalBox() cube.BBox {
	return o.box
}

// Bounds returns the world space axis aligned box enclosing the obstacle.
func (o *Obstacle) Bounds() cube.BBox {
	lo, hi := o.box.Min(), o.box.Max()
	var min, max mgl32.Vec3
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{lo[0], lo[1], lo[2]}
		if i&1 != 0 {
			corner[0] = hi[0]
		}
		if i&2 != 0 {
			corner[1] = hi[1]
		}
		if i&4 != 0 {
			corner[2] = hi[2]
		}
		world := o.toWorld(corner)
		if i == 0 {
			min, max = world, world
			continue
		}
		for a := 0; a < 3; a++ {
			min[a] = math32.Min(min[a], world[a])
			max[a] = math32.Max(max[a], world[a])
		}
	}
	return cube.Box(min[0], min[1], min[2], max[0], max[1], max[2])
}

func (o *Obstacle) toLocal(p mgl32.Vec3) mgl32.Vec3 {
	return o.inverse.Rotate(p.Sub(o.position))
}

func (o *Obstacle) toWorld(p mgl32.Vec3) mgl32.Vec3 {
	return o.position.Add(o.rotation.Rotate(p))
}

func (o *Obstacle) dirToWorld(d mgl32.Vec3) mgl32.Vec3 {
	return o.rotation.Rotate(d)
}
