package capsule

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/netmove/physics"
)

// Axis is the local axis a capsule's segment runs along.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Collider is the raw, unscaled capsule definition attached to a body.
type Collider struct {
	Center mgl32.Vec3
	Height float32
	Radius float32
	Axis   Axis
}

// Body is the transform a capsule is attached to.
type Body interface {
	Position() mgl32.Vec3
	Rotation() mgl32.Quat
	Scale() mgl32.Vec3
}

// Shape is a capsule derived from a Collider and the scale of its body. The points are in the
// body's local frame, before rotation is applied.
type Shape struct {
	LocalCenter    mgl32.Vec3
	LocalEndpointA mgl32.Vec3
	LocalEndpointB mgl32.Vec3

	Radius float32
	Height float32
}

// snapshot holds the inputs the cached Shape was derived from.
type snapshot struct {
	scale  mgl32.Vec3
	center mgl32.Vec3
	height float32
	radius float32
	axis   Axis
}

// Cache keeps the Shape of a body's capsule and re-derives it only when its inputs change.
type Cache struct {
	body     Body
	collider *Collider

	shape Shape
	last  snapshot
}

// NewCache creates a Cache for the collider attached to body and derives its initial shape.
func NewCache(body Body, collider *Collider) *Cache {
	c := &Cache{body: body, collider: collider}
	c.rebuild(c.current())
	return c
}

// Refresh re-derives the shape if the body's scale or any raw collider value changed since the
// last call. It reports whether a rebuild took place.
func (c *Cache) Refresh() bool {
	s := c.current()
	if s == c.last {
		return false
	}
	c.rebuild(s)
	return true
}

// Shape returns the cached shape.
func (c *Cache) Shape() Shape {
	return c.shape
}

// Radius returns the effective radius of the capsule.
func (c *Cache) Radius() float32 {
	return c.shape.Radius
}

// Height returns the effective height of the capsule, which is never less than twice the radius.
func (c *Cache) Height() float32 {
	return c.shape.Height
}

// WorldCenter returns the capsule center at the body's current pose.
func (c *Cache) WorldCenter() mgl32.Vec3 {
	return c.toWorld(c.shape.LocalCenter)
}

// WorldEndpointA returns the first segment endpoint at the body's current pose.
func (c *Cache) WorldEndpointA() mgl32.Vec3 {
	return c.toWorld(c.shape.LocalEndpointA)
}

// WorldEndpointB returns the second segment endpoint at the body's current pose.
func (c *Cache) WorldEndpointB() mgl32.Vec3 {
	return c.toWorld(c.shape.LocalEndpointB)
}

// World returns the capsule placed at the body's current pose.
func (c *Cache) World() physics.Capsule {
	return c.At(c.body.Position(), c.body.Rotation())
}

// At returns the capsule placed at an arbitrary pose.
func (c *Cache) At(pos mgl32.Vec3, rot mgl32.Quat) physics.Capsule {
	return physics.Capsule{
		A:      pos.Add(rot.Rotate(c.shape.LocalEndpointA)),
		B:      pos.Add(rot.Rotate(c.shape.LocalEndpointB)),
		Radius: c.shape.Radius,
	}
}

func (c *Cache) toWorld(local mgl32.Vec3) mgl32.Vec3 {
	return c.body.Position().Add(c.body.Rotation().Rotate(local))
}

func (c *Cache) current() snapshot {
	return snapshot{
		scale:  c.body.Scale(),
		center: c.collider.Center,
		height: c.collider.Height,
		radius: c.collider.Radius,
		axis:   c.collider.Axis,
	}
}

func (c *Cache) rebuild(s snapshot) {
	c.last = s
	scale := mgl32.Vec3{math32.Abs(s.scale[0]), math32.Abs(s.scale[1]), math32.Abs(s.scale[2])}

	var (
		radius, halfHeight float32
		axis               mgl32.Vec3
	)
	switch s.axis {
	case AxisY:
		radius = s.radius * math32.Max(scale[0], scale[2])
		halfHeight = math32.Max(s.height*0.5*scale[1], radius)
		axis = mgl32.Vec3{0, 1, 0}
	case AxisZ:
		radius = s.radius * math32.Max(scale[0], scale[1])
		halfHeight = math32.Max(s.height*0.5*scale[2], radius)
		axis = mgl32.Vec3{0, 0, 1}
	default:
		radius = s.radius * math32.Max(scale[1], scale[2])
		halfHeight = math32.Max(s.height*0.5*scale[0], radius)
		axis = mgl32.Vec3{1, 0, 0}
	}

	center := mgl32.Vec3{s.center[0] * s.scale[0], s.center[1] * s.scale[1], s.center[2] * s.scale[2]}
	offset := axis.Mul(halfHeight - radius)
	c.shape = Shape{
		LocalCenter:    center,
		LocalEndpointA: center.Add(offset),
		LocalEndpointB: center.Sub(offset),
		Radius:         radius,
		Height:         halfHeight * 2,
	}
}
