// Package physics describes the collision queries a character controller needs and provides
// World, a small engine built from static oriented boxes.
package physics

import "github.com/go-gl/mathgl/mgl32"

// Mask filters which colliders a query considers.
type Mask uint32

// MaskAll matches every collider.
const MaskAll = ^Mask(0)

// Capsule is a swept sphere around the segment AB, placed in world space.
type Capsule struct {
	A, B   mgl32.Vec3
	Radius float32
}

// Translate returns the capsule moved by offset.
func (c Capsule) Translate(offset mgl32.Vec3) Capsule {
	return Capsule{A: c.A.Add(offset), B: c.B.Add(offset), Radius: c.Radius}
}

// Bottom returns the lowest point of the capsule's segment.
func (c Capsule) Bottom() mgl32.Vec3 {
	if c.A.Y() < c.B.Y() {
		return c.A
	}
	return c.B
}

// Collider is a surface a query can report.
type Collider interface {
	Layer() Mask
}

// Hit describes the first contact found by a sweep or a raycast.
type Hit struct {
	// Distance travelled along the query direction before contact.
	Distance float32
	// Point is the contact point on the collider.
	Point mgl32.Vec3
	// Normal is the unit surface normal at Point, facing the query.
	Normal   mgl32.Vec3
	Collider Collider
}

// Engine answers collision queries against a static scene. Finding nothing is a normal outcome
// and is reported through the boolean results, never as an error.
type Engine interface {
	// SweepCapsule moves c along the unit vector dir for up to maxDistance and reports the
	// nearest contact.
	SweepCapsule(c Capsule, dir mgl32.Vec3, maxDistance float32, mask Mask) (Hit, bool)
	// OverlapCapsule returns every collider c currently penetrates.
	OverlapCapsule(c Capsule, mask Mask) []Collider
	// ComputePenetration returns the direction and distance c has to move to stop
	// penetrating other.
	ComputePenetration(c Capsule, other Collider) (mgl32.Vec3, float32, bool)
	// Raycast casts a ray from origin along the unit vector dir.
	Raycast(origin, dir mgl32.Vec3, maxDistance float32, mask Mask) (Hit, bool)
}
