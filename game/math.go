package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// Up is the world up axis. Gravity acts against it.
	Up = mgl32.Vec3{0, 1, 0}
	// Forward is the local axis a character faces along when its rotation is the identity.
	Forward = mgl32.Vec3{0, 0, 1}
)

// Round32 will round a float32 to a given precision.
func Round32(val float32, precision int) float32 {
	pwr := math32.Pow(10, float32(precision))
	return math32.Round(val*pwr) / pwr
}

// RoundVec32 will round a 32-bit vector to a given precision.
func RoundVec32(v mgl32.Vec3, p int) mgl32.Vec3 {
	return mgl32.Vec3{Round32(v.X(), p), Round32(v.Y(), p), Round32(v.Z(), p)}
}

// Float32ApproxEq determines whether two floating point numbers are close enough to each other
// by a threshold of 1e-5.
func Float32ApproxEq(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-5
}

// Vec3ApproxEq compares two vectors component-wise with the given threshold.
func Vec3ApproxEq(a, b mgl32.Vec3, threshold float32) bool {
	return math32.Abs(a[0]-b[0]) <= threshold && math32.Abs(a[1]-b[1]) <= threshold && math32.Abs(a[2]-b[2]) <= threshold
}

// Horizontal drops the vertical component of a vector.
func Horizontal(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], 0, v[2]}
}

// Vec3HzDistSqr returns the squared horizontal distance between two vectors.
func Vec3HzDistSqr(vec1, vec2 mgl32.Vec3) float32 {
	dx, dz := vec1[0]-vec2[0], vec1[2]-vec2[2]
	return dx*dx + dz*dz
}

// SafeNormalize normalizes v, returning the zero vector for vectors too short to carry a direction.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l <= 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n mgl32.Vec3) mgl32.Vec3 {
	lenSqr := n.LenSqr()
	if lenSqr <= 1e-12 {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / lenSqr))
}

// ClampLength shortens v so that its length does not exceed max.
func ClampLength(v mgl32.Vec3, max float32) mgl32.Vec3 {
	if l := v.Len(); l > max && l > 0 {
		return v.Mul(max / l)
	}
	return v
}

// MoveTowards moves current toward target by at most maxDelta.
func MoveTowards(current, target mgl32.Vec3, maxDelta float32) mgl32.Vec3 {
	delta := target.Sub(current)
	dist := delta.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(delta.Mul(maxDelta / dist))
}

// LookRotation returns the rotation that turns Forward onto forward while keeping the local up
// axis as close to up as possible.
func LookRotation(forward, up mgl32.Vec3) mgl32.Quat {
	f := SafeNormalize(forward)
	if f.LenSqr() == 0 {
		return mgl32.QuatIdent()
	}
	r := SafeNormalize(up.Cross(f))
	if r.LenSqr() == 0 {
		// Looking straight along the up axis.
		return mgl32.QuatBetweenVectors(Forward, f)
	}
	u := f.Cross(r)
	return mgl32.Mat4ToQuat(mgl32.Mat3FromCols(r, u, f).Mat4()).Normalize()
}

// QuatAngle returns the angle in degrees between two rotations.
func QuatAngle(a, b mgl32.Quat) float32 {
	dot := math32.Abs(a.Dot(b))
	if dot > 1 {
		dot = 1
	}
	return mgl32.RadToDeg(2 * math32.Acos(dot))
}

// RotateTowards rotates from toward to by an angular step of at most maxDegrees.
func RotateTowards(from, to mgl32.Quat, maxDegrees float32) mgl32.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	angle := QuatAngle(from, to)
	if angle <= maxDegrees || angle == 0 {
		return to
	}
	return mgl32.QuatSlerp(from, to, maxDegrees/angle).Normalize()
}
