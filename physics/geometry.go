package physics

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

const segmentSearchIterations = 40

// closestPointOnBox clamps p into bb.
func closestPointOnBox(bb cube.BBox, p mgl32.Vec3) mgl32.Vec3 {
	lo, hi := bb.Min(), bb.Max()
	return mgl32.Vec3{
		mgl32.Clamp(p[0], lo[0], hi[0]),
		mgl32.Clamp(p[1], lo[1], hi[1]),
		mgl32.Clamp(p[2], lo[2], hi[2]),
	}
}

// segmentBoxClosest returns the closest pair of points between the segment ab and bb, along with
// their distance. The distance from a point on a line to a convex set is convex along the line, so
// a ternary search over the segment parameter converges on the minimum.
func segmentBoxClosest(bb cube.BBox, a, b mgl32.Vec3) (onSegment, onBox mgl32.Vec3, dist float32) {
	ab := b.Sub(a)
	distAt := func(t float32) float32 {
		p := a.Add(ab.Mul(t))
		return p.Sub(closestPointOnBox(bb, p)).LenSqr()
	}

	lo, hi := float32(0), float32(1)
	if ab.LenSqr() > 1e-12 {
		for range segmentSearchIterations {
			m1 := lo + (hi-lo)/3
			m2 := hi - (hi-lo)/3
			if distAt(m1) <= distAt(m2) {
				hi = m2
			} else {
				lo = m1
			}
		}
	}
	onSegment = a.Add(ab.Mul((lo + hi) * 0.5))
	onBox = closestPointOnBox(bb, onSegment)
	return onSegment, onBox, onSegment.Sub(onBox).Len()
}

// boxExitAxis finds the shortest push along one of the box axes that moves the whole segment ab
// at least radius away from bb. It is used when the segment itself already touches the box and
// there is no separating direction to speak of.
func boxExitAxis(bb cube.BBox, a, b mgl32.Vec3, radius float32) (mgl32.Vec3, float32) {
	lo, hi := bb.Min(), bb.Max()
	best, bestDepth := mgl32.Vec3{0, 1, 0}, float32(math32.MaxFloat32)
	for axis := range 3 {
		segMin, segMax := math32.Min(a[axis], b[axis]), math32.Max(a[axis], b[axis])

		var dir mgl32.Vec3
		if depth := hi[axis] - segMin + radius; depth < bestDepth {
			dir[axis] = 1
			best, bestDepth = dir, depth
		}
		dir = mgl32.Vec3{}
		if depth := segMax - lo[axis] + radius; depth < bestDepth {
			dir[axis] = -1
			best, bestDepth = dir, depth
		}
	}
	return best, bestDepth
}

// capsuleBoxContact returns the separating normal, in the box frame, between a capsule segment
// and a box, together with the signed gap between the capsule surface and the box.
func capsuleBoxContact(bb cube.BBox, a, b mgl32.Vec3, radius float32) (normal, point mgl32.Vec3, gap float32) {
	onSegment, onBox, dist := segmentBoxClosest(bb, a, b)
	if dist > 1e-5 {
		return onSegment.Sub(onBox).Mul(1 / dist), onBox, dist - radius
	}
	dir, depth := boxExitAxis(bb, a, b, radius)
	return dir, onBox, -depth
}

// faceNormal ...
func faceNormal(f cube.Face) mgl32.Vec3 {
	switch f {
	case cube.FaceDown:
		return mgl32.Vec3{0, -1, 0}
	case cube.FaceUp:
		return mgl32.Vec3{0, 1, 0}
	case cube.FaceNorth:
		return mgl32.Vec3{0, 0, -1}
	case cube.FaceSouth:
		return mgl32.Vec3{0, 0, 1}
	case cube.FaceWest:
		return mgl32.Vec3{-1, 0, 0}
	default:
		return mgl32.Vec3{1, 0, 0}
	}
}
