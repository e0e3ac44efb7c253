package physics

import (
	"github.com/chewxy/math32"
	df_cube "github.com/df-mc/dragonfly/server/block/cube"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/ethaniccc/float32-cube/cube/trace"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sasha-s/go-deadlock"
)

const (
	// cellSize is the edge length of a broad phase cell.
	cellSize = float32(4)
	// maxCellsPerObstacle is the number of cells an obstacle may cover before it is kept in the
	// list of obstacles every query checks.
	maxCellsPerObstacle = 512

	sweepTolerance     = float32(1e-4)
	sweepMaxIterations = 64
	// sweepGrazeTolerance is the gap still counted as contact when the sweep runs out of iterations.
	sweepGrazeTolerance = float32(5e-3)
)

// World is an Engine over a set of static obstacles, bucketed into a uniform grid.
type World struct {
	mu deadlock.RWMutex

	obstacles []*Obstacle
	cells     map[df_cube.Pos][]*Obstacle
	large     []*Obstacle
}

// NewWorld creates a World containing the given obstacles.
func NewWorld(obstacles ...*Obstacle) *World {
	w := &World{cells: make(map[df_cube.Pos][]*Obstacle)}
	for _, o := range obstacles {
		w.Add(o)
	}
	return w
}

// Add places a new obstacle in the world.
func (w *World) Add(o *Obstacle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.obstacles = append(w.obstacles, o)
	lo, hi := cellRange(o.Bounds())
	if cellCount(lo, hi) > maxCellsPerObstacle {
		w.large = append(w.large, o)
		return
	}
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				pos := df_cube.Pos{x, y, z}
				w.cells[pos] = append(w.cells[pos], o)
			}
		}
	}
}

// Obstacles returns every obstacle in the world.
func (w *World) Obstacles() []*Obstacle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Obstacle(nil), w.obstacles...)
}

// SweepCapsule ...
func (w *World) SweepCapsule(c Capsule, dir mgl32.Vec3, maxDistance float32, mask Mask) (Hit, bool) {
	dir = dir.Normalize()
	end := c.Translate(dir.Mul(maxDistance))
	area := unionBox(capsuleBounds(c), capsuleBounds(end))

	var (
		best  Hit
		found bool
	)
	for _, o := range w.candidates(area, mask) {
		hit, ok := sweepObstacle(o, c, dir, maxDistance)
		if ok && (!found || hit.Distance < best.Distance) {
			best, found = hit, true
		}
	}
	return best, found
}

// OverlapCapsule ...
func (w *World) OverlapCapsule(c Capsule, mask Mask) []Collider {
	var overlaps []Collider
	for _, o := range w.candidates(capsuleBounds(c), mask) {
		a, b := o.toLocal(c.A), o.toLocal(c.B)
		if _, _, dist := segmentBoxClosest(o.box, a, b); dist < c.Radius {
			overlaps = append(overlaps, o)
		}
	}
	return overlaps
}

// ComputePenetration ...
func (w *World) ComputePenetration(c Capsule, other Collider) (mgl32.Vec3, float32, bool) {
	o, ok := other.(*Obstacle)
	if !ok {
		return mgl32.Vec3{}, 0, false
	}
	normal, _, gap := capsuleBoxContact(o.box, o.toLocal(c.A), o.toLocal(c.B), c.Radius)
	if gap >= 0 {
		return mgl32.Vec3{}, 0, false
	}
	return o.dirToWorld(normal), -gap, true
}

// Raycast ...
func (w *World) Raycast(origin, dir mgl32.Vec3, maxDistance float32, mask Mask) (Hit, bool) {
	dir = dir.Normalize()
	end := origin.Add(dir.Mul(maxDistance))
	area := cube.Box(
		math32.Min(origin[0], end[0]), math32.Min(origin[1], end[1]), math32.Min(origin[2], end[2]),
		math32.Max(origin[0], end[0]), math32.Max(origin[1], end[1]), math32.Max(origin[2], end[2]),
	)

	var (
		best  Hit
		found bool
	)
	for _, o := range w.candidates(area, mask) {
		start := o.toLocal(origin)
		result, ok := trace.BBoxIntercept(o.box, start, o.toLocal(end))
		if !ok {
			continue
		}
		dist := result.Position().Sub(start).Len()
		if !found || dist < best.Distance {
			best = Hit{
				Distance: dist,
				Point:    o.toWorld(result.Position()),
				Normal:   o.dirToWorld(faceNormal(result.Face())),
				Collider: o,
			}
			found = true
		}
	}
	return best, found
}

// candidates returns the obstacles on the mask whose cells intersect area, each once.
func (w *World) candidates(area cube.BBox, mask Mask) []*Obstacle {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var (
		out  []*Obstacle
		seen = make(map[*Obstacle]struct{})
	)
	add := func(o *Obstacle) {
		if o.layer&mask == 0 {
			return
		}
		if _, ok := seen[o]; ok {
			return
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	for _, o := range w.large {
		add(o)
	}

	lo, hi := cellRange(area)
	if cellCount(lo, hi) > maxCellsPerObstacle {
		// Cheaper to look at everything than to walk this many cells.
		for _, o := range w.obstacles {
			add(o)
		}
		return out
	}
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				for _, o := range w.cells[df_cube.Pos{x, y, z}] {
					add(o)
				}
			}
		}
	}
	return out
}

// sweepObstacle sweeps a capsule against a single obstacle by conservative advancement: the gap
// to the obstacle is a safe step along a unit direction, since no point of the capsule can close
// it faster than it travels.
func sweepObstacle(o *Obstacle, c Capsule, dir mgl32.Vec3, maxDistance float32) (Hit, bool) {
	a, b := o.toLocal(c.A), o.toLocal(c.B)
	localDir := o.inverse.Rotate(dir)

	var (
		t      float32
		normal mgl32.Vec3
		point  mgl32.Vec3
		gap    float32
	)
	for i := range sweepMaxIterations {
		offset := localDir.Mul(t)
		normal, point, gap = capsuleBoxContact(o.box, a.Add(offset), b.Add(offset), c.Radius)
		if gap <= sweepTolerance {
			if i == 0 && normal.Dot(localDir) >= 0 {
				// Already touching, but moving away.
				return Hit{}, false
			}
			return newHit(o, t, point, normal), true
		}
		t += gap
		if t > maxDistance {
			return Hit{}, false
		}
	}
	if gap <= sweepGrazeTolerance {
		return newHit(o, t, point, normal), true
	}
	return Hit{}, false
}

func newHit(o *Obstacle, dist float32, localPoint, localNormal mgl32.Vec3) Hit {
	return Hit{
		Distance: dist,
		Point:    o.toWorld(localPoint),
		Normal:   o.dirToWorld(localNormal),
		Collider: o,
	}
}

func capsuleBounds(c Capsule) cube.BBox {
	r := c.Radius
	return cube.Box(
		math32.Min(c.A[0], c.B[0])-r, math32.Min(c.A[1], c.B[1])-r, math32.Min(c.A[2], c.B[2])-r,
		math32.Max(c.A[0], c.B[0])+r, math32.Max(c.A[1], c.B[1])+r, math32.Max(c.A[2], c.B[2])+r,
	)
}

func unionBox(a, b cube.BBox) cube.BBox {
	return cube.Box(
		math32.Min(a.Min()[0], b.Min()[0]), math32.Min(a.Min()[1], b.Min()[1]), math32.Min(a.Min()[2], b.Min()[2]),
		math32.Max(a.Max()[0], b.Max()[0]), math32.Max(a.Max()[1], b.Max()[1]), math32.Max(a.Max()[2], b.Max()[2]),
	)
}

func cellRange(bb cube.BBox) (lo, hi df_cube.Pos) {
	min, max := bb.Min(), bb.Max()
	for i := range 3 {
		lo[i] = int(math32.Floor(min[i] / cellSize))
		hi[i] = int(math32.Floor(max[i] / cellSize))
	}
	return lo, hi
}

func cellCount(lo, hi df_cube.Pos) int {
	return (hi[0] - lo[0] + 1) * (hi[1] - lo[1] + 1) * (hi[2] - lo[2] + 1)
}
