package mesh

import (
	"math"

	"handfit/pkg/geometry"
)

// Hit is the result of a closest-point query against a mesh surface.
type Hit struct {
	Point    geometry.Vec3 // foot point on the surface
	Normal   geometry.Vec3 // unit normal of the hit face
	Face     int           // hit face index, -1 if the mesh has no faces
	Distance float64
}

// Locator answers closest-point queries against a fixed mesh using a
// uniform grid over face bounding boxes. Build cost is O(faces); queries
// walk outward cell rings until no closer face can exist.
type Locator struct {
	mesh     *Mesh
	cellSize float64
	origin   geometry.Vec3
	dims     [3]int
	cells    map[[3]int][]int
}

// targetCellsPerAxis balances grid memory against ring walk length for the
// scan sizes this tool sees (tens of thousands of faces).
const targetCellsPerAxis = 32

// NewLocator builds a locator for the mesh's current vertex positions.
// The locator does not track later mutations of the mesh.
func NewLocator(m *Mesh) *Locator {
	bounds := m.Bounds().Expanded(geometry.Epsilon)
	size := bounds.Size()
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	cell := longest / targetCellsPerAxis
	if cell < geometry.Epsilon {
		cell = 1.0
	}

	l := &Locator{
		mesh:     m,
		cellSize: cell,
		origin:   bounds.Min,
		cells:    make(map[[3]int][]int),
	}
	for axis, extent := range [3]float64{size.X, size.Y, size.Z} {
		l.dims[axis] = int(extent/cell) + 1
	}

	for i := range m.Faces {
		fb := m.Triangle(i).Bounds()
		lo := l.cellOf(fb.Min)
		hi := l.cellOf(fb.Max)
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					key := [3]int{x, y, z}
					l.cells[key] = append(l.cells[key], i)
				}
			}
		}
	}
	return l
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (l *Locator) cellOf(p geometry.Vec3) [3]int {
	rel := p.Sub(l.origin)
	return [3]int{
		clampInt(int(rel.X/l.cellSize), 0, l.dims[0]-1),
		clampInt(int(rel.Y/l.cellSize), 0, l.dims[1]-1),
		clampInt(int(rel.Z/l.cellSize), 0, l.dims[2]-1),
	}
}

// ClosestPoint returns the surface point nearest to p.
func (l *Locator) ClosestPoint(p geometry.Vec3) Hit {
	best := Hit{Face: -1, Distance: math.Inf(1)}
	if len(l.mesh.Faces) == 0 {
		return best
	}

	center := l.cellOf(p)
	maxRing := l.dims[0] + l.dims[1] + l.dims[2]

	for ring := 0; ring <= maxRing; ring++ {
		// Once a hit exists, rings beyond bestDistance/cellSize cannot
		// contain a closer face.
		if best.Face >= 0 && float64(ring-1)*l.cellSize > best.Distance {
			break
		}
		l.scanRing(center, ring, p, &best)
	}
	return best
}

// scanRing tests every face registered in cells at Chebyshev distance ring
// from the center cell.
func (l *Locator) scanRing(center [3]int, ring int, p geometry.Vec3, best *Hit) {
	lo := [3]int{center[0] - ring, center[1] - ring, center[2] - ring}
	hi := [3]int{center[0] + ring, center[1] + ring, center[2] + ring}

	for x := lo[0]; x <= hi[0]; x++ {
		if x < 0 || x >= l.dims[0] {
			continue
		}
		for y := lo[1]; y <= hi[1]; y++ {
			if y < 0 || y >= l.dims[1] {
				continue
			}
			for z := lo[2]; z <= hi[2]; z++ {
				if z < 0 || z >= l.dims[2] {
					continue
				}
				onShell := x == lo[0] || x == hi[0] ||
					y == lo[1] || y == hi[1] ||
					z == lo[2] || z == hi[2]
				if !onShell {
					continue
				}
				for _, fi := range l.cells[[3]int{x, y, z}] {
					foot := l.mesh.Triangle(fi).ClosestPoint(p)
					dist := foot.Distance(p)
					if dist < best.Distance {
						*best = Hit{
							Point:    foot,
							Normal:   l.mesh.FaceNormal(fi),
							Face:     fi,
							Distance: dist,
						}
					}
				}
			}
		}
	}
}

// SignedDistance returns the distance from p to the surface, negative when
// p lies on the inward side of the hit face. The sign is reliable for
// points whose distance is small against the surface's feature size, which
// holds for clearance offsets.
func (l *Locator) SignedDistance(p geometry.Vec3) (float64, Hit) {
	hit := l.ClosestPoint(p)
	if hit.Face < 0 {
		return math.Inf(1), hit
	}
	if p.Sub(hit.Point).Dot(hit.Normal) < 0 {
		return -hit.Distance, hit
	}
	return hit.Distance, hit
}
