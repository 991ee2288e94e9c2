package mesh

import (
	"fmt"

	"handfit/pkg/geometry"
)

// BuildFiller duplicates the given faces into a standalone patch, closes
// every open boundary loop, and orients all normals outward, producing the
// watertight "filler" solid the volumetric subtraction strategy cuts into.
//
// It fails when the face set is empty, when an edge is shared by more than
// two faces, or when the boundary cannot be chained into closed loops —
// such a region has no well-defined enclosed volume.
func BuildFiller(m *Mesh, faces []int) (*Mesh, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("socket region is empty")
	}

	filler := m.SubsetByFaces(faces)
	if err := filler.orientConsistently(); err != nil {
		return nil, err
	}

	loops, err := filler.boundaryLoops()
	if err != nil {
		return nil, err
	}
	for _, loop := range loops {
		filler.capLoop(loop)
	}

	if !filler.IsWatertight() {
		return nil, fmt.Errorf("region boundary could not be closed into a solid")
	}
	if filler.SignedVolume() < 0 {
		filler.flipAll()
	}
	return filler, nil
}

// orientConsistently flips faces so that every shared edge is traversed in
// opposite directions by its two faces, walking connected components
// breadth-first.
func (m *Mesh) orientConsistently() error {
	type edgeFace struct{ face, slot int }
	byEdge := make(map[edgeKey][]edgeFace)
	for i, f := range m.Faces {
		for s := 0; s < 3; s++ {
			key := edgeOf(f.V[s], f.V[(s+1)%3])
			byEdge[key] = append(byEdge[key], edgeFace{i, s})
			if len(byEdge[key]) > 2 {
				return fmt.Errorf("non-manifold region: edge shared by more than two faces")
			}
		}
	}

	visited := make([]bool, len(m.Faces))
	for start := range m.Faces {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			f := m.Faces[cur]
			for s := 0; s < 3; s++ {
				u, v := f.V[s], f.V[(s+1)%3]
				for _, other := range byEdge[edgeOf(u, v)] {
					if other.face == cur || visited[other.face] {
						continue
					}
					of := m.Faces[other.face]
					// Consistent orientation traverses a shared edge in
					// opposite directions.
					ou, ov := of.V[other.slot], of.V[(other.slot+1)%3]
					if ou == u && ov == v {
						m.flipFace(other.face)
					}
					visited[other.face] = true
					queue = append(queue, other.face)
				}
			}
		}
	}
	return nil
}

// boundaryLoops chains the directed boundary edges (edges used by exactly
// one face) into closed loops.
func (m *Mesh) boundaryLoops() ([][]int, error) {
	use := edgeUseCounts(m.Faces)

	next := make(map[int]int)
	for _, f := range m.Faces {
		for s := 0; s < 3; s++ {
			u, v := f.V[s], f.V[(s+1)%3]
			if use[edgeOf(u, v)] != 1 {
				continue
			}
			if _, dup := next[u]; dup {
				return nil, fmt.Errorf("non-manifold region boundary at vertex %d", u)
			}
			next[u] = v
		}
	}

	var loops [][]int
	seen := make(map[int]bool)
	for start := range next {
		if seen[start] {
			continue
		}
		loop := []int{start}
		seen[start] = true
		for cur := next[start]; cur != start; {
			nxt, ok := next[cur]
			if !ok {
				return nil, fmt.Errorf("open region boundary does not close at vertex %d", cur)
			}
			loop = append(loop, cur)
			seen[cur] = true
			cur = nxt
		}
		if len(loop) < 3 {
			return nil, fmt.Errorf("degenerate boundary loop of %d vertices", len(loop))
		}
		loops = append(loops, loop)
	}
	return loops, nil
}

// capLoop triangulates a boundary loop with a fan around its centroid.
// Cap faces traverse the boundary opposite to the region faces so the
// closed surface keeps a consistent orientation.
func (m *Mesh) capLoop(loop []int) {
	points := make([]geometry.Vec3, len(loop))
	for i, v := range loop {
		points[i] = m.Vertices[v]
	}
	center := len(m.Vertices)
	m.Vertices = append(m.Vertices, geometry.Centroid(points))

	for i := range loop {
		u := loop[i]
		v := loop[(i+1)%len(loop)]
		m.Faces = append(m.Faces, Face{V: [3]int{v, u, center}, Material: -1})
	}
}

func (m *Mesh) flipFace(i int) {
	m.Faces[i].V[1], m.Faces[i].V[2] = m.Faces[i].V[2], m.Faces[i].V[1]
}

func (m *Mesh) flipAll() {
	for i := range m.Faces {
		m.flipFace(i)
	}
}
