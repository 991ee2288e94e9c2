// Package mesh provides the triangle mesh model and the geometry behind
// socket conformance: region selection, closest-point queries, normal
// displacement, filler construction, and offset-surface conformance.
package mesh

import (
	"fmt"

	"handfit/pkg/geometry"

	"github.com/tiendc/go-deepcopy"
)

// Face is a triangle referencing three vertex indices and a material slot.
// Material is -1 when the face carries no material.
type Face struct {
	V        [3]int `json:"v"`
	Material int    `json:"material"`
}

// Mesh is an indexed triangle mesh with named material slots and named
// vertex weight groups.
type Mesh struct {
	Vertices  []geometry.Vec3                `json:"vertices"`
	Faces     []Face                         `json:"faces"`
	Materials []string                       `json:"materials,omitempty"`
	Groups    map[string]map[int]float64     `json:"groups,omitempty"`
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{Groups: make(map[string]map[int]float64)}
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{}
	if err := deepcopy.Copy(out, m); err != nil {
		// The mesh type contains only plain data; a copy failure would be a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("mesh clone: %v", err))
	}
	if out.Groups == nil {
		out.Groups = make(map[string]map[int]float64)
	}
	return out
}

// MaterialIndex returns the slot index of the named material, or -1.
func (m *Mesh) MaterialIndex(name string) int {
	for i, mat := range m.Materials {
		if mat == name {
			return i
		}
	}
	return -1
}

// EnsureMaterial returns the slot index of the named material, adding a
// slot if it does not exist yet.
func (m *Mesh) EnsureMaterial(name string) int {
	if i := m.MaterialIndex(name); i >= 0 {
		return i
	}
	m.Materials = append(m.Materials, name)
	return len(m.Materials) - 1
}

// Triangle returns the face's corner points.
func (m *Mesh) Triangle(face int) geometry.Triangle {
	f := m.Faces[face]
	return geometry.Triangle{
		A: m.Vertices[f.V[0]],
		B: m.Vertices[f.V[1]],
		C: m.Vertices[f.V[2]],
	}
}

// FaceNormal returns the unit normal of a face (counter-clockwise winding).
func (m *Mesh) FaceNormal(face int) geometry.Vec3 {
	return m.Triangle(face).Normal().Normalized()
}

// VertexNormals computes area-weighted unit vertex normals.
func (m *Mesh) VertexNormals() []geometry.Vec3 {
	normals := make([]geometry.Vec3, len(m.Vertices))
	for i := range m.Faces {
		n := m.Triangle(i).Normal() // area-weighted by construction
		for _, v := range m.Faces[i].V {
			normals[v] = normals[v].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalized()
	}
	return normals
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m *Mesh) Bounds() geometry.Box {
	return geometry.BoundingBox(m.Vertices)
}

// SignedVolume returns the signed volume enclosed by the mesh. The result
// is only meaningful for closed meshes; positive means outward normals.
func (m *Mesh) SignedVolume() float64 {
	var vol float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]
		vol += a.Dot(b.Cross(c)) / 6.0
	}
	return vol
}

// IsWatertight reports whether every edge is shared by exactly two faces.
func (m *Mesh) IsWatertight() bool {
	use := edgeUseCounts(m.Faces)
	for _, count := range use {
		if count != 2 {
			return false
		}
	}
	return len(use) > 0
}

// Transform applies a transform to every vertex in place.
func (m *Mesh) Transform(t geometry.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i] = t.Apply(m.Vertices[i])
	}
}

// edgeKey is an undirected edge between two vertex indices.
type edgeKey struct{ a, b int }

func edgeOf(u, v int) edgeKey {
	if u < v {
		return edgeKey{u, v}
	}
	return edgeKey{v, u}
}

func edgeUseCounts(faces []Face) map[edgeKey]int {
	use := make(map[edgeKey]int, len(faces)*3/2)
	for _, f := range faces {
		use[edgeOf(f.V[0], f.V[1])]++
		use[edgeOf(f.V[1], f.V[2])]++
		use[edgeOf(f.V[2], f.V[0])]++
	}
	return use
}
