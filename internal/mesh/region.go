package mesh

import (
	"fmt"
	"sort"
)

// Criterion selects the socket-region subset of a mesh. Exactly one field
// is normally set; when both are set the material tag wins and the group is
// the fallback.
type Criterion struct {
	Material string
	Group    string
}

// String names the criterion for error messages.
func (c Criterion) String() string {
	if c.Material != "" {
		return fmt.Sprintf("material %q", c.Material)
	}
	return fmt.Sprintf("group %q", c.Group)
}

// FacesByMaterial returns the indices of faces carrying the named material,
// in ascending order.
func (m *Mesh) FacesByMaterial(name string) ([]int, error) {
	slot := m.MaterialIndex(name)
	if slot < 0 {
		return nil, fmt.Errorf("material %q not found", name)
	}
	var faces []int
	for i, f := range m.Faces {
		if f.Material == slot {
			faces = append(faces, i)
		}
	}
	return faces, nil
}

// VerticesByGroup returns the indices of vertices with nonzero weight in the
// named group, in ascending order.
func (m *Mesh) VerticesByGroup(name string) ([]int, error) {
	group, ok := m.Groups[name]
	if !ok {
		return nil, fmt.Errorf("vertex group %q not found", name)
	}
	verts := make([]int, 0, len(group))
	for v, w := range group {
		if w > 0 {
			verts = append(verts, v)
		}
	}
	sort.Ints(verts)
	return verts, nil
}

// RegionFaces resolves a criterion to a face index set. A group criterion
// selects the faces whose three vertices are all members.
func (m *Mesh) RegionFaces(c Criterion) ([]int, error) {
	if c.Material != "" {
		if faces, err := m.FacesByMaterial(c.Material); err == nil {
			return faces, nil
		} else if c.Group == "" {
			return nil, err
		}
	}
	verts, err := m.VerticesByGroup(c.Group)
	if err != nil {
		return nil, err
	}
	member := make(map[int]bool, len(verts))
	for _, v := range verts {
		member[v] = true
	}
	var faces []int
	for i, f := range m.Faces {
		if member[f.V[0]] && member[f.V[1]] && member[f.V[2]] {
			faces = append(faces, i)
		}
	}
	return faces, nil
}

// RegionVertices resolves a criterion to a vertex index set. A material
// criterion selects every vertex referenced by a matching face.
func (m *Mesh) RegionVertices(c Criterion) ([]int, error) {
	if c.Material != "" {
		faces, err := m.FacesByMaterial(c.Material)
		if err == nil {
			seen := make(map[int]bool)
			for _, fi := range faces {
				for _, v := range m.Faces[fi].V {
					seen[v] = true
				}
			}
			verts := make([]int, 0, len(seen))
			for v := range seen {
				verts = append(verts, v)
			}
			sort.Ints(verts)
			return verts, nil
		}
		if c.Group == "" {
			return nil, err
		}
	}
	return m.VerticesByGroup(c.Group)
}

// BuildGroupFromMaterial rebuilds the named vertex group from the vertices
// of faces carrying the material, all at weight 1.0. An existing group of
// that name is replaced, never accumulated into.
func (m *Mesh) BuildGroupFromMaterial(group, material string) (int, error) {
	faces, err := m.FacesByMaterial(material)
	if err != nil {
		return 0, err
	}
	members := make(map[int]float64)
	for _, fi := range faces {
		for _, v := range m.Faces[fi].V {
			members[v] = 1.0
		}
	}
	if m.Groups == nil {
		m.Groups = make(map[string]map[int]float64)
	}
	m.Groups[group] = members
	return len(members), nil
}
