package mesh

// Displaced returns a copy of the mesh with every vertex moved the given
// distance along its area-weighted vertex normal. This is how the hidden
// scan proxy is grown outward by the clearance offset.
func (m *Mesh) Displaced(distance float64) *Mesh {
	out := m.Clone()
	if distance == 0 {
		return out
	}
	normals := m.VertexNormals()
	for i := range out.Vertices {
		out.Vertices[i] = out.Vertices[i].Add(normals[i].Scale(distance))
	}
	return out
}

// ProjectRegion returns a copy of the mesh with the given vertices snapped
// onto the target's offset surface: each vertex lands at the closest scan
// surface point displaced clearance units along that face's outward normal.
// Every evaluation starts from the receiver, so repeated calls with
// different clearances never stack.
func (m *Mesh) ProjectRegion(vertices []int, target *Locator, clearance float64) *Mesh {
	out := m.Clone()
	for _, v := range vertices {
		hit := target.ClosestPoint(out.Vertices[v])
		if hit.Face < 0 {
			continue
		}
		out.Vertices[v] = hit.Point.Add(hit.Normal.Scale(clearance))
	}
	return out
}

// CarveByOffset returns a copy of the mesh with every vertex that falls
// inside the target surface grown by clearance pushed out onto that offset
// surface. Vertices already clear of the grown surface keep their position.
// This evaluates the subtraction of the grown proxy from the filler solid.
func (m *Mesh) CarveByOffset(target *Locator, clearance float64) *Mesh {
	out := m.Clone()
	for i, v := range out.Vertices {
		sd, hit := target.SignedDistance(v)
		if hit.Face < 0 || sd >= clearance {
			continue
		}
		out.Vertices[i] = hit.Point.Add(hit.Normal.Scale(clearance))
	}
	return out
}

// Clearances returns the unsigned distance from each listed vertex to the
// target surface. Used for the post-fit clearance report.
func (m *Mesh) Clearances(vertices []int, target *Locator) []float64 {
	out := make([]float64, len(vertices))
	for i, v := range vertices {
		out[i] = target.ClosestPoint(m.Vertices[v]).Distance
	}
	return out
}

// SubsetByVertices returns a copy containing only faces whose vertices are
// all in the keep set, with vertices remapped. Used to isolate the baked
// socket region into its own artifact.
func (m *Mesh) SubsetByVertices(keep []int) *Mesh {
	member := make(map[int]bool, len(keep))
	for _, v := range keep {
		member[v] = true
	}
	var faces []int
	for i, f := range m.Faces {
		if member[f.V[0]] && member[f.V[1]] && member[f.V[2]] {
			faces = append(faces, i)
		}
	}
	return m.SubsetByFaces(faces)
}

// SubsetByFaces returns a copy containing only the listed faces, with
// vertices remapped and group memberships carried over.
func (m *Mesh) SubsetByFaces(faces []int) *Mesh {
	out := New()
	out.Materials = append([]string(nil), m.Materials...)

	remap := make(map[int]int)
	for _, fi := range faces {
		src := m.Faces[fi]
		var dst Face
		dst.Material = src.Material
		for c, v := range src.V {
			nv, ok := remap[v]
			if !ok {
				nv = len(out.Vertices)
				out.Vertices = append(out.Vertices, m.Vertices[v])
				remap[v] = nv
			}
			dst.V[c] = nv
		}
		out.Faces = append(out.Faces, dst)
	}

	for name, group := range m.Groups {
		for v, w := range group {
			nv, ok := remap[v]
			if !ok {
				continue
			}
			if out.Groups[name] == nil {
				out.Groups[name] = make(map[int]float64)
			}
			out.Groups[name][nv] = w
		}
	}
	return out
}
