package geometry

// Triangle represents a triangle by its three corner points.
type Triangle struct {
	A, B, C Vec3
}

// Normal returns the (non-unit) face normal for counter-clockwise winding.
func (t Triangle) Normal() Vec3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A))
}

// Area returns the triangle area.
func (t Triangle) Area() float64 {
	return t.Normal().Length() / 2
}

// Centroid returns the triangle centroid.
func (t Triangle) Centroid() Vec3 {
	return t.A.Add(t.B).Add(t.C).Scale(1.0 / 3.0)
}

// Bounds returns the axis-aligned bounding box of the triangle.
func (t Triangle) Bounds() Box {
	return BoundingBox([]Vec3{t.A, t.B, t.C})
}

// ClosestPoint returns the point on the triangle closest to p.
// Voronoi-region walk over vertices, edges, and the face interior.
func (t Triangle) ClosestPoint(p Vec3) Vec3 {
	ab := t.B.Sub(t.A)
	ac := t.C.Sub(t.A)
	ap := p.Sub(t.A)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.A
	}

	bp := p.Sub(t.B)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return t.A.Add(ab.Scale(v))
	}

	cp := p.Sub(t.C)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return t.A.Add(ac.Scale(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return t.B.Add(t.C.Sub(t.B).Scale(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return t.A.Add(ab.Scale(v)).Add(ac.Scale(w))
}
