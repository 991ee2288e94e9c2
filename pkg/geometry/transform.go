package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Mat4 represents a 4x4 affine transformation matrix in row-major order.
// The last row is (0 0 0 1) for every transform this application builds,
// but it is stored explicitly so composition stays a plain matrix product.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a translation transform.
func Translation(t Vec3) Mat4 {
	return Mat4{
		1, 0, 0, t.X,
		0, 1, 0, t.Y,
		0, 0, 1, t.Z,
		0, 0, 0, 1,
	}
}

// Scaling returns an anisotropic scaling transform about the origin.
func Scaling(sx, sy, sz float64) Mat4 {
	return Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the matrix product m * other (other is applied first).
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * other[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Apply transforms a point (w = 1).
func (m Mat4) Apply(p Vec3) Vec3 {
	return Vec3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// ApplyDirection transforms a direction (w = 0), ignoring translation.
func (m Mat4) ApplyDirection(d Vec3) Vec3 {
	return Vec3{
		X: m[0]*d.X + m[1]*d.Y + m[2]*d.Z,
		Y: m[4]*d.X + m[5]*d.Y + m[6]*d.Z,
		Z: m[8]*d.X + m[9]*d.Y + m[10]*d.Z,
	}
}

// Translation returns the translation column of the transform.
func (m Mat4) Translation() Vec3 {
	return Vec3{X: m[3], Y: m[7], Z: m[11]}
}

// ScaleFactors returns the per-axis scale, i.e. the lengths of the three
// basis columns. Useful for reading the live scale off an object pose.
func (m Mat4) ScaleFactors() Vec3 {
	return Vec3{
		X: Vec3{X: m[0], Y: m[4], Z: m[8]}.Length(),
		Y: Vec3{X: m[1], Y: m[5], Z: m[9]}.Length(),
		Z: Vec3{X: m[2], Y: m[6], Z: m[10]}.Length(),
	}
}

// Inverse returns the inverse transform, if it exists.
func (m Mat4) Inverse() (Mat4, bool) {
	dense := mat.NewDense(4, 4, append([]float64(nil), m[:]...))
	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		return Mat4{}, false
	}
	var out Mat4
	copy(out[:], inv.RawMatrix().Data)
	return out, true
}

// RotationBetween returns the transform rotating unit direction from onto
// unit direction to by the shortest angular path. Degenerate inputs (either
// direction near zero) yield the identity, as does the antiparallel case
// when no stable rotation axis exists in the input plane.
func RotationBetween(from, to Vec3) Mat4 {
	f := from.Normalized()
	t := to.Normalized()
	if f.Length() < 0.5 || t.Length() < 0.5 {
		return Identity()
	}

	d := f.Dot(t)
	if d > 1-Epsilon {
		return Identity()
	}
	if d < -1+Epsilon {
		// 180 degrees: rotate about any axis perpendicular to f.
		axis := f.Cross(Vec3{X: 1}).Normalized()
		if axis.Length() < 0.5 {
			axis = f.Cross(Vec3{Y: 1}).Normalized()
		}
		return rotationMatrix(quat.Number{Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z})
	}

	c := f.Cross(t)
	q := quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	return rotationMatrix(normalizeQuat(q))
}

// RotationAxisAngle returns the transform rotating by angle radians about
// the given axis.
func RotationAxisAngle(axis Vec3, angle float64) Mat4 {
	a := axis.Normalized()
	s := math.Sin(angle / 2)
	q := quat.Number{Real: math.Cos(angle / 2), Imag: a.X * s, Jmag: a.Y * s, Kmag: a.Z * s}
	return rotationMatrix(q)
}

func normalizeQuat(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < Epsilon {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// rotationMatrix converts a unit quaternion to a 4x4 rotation matrix.
func rotationMatrix(q quat.Number) Mat4 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y), 0,
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x), 0,
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}
