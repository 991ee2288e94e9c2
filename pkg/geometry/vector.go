// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Vec3 represents a 3D point or direction with floating-point coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVec3 creates a new Vec3.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(factor float64) Vec3 {
	return Vec3{X: v.X * factor, Y: v.Y * factor, Z: v.Z * factor}
}

// Dot returns the dot product with another vector.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product with another vector.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the Euclidean length of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance to another point.
func (v Vec3) Distance(other Vec3) float64 {
	return v.Sub(other).Length()
}

// Normalized returns the unit vector in the same direction, or the zero
// vector if the length is below tolerance.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1.0 / l)
}

// Midpoint returns the point halfway between two points.
func (v Vec3) Midpoint(other Vec3) Vec3 {
	return Vec3{X: (v.X + other.X) / 2, Y: (v.Y + other.Y) / 2, Z: (v.Z + other.Z) / 2}
}

// Epsilon is the tolerance below which lengths are treated as zero.
const Epsilon = 1e-9

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Vec3) Vec3 {
	if len(points) == 0 {
		return Vec3{}
	}
	var sum Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1.0 / float64(len(points)))
}

// Box represents an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Vec3) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

// Size returns the box extents along each axis.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the box.
func (b Box) Center() Vec3 {
	return b.Min.Midpoint(b.Max)
}

// Expanded returns the box grown by margin on all sides.
func (b Box) Expanded(margin float64) Box {
	m := Vec3{X: margin, Y: margin, Z: margin}
	return Box{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Include returns the box grown to contain the point.
func (b Box) Include(p Vec3) Box {
	return Box{
		Min: Vec3{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: Vec3{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Contains returns true if the point is inside the box.
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
