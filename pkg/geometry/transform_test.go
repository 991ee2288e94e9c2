package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got Vec3, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol)
	assert.InDelta(t, want.Y, got.Y, tol)
	assert.InDelta(t, want.Z, got.Z, tol)
}

func TestMat4Compose(t *testing.T) {
	t.Run("translation then scale applied right to left", func(t *testing.T) {
		m := Scaling(2, 2, 2).Mul(Translation(Vec3{X: 1}))
		vecNear(t, Vec3{X: 2}, m.Apply(Vec3{}), 1e-12)
	})

	t.Run("identity is neutral", func(t *testing.T) {
		m := Identity().Mul(Translation(Vec3{X: 3, Y: -1, Z: 0.5}))
		vecNear(t, Vec3{X: 3, Y: -1, Z: 0.5}, m.Apply(Vec3{}), 1e-12)
	})
}

func TestMat4Inverse(t *testing.T) {
	m := Translation(Vec3{X: 1, Y: 2, Z: 3}).
		Mul(RotationAxisAngle(Vec3{Z: 1}, math.Pi/3)).
		Mul(Scaling(2, 2, 0.5))

	inv, ok := m.Inverse()
	require.True(t, ok)

	p := Vec3{X: 0.2, Y: -0.7, Z: 1.1}
	vecNear(t, p, inv.Apply(m.Apply(p)), 1e-9)
}

func TestMat4ScaleFactors(t *testing.T) {
	m := RotationAxisAngle(Vec3{X: 1, Y: 1, Z: 0}, 0.8).Mul(Scaling(2, 3, 0.25))
	s := m.ScaleFactors()
	assert.InDelta(t, 2.0, s.X, 1e-9)
	assert.InDelta(t, 3.0, s.Y, 1e-9)
	assert.InDelta(t, 0.25, s.Z, 1e-9)
}

func TestRotationBetween(t *testing.T) {
	t.Run("aligned vectors give identity", func(t *testing.T) {
		m := RotationBetween(Vec3{X: 1}, Vec3{X: 1})
		assert.Equal(t, Identity(), m)
	})

	t.Run("perpendicular vectors", func(t *testing.T) {
		m := RotationBetween(Vec3{X: 1}, Vec3{Y: 1})
		vecNear(t, Vec3{Y: 1}, m.Apply(Vec3{X: 1}), 1e-12)
	})

	t.Run("arbitrary directions", func(t *testing.T) {
		from := Vec3{X: 1, Y: 2, Z: -0.5}.Normalized()
		to := Vec3{X: -0.3, Y: 0.1, Z: 2}.Normalized()
		m := RotationBetween(from, to)
		vecNear(t, to, m.Apply(from), 1e-12)
	})

	t.Run("antiparallel vectors rotate 180 degrees", func(t *testing.T) {
		m := RotationBetween(Vec3{Y: 1}, Vec3{Y: -1})
		vecNear(t, Vec3{Y: -1}, m.Apply(Vec3{Y: 1}), 1e-9)
	})

	t.Run("degenerate input gives identity", func(t *testing.T) {
		assert.Equal(t, Identity(), RotationBetween(Vec3{}, Vec3{X: 1}))
	})
}

func TestClosestPointOnTriangle(t *testing.T) {
	tri := Triangle{A: Vec3{}, B: Vec3{X: 1}, C: Vec3{Y: 1}}

	t.Run("above the interior projects onto the face", func(t *testing.T) {
		vecNear(t, Vec3{X: 0.25, Y: 0.25}, tri.ClosestPoint(Vec3{X: 0.25, Y: 0.25, Z: 5}), 1e-12)
	})

	t.Run("beyond a vertex clamps to the vertex", func(t *testing.T) {
		vecNear(t, Vec3{X: 1}, tri.ClosestPoint(Vec3{X: 3, Y: -1, Z: 0}), 1e-12)
	})

	t.Run("beside an edge clamps to the edge", func(t *testing.T) {
		vecNear(t, Vec3{X: 0.5}, tri.ClosestPoint(Vec3{X: 0.5, Y: -2, Z: 0}), 1e-12)
	})
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox([]Vec3{{X: 1, Y: -2, Z: 0}, {X: -1, Y: 3, Z: 2}})
	assert.Equal(t, Vec3{X: -1, Y: -2, Z: 0}, b.Min)
	assert.Equal(t, Vec3{X: 1, Y: 3, Z: 2}, b.Max)
	assert.True(t, b.Contains(Vec3{}))
	assert.False(t, b.Contains(Vec3{Z: 5}))
}
