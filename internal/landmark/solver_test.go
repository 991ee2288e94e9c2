package landmark

import (
	"math"
	"testing"

	"handfit/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceTriples() (Triple, Triple) {
	hand := Triple{
		WristL: geometry.Vec3{X: -1},
		WristR: geometry.Vec3{X: 1},
		Palm:   geometry.Vec3{Y: 2},
	}
	prosthetic := Triple{
		WristL: geometry.Vec3{X: -0.5},
		WristR: geometry.Vec3{X: 0.5},
		Palm:   geometry.Vec3{Y: 1},
	}
	return hand, prosthetic
}

func TestSolveReferenceScenario(t *testing.T) {
	hand, prosthetic := referenceTriples()
	transform, metrics := Solve(hand, prosthetic)

	assert.InDelta(t, 2.0, metrics.ScaleXY, 1e-12)
	assert.InDelta(t, 2.0, metrics.ScaleZ, 1e-12)

	// Right vectors already coincide, so the wrist pair must map exactly.
	wl := transform.Apply(prosthetic.WristL)
	wr := transform.Apply(prosthetic.WristR)
	assert.InDelta(t, hand.WristL.X, wl.X, 1e-9)
	assert.InDelta(t, hand.WristR.X, wr.X, 1e-9)
	assert.InDelta(t, 0, wl.Y, 1e-9)
	assert.InDelta(t, 0, wr.Y, 1e-9)
}

func TestSolveWristMidpointAndWidth(t *testing.T) {
	hand := Triple{
		WristL: geometry.Vec3{X: 2, Y: 1, Z: -1},
		WristR: geometry.Vec3{X: 2.8, Y: 1.6, Z: -0.9},
		Palm:   geometry.Vec3{X: 2.4, Y: 2.5, Z: -0.2},
	}
	prosthetic := Triple{
		WristL: geometry.Vec3{X: -0.4, Y: 0, Z: 0},
		WristR: geometry.Vec3{X: 0.4, Y: 0.1, Z: 0},
		Palm:   geometry.Vec3{X: 0, Y: 1.2, Z: 0.3},
	}

	transform, _ := Solve(hand, prosthetic)

	handFrame := FrameOf(hand)
	gotCenter := transform.Apply(prosthetic.WristL).Midpoint(transform.Apply(prosthetic.WristR))
	gotWidth := transform.Apply(prosthetic.WristL).Distance(transform.Apply(prosthetic.WristR))

	assert.InDelta(t, handFrame.Center.X, gotCenter.X, 1e-5)
	assert.InDelta(t, handFrame.Center.Y, gotCenter.Y, 1e-5)
	assert.InDelta(t, handFrame.Center.Z, gotCenter.Z, 1e-5)
	assert.InDelta(t, handFrame.WristWidth, gotWidth, 1e-5)
}

func TestSolveZeroWristWidthFallsBackToUnitScale(t *testing.T) {
	hand, prosthetic := referenceTriples()
	prosthetic.WristR = prosthetic.WristL

	_, metrics := Solve(hand, prosthetic)
	assert.Equal(t, 1.0, metrics.ScaleXY)
	// The collapsed pair moves the wrist center onto WristL, so the
	// prosthetic palm length is sqrt(1.25) and Z still scales normally.
	assert.InDelta(t, 2.0/math.Sqrt(1.25), metrics.ScaleZ, 1e-12)
}

func TestSolveZeroPalmLengthFallsBackToUnitScale(t *testing.T) {
	hand, prosthetic := referenceTriples()
	prosthetic.Palm = prosthetic.WristL.Midpoint(prosthetic.WristR)

	_, metrics := Solve(hand, prosthetic)
	assert.InDelta(t, 2.0, metrics.ScaleXY, 1e-12)
	assert.Equal(t, 1.0, metrics.ScaleZ)
}

func TestSolveIsDeterministic(t *testing.T) {
	hand, prosthetic := referenceTriples()
	first, m1 := Solve(hand, prosthetic)
	second, m2 := Solve(hand, prosthetic)
	assert.Equal(t, first, second)
	assert.Equal(t, m1, m2)
}

func TestSolveRotatesWristAxis(t *testing.T) {
	hand := Triple{
		WristL: geometry.Vec3{Y: -1},
		WristR: geometry.Vec3{Y: 1},
		Palm:   geometry.Vec3{Z: 2},
	}
	prosthetic := Triple{
		WristL: geometry.Vec3{X: -1},
		WristR: geometry.Vec3{X: 1},
		Palm:   geometry.Vec3{Y: 2},
	}

	transform, metrics := Solve(hand, prosthetic)
	assert.InDelta(t, 1.0, metrics.ScaleXY, 1e-12)

	right := transform.Apply(prosthetic.WristR).Sub(transform.Apply(prosthetic.WristL)).Normalized()
	assert.InDelta(t, 0, right.X, 1e-9)
	assert.InDelta(t, 1, right.Y, 1e-9)
	assert.InDelta(t, 0, right.Z, 1e-9)
}

func TestFrameOf(t *testing.T) {
	hand, _ := referenceTriples()
	f := FrameOf(hand)

	require.False(t, f.Degenerate())
	assert.Equal(t, geometry.Vec3{}, f.Center)
	assert.InDelta(t, 2.0, f.WristWidth, 1e-12)
	assert.InDelta(t, 2.0, f.PalmLength, 1e-12)
	assert.Equal(t, geometry.Vec3{X: 1}, f.Right)
	assert.Equal(t, geometry.Vec3{Y: 1}, f.Forward)
}

func TestFrameDegenerate(t *testing.T) {
	t.Run("coincident wrist pair", func(t *testing.T) {
		f := FrameOf(Triple{Palm: geometry.Vec3{Y: 1}})
		assert.True(t, f.Degenerate())
	})

	t.Run("palm on the wrist line", func(t *testing.T) {
		f := FrameOf(Triple{
			WristL: geometry.Vec3{X: -1},
			WristR: geometry.Vec3{X: 1},
			Palm:   geometry.Vec3{X: 0.7},
		})
		assert.True(t, f.Degenerate())
	})
}
