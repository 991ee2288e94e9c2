package landmark

import (
	"handfit/pkg/geometry"
)

// Metrics reports the scale factors a solved transform applies. The XY
// factor follows wrist width, the Z factor palm length.
type Metrics struct {
	ScaleXY float64
	ScaleZ  float64

	HandWristWidth       float64
	ProstheticWristWidth float64
	HandPalmLength       float64
	ProstheticPalmLength float64
}

// Solve computes the transform that anchors the prosthetic's wrist frame
// onto the hand's. Application order, rightmost first: translate the
// prosthetic wrist center to the origin, scale anisotropically, rotate the
// prosthetic wrist axis onto the hand wrist axis by the shortest arc,
// translate to the hand wrist center.
//
// Scaling and rotation happen about the wrist center rather than the mesh
// origin; origin-centric scaling would shear the alignment. A coincident
// wrist pair or palm landmark resolves the affected scale factor to exactly
// 1.0 instead of failing, and the rotation falls back to identity when
// either wrist axis is degenerate. Only the wrist axis pair is aligned;
// twist about that axis (palm-forward alignment) is left unconstrained.
//
// Solve is pure: it never touches scene state. Callers left-multiply the
// returned matrix onto the prosthetic's current pose.
func Solve(hand, prosthetic Triple) (geometry.Mat4, Metrics) {
	hf := FrameOf(hand)
	pf := FrameOf(prosthetic)

	m := Metrics{
		ScaleXY:              1.0,
		ScaleZ:               1.0,
		HandWristWidth:       hf.WristWidth,
		ProstheticWristWidth: pf.WristWidth,
		HandPalmLength:       hf.PalmLength,
		ProstheticPalmLength: pf.PalmLength,
	}
	if pf.WristWidth > geometry.Epsilon {
		m.ScaleXY = hf.WristWidth / pf.WristWidth
	}
	if pf.PalmLength > geometry.Epsilon {
		m.ScaleZ = hf.PalmLength / pf.PalmLength
	}

	rotation := geometry.RotationBetween(pf.Right, hf.Right)

	transform := geometry.Translation(hf.Center).
		Mul(rotation).
		Mul(geometry.Scaling(m.ScaleXY, m.ScaleXY, m.ScaleZ)).
		Mul(geometry.Translation(pf.Center.Scale(-1)))

	return transform, m
}
