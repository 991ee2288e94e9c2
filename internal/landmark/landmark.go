// Package landmark derives wrist/palm frames from named landmarks and
// solves the alignment transform that maps the prosthetic frame onto the
// hand frame.
package landmark

import (
	"fmt"

	"handfit/pkg/geometry"
)

// Scene object and landmark names the fitting workflow expects.
const (
	HandScanName   = "HandScan"
	ProstheticName = "Prosthetic"

	HandWristL = "Hand_Wrist_L"
	HandWristR = "Hand_Wrist_R"
	HandPalm   = "Hand_Palm"

	ProstheticWristL = "Prosthetic_Wrist_L"
	ProstheticWristR = "Prosthetic_Wrist_R"
	ProstheticPalm   = "Prosthetic_Palm"
)

// HandNames lists the landmark names anchoring the hand frame.
func HandNames() []string {
	return []string{HandWristL, HandWristR, HandPalm}
}

// ProstheticNames lists the landmark names anchoring the prosthetic frame.
func ProstheticNames() []string {
	return []string{ProstheticWristL, ProstheticWristR, ProstheticPalm}
}

// AllNames lists every required landmark name.
func AllNames() []string {
	return append(HandNames(), ProstheticNames()...)
}

// Triple holds the three landmark positions anchoring one object's frame.
type Triple struct {
	WristL geometry.Vec3
	WristR geometry.Vec3
	Palm   geometry.Vec3
}

// Frame is the local wrist/palm coordinate frame derived from a Triple.
// It is computed per alignment call and never stored.
type Frame struct {
	Center     geometry.Vec3 // midpoint of the wrist pair
	Right      geometry.Vec3 // unit wrist axis, zero if the pair is coincident
	Forward    geometry.Vec3 // unit palm direction, zero if palm sits on the center
	WristWidth float64
	PalmLength float64
}

// FrameOf derives the frame for a landmark triple.
func FrameOf(t Triple) Frame {
	center := t.WristL.Midpoint(t.WristR)
	wrist := t.WristR.Sub(t.WristL)
	palm := t.Palm.Sub(center)
	return Frame{
		Center:     center,
		Right:      wrist.Normalized(),
		Forward:    palm.Normalized(),
		WristWidth: wrist.Length(),
		PalmLength: palm.Length(),
	}
}

// Degenerate reports whether the frame cannot orient an object: either the
// wrist pair is coincident or the palm landmark sits on the wrist line.
func (f Frame) Degenerate() bool {
	if f.WristWidth < geometry.Epsilon || f.PalmLength < geometry.Epsilon {
		return true
	}
	return f.Right.Cross(f.Forward).Length() < geometry.Epsilon
}

// String summarizes the frame for logging.
func (f Frame) String() string {
	return fmt.Sprintf("center=(%.4f,%.4f,%.4f) wrist=%.4f palm=%.4f",
		f.Center.X, f.Center.Y, f.Center.Z, f.WristWidth, f.PalmLength)
}
