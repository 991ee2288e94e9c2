package fitting

import (
	"handfit/internal/landmark"
	"handfit/internal/scene"
	"handfit/pkg/geometry"
)

// Attribute keys for scale tracker state persisted on the prosthetic.
const (
	AttrBaselineWrist = "tracker_baseline_wrist_m"
	AttrBaselinePalm  = "tracker_baseline_palm_m"
	AttrScaleX        = "tracker_scale_x_factor"
	AttrScaleY        = "tracker_scale_y_factor"
	AttrScaleZ        = "tracker_scale_z_factor"
)

// TrackerState is a snapshot of the scale tracker for display: baseline
// wrist/palm measurements plus the per-axis factors last applied.
type TrackerState struct {
	BaselineWrist float64
	BaselinePalm  float64
	FactorX       float64
	FactorY       float64
	FactorZ       float64
}

// PercentX returns the X factor as a percentage.
func (t TrackerState) PercentX() float64 { return t.FactorX * 100 }

// PercentY returns the Y factor as a percentage.
func (t TrackerState) PercentY() float64 { return t.FactorY * 100 }

// PercentZ returns the Z factor as a percentage.
func (t TrackerState) PercentZ() float64 { return t.FactorZ * 100 }

// ensureTrackerDefaults initializes tracker attributes to identity on first
// use. Existing values are left alone.
func ensureTrackerDefaults(o *scene.Object) {
	for _, key := range []string{AttrScaleX, AttrScaleY, AttrScaleZ} {
		if !o.HasAttr(key) {
			o.Attrs[key] = 1.0
		}
	}
}

// recordBaseline stores the prosthetic's wrist/palm measurements, once.
// Re-running a fit never overwrites an existing baseline.
func recordBaseline(o *scene.Object, metrics landmark.Metrics) {
	if o.HasAttr(AttrBaselineWrist) || o.HasAttr(AttrBaselinePalm) {
		return
	}
	o.Attrs[AttrBaselineWrist] = metrics.ProstheticWristWidth
	o.Attrs[AttrBaselinePalm] = metrics.ProstheticPalmLength
}

// updateTrackerFromMetrics overwrites the tracked factors with the scale a
// solver run applied.
func updateTrackerFromMetrics(o *scene.Object, metrics landmark.Metrics) {
	ensureTrackerDefaults(o)
	o.Attrs[AttrScaleX] = metrics.ScaleXY
	o.Attrs[AttrScaleY] = metrics.ScaleXY
	o.Attrs[AttrScaleZ] = metrics.ScaleZ
}

// updateTrackerFromPose overwrites the tracked factors with the scale read
// off the object's live pose. Called from the scene change listener.
func updateTrackerFromPose(o *scene.Object) {
	ensureTrackerDefaults(o)
	s := o.Transform.ScaleFactors()
	o.Attrs[AttrScaleX] = s.X
	o.Attrs[AttrScaleY] = s.Y
	o.Attrs[AttrScaleZ] = s.Z
}

// TrackerStateOf reads the tracker snapshot persisted on an object.
func TrackerStateOf(o *scene.Object) TrackerState {
	ensureTrackerDefaults(o)
	return TrackerState{
		BaselineWrist: o.Attr(AttrBaselineWrist, 0),
		BaselinePalm:  o.Attr(AttrBaselinePalm, 0),
		FactorX:       o.Attr(AttrScaleX, 1),
		FactorY:       o.Attr(AttrScaleY, 1),
		FactorZ:       o.Attr(AttrScaleZ, 1),
	}
}

// SetManualBaseline rescales the recorded baseline by a percentage, the
// tracker panel's manual override.
func SetManualBaseline(o *scene.Object, percent float64) {
	if percent <= 0 {
		return
	}
	factor := percent / 100
	o.Attrs[AttrBaselineWrist] = o.Attr(AttrBaselineWrist, 0) * factor
	o.Attrs[AttrBaselinePalm] = o.Attr(AttrBaselinePalm, 0) * factor
}

// ApplyTrackedScale applies the factors tracked on source to the target
// object, scaling about the target's own position so it stays anchored.
func ApplyTrackedScale(sc *scene.Scene, source, target *scene.Object) {
	state := TrackerStateOf(source)
	pos := target.Position()
	scale := geometry.Translation(pos).
		Mul(geometry.Scaling(state.FactorX, state.FactorY, state.FactorZ)).
		Mul(geometry.Translation(pos.Scale(-1)))
	sc.SetWorldTransform(target, scale.Mul(target.Transform))
}
