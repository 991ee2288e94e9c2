package fitting

import (
	"log"

	"handfit/internal/landmark"
)

// FitProsthetic solves the alignment transform from the six landmarks and
// left-multiplies it onto the prosthetic's pose. The transform is computed
// fully in locals before the single pose write, so a failed precondition
// never leaves a partial mutation. The tracker baseline is recorded on the
// first run only; the tracked factors update on every run.
func (s *Session) FitProsthetic() (landmark.Metrics, error) {
	_, prosthetic, err := s.sceneObjects()
	if err != nil {
		return landmark.Metrics{}, err
	}

	hand, err := s.landmarkTriple(landmark.HandNames())
	if err != nil {
		return landmark.Metrics{}, err
	}
	pros, err := s.landmarkTriple(landmark.ProstheticNames())
	if err != nil {
		return landmark.Metrics{}, err
	}

	transform, metrics := landmark.Solve(hand, pros)
	s.scene.SetWorldTransform(prosthetic, transform.Mul(prosthetic.Transform))

	recordBaseline(prosthetic, metrics)
	updateTrackerFromMetrics(prosthetic, metrics)

	log.Printf("Applied wrist-centric transform: scale XY=%.2f Z=%.2f",
		metrics.ScaleXY, metrics.ScaleZ)
	return metrics, nil
}

// RunFittingProcess is the one-button workflow: rebuild the socket group,
// align the prosthetic to the scan, then start the conformance step with
// the default clearance. Conformance failures after a successful alignment
// do not roll the alignment back; the aligned pose is a valid, inspectable
// intermediate state.
func (s *Session) RunFittingProcess(strategy Strategy) (*Handle, error) {
	if _, err := s.EnsureSocketGroup(); err != nil {
		return nil, err
	}
	if _, err := s.FitProsthetic(); err != nil {
		return nil, err
	}

	criterion := SocketCriterion()
	if strategy == StrategyProjection {
		return s.StartProjection(criterion, DefaultOffset)
	}

	h, err := s.StartSubtraction(criterion)
	if err != nil {
		return nil, err
	}
	if err := h.BuildFiller(); err != nil {
		return nil, err
	}
	if err := h.ApplyCut(DefaultOffset); err != nil {
		return nil, err
	}
	return h, nil
}

// BuildFillerOnly builds just the socket filler for pre-fit inspection,
// without aligning or cutting.
func (s *Session) BuildFillerOnly() (*Handle, error) {
	if _, err := s.EnsureSocketGroup(); err != nil {
		return nil, err
	}
	h, err := s.StartSubtraction(SocketCriterion())
	if err != nil {
		return nil, err
	}
	if err := h.BuildFiller(); err != nil {
		return nil, err
	}
	return h, nil
}
