package fitting

import (
	"handfit/internal/mesh"
	"handfit/internal/scene"
	"handfit/pkg/geometry"
)

// Strategy selects how the socket is conformed to the scan.
type Strategy int

const (
	// StrategyProjection snaps socket-region vertices onto the scan's
	// offset surface, non-destructively until baked.
	StrategyProjection Strategy = iota
	// StrategySubtraction builds a solid filler from the socket region and
	// subtracts the scan grown by the clearance from it.
	StrategySubtraction
)

// String names the strategy for logging.
func (s Strategy) String() string {
	if s == StrategySubtraction {
		return "subtraction"
	}
	return "projection"
}

// State tracks a conformance handle through its lifecycle.
type State int

const (
	StateUnfitted State = iota
	StateFitted
	StateFillerBuilt
	StateCutApplied
	StateFinalized
)

// String names the state for logging.
func (s State) String() string {
	switch s {
	case StateFitted:
		return "fitted"
	case StateFillerBuilt:
		return "filler-built"
	case StateCutApplied:
		return "cut-applied"
	case StateFinalized:
		return "finalized"
	default:
		return "unfitted"
	}
}

// Handle is a live conformance operation. The clearance offset is a
// parameter of the handle, not of any evaluated geometry: changing it is a
// single state write and the last value wins. Evaluation always starts from
// the base geometry captured when the handle was created, so repeated
// evaluations never stack deformations.
type Handle struct {
	session   *Session
	strategy  Strategy
	state     State
	offset    float64
	criterion mesh.Criterion

	prosthetic *scene.Object
	target     *mesh.Locator // scan surface in world space

	// base is the geometry evaluation starts from: the prosthetic's world
	// mesh for projection, the filler solid for subtraction.
	base   *mesh.Mesh
	region []int // socket-region vertex indices into base (projection only)
}

// Strategy returns the handle's conformance strategy.
func (h *Handle) Strategy() Strategy { return h.strategy }

// State returns the handle's lifecycle state.
func (h *Handle) State() State { return h.state }

// Offset returns the current clearance in meters.
func (h *Handle) Offset() float64 { return h.offset }

// StartProjection attaches a projection constraint over the socket region
// and returns a live handle in the FITTED state.
func (s *Session) StartProjection(criterion mesh.Criterion, offset float64) (*Handle, error) {
	scan, prosthetic, err := s.sceneObjects()
	if err != nil {
		return nil, err
	}

	region, err := prosthetic.Mesh.RegionVertices(criterion)
	if err != nil {
		return nil, missingf("socket region %s: %v", criterion, err)
	}
	if len(region) == 0 {
		return nil, degeneratef("socket region %s selects no vertices", criterion)
	}

	h := &Handle{
		session:    s,
		strategy:   StrategyProjection,
		state:      StateFitted,
		offset:     offset,
		criterion:  criterion,
		prosthetic: prosthetic,
		target:     mesh.NewLocator(scan.WorldMesh()),
		base:       prosthetic.WorldMesh(),
		region:     region,
	}
	return h, nil
}

// StartSubtraction returns a handle in the UNFITTED state; call BuildFiller
// and ApplyCut to advance it.
func (s *Session) StartSubtraction(criterion mesh.Criterion) (*Handle, error) {
	scan, prosthetic, err := s.sceneObjects()
	if err != nil {
		return nil, err
	}
	return &Handle{
		session:    s,
		strategy:   StrategySubtraction,
		state:      StateUnfitted,
		criterion:  criterion,
		prosthetic: prosthetic,
		target:     mesh.NewLocator(scan.WorldMesh()),
	}, nil
}

// BuildFiller extracts the socket-region faces, closes their boundary into
// a watertight solid, and publishes it as the Socket_Filler scene object,
// replacing any previous filler.
func (h *Handle) BuildFiller() error {
	if h.strategy != StrategySubtraction {
		return invalidf("filler construction requires the subtraction strategy")
	}
	if h.state != StateUnfitted && h.state != StateFillerBuilt {
		return invalidf("cannot build filler in state %s", h.state)
	}

	faces, err := h.prosthetic.Mesh.RegionFaces(h.criterion)
	if err != nil {
		return missingf("socket region %s: %v", h.criterion, err)
	}
	world := h.prosthetic.WorldMesh()
	filler, err := mesh.BuildFiller(world, faces)
	if err != nil {
		return degeneratef("socket filler: %v", err)
	}

	if thickness, push := h.session.FillerParams(); thickness != 0 || push != 0 {
		if thickness != 0 {
			filler = filler.Displaced(thickness)
		}
		if push != 0 {
			n := regionNormal(world, faces)
			filler.Transform(geometry.Translation(n.Scale(push)))
		}
	}

	h.base = filler
	h.session.scene.AddOrReplace(scene.NewObject(FillerName, filler.Clone()))
	h.state = StateFillerBuilt
	return nil
}

// regionNormal averages the face normals of a region. Zero-area regions
// average to the zero vector, which leaves a push with no direction.
func regionNormal(m *mesh.Mesh, faces []int) geometry.Vec3 {
	var sum geometry.Vec3
	for _, f := range faces {
		sum = sum.Add(m.FaceNormal(f))
	}
	return sum.Normalized()
}

// ApplyCut grows a hidden proxy of the scan by the clearance and subtracts
// it from the filler. The proxy is disposable and replaced on re-runs.
func (h *Handle) ApplyCut(offset float64) error {
	if h.strategy != StrategySubtraction {
		return invalidf("cut requires the subtraction strategy")
	}
	if h.state != StateFillerBuilt && h.state != StateCutApplied {
		return invalidf("cannot apply cut in state %s", h.state)
	}

	scan, _, err := h.session.sceneObjects()
	if err != nil {
		return err
	}
	proxy := scene.NewObject(ProxyName, scan.WorldMesh().Displaced(offset))
	proxy.Hidden = true
	proxy.Attrs["offset_m"] = offset
	h.session.scene.AddOrReplace(proxy)

	h.offset = offset
	h.state = StateCutApplied
	return nil
}

// SetOffset updates the live clearance. Valid whenever the handle carries a
// live deformation (FITTED or CUT_APPLIED); after finalizing, the handle is
// no longer live and the call fails as a missing precondition.
func (h *Handle) SetOffset(offset float64) error {
	if offset < 0 {
		return invalidf("clearance offset must be non-negative, got %g", offset)
	}
	switch h.state {
	case StateFitted, StateCutApplied:
		h.offset = offset
		if proxy, err := h.session.scene.FindObject(ProxyName); err == nil {
			if scan, _, serr := h.session.sceneObjects(); serr == nil {
				proxy.Mesh = scan.WorldMesh().Displaced(offset)
			}
			proxy.Attrs["offset_m"] = offset
		}
		return nil
	case StateFinalized:
		return missingf("deformation already baked; handle is no longer live")
	default:
		return invalidf("no live deformation to adjust in state %s", h.state)
	}
}

// Evaluate computes the conformed geometry for the current offset without
// touching the scene. Projection handles yield the full prosthetic world
// mesh with the socket region snapped to the offset surface; subtraction
// handles yield the cut filler solid.
func (h *Handle) Evaluate() (*mesh.Mesh, error) {
	switch h.state {
	case StateFitted:
		return h.base.ProjectRegion(h.region, h.target, h.offset), nil
	case StateCutApplied:
		return h.base.CarveByOffset(h.target, h.offset), nil
	default:
		return nil, invalidf("nothing to evaluate in state %s", h.state)
	}
}

// Bake converts the live deformation into concrete geometry. Irreversible:
// the constraint (and, for subtraction, the proxy) is discarded and the
// handle stops accepting offset changes.
func (h *Handle) Bake() error {
	conformed, err := h.Evaluate()
	if err != nil {
		return err
	}

	switch h.strategy {
	case StrategyProjection:
		// Conformed geometry is in world space; store it back in the
		// prosthetic's local space so the object keeps its pose.
		inv, ok := h.prosthetic.Transform.Inverse()
		if !ok {
			return degeneratef("prosthetic pose is singular and cannot be unapplied")
		}
		conformed.Transform(inv)
		h.prosthetic.Mesh = conformed
	case StrategySubtraction:
		filler, err := h.session.scene.FindObject(FillerName)
		if err != nil {
			return missingf("could not find %q or its boolean state", FillerName)
		}
		filler.Mesh = conformed
		h.session.scene.Remove(ProxyName)
	}

	h.state = StateFinalized
	return nil
}

// BakeIsolated bakes on a copy of the prosthetic and strips everything
// outside the socket region, publishing the result as Socket_Isolated.
// When neither the material tag nor the group resolves a region on the
// baked copy, the bake still succeeds with isolation skipped; the returned
// flag reports that partial success.
func (h *Handle) BakeIsolated() (isolated bool, err error) {
	if h.strategy != StrategyProjection {
		return false, invalidf("isolated bake requires the projection strategy")
	}
	conformed, err := h.Evaluate()
	if err != nil {
		return false, err
	}

	keep, regionErr := conformed.RegionVertices(h.criterion)
	if regionErr != nil || len(keep) == 0 {
		// Region isolation is best-effort: publish the full bake.
		h.session.scene.AddOrReplace(scene.NewObject(IsolatedName, conformed))
		h.state = StateFinalized
		return false, nil
	}

	h.session.scene.AddOrReplace(scene.NewObject(IsolatedName, conformed.SubsetByVertices(keep)))
	h.state = StateFinalized
	return true, nil
}
