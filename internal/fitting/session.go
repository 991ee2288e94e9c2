package fitting

import (
	"handfit/internal/landmark"
	"handfit/internal/mesh"
	"handfit/internal/scene"
)

// Names of the scene artifacts the workflow creates. Re-running a step
// replaces an artifact of the same name instead of accumulating copies.
const (
	FillerName   = "Socket_Filler"
	ProxyName    = "HandScan_Proxy"
	IsolatedName = "Socket_Isolated"

	SocketGroupName    = "Socket_VG"
	SocketMaterialName = "InnerSocket"
)

// DefaultOffset is the clearance applied right after a fit, in meters.
const DefaultOffset = 0.003

// Session owns one fitting workflow against a scene. It installs the scene
// change listener that keeps the scale tracker live and removes it on
// Close; there is no package-level handler state.
type Session struct {
	scene  *scene.Scene
	token  int
	closed bool

	// Filler preview parameters, in meters. Applied on the next filler
	// build; adjusting them does not mutate an already published filler.
	fillerThickness float64
	fillerPush      float64
}

// NewSession creates a session and starts tracking prosthetic scale
// changes. The caller owns the session and must Close it.
func NewSession(sc *scene.Scene) *Session {
	s := &Session{scene: sc}
	s.token = sc.On(scene.EventTransformChanged, func(o *scene.Object) {
		if o.Name == landmark.ProstheticName {
			updateTrackerFromPose(o)
		}
	})
	return s
}

// Scene returns the scene this session operates on.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Close removes the session's scene listener. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.scene.Off(scene.EventTransformChanged, s.token)
	s.closed = true
}

// SetFillerParams sets the filler preview parameters: thickness inflates
// the filler solid along its vertex normals, push slides it along the
// average socket-face normal. Both in meters, both zero by default.
func (s *Session) SetFillerParams(thickness, push float64) {
	s.fillerThickness = thickness
	s.fillerPush = push
}

// FillerParams returns the current filler thickness and push, in meters.
func (s *Session) FillerParams() (thickness, push float64) {
	return s.fillerThickness, s.fillerPush
}

// sceneObjects fetches the scan and prosthetic, failing with a precondition
// error naming whichever is missing.
func (s *Session) sceneObjects() (scan, prosthetic *scene.Object, err error) {
	scan, err = s.scene.FindObject(landmark.HandScanName)
	if err != nil {
		return nil, nil, missingf("could not find %q", landmark.HandScanName)
	}
	prosthetic, err = s.scene.FindObject(landmark.ProstheticName)
	if err != nil {
		return nil, nil, missingf("could not find %q", landmark.ProstheticName)
	}
	if scan.Mesh == nil {
		return nil, nil, missingf("%q has no mesh", landmark.HandScanName)
	}
	if prosthetic.Mesh == nil {
		return nil, nil, missingf("%q has no mesh", landmark.ProstheticName)
	}
	return scan, prosthetic, nil
}

// landmarkTriple fetches three landmark positions, failing with a
// precondition error naming the first missing landmark.
func (s *Session) landmarkTriple(names []string) (landmark.Triple, error) {
	var t landmark.Triple
	for i, name := range names {
		p, err := s.scene.Landmark(name)
		if err != nil {
			return landmark.Triple{}, missingf("could not find landmark %q", name)
		}
		switch i {
		case 0:
			t.WristL = p
		case 1:
			t.WristR = p
		case 2:
			t.Palm = p
		}
	}
	return t, nil
}

// CreateLandmarks creates any missing landmark empties at their parent
// object's position and returns the names created. Existing landmarks are
// left untouched, so the operation is idempotent.
func (s *Session) CreateLandmarks() ([]string, error) {
	scan, prosthetic, err := s.sceneObjects()
	if err != nil {
		return nil, err
	}

	parents := map[string]*scene.Object{
		landmark.HandWristL: scan, landmark.HandWristR: scan, landmark.HandPalm: scan,
		landmark.ProstheticWristL: prosthetic, landmark.ProstheticWristR: prosthetic,
		landmark.ProstheticPalm: prosthetic,
	}

	var created []string
	for _, name := range landmark.AllNames() {
		if s.scene.Has(name) {
			continue
		}
		s.scene.AddOrReplace(scene.NewEmpty(name, parents[name].Position()))
		created = append(created, name)
	}
	return created, nil
}

// EnsureSocketGroup rebuilds the socket vertex group from the faces
// carrying the InnerSocket material and returns the member count.
func (s *Session) EnsureSocketGroup() (int, error) {
	_, prosthetic, err := s.sceneObjects()
	if err != nil {
		return 0, err
	}
	n, err := prosthetic.Mesh.BuildGroupFromMaterial(SocketGroupName, SocketMaterialName)
	if err != nil {
		return 0, missingf("prosthetic is missing the %q material", SocketMaterialName)
	}
	return n, nil
}

// SocketCriterion is the region selector the workflow uses by default:
// the InnerSocket material, falling back to the socket vertex group.
func SocketCriterion() mesh.Criterion {
	return mesh.Criterion{Material: SocketMaterialName, Group: SocketGroupName}
}
