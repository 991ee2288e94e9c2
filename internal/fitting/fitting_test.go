package fitting

import (
	"errors"
	"testing"

	"handfit/internal/landmark"
	"handfit/internal/mesh"
	"handfit/internal/scene"
	"handfit/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCube builds an axis-aligned cube of the given half-extent centered at
// the origin with outward normals. Faces carry the given material except
// the top two, which carry "Shell".
func testCube(half float64, material string) *mesh.Mesh {
	m := mesh.New()
	m.Materials = []string{material, "Shell"}
	for _, d := range [][3]float64{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	} {
		m.Vertices = append(m.Vertices, geometry.Vec3{X: d[0] * half, Y: d[1] * half, Z: d[2] * half})
	}
	for i, f := range [][3]int{
		{0, 2, 1}, {0, 3, 2},
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4},
		{2, 3, 7}, {2, 7, 6},
		{0, 4, 7}, {0, 7, 3},
		{1, 2, 6}, {1, 6, 5},
	} {
		slot := 0
		if i == 2 || i == 3 {
			slot = 1
		}
		m.Faces = append(m.Faces, mesh.Face{V: f, Material: slot})
	}
	return m
}

// pointedCube is a testCube whose top faces are replaced by a Shell pyramid
// to an apex, so the socket region excludes at least one vertex.
func pointedCube(half float64, material string) *mesh.Mesh {
	m := testCube(half, material)
	m.Vertices = append(m.Vertices, geometry.Vec3{Z: 2 * half})
	m.Faces = m.Faces[:2:2]
	m.Faces = append(m.Faces,
		mesh.Face{V: [3]int{4, 5, 8}, Material: 1},
		mesh.Face{V: [3]int{5, 6, 8}, Material: 1},
		mesh.Face{V: [3]int{6, 7, 8}, Material: 1},
		mesh.Face{V: [3]int{7, 4, 8}, Material: 1},
		mesh.Face{V: [3]int{0, 1, 5}, Material: 0},
		mesh.Face{V: [3]int{0, 5, 4}, Material: 0},
		mesh.Face{V: [3]int{2, 3, 7}, Material: 0},
		mesh.Face{V: [3]int{2, 7, 6}, Material: 0},
		mesh.Face{V: [3]int{0, 4, 7}, Material: 0},
		mesh.Face{V: [3]int{0, 7, 3}, Material: 0},
		mesh.Face{V: [3]int{1, 2, 6}, Material: 0},
		mesh.Face{V: [3]int{1, 6, 5}, Material: 0},
	)
	return m
}

// fittingScene builds a scan cube at the origin and a half-size prosthetic
// parked at x = +5, with all six landmarks placed so that the reference
// alignment scales by exactly 2 with no rotation.
func fittingScene() *scene.Scene {
	sc := scene.New()

	sc.AddOrReplace(scene.NewObject(landmark.HandScanName, testCube(1, "Skin")))

	prosthetic := scene.NewObject(landmark.ProstheticName, testCube(0.5, SocketMaterialName))
	prosthetic.Transform = geometry.Translation(geometry.Vec3{X: 5})
	sc.AddOrReplace(prosthetic)

	sc.AddOrReplace(scene.NewEmpty(landmark.HandWristL, geometry.Vec3{X: -1}))
	sc.AddOrReplace(scene.NewEmpty(landmark.HandWristR, geometry.Vec3{X: 1}))
	sc.AddOrReplace(scene.NewEmpty(landmark.HandPalm, geometry.Vec3{Y: 2}))
	sc.AddOrReplace(scene.NewEmpty(landmark.ProstheticWristL, geometry.Vec3{X: 4.5}))
	sc.AddOrReplace(scene.NewEmpty(landmark.ProstheticWristR, geometry.Vec3{X: 5.5}))
	sc.AddOrReplace(scene.NewEmpty(landmark.ProstheticPalm, geometry.Vec3{X: 5, Y: 1}))

	return sc
}

func TestFitProsthetic(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	metrics, err := s.FitProsthetic()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, metrics.ScaleXY, 1e-12)
	assert.InDelta(t, 2.0, metrics.ScaleZ, 1e-12)

	// The prosthetic cube now coincides with the scan cube.
	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	world := prosthetic.WorldMesh()
	b := world.Bounds()
	assert.InDelta(t, -1, b.Min.X, 1e-9)
	assert.InDelta(t, 1, b.Max.X, 1e-9)
	assert.InDelta(t, -1, b.Min.Z, 1e-9)
	assert.InDelta(t, 1, b.Max.Z, 1e-9)
}

func TestFitProstheticMissingLandmarkAbortsWithoutMutation(t *testing.T) {
	sc := fittingScene()
	sc.Remove(landmark.HandPalm)
	s := NewSession(sc)
	defer s.Close()

	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	before := prosthetic.Transform

	_, err := s.FitProsthetic()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPrecondition))
	assert.Contains(t, err.Error(), landmark.HandPalm)
	assert.Equal(t, before, prosthetic.Transform)
}

func TestFitProstheticComputationIsDeterministic(t *testing.T) {
	run := func() geometry.Mat4 {
		sc := fittingScene()
		s := NewSession(sc)
		defer s.Close()
		_, err := s.FitProsthetic()
		require.NoError(t, err)
		prosthetic, _ := sc.FindObject(landmark.ProstheticName)
		return prosthetic.Transform
	}
	assert.Equal(t, run(), run())
}

func TestCreateLandmarksIdempotent(t *testing.T) {
	sc := scene.New()
	sc.AddOrReplace(scene.NewObject(landmark.HandScanName, testCube(1, "Skin")))
	sc.AddOrReplace(scene.NewObject(landmark.ProstheticName, testCube(0.5, SocketMaterialName)))
	s := NewSession(sc)
	defer s.Close()

	created, err := s.CreateLandmarks()
	require.NoError(t, err)
	assert.Len(t, created, 6)

	created, err = s.CreateLandmarks()
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestEnsureSocketGroupMissingMaterial(t *testing.T) {
	sc := fittingScene()
	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	prosthetic.Mesh.Materials = []string{"Other", "Shell"}
	s := NewSession(sc)
	defer s.Close()

	_, err := s.EnsureSocketGroup()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPrecondition))
	assert.Contains(t, err.Error(), SocketMaterialName)
}

func TestProjectionLifecycle(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	h, err := s.StartProjection(SocketCriterion(), DefaultOffset)
	require.NoError(t, err)
	assert.Equal(t, StateFitted, h.State())

	t.Run("last offset wins", func(t *testing.T) {
		require.NoError(t, h.SetOffset(0.003))
		require.NoError(t, h.SetOffset(0.005))
		assert.Equal(t, 0.005, h.Offset())
	})

	t.Run("evaluation lands on the offset surface", func(t *testing.T) {
		conformed, err := h.Evaluate()
		require.NoError(t, err)
		require.NotEmpty(t, h.region)
		clearances := conformed.Clearances(h.region, h.target)
		for _, c := range clearances {
			assert.InDelta(t, 0.005, c, 1e-9)
		}
	})

	t.Run("bake is irreversible", func(t *testing.T) {
		require.NoError(t, h.Bake())
		assert.Equal(t, StateFinalized, h.State())

		err := h.SetOffset(0.004)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingPrecondition))
	})
}

func TestSubtractionLifecycle(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	h, err := s.StartSubtraction(SocketCriterion())
	require.NoError(t, err)
	assert.Equal(t, StateUnfitted, h.State())

	t.Run("cut before filler is rejected", func(t *testing.T) {
		err := h.ApplyCut(DefaultOffset)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidMode))
	})

	require.NoError(t, h.BuildFiller())
	assert.Equal(t, StateFillerBuilt, h.State())
	assert.True(t, sc.Has(FillerName))

	t.Run("rebuilding replaces the filler", func(t *testing.T) {
		require.NoError(t, h.BuildFiller())
		count := 0
		for _, o := range sc.Objects() {
			if o.Name == FillerName {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	require.NoError(t, h.ApplyCut(DefaultOffset))
	assert.Equal(t, StateCutApplied, h.State())

	proxy, err := sc.FindObject(ProxyName)
	require.NoError(t, err)
	assert.True(t, proxy.Hidden)
	assert.Equal(t, DefaultOffset, proxy.Attr("offset_m", 0))

	t.Run("proxy is the scan grown by the offset", func(t *testing.T) {
		scan, _ := sc.FindObject(landmark.HandScanName)
		sb := scan.WorldMesh().Bounds()
		pb := proxy.Mesh.Bounds()
		assert.Greater(t, pb.Max.Z, sb.Max.Z)
		assert.Less(t, pb.Min.Z, sb.Min.Z)
	})

	t.Run("offset change updates the proxy parameter", func(t *testing.T) {
		before := proxy.Mesh.Bounds()
		require.NoError(t, h.SetOffset(0.005))
		assert.Equal(t, 0.005, proxy.Attr("offset_m", 0))
		assert.Greater(t, proxy.Mesh.Bounds().Max.Z, before.Max.Z)
	})

	t.Run("evaluation clears the scan by the offset", func(t *testing.T) {
		cut, err := h.Evaluate()
		require.NoError(t, err)
		for i, v := range cut.Vertices {
			hit := h.target.ClosestPoint(v)
			assert.GreaterOrEqual(t, hit.Distance, 0.005-1e-9, "vertex %d", i)
		}
	})

	t.Run("bake removes the proxy and freezes the handle", func(t *testing.T) {
		require.NoError(t, h.Bake())
		assert.Equal(t, StateFinalized, h.State())
		assert.False(t, sc.Has(ProxyName))

		err := h.SetOffset(0.004)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingPrecondition))
	})
}

func TestFillerParams(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	h, err := s.StartSubtraction(SocketCriterion())
	require.NoError(t, err)
	require.NoError(t, h.BuildFiller())
	filler, _ := sc.FindObject(FillerName)
	base := filler.Mesh.Bounds()

	t.Run("push slides the filler along the region normal", func(t *testing.T) {
		s.SetFillerParams(0, 0.02)
		require.NoError(t, h.BuildFiller())
		filler, _ := sc.FindObject(FillerName)
		b := filler.Mesh.Bounds()
		// Socket face normals sum toward -Z, so the filler slides down.
		assert.InDelta(t, base.Max.Z-0.02, b.Max.Z, 1e-9)
		assert.InDelta(t, base.Min.Z-0.02, b.Min.Z, 1e-9)
	})

	t.Run("thickness inflates the filler", func(t *testing.T) {
		s.SetFillerParams(0.01, 0)
		require.NoError(t, h.BuildFiller())
		filler, _ := sc.FindObject(FillerName)
		b := filler.Mesh.Bounds()
		assert.Greater(t, b.Max.X, base.Max.X)
		assert.Less(t, b.Min.X, base.Min.X)
	})
}

func TestRunFittingProcess(t *testing.T) {
	t.Run("projection strategy", func(t *testing.T) {
		sc := fittingScene()
		s := NewSession(sc)
		defer s.Close()

		h, err := s.RunFittingProcess(StrategyProjection)
		require.NoError(t, err)
		assert.Equal(t, StateFitted, h.State())
		assert.Equal(t, DefaultOffset, h.Offset())
	})

	t.Run("subtraction strategy", func(t *testing.T) {
		sc := fittingScene()
		s := NewSession(sc)
		defer s.Close()

		h, err := s.RunFittingProcess(StrategySubtraction)
		require.NoError(t, err)
		assert.Equal(t, StateCutApplied, h.State())
		assert.True(t, sc.Has(FillerName))
		assert.True(t, sc.Has(ProxyName))
	})

	t.Run("alignment survives a conformance failure", func(t *testing.T) {
		sc := fittingScene()
		prosthetic, _ := sc.FindObject(landmark.ProstheticName)
		// Bowtie region: filler construction must fail after alignment.
		prosthetic.Mesh = bowtieMesh()
		s := NewSession(sc)
		defer s.Close()

		before := prosthetic.Transform
		_, err := s.RunFittingProcess(StrategySubtraction)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDegenerateGeometry))
		assert.NotEqual(t, before, prosthetic.Transform)
	})
}

// bowtieMesh is two triangles joined at a single vertex, carrying the
// socket material; its boundary cannot be closed into a solid.
func bowtieMesh() *mesh.Mesh {
	m := mesh.New()
	m.Materials = []string{SocketMaterialName}
	m.Vertices = []geometry.Vec3{
		{}, {X: 1}, {X: 1, Y: 1}, {X: -1}, {X: -1, Y: -1},
	}
	m.Faces = []mesh.Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{0, 3, 4}, Material: 0},
	}
	return m
}

func TestBakeIsolated(t *testing.T) {
	sc := fittingScene()
	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	prosthetic.Mesh = pointedCube(0.5, SocketMaterialName)
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	t.Run("isolates the socket region", func(t *testing.T) {
		h, err := s.StartProjection(SocketCriterion(), DefaultOffset)
		require.NoError(t, err)

		isolated, err := h.BakeIsolated()
		require.NoError(t, err)
		assert.True(t, isolated)
		assert.Equal(t, StateFinalized, h.State())

		// The Shell pyramid is stripped; only the socket faces remain.
		o, err := sc.FindObject(IsolatedName)
		require.NoError(t, err)
		assert.Len(t, o.Mesh.Faces, 10)
		assert.Len(t, o.Mesh.Vertices, 8)
	})

	t.Run("partial success when no region resolves", func(t *testing.T) {
		h, err := s.StartProjection(SocketCriterion(), DefaultOffset)
		require.NoError(t, err)
		// Drop both the tag and the group between start and bake.
		h.criterion = mesh.Criterion{Material: "Gone", Group: "AlsoGone"}

		isolated, err := h.BakeIsolated()
		require.NoError(t, err)
		assert.False(t, isolated)
		assert.True(t, sc.Has(IsolatedName))
	})
}

func TestReport(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	h, err := s.StartProjection(SocketCriterion(), DefaultOffset)
	require.NoError(t, err)

	r, err := h.Report()
	require.NoError(t, err)
	assert.Equal(t, len(h.region), r.Samples)
	assert.InDelta(t, DefaultOffset, r.Mean, 1e-6)
	assert.InDelta(t, 1.0, r.WithinTolerance, 1e-12)
}

func TestTrackerLifecycle(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)

	prosthetic, _ := sc.FindObject(landmark.ProstheticName)

	t.Run("baseline recorded once", func(t *testing.T) {
		_, err := s.FitProsthetic()
		require.NoError(t, err)
		state := TrackerStateOf(prosthetic)
		assert.InDelta(t, 1.0, state.BaselineWrist, 1e-12)
		assert.InDelta(t, 1.0, state.BaselinePalm, 1e-12)
		assert.InDelta(t, 2.0, state.FactorX, 1e-12)
		assert.InDelta(t, 200.0, state.PercentX(), 1e-12)

		// A second fit must not overwrite the baseline.
		_, err = s.FitProsthetic()
		require.NoError(t, err)
		state = TrackerStateOf(prosthetic)
		assert.InDelta(t, 1.0, state.BaselineWrist, 1e-12)
	})

	t.Run("live scale changes update the tracker", func(t *testing.T) {
		sc.SetWorldTransform(prosthetic, geometry.Scaling(3, 3, 1.5))
		state := TrackerStateOf(prosthetic)
		assert.InDelta(t, 3.0, state.FactorX, 1e-9)
		assert.InDelta(t, 1.5, state.FactorZ, 1e-9)
	})

	t.Run("closed session stops tracking", func(t *testing.T) {
		s.Close()
		sc.SetWorldTransform(prosthetic, geometry.Scaling(7, 7, 7))
		state := TrackerStateOf(prosthetic)
		assert.InDelta(t, 3.0, state.FactorX, 1e-9)
	})
}

func TestSetManualBaseline(t *testing.T) {
	o := scene.NewObject(landmark.ProstheticName, nil)
	o.Attrs[AttrBaselineWrist] = 0.08
	o.Attrs[AttrBaselinePalm] = 0.10

	SetManualBaseline(o, 50)
	assert.InDelta(t, 0.04, o.Attr(AttrBaselineWrist, 0), 1e-12)
	assert.InDelta(t, 0.05, o.Attr(AttrBaselinePalm, 0), 1e-12)

	// Non-positive percentages are ignored.
	SetManualBaseline(o, 0)
	assert.InDelta(t, 0.04, o.Attr(AttrBaselineWrist, 0), 1e-12)
}

func TestApplyTrackedScale(t *testing.T) {
	sc := fittingScene()
	s := NewSession(sc)
	defer s.Close()

	_, err := s.FitProsthetic()
	require.NoError(t, err)

	prosthetic, _ := sc.FindObject(landmark.ProstheticName)
	other := scene.NewObject("Liner", testCube(0.25, "Liner"))
	other.Transform = geometry.Translation(geometry.Vec3{X: 2})
	sc.AddOrReplace(other)

	ApplyTrackedScale(sc, prosthetic, other)

	// Scaled 2x about its own position: stays at x=2, doubles in size.
	assert.InDelta(t, 2.0, other.Position().X, 1e-9)
	world := other.WorldMesh()
	size := world.Bounds().Size()
	assert.InDelta(t, 1.0, size.X, 1e-9)
	assert.InDelta(t, 1.0, size.Y, 1e-9)
}
