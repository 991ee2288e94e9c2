package mesh

import (
	"testing"

	"handfit/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openCubeRegion returns a unit-half cube and the face set excluding the
// top, leaving one square boundary loop at z = +1.
func openCubeRegion() (*Mesh, []int) {
	cube := makeCube(geometry.Vec3{}, 1, "InnerSocket")
	var region []int
	for i := range cube.Faces {
		if i == 2 || i == 3 { // top faces
			continue
		}
		region = append(region, i)
	}
	return cube, region
}

func TestBuildFillerClosesBoundary(t *testing.T) {
	cube, region := openCubeRegion()

	filler, err := BuildFiller(cube, region)
	require.NoError(t, err)

	assert.True(t, filler.IsWatertight())
	// Flat centroid cap over the square opening restores the full volume.
	assert.InDelta(t, 8.0, filler.SignedVolume(), 1e-9)
	// 10 region faces + 4 cap fan faces.
	assert.Len(t, filler.Faces, 14)
}

func TestBuildFillerNormalizesInvertedWinding(t *testing.T) {
	cube, region := openCubeRegion()
	// Flip a couple of region faces; orientation repair must recover.
	cube.flipFace(region[0])
	cube.flipFace(region[5])

	filler, err := BuildFiller(cube, region)
	require.NoError(t, err)
	assert.True(t, filler.IsWatertight())
	assert.InDelta(t, 8.0, filler.SignedVolume(), 1e-9)
}

func TestBuildFillerWholeSolidNeedsNoCap(t *testing.T) {
	cube := makeCube(geometry.Vec3{}, 1, "InnerSocket")
	all := make([]int, len(cube.Faces))
	for i := range all {
		all[i] = i
	}

	filler, err := BuildFiller(cube, all)
	require.NoError(t, err)
	assert.Len(t, filler.Faces, 12)
	assert.InDelta(t, 8.0, filler.SignedVolume(), 1e-9)
}

func TestBuildFillerEmptyRegion(t *testing.T) {
	cube := makeCube(geometry.Vec3{}, 1, "InnerSocket")
	_, err := BuildFiller(cube, nil)
	assert.Error(t, err)
}

func TestBuildFillerRejectsNonManifoldEdge(t *testing.T) {
	m := New()
	m.Vertices = []geometry.Vec3{
		{}, {X: 1}, {Y: 1}, {Z: 1}, {Y: -1},
	}
	// Three faces share the edge 0-1.
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: -1},
		{V: [3]int{0, 1, 3}, Material: -1},
		{V: [3]int{0, 1, 4}, Material: -1},
	}

	_, err := BuildFiller(m, []int{0, 1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-manifold")
}

func TestBuildFillerRejectsBowtieBoundary(t *testing.T) {
	m := New()
	m.Vertices = []geometry.Vec3{
		{}, {X: 1}, {X: 1, Y: 1}, {X: -1}, {X: -1, Y: -1},
	}
	// Two triangles joined only at vertex 0: the boundary branches there.
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: -1},
		{V: [3]int{0, 3, 4}, Material: -1},
	}

	_, err := BuildFiller(m, []int{0, 1})
	assert.Error(t, err)
}

func TestSubsetByFacesRemaps(t *testing.T) {
	cube := makeCube(geometry.Vec3{}, 1, "InnerSocket")
	cube.Groups["Socket_VG"] = map[int]float64{4: 1.0, 5: 1.0, 6: 1.0, 7: 1.0}

	sub := cube.SubsetByFaces([]int{2, 3}) // top faces
	assert.Len(t, sub.Faces, 2)
	assert.Len(t, sub.Vertices, 4)
	for _, v := range sub.Vertices {
		assert.Equal(t, 1.0, v.Z)
	}
	assert.Len(t, sub.Groups["Socket_VG"], 4)
}
