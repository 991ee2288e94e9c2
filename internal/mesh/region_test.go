package mesh

import (
	"testing"

	"handfit/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketCube returns a cube whose bottom and side faces carry the
// InnerSocket material while the top faces carry Shell.
func socketCube() *Mesh {
	cube := makeCube(geometry.Vec3{}, 1, "InnerSocket")
	shell := cube.EnsureMaterial("Shell")
	cube.Faces[2].Material = shell
	cube.Faces[3].Material = shell
	return cube
}

func TestFacesByMaterial(t *testing.T) {
	cube := socketCube()

	faces, err := cube.FacesByMaterial("InnerSocket")
	require.NoError(t, err)
	assert.Len(t, faces, 10)

	_, err = cube.FacesByMaterial("Liner")
	assert.Error(t, err)
}

func TestBuildGroupFromMaterialReplaces(t *testing.T) {
	cube := socketCube()

	n, err := cube.BuildGroupFromMaterial("Socket_VG", "InnerSocket")
	require.NoError(t, err)
	assert.Equal(t, 8, n) // every cube vertex touches a side or bottom face

	// Seed a stale member, rebuild, and verify replacement.
	cube.Groups["Socket_VG"][99] = 1.0
	n, err = cube.BuildGroupFromMaterial("Socket_VG", "InnerSocket")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.NotContains(t, cube.Groups["Socket_VG"], 99)

	_, err = cube.BuildGroupFromMaterial("Socket_VG", "Missing")
	assert.Error(t, err)
}

func TestRegionFacesFallsBackToGroup(t *testing.T) {
	cube := socketCube()
	_, err := cube.BuildGroupFromMaterial("Socket_VG", "InnerSocket")
	require.NoError(t, err)

	t.Run("material tag wins when present", func(t *testing.T) {
		faces, err := cube.RegionFaces(Criterion{Material: "InnerSocket", Group: "Socket_VG"})
		require.NoError(t, err)
		assert.Len(t, faces, 10)
	})

	t.Run("missing material falls back to group", func(t *testing.T) {
		faces, err := cube.RegionFaces(Criterion{Material: "Gone", Group: "Socket_VG"})
		require.NoError(t, err)
		// All 8 vertices are members, so every face qualifies.
		assert.Len(t, faces, 12)
	})

	t.Run("neither available", func(t *testing.T) {
		_, err := cube.RegionFaces(Criterion{Material: "Gone", Group: "AlsoGone"})
		assert.Error(t, err)
	})
}

func TestRegionVertices(t *testing.T) {
	cube := socketCube()

	verts, err := cube.RegionVertices(Criterion{Material: "Shell"})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7}, verts)

	cube.Groups["Tip"] = map[int]float64{2: 0.5, 6: 1.0, 3: 0}
	verts, err = cube.RegionVertices(Criterion{Group: "Tip"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6}, verts) // zero weights excluded
}
