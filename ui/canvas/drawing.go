// Package canvas provides drawing primitives for the mesh preview.
package canvas

import (
	"image"
	"image/color"

	"handfit/internal/fitting"
	"handfit/internal/landmark"
	"handfit/internal/mesh"
	"handfit/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// Object colors for the preview. The hidden scan proxy never reaches the
// canvas, so it has no entry.
var objectColors = map[string]color.RGBA{
	landmark.HandScanName:   {R: 0x00, G: 0x9E, B: 0xC4, A: 0xFF}, // teal
	landmark.ProstheticName: {R: 0xFF, G: 0x8A, B: 0x00, A: 0xFF}, // amber
	fitting.FillerName:      {R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}, // green
	fitting.IsolatedName:    {R: 0xBA, G: 0x68, B: 0xC8, A: 0xFF}, // purple
}

var (
	defaultObjectColor = color.RGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
	backgroundColor    = color.RGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF}
)

// viewport maps world coordinates on the view plane to buffer pixels.
type viewport struct {
	plane   ViewPlane
	scale   float64
	offsetU float64
	offsetV float64
	height  int
}

// uv projects a world point onto the view plane.
func (vp viewport) uv(p geometry.Vec3) (float64, float64) {
	switch vp.plane {
	case PlaneXZ:
		return p.X, p.Z
	case PlaneYZ:
		return p.Y, p.Z
	default:
		return p.X, p.Y
	}
}

// pixel maps a world point to buffer coordinates, Y up.
func (vp viewport) pixel(p geometry.Vec3) (int, int) {
	u, v := vp.uv(p)
	x := int((u-vp.offsetU)*vp.scale + 0.5)
	y := vp.height - 1 - int((v-vp.offsetV)*vp.scale+0.5)
	return x, y
}

// drawScene renders the scene wireframes and markers into an RGBA image of
// the requested size. Rendering happens at renderScale resolution and is
// filtered down for smoother edges.
func (mc *MeshCanvas) drawScene(w, h int) image.Image {
	bw, bh := w*renderScale, h*renderScale
	buf := image.NewRGBA(image.Rect(0, 0, bw, bh))
	fillRect(buf, backgroundColor)

	if mc.scene != nil {
		if vp, ok := mc.frame(bw, bh); ok {
			for _, o := range mc.scene.Objects() {
				if o.Hidden || mc.hidden[o.Name] || o.Mesh == nil {
					continue
				}
				drawWireframe(buf, vp, o.WorldMesh(), colorFor(o.Name))
			}
			drawMarkers(buf, vp, mc.markers)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), buf, buf.Bounds(), xdraw.Src, nil)
	return out
}

// frame computes the viewport that fits all visible geometry into the
// buffer, honoring the current zoom.
func (mc *MeshCanvas) frame(bw, bh int) (viewport, bool) {
	vp := viewport{plane: mc.plane, height: bh}

	var box geometry.Box
	first := true
	grow := func(p geometry.Vec3) {
		if first {
			box = geometry.Box{Min: p, Max: p}
			first = false
			return
		}
		box = box.Include(p)
	}
	for _, o := range mc.scene.Objects() {
		if o.Hidden || mc.hidden[o.Name] || o.Mesh == nil {
			continue
		}
		b := o.WorldMesh().Bounds()
		grow(b.Min)
		grow(b.Max)
	}
	for _, m := range mc.markers {
		grow(m.Position)
	}
	if first {
		return vp, false
	}

	minU, minV := vp.uv(box.Min)
	maxU, maxV := vp.uv(box.Max)
	spanU := maxU - minU
	spanV := maxV - minV
	if spanU <= 0 {
		spanU = 1e-3
	}
	if spanV <= 0 {
		spanV = 1e-3
	}

	const margin = 0.92
	scale := float64(bw) / spanU
	if s := float64(bh) / spanV; s < scale {
		scale = s
	}
	scale *= margin * mc.zoom
	vp.scale = scale

	// Center the framed region in the buffer.
	vp.offsetU = (minU + maxU - float64(bw)/scale) / 2
	vp.offsetV = (minV + maxV - float64(bh)/scale) / 2
	return vp, true
}

// drawWireframe draws every unique edge of the mesh.
func drawWireframe(buf *image.RGBA, vp viewport, m *mesh.Mesh, c color.RGBA) {
	drawn := make(map[[2]int]bool, len(m.Faces)*3)
	for _, f := range m.Faces {
		for e := 0; e < 3; e++ {
			a, b := f.V[e], f.V[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if drawn[key] {
				continue
			}
			drawn[key] = true
			x0, y0 := vp.pixel(m.Vertices[a])
			x1, y1 := vp.pixel(m.Vertices[b])
			drawLine(buf, x0, y0, x1, y1, c)
		}
	}
}

func colorFor(name string) color.RGBA {
	if c, ok := objectColors[name]; ok {
		return c
	}
	return defaultObjectColor
}

func fillRect(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawLine draws a line with Bresenham's algorithm, clipped to the buffer.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	b := img.Bounds()
	for {
		if x0 >= b.Min.X && x0 < b.Max.X && y0 >= b.Min.Y && y0 < b.Max.Y {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
