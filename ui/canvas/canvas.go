// Package canvas provides an orthographic mesh preview with pan and zoom.
package canvas

import (
	"image"

	"handfit/internal/scene"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25

	// renderScale is the supersampling factor for the offscreen buffer; the
	// buffer is filtered down to the widget size for smoother edges.
	renderScale = 2
)

// ViewPlane selects which pair of world axes maps to the screen.
type ViewPlane int

const (
	PlaneXY ViewPlane = iota // palm view
	PlaneXZ                  // top view
	PlaneYZ                  // side view
)

// String names the plane for the view selector.
func (p ViewPlane) String() string {
	switch p {
	case PlaneXZ:
		return "Top (XZ)"
	case PlaneYZ:
		return "Side (YZ)"
	default:
		return "Palm (XY)"
	}
}

// MeshCanvas renders the scene's meshes as wireframes in an orthographic
// projection, with landmark markers on top.
type MeshCanvas struct {
	widget.BaseWidget

	scene   *scene.Scene
	plane   ViewPlane
	zoom    float64
	markers []Marker

	// Per-object display overrides, keyed by scene object name.
	hidden map[string]bool

	raster *fynecanvas.Raster

	fitToWindow bool
}

// NewMeshCanvas creates an empty mesh canvas.
func NewMeshCanvas() *MeshCanvas {
	mc := &MeshCanvas{
		zoom:        1.0,
		fitToWindow: true,
		hidden:      make(map[string]bool),
	}
	mc.raster = fynecanvas.NewRaster(mc.render)
	mc.ExtendBaseWidget(mc)
	return mc
}

// CreateRenderer implements fyne.Widget.
func (mc *MeshCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(mc.raster)
}

// SetScene attaches the scene to preview.
func (mc *MeshCanvas) SetScene(sc *scene.Scene) {
	mc.scene = sc
	mc.Refresh()
}

// SetPlane selects the view plane.
func (mc *MeshCanvas) SetPlane(p ViewPlane) {
	mc.plane = p
	mc.Refresh()
}

// Plane returns the current view plane.
func (mc *MeshCanvas) Plane() ViewPlane {
	return mc.plane
}

// SetMarkers replaces the marker overlay.
func (mc *MeshCanvas) SetMarkers(markers []Marker) {
	mc.markers = markers
	mc.Refresh()
}

// SetObjectVisible overrides visibility of a named object in the preview.
func (mc *MeshCanvas) SetObjectVisible(name string, visible bool) {
	mc.hidden[name] = !visible
	mc.Refresh()
}

// ZoomIn increases the zoom by one step.
func (mc *MeshCanvas) ZoomIn() {
	mc.SetZoom(mc.zoom * zoomStep)
}

// ZoomOut decreases the zoom by one step.
func (mc *MeshCanvas) ZoomOut() {
	mc.SetZoom(mc.zoom / zoomStep)
}

// SetZoom sets an absolute zoom factor, clamped to the supported range.
func (mc *MeshCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	mc.zoom = zoom
	mc.fitToWindow = false
	mc.Refresh()
}

// Zoom returns the current zoom factor.
func (mc *MeshCanvas) Zoom() float64 {
	return mc.zoom
}

// SetFitToWindow toggles automatic framing of the whole scene.
func (mc *MeshCanvas) SetFitToWindow(fit bool) {
	mc.fitToWindow = fit
	if fit {
		mc.zoom = 1.0
	}
	mc.Refresh()
}

// GetFitToWindow reports whether automatic framing is active.
func (mc *MeshCanvas) GetFitToWindow() bool {
	return mc.fitToWindow
}

// Scrolled zooms with the mouse wheel.
func (mc *MeshCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		mc.ZoomIn()
	} else {
		mc.ZoomOut()
	}
}

// Refresh redraws the preview.
func (mc *MeshCanvas) Refresh() {
	mc.raster.Refresh()
	mc.BaseWidget.Refresh()
}

// render is the raster generator: it draws the scene at a supersampled
// resolution and filters down to the requested size.
func (mc *MeshCanvas) render(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	return mc.drawScene(w, h)
}
