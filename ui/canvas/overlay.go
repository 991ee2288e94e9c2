// Package canvas provides overlay types for the mesh preview.
package canvas

import (
	"image"
	"image/color"

	"handfit/pkg/geometry"
)

// Marker is a labeled crosshair drawn at a world position, used for
// landmarks.
type Marker struct {
	Position geometry.Vec3
	Label    string
	Color    color.RGBA
}

// crossSize is the crosshair half-extent in buffer pixels.
const crossSize = 6 * renderScale

// drawMarkers draws crosshairs with labels on top of the wireframes.
func drawMarkers(buf *image.RGBA, vp viewport, markers []Marker) {
	for _, m := range markers {
		x, y := vp.pixel(m.Position)
		drawLine(buf, x-crossSize, y, x+crossSize, y, m.Color)
		drawLine(buf, x, y-crossSize, x, y+crossSize, m.Color)
		drawLabel(buf, x+crossSize+2, y-crossSize, m.Label, m.Color)
	}
}

// glyphs contains 3x5 pixel patterns for the characters marker labels use.
// Each glyph is 5 rows of 3 bits.
var glyphs = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'_': {0b000, 0b000, 0b000, 0b000, 0b111},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

const (
	glyphW = 3
	glyphH = 5
	// glyphScale enlarges the 3x5 patterns so labels survive downsampling.
	glyphScale = 2 * renderScale
)

// drawLabel draws text using the tiny bitmap font. Characters without a
// glyph render as a space.
func drawLabel(img *image.RGBA, x, y int, text string, c color.RGBA) {
	b := img.Bounds()
	cx := x
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		pattern, ok := glyphs[r]
		if !ok {
			pattern = glyphs[' ']
		}
		for row := 0; row < glyphH; row++ {
			for col := 0; col < glyphW; col++ {
				if pattern[row]&(1<<(glyphW-1-col)) == 0 {
					continue
				}
				for dy := 0; dy < glyphScale; dy++ {
					for dx := 0; dx < glyphScale; dx++ {
						px := cx + col*glyphScale + dx
						py := y + row*glyphScale + dy
						if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
							img.SetRGBA(px, py, c)
						}
					}
				}
			}
		}
		cx += (glyphW + 1) * glyphScale
	}
}
