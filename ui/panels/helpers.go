package panels

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"handfit/internal/landmark"
	"handfit/internal/scene"
	"handfit/ui/canvas"
)

// The geometry core works in meters; panels convert at the widget boundary.

func mmToMeters(mm float64) float64 {
	return mm / 1000
}

func metersToMM(m float64) float64 {
	return m * 1000
}

func formatOffsetMM(mm float64) string {
	return fmt.Sprintf("Offset: %.1f mm", mm)
}

// parsePercent parses a percentage entry, rejecting non-positive values.
func parsePercent(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("enter a percentage, e.g. 100")
	}
	if v <= 0 {
		return 0, fmt.Errorf("percentage must be positive")
	}
	return v, nil
}

var (
	handMarkerColor       = color.RGBA{R: 0x00, G: 0xE5, B: 0xFF, A: 0xFF}
	prostheticMarkerColor = color.RGBA{R: 0xFF, G: 0xD7, B: 0x40, A: 0xFF}
)

// landmarkMarkers builds canvas markers for every landmark currently in the
// scene. Labels show the short part of the name ("Wrist_L", "Palm").
func landmarkMarkers(sc *scene.Scene) []canvas.Marker {
	var markers []canvas.Marker
	for _, name := range landmark.AllNames() {
		p, err := sc.Landmark(name)
		if err != nil {
			continue
		}
		c := handMarkerColor
		if strings.HasPrefix(name, "Prosthetic") {
			c = prostheticMarkerColor
		}
		label := name
		if i := strings.IndexByte(name, '_'); i >= 0 {
			label = name[i+1:]
		}
		markers = append(markers, canvas.Marker{Position: p, Label: label, Color: c})
	}
	return markers
}
