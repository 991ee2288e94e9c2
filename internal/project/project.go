// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"handfit/pkg/geometry"
)

// File represents a fitting project file (.handfit). Mesh paths are stored
// relative to the project file so a project directory can be moved whole.
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	ScanPath       string `json:"scan_mesh,omitempty"`
	ProstheticPath string `json:"prosthetic_mesh,omitempty"`

	// Landmark world positions keyed by landmark name, in meters.
	Landmarks map[string]geometry.Vec3 `json:"landmarks,omitempty"`

	// Conformance state
	Strategy string  `json:"strategy,omitempty"`
	OffsetM  float64 `json:"offset_m,omitempty"`
	Fitted   bool    `json:"fitted"`

	Settings Settings `json:"settings,omitempty"`
}

// Settings holds per-project preferences.
type Settings struct {
	ShowFillerPreview bool `json:"show_filler_preview"`
}

// New creates a project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:   1,
		Name:      name,
		Created:   now,
		Modified:  now,
		Landmarks: make(map[string]geometry.Vec3),
		Settings: Settings{
			ShowFillerPreview: true,
		},
	}
}

// Load loads a project from a .handfit file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	if proj.Landmarks == nil {
		proj.Landmarks = make(map[string]geometry.Vec3)
	}
	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SetScanPath stores the scan mesh path relative to the project file.
func (p *File) SetScanPath(projectPath, meshPath string) {
	p.ScanPath = relativize(projectPath, meshPath)
	p.Modified = time.Now()
}

// SetProstheticPath stores the prosthetic mesh path relative to the project
// file.
func (p *File) SetProstheticPath(projectPath, meshPath string) {
	p.ProstheticPath = relativize(projectPath, meshPath)
	p.Modified = time.Now()
}

// ResolvePath turns a stored relative mesh path back into an absolute one.
func (p *File) ResolvePath(projectPath, stored string) string {
	if stored == "" || filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(filepath.Dir(projectPath), stored)
}

func relativize(projectPath, target string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), target)
	if err != nil {
		return target
	}
	return rel
}
