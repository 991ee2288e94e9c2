// Package app provides application lifecycle management, state, and events.
package app

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"handfit/internal/fitting"
	"handfit/internal/landmark"
	"handfit/internal/meshio"
	"handfit/internal/project"
	"handfit/internal/scene"
)

// State holds the application state: the scene, the fitting session bound to
// it, the live conformance handle, and the current project file.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Scene and workflow
	Scene   *scene.Scene
	Session *fitting.Session
	Handle  *fitting.Handle

	// Source mesh paths, for project persistence
	ScanPath       string
	ProstheticPath string

	Strategy fitting.Strategy

	// ShowFillerPreview controls whether a freshly built filler is visible.
	ShowFillerPreview bool

	// offset is the desired clearance in meters. It survives project
	// round-trips and is applied to each new conformance handle.
	offset float64

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventMeshLoaded
	EventLandmarksChanged
	EventFitComplete
	EventConformanceChanged
	EventModified
)

// EventListener is called when an event of interest occurs.
type EventListener func(data interface{})

// NewState creates a new application state with an empty scene.
func NewState() *State {
	sc := scene.New()
	return &State{
		Scene:             sc,
		Session:           fitting.NewSession(sc),
		Strategy:          fitting.StrategyProjection,
		ShowFillerPreview: true,
		offset:            fitting.DefaultOffset,
		listeners:         make(map[EventType][]EventListener),
	}
}

// On registers an event listener.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	s.listeners[event] = append(s.listeners[event], listener)
	s.mu.Unlock()
}

// Emit notifies all listeners of an event.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := append([]EventListener(nil), s.listeners[event]...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(data)
	}
}

// SetModified updates the modified flag and emits EventModified.
func (s *State) SetModified(modified bool) {
	s.Modified = modified
	s.Emit(EventModified, modified)
}

// Close releases the fitting session.
func (s *State) Close() {
	s.Session.Close()
}

// LoadScanMesh loads the hand scan OBJ into the scene, replacing any
// previous scan. Landmarks placed on the old scan are kept.
func (s *State) LoadScanMesh(path string) error {
	m, err := meshio.LoadFile(path)
	if err != nil {
		return err
	}
	s.Scene.AddOrReplace(scene.NewObject(landmark.HandScanName, m))
	s.ScanPath = path
	s.SetModified(true)
	s.Emit(EventMeshLoaded, landmark.HandScanName)
	log.Printf("Loaded scan %s: %d vertices, %d faces", path, len(m.Vertices), len(m.Faces))
	return nil
}

// LoadProstheticMesh loads the prosthetic OBJ into the scene.
func (s *State) LoadProstheticMesh(path string) error {
	m, err := meshio.LoadFile(path)
	if err != nil {
		return err
	}
	s.Scene.AddOrReplace(scene.NewObject(landmark.ProstheticName, m))
	s.ProstheticPath = path
	s.SetModified(true)
	s.Emit(EventMeshLoaded, landmark.ProstheticName)
	log.Printf("Loaded prosthetic %s: %d vertices, %d faces", path, len(m.Vertices), len(m.Faces))
	return nil
}

// CreateLandmarks adds any missing landmark empties at their parent object's
// position.
func (s *State) CreateLandmarks() ([]string, error) {
	created, err := s.Session.CreateLandmarks()
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		s.SetModified(true)
		s.Emit(EventLandmarksChanged, created)
	}
	return created, nil
}

// RunFit runs the full fitting workflow with the current strategy and keeps
// the resulting conformance handle live for offset adjustment.
func (s *State) RunFit() error {
	h, err := s.Session.RunFittingProcess(s.Strategy)
	if err != nil {
		return err
	}
	if err := h.SetOffset(s.offset); err != nil {
		return err
	}
	s.Handle = h
	s.SetModified(true)
	s.Emit(EventFitComplete, h)
	return nil
}

// BuildFillerPreview builds just the socket filler so it can be inspected
// before fitting.
func (s *State) BuildFillerPreview() error {
	h, err := s.Session.BuildFillerOnly()
	if err != nil {
		return err
	}
	if !s.ShowFillerPreview {
		if filler, ferr := s.Scene.FindObject(fitting.FillerName); ferr == nil {
			filler.Hidden = true
		}
	}
	s.Handle = h
	s.SetModified(true)
	s.Emit(EventConformanceChanged, h)
	return nil
}

// SetOffset sets the desired clearance in meters. A live handle is updated
// immediately; otherwise the value is held and applied by the next fit.
func (s *State) SetOffset(offset float64) error {
	if s.Handle != nil {
		if err := s.Handle.SetOffset(offset); err != nil {
			return err
		}
	}
	s.offset = offset
	s.SetModified(true)
	s.Emit(EventConformanceChanged, s.Handle)
	return nil
}

// Offset returns the current clearance in meters.
func (s *State) Offset() float64 {
	if s.Handle == nil {
		return s.offset
	}
	return s.Handle.Offset()
}

// Bake finalizes the live deformation into concrete geometry. The handle
// stays around so its terminal state can be shown, but stops accepting
// changes.
func (s *State) Bake() error {
	if s.Handle == nil {
		return fmt.Errorf("no fit has been run")
	}
	if err := s.Handle.Bake(); err != nil {
		return err
	}
	s.SetModified(true)
	s.Emit(EventConformanceChanged, s.Handle)
	return nil
}

// BakeIsolated bakes the projection onto a copy and isolates the socket
// region into its own scene object.
func (s *State) BakeIsolated() (bool, error) {
	if s.Handle == nil {
		return false, fmt.Errorf("no fit has been run")
	}
	isolated, err := s.Handle.BakeIsolated()
	if err != nil {
		return false, err
	}
	s.SetModified(true)
	s.Emit(EventConformanceChanged, s.Handle)
	return isolated, nil
}

// ExportObject writes the named scene object's world-space mesh as OBJ.
func (s *State) ExportObject(name, path string) error {
	o, err := s.Scene.FindObject(name)
	if err != nil {
		return err
	}
	world := o.WorldMesh()
	if world == nil {
		return fmt.Errorf("%q has no mesh to export", name)
	}
	return meshio.SaveFile(path, world)
}

// SaveProject writes the project file: mesh paths, landmark positions, and
// conformance parameters.
func (s *State) SaveProject(path string) error {
	proj := project.New(projectName(path))
	proj.SetScanPath(path, s.ScanPath)
	proj.SetProstheticPath(path, s.ProstheticPath)
	proj.Strategy = s.Strategy.String()
	proj.OffsetM = s.Offset()
	proj.Fitted = s.Handle != nil
	proj.Settings.ShowFillerPreview = s.ShowFillerPreview

	for _, name := range landmark.AllNames() {
		if p, err := s.Scene.Landmark(name); err == nil {
			proj.Landmarks[name] = p
		}
	}

	if err := proj.Save(path); err != nil {
		return err
	}
	s.ProjectPath = path
	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject reads a project file, loads its meshes, and restores the
// landmarks. The fit itself is not replayed; the user re-runs it.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	if proj.ScanPath != "" {
		if err := s.LoadScanMesh(proj.ResolvePath(path, proj.ScanPath)); err != nil {
			return err
		}
	}
	if proj.ProstheticPath != "" {
		if err := s.LoadProstheticMesh(proj.ResolvePath(path, proj.ProstheticPath)); err != nil {
			return err
		}
	}
	for name, p := range proj.Landmarks {
		s.Scene.AddOrReplace(scene.NewEmpty(name, p))
	}
	if proj.Strategy == fitting.StrategySubtraction.String() {
		s.Strategy = fitting.StrategySubtraction
	} else {
		s.Strategy = fitting.StrategyProjection
	}
	if proj.OffsetM > 0 {
		s.offset = proj.OffsetM
	}
	s.ShowFillerPreview = proj.Settings.ShowFillerPreview

	s.ProjectPath = path
	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	s.Emit(EventLandmarksChanged, nil)
	return nil
}

func projectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
