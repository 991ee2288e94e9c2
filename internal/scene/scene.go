// Package scene provides the in-memory scene graph the fitting workflow
// operates on: named objects with meshes, world transforms, and scalar
// attributes, plus change events for live trackers.
package scene

import (
	"fmt"
	"sync"

	"handfit/internal/mesh"
	"handfit/pkg/geometry"
)

// Object is a named scene element. Landmarks are objects without a mesh;
// their world position is the translation part of the transform.
type Object struct {
	Name      string
	Mesh      *mesh.Mesh
	Transform geometry.Mat4
	Hidden    bool

	// Attrs persists a handful of scalars across interactions (tracker
	// baselines, last applied offset). Opaque to the geometry core.
	Attrs map[string]float64
}

// NewObject creates an object with an identity pose.
func NewObject(name string, m *mesh.Mesh) *Object {
	return &Object{
		Name:      name,
		Mesh:      m,
		Transform: geometry.Identity(),
		Attrs:     make(map[string]float64),
	}
}

// NewEmpty creates a mesh-less landmark object at the given world position.
func NewEmpty(name string, position geometry.Vec3) *Object {
	o := NewObject(name, nil)
	o.Transform = geometry.Translation(position)
	return o
}

// Position returns the object's world position.
func (o *Object) Position() geometry.Vec3 {
	return o.Transform.Translation()
}

// WorldMesh returns a copy of the object's mesh with the world pose baked
// into the vertices. Returns nil for mesh-less objects.
func (o *Object) WorldMesh() *mesh.Mesh {
	if o.Mesh == nil {
		return nil
	}
	m := o.Mesh.Clone()
	m.Transform(o.Transform)
	return m
}

// Attr returns a persisted scalar attribute, or fallback when unset.
func (o *Object) Attr(key string, fallback float64) float64 {
	if v, ok := o.Attrs[key]; ok {
		return v
	}
	return fallback
}

// HasAttr reports whether the scalar attribute is set.
func (o *Object) HasAttr(key string) bool {
	_, ok := o.Attrs[key]
	return ok
}

// EventType identifies scene change events.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventObjectRemoved
	EventTransformChanged
)

// Listener is called when a scene event occurs.
type Listener func(obj *Object)

// Scene is an ordered collection of uniquely named objects. All mutation
// happens on the interaction thread; the mutex guards only the listener
// registry, which UI toolkits may touch from their own callbacks.
type Scene struct {
	mu        sync.RWMutex
	objects   []*Object
	listeners map[EventType]map[int]Listener
	nextID    int
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{listeners: make(map[EventType]map[int]Listener)}
}

// NotFoundError reports a missing scene object by name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scene object %q not found", e.Name)
}

// FindObject returns the named object or a NotFoundError.
func (s *Scene) FindObject(name string) (*Object, error) {
	for _, o := range s.objects {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// Has reports whether an object of the given name exists.
func (s *Scene) Has(name string) bool {
	_, err := s.FindObject(name)
	return err == nil
}

// Landmark returns the world position of the named landmark object.
func (s *Scene) Landmark(name string) (geometry.Vec3, error) {
	o, err := s.FindObject(name)
	if err != nil {
		return geometry.Vec3{}, err
	}
	return o.Position(), nil
}

// AddOrReplace inserts the object, replacing any existing object of the
// same name so repeated runs never accumulate duplicate artifacts.
func (s *Scene) AddOrReplace(o *Object) {
	for i, existing := range s.objects {
		if existing.Name == o.Name {
			s.objects[i] = o
			s.emit(EventObjectAdded, o)
			return
		}
	}
	s.objects = append(s.objects, o)
	s.emit(EventObjectAdded, o)
}

// Remove deletes the named object if present.
func (s *Scene) Remove(name string) {
	for i, o := range s.objects {
		if o.Name == name {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.emit(EventObjectRemoved, o)
			return
		}
	}
}

// Objects returns the objects in insertion order.
func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.objects...)
}

// SetWorldTransform writes the object's world pose and notifies listeners.
func (s *Scene) SetWorldTransform(o *Object, t geometry.Mat4) {
	o.Transform = t
	s.emit(EventTransformChanged, o)
}

// On registers a listener and returns a token for Off.
func (s *Scene) On(event EventType, l Listener) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]Listener)
	}
	s.nextID++
	s.listeners[event][s.nextID] = l
	return s.nextID
}

// Off removes a previously registered listener.
func (s *Scene) Off(event EventType, token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners[event], token)
}

func (s *Scene) emit(event EventType, o *Object) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners[event]))
	for _, l := range s.listeners[event] {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()
	for _, l := range listeners {
		l(o)
	}
}
