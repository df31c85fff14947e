// Package scene is the object store: the scene objects, the selected
// object, edit mode with its face selection, and scene-wide settings.
// Geometry and materials are resolved when objects are added or patched
// so that every stored object carries its mesh and derived properties.
package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/props"
)

var (
	// ErrNotFound is returned for an id the store does not hold.
	ErrNotFound = errors.New("scene: object not found")
	// ErrNotEditing is returned for face operations outside edit mode.
	ErrNotEditing = errors.New("scene: not in edit mode")
)

// Mode is the interaction mode.
type Mode string

const (
	ModeObject Mode = "object"
	ModeEdit   Mode = "edit"
)

// Settings are scene-wide preferences.
type Settings struct {
	GridVisible    bool       `json:"gridVisible"`
	SnapToGrid     bool       `json:"snapToGrid"`
	GridSize       float64    `json:"gridSize"`
	DefaultUnits   props.Unit `json:"defaultUnits"`
	ShowDimensions bool       `json:"showDimensions"`
	ShowMaterials  bool       `json:"showMaterials"`
}

// DefaultSettings returns the settings of a new scene.
func DefaultSettings() Settings {
	return Settings{
		GridVisible:    true,
		SnapToGrid:     true,
		GridSize:       1,
		DefaultUnits:   props.Centimeter,
		ShowDimensions: true,
		ShowMaterials:  true,
	}
}

// Store holds the scene. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	kernel   kernel.Kernel
	ids      IDAllocator
	now      func() time.Time
	objects  []*Object
	created  int
	selected string
	mode     Mode
	faces    *mesh.Selection
	gizmo    gizmo.Mode
	settings Settings
	version  uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSettings replaces the default settings.
func WithSettings(st Settings) Option {
	return func(s *Store) { s.settings = st }
}

// NewStore returns an empty store that builds meshes with k and names
// objects with ids.
func NewStore(k kernel.Kernel, ids IDAllocator, opts ...Option) *Store {
	s := &Store{
		kernel:   k,
		ids:      ids,
		now:      time.Now,
		mode:     ModeObject,
		settings: DefaultSettings(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Version increases on every change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// Add creates an object from spec, selects it and returns its id.
func (s *Store) Add(spec Spec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.newObject(spec)
	if err != nil {
		return "", err
	}
	s.objects = append(s.objects, o)
	s.selected = o.ID
	s.version++
	return o.ID, nil
}

func (s *Store) newObject(spec Spec) (*Object, error) {
	if _, err := primitive.ParseType(string(spec.Type)); err != nil {
		return nil, fmt.Errorf("scene: add: %w", err)
	}
	geom := primitive.Params{}
	if spec.Geometry != nil {
		geom = *spec.Geometry
	}
	geom, err := primitive.WithDefaults(spec.Type, geom)
	if err != nil {
		return nil, fmt.Errorf("scene: add: %w", err)
	}

	n := s.created + 1
	o := &Object{
		Type:     spec.Type,
		Name:     spec.Name,
		Material: spec.Material,
		Color:    spec.Color,
		Geometry: geom,
		Units: Units{
			Length:           s.settings.DefaultUnits,
			DisplayPrecision: DefaultDisplayPrecision,
		},
		Documentation: Documentation{
			PartNumber:  fmt.Sprintf("P%04d", n),
			Revision:    "A",
			DateCreated: s.now().Format("2006-01-02"),
		},
		Transform: gizmo.Identity(),
		Visible:   !spec.Hidden,
	}
	if o.Name == "" {
		o.Name = fmt.Sprintf("%s %d", spec.Type.Title(), n)
	}
	if o.Material == "" {
		o.Material = material.DefaultKeyFor(string(spec.Type))
	}
	if spec.Transform != nil {
		o.Transform = *spec.Transform
	}
	if spec.Units != nil {
		o.Units = *spec.Units
	}
	if spec.Documentation != nil {
		doc := *spec.Documentation
		if doc.PartNumber == "" {
			doc.PartNumber = o.Documentation.PartNumber
		}
		if doc.Revision == "" {
			doc.Revision = o.Documentation.Revision
		}
		if doc.DateCreated == "" {
			doc.DateCreated = o.Documentation.DateCreated
		}
		o.Documentation = doc
	}

	if err := s.rebuild(o); err != nil {
		return nil, fmt.Errorf("scene: add: %w", err)
	}
	if err := s.recompute(o); err != nil {
		return nil, fmt.Errorf("scene: add: %w", err)
	}
	// Only consume an id once the object is known to be valid.
	o.ID = s.ids.Next()
	s.created = n
	return o, nil
}

// rebuild regenerates o.Mesh from its geometry, dropping topology edits.
func (s *Store) rebuild(o *Object) error {
	m, err := primitive.Build(s.kernel, o.Type, o.Geometry)
	if err != nil {
		return err
	}
	m.Name = o.Name
	o.Mesh = m
	o.Edited = false
	return nil
}

func (s *Store) recompute(o *Object) error {
	mat, err := material.Lookup(o.Material)
	if err != nil {
		return err
	}
	p, err := props.Compute(o.Type, o.Geometry, mat, o.Units.Length)
	if err != nil {
		return err
	}
	o.Properties = p
	return nil
}

// Get returns a copy of the object with the given id.
func (s *Store) Get(id string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.find(id)
	if o == nil {
		return Object{}, false
	}
	return *o, true
}

// Objects returns copies of all objects in insertion order.
func (s *Store) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.objects, func(o *Object, _ int) Object { return *o })
}

// Visible returns copies of the visible objects in insertion order.
func (s *Store) Visible() []Object {
	return lo.Filter(s.Objects(), func(o Object, _ int) bool { return o.Visible })
}

// Len returns the number of objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Store) find(id string) *Object {
	o, _ := lo.Find(s.objects, func(o *Object) bool { return o.ID == id })
	return o
}

// Update applies p to the object. Properties are recomputed only when
// the geometry, the mesh or the material changes. A geometry change
// rebuilds the mesh and discards topology edits. The update is atomic:
// on error the object is unchanged.
func (s *Store) Update(id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.find(id)
	if o == nil {
		return fmt.Errorf("scene: update %s: %w", id, ErrNotFound)
	}
	next := *o

	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Material != nil {
		next.Material = *p.Material
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.Transform != nil {
		next.Transform = *p.Transform
	}
	if p.Units != nil {
		next.Units = *p.Units
	}
	if p.Documentation != nil {
		next.Documentation = *p.Documentation
	}
	if p.Visible != nil {
		next.Visible = *p.Visible
	}
	if p.Geometry != nil {
		g, err := primitive.WithDefaults(next.Type, *p.Geometry)
		if err != nil {
			return fmt.Errorf("scene: update %s: %w", id, err)
		}
		next.Geometry = g
		if err := s.rebuild(&next); err != nil {
			return fmt.Errorf("scene: update %s: %w", id, err)
		}
	}
	if p.Mesh != nil {
		if err := p.Mesh.Validate(); err != nil {
			return fmt.Errorf("scene: update %s: %w", id, err)
		}
		next.Mesh = p.Mesh
		next.Edited = true
	}
	if p.touchesProperties() {
		if err := s.recompute(&next); err != nil {
			return fmt.Errorf("scene: update %s: %w", id, err)
		}
	}

	meshChanged := next.Mesh != o.Mesh
	*o = next
	if meshChanged && s.faces != nil && s.selected == id {
		// Face indices do not survive a mesh change.
		s.faces = mesh.NewSelection(o.Mesh)
	}
	s.version++
	return nil
}

// Remove deletes the object. Removing the selected object clears the
// selection and leaves edit mode.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.objects)
	s.objects = lo.Reject(s.objects, func(o *Object, _ int) bool { return o.ID == id })
	if len(s.objects) == n {
		return fmt.Errorf("scene: remove %s: %w", id, ErrNotFound)
	}
	if s.selected == id {
		s.selected = ""
		s.leaveEdit()
	}
	s.version++
	return nil
}

// Clear removes every object.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Store) clear() {
	s.objects = nil
	s.selected = ""
	s.leaveEdit()
	s.version++
}

// Load replaces the scene with objects built from specs. Nothing changes
// if any spec is invalid.
func (s *Store) Load(specs []Spec) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.created
	built := make([]*Object, 0, len(specs))
	for i, spec := range specs {
		o, err := s.newObject(spec)
		if err != nil {
			s.created = created
			return nil, fmt.Errorf("scene: load object %d: %w", i, err)
		}
		built = append(built, o)
	}
	s.clear()
	s.objects = built
	if len(built) > 0 {
		s.selected = built[len(built)-1].ID
	}
	return lo.Map(built, func(o *Object, _ int) string { return o.ID }), nil
}

// ---------------------------------------------------------------------------
// Selection and modes
// ---------------------------------------------------------------------------

// Select makes id the selected object. An empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.find(id) == nil {
		return fmt.Errorf("scene: select %s: %w", id, ErrNotFound)
	}
	if id != s.selected {
		s.leaveEdit()
	}
	s.selected = id
	s.version++
	return nil
}

// Selected returns a copy of the selected object.
func (s *Store) Selected() (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := s.find(s.selected)
	if o == nil {
		return Object{}, false
	}
	return *o, true
}

// SelectedID returns the selected id, or "".
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Mode returns the interaction mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// EnterEditMode selects id and starts face editing with no faces selected.
func (s *Store) EnterEditMode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.find(id)
	if o == nil {
		return fmt.Errorf("scene: edit %s: %w", id, ErrNotFound)
	}
	s.selected = id
	s.mode = ModeEdit
	s.faces = mesh.NewSelection(o.Mesh)
	s.version++
	return nil
}

// ExitEditMode returns to object mode and drops the face selection.
func (s *Store) ExitEditMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveEdit()
	s.version++
}

func (s *Store) leaveEdit() {
	s.mode = ModeObject
	s.faces = nil
}

// ToggleFace adds or removes face f of the edited object and reports
// whether it is now selected.
func (s *Store) ToggleFace(f int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.editing()
	if err != nil {
		return false, err
	}
	if f < 0 || f >= o.Mesh.TriangleCount() {
		return false, fmt.Errorf("scene: toggle face: %w: face %d", mesh.ErrFaceOutOfRange, f)
	}
	if s.faces == nil || s.faces.Stale(o.Mesh) {
		s.faces = mesh.NewSelection(o.Mesh)
	}
	on := s.faces.Toggle(f)
	s.version++
	return on, nil
}

// Faces returns the selected faces of the edited object in ascending
// order. A selection taken against an older mesh is reported empty.
func (s *Store) Faces() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, err := s.editing()
	if err != nil || s.faces == nil || s.faces.Stale(o.Mesh) {
		return nil
	}
	return s.faces.Faces()
}

// ClearFaces empties the face selection.
func (s *Store) ClearFaces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, err := s.editing(); err == nil {
		s.faces = mesh.NewSelection(o.Mesh)
		s.version++
	}
}

func (s *Store) editing() (*Object, error) {
	if s.mode != ModeEdit {
		return nil, ErrNotEditing
	}
	o := s.find(s.selected)
	if o == nil {
		return nil, ErrNotEditing
	}
	return o, nil
}

// GizmoMode returns the transform gizmo mode.
func (s *Store) GizmoMode() gizmo.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gizmo
}

// SetGizmoMode sets the transform gizmo mode.
func (s *Store) SetGizmoMode(m gizmo.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gizmo = m
	s.version++
}

// Settings returns the scene settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the scene settings. Existing objects keep their
// units.
func (s *Store) SetSettings(st Settings) error {
	if _, err := props.ParseUnit(string(st.DefaultUnits)); err != nil {
		return fmt.Errorf("scene: settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
	s.version++
	return nil
}
