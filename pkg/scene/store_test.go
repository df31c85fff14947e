package scene

import (
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/kernel/facet"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/props"
)

func newStore() *Store {
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return NewStore(facet.New(), &CounterAllocator{}, WithClock(func() time.Time { return day }))
}

func ptr[T any](v T) *T { return &v }

func TestAddDefaults(t *testing.T) {
	s := newStore()
	id, err := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, err)
	assert.Equal(t, "obj_1", id)

	o, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Cube 1", o.Name)
	assert.Equal(t, "steel", o.Material)
	assert.Equal(t, props.Centimeter, o.Units.Length)
	assert.Equal(t, "P0001", o.Documentation.PartNumber)
	assert.Equal(t, "A", o.Documentation.Revision)
	assert.Equal(t, "2026-03-14", o.Documentation.DateCreated)
	assert.True(t, o.Visible)
	assert.True(t, o.Transform.ApproxEqual(gizmo.Identity()))
	assert.InDelta(t, 0.001, o.Properties.Volume, 1e-12)
	assert.InDelta(t, 7.85, o.Properties.Mass, 1e-12)
	assert.InDelta(t, 6.28, o.Properties.Cost, 1e-12)
	require.NotNil(t, o.Mesh)
	assert.Equal(t, 12, o.Mesh.TriangleCount())

	sel, ok := s.Selected()
	require.True(t, ok, "a new object is selected")
	assert.Equal(t, id, sel.ID)

	id2, err := s.Add(Spec{Type: primitive.Sphere})
	require.NoError(t, err)
	o2, _ := s.Get(id2)
	assert.Equal(t, "Sphere 2", o2.Name)
	assert.Equal(t, "aluminum", o2.Material)
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := newStore()
	_, err := s.Add(Spec{Type: "torus"})
	assert.ErrorIs(t, err, primitive.ErrUnknownType)

	_, err = s.Add(Spec{Type: primitive.Cube, Material: "cheese"})
	assert.Error(t, err)
	assert.Zero(t, s.Len())

	// Failed adds do not burn names.
	id, err := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, err)
	o, _ := s.Get(id)
	assert.Equal(t, "Cube 1", o.Name)
}

func TestUpdateRecomputesOnlyForGeometryOrMaterial(t *testing.T) {
	s := newStore()
	id, err := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, err)
	before, _ := s.Get(id)

	moved := gizmo.Identity()
	moved.Position = mgl64.Vec3{5, 0, 0}
	moved.Scale = mgl64.Vec3{2, 2, 2}
	require.NoError(t, s.Update(id, Patch{Transform: &moved}))
	after, _ := s.Get(id)
	assert.Equal(t, before.Properties, after.Properties, "transforms never change properties")
	assert.Same(t, before.Mesh, after.Mesh)

	require.NoError(t, s.Update(id, Patch{Material: ptr("aluminum")}))
	al, _ := s.Get(id)
	assert.InDelta(t, 2.7, al.Properties.Mass, 1e-12)

	require.NoError(t, s.Update(id, Patch{Geometry: &primitive.Params{Width: 20, Height: 10, Depth: 10}}))
	big, _ := s.Get(id)
	assert.InDelta(t, 0.002, big.Properties.Volume, 1e-12)
	assert.NotSame(t, al.Mesh, big.Mesh, "geometry changes rebuild the mesh")
}

func TestUpdateIsAtomic(t *testing.T) {
	s := newStore()
	id, err := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, err)
	err = s.Update(id, Patch{Name: ptr("Renamed"), Material: ptr("cheese")})
	assert.Error(t, err)
	o, _ := s.Get(id)
	assert.Equal(t, "Cube 1", o.Name)

	assert.ErrorIs(t, s.Update("obj_99", Patch{}), ErrNotFound)
}

func TestMeshOverride(t *testing.T) {
	s := newStore()
	id, err := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, err)
	o, _ := s.Get(id)

	extruded, err := mesh.ExtrudeFaces(o.Mesh, []int{0}, 1)
	require.NoError(t, err)
	require.NoError(t, s.Update(id, Patch{Mesh: extruded}))
	o, _ = s.Get(id)
	assert.True(t, o.Edited)
	assert.Same(t, extruded, o.Mesh)

	bad := &mesh.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 1, 2}}
	assert.ErrorIs(t, s.Update(id, Patch{Mesh: bad}), mesh.ErrIndexOutOfRange)
}

func TestRemoveClearsSelection(t *testing.T) {
	s := newStore()
	a, _ := s.Add(Spec{Type: primitive.Cube})
	b, _ := s.Add(Spec{Type: primitive.Cube})
	require.Equal(t, b, s.SelectedID())

	require.NoError(t, s.Remove(a))
	assert.Equal(t, b, s.SelectedID(), "removing another object keeps the selection")

	require.NoError(t, s.EnterEditMode(b))
	require.NoError(t, s.Remove(b))
	assert.Empty(t, s.SelectedID())
	assert.Equal(t, ModeObject, s.Mode())
	assert.ErrorIs(t, s.Remove(b), ErrNotFound)
}

func TestEditModeFaceSelection(t *testing.T) {
	s := newStore()
	id, _ := s.Add(Spec{Type: primitive.Cube})

	_, err := s.ToggleFace(0)
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, s.EnterEditMode(id))
	assert.Equal(t, ModeEdit, s.Mode())
	on, err := s.ToggleFace(3)
	require.NoError(t, err)
	assert.True(t, on)
	_, err = s.ToggleFace(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, s.Faces())

	on, err = s.ToggleFace(3)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []int{1}, s.Faces())

	_, err = s.ToggleFace(12)
	assert.ErrorIs(t, err, mesh.ErrFaceOutOfRange)

	// A topology edit invalidates the face indices.
	o, _ := s.Get(id)
	out, err := mesh.InsetFaces(o.Mesh, s.Faces(), 0.5)
	require.NoError(t, err)
	require.NoError(t, s.Update(id, Patch{Mesh: out}))
	assert.Empty(t, s.Faces())

	s.ExitEditMode()
	assert.Equal(t, ModeObject, s.Mode())
	assert.Nil(t, s.Faces())
}

func TestSelectOtherObjectLeavesEditMode(t *testing.T) {
	s := newStore()
	a, _ := s.Add(Spec{Type: primitive.Cube})
	b, _ := s.Add(Spec{Type: primitive.Cube})
	require.NoError(t, s.EnterEditMode(a))
	require.NoError(t, s.Select(b))
	assert.Equal(t, ModeObject, s.Mode())
	assert.ErrorIs(t, s.Select("nope"), ErrNotFound)
	require.NoError(t, s.Select(""))
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestLoadReplacesScene(t *testing.T) {
	s := newStore()
	_, _ = s.Add(Spec{Type: primitive.Sphere})

	ids, err := s.Load([]Spec{
		{Type: primitive.Cube, Name: "Deck"},
		{Type: primitive.Cube, Name: "Post", Hidden: true},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, ids[1], s.SelectedID())
	assert.Len(t, s.Visible(), 1)

	_, err = s.Load([]Spec{{Type: primitive.Cube}, {Type: "torus"}})
	assert.Error(t, err)
	assert.Equal(t, 2, s.Len(), "a failed load keeps the old scene")
}

func TestVersionAdvances(t *testing.T) {
	s := newStore()
	v := s.Version()
	_, _ = s.Add(Spec{Type: primitive.Cube})
	assert.Greater(t, s.Version(), v)
}

func TestAllocators(t *testing.T) {
	a, err := NewAllocator("counter")
	require.NoError(t, err)
	assert.Equal(t, "obj_1", a.Next())
	assert.Equal(t, "obj_2", a.Next())

	u, err := NewAllocator("uuid")
	require.NoError(t, err)
	x, y := u.Next(), u.Next()
	assert.True(t, strings.HasPrefix(x, "obj_"))
	assert.NotEqual(t, x, y)

	_, err = NewAllocator("snowflake")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := newStore()
	a, _ := s.Add(Spec{Type: primitive.Cube, Name: "Wall"})
	_, _ = s.Add(Spec{Type: primitive.Cube, Name: "Wall"})
	flat := gizmo.Identity()
	flat.Scale[1] = 0
	require.NoError(t, s.Update(a, Patch{Transform: &flat}))

	findings := s.Validate()
	assert.False(t, HasErrors(findings))
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, SeverityWarning, f.Severity)
	}
	assert.Contains(t, findings[0].Error(), "[warning]")
}
