package gizmo

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/pick"
)

var lookDown = mgl64.Vec3{0, 0, -1}

// down returns a ray looking along -Z from height 10 above (x, y).
func down(x, y float64) pick.Ray {
	return pick.Ray{Origin: mgl64.Vec3{x, y, 10}, Direction: lookDown}
}

type recorder struct {
	previews []Transform
	commits  []Transform
}

func (r *recorder) callbacks() TransformCallbacks {
	return TransformCallbacks{
		Preview: func(_ string, t Transform) { r.previews = append(r.previews, t) },
		Commit:  func(_ string, t Transform) { r.commits = append(r.commits, t) },
	}
}

func attached(t *testing.T, rec *recorder) *TransformGizmo {
	t.Helper()
	g := NewTransformGizmo(DefaultTransformConfig(), rec.callbacks())
	g.Attach(&Target{ID: "obj_1", Transform: Identity()})
	require.Equal(t, StateIdle, g.State())
	return g
}

func colorOf(g interface{ Handles() []HandleView }, id pick.NodeID) uint32 {
	for _, h := range g.Handles() {
		if h.ID == id {
			return h.Color
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Transform gizmo
// ---------------------------------------------------------------------------

func TestTransformNoTargetIsInert(t *testing.T) {
	g := NewTransformGizmo(DefaultTransformConfig(), TransformCallbacks{})
	assert.Equal(t, StateHidden, g.State())
	assert.False(t, g.PointerDown(down(0.5, 0), lookDown))
	assert.False(t, g.PointerMove(down(1, 0)))
	assert.False(t, g.PointerUp())
	assert.Empty(t, g.Handles())
}

func TestTranslateDrag(t *testing.T) {
	rec := &recorder{}
	g := attached(t, rec)

	require.True(t, g.PointerDown(down(0.5, 0), lookDown))
	require.Equal(t, StateDragging, g.State())
	s := g.Session()
	require.NotNil(t, s)
	assert.Equal(t, HandleDescriptor{Kind: KindTranslate, Axis: AxisX}, s.Descriptor)
	assert.InDelta(t, 0.5, s.AnchorPoint.X(), 1e-9)
	assert.Equal(t, ColorHighlight, colorOf(g, idTranslateX))

	require.True(t, g.PointerMove(down(2.5, 1)))
	c, ok := g.Candidate()
	require.True(t, ok)
	assert.InDelta(t, 2.0, c.Position.X(), 1e-9)
	assert.InDelta(t, 0.0, c.Position.Y(), 1e-9, "only the handle axis moves")

	// Moving to the same point again recomputes from the anchor.
	require.True(t, g.PointerMove(down(2.5, 1)))
	c, _ = g.Candidate()
	assert.InDelta(t, 2.0, c.Position.X(), 1e-9)

	require.True(t, g.PointerUp())
	assert.Equal(t, StateIdle, g.State())
	assert.Nil(t, g.Session())
	assert.Equal(t, ColorX, colorOf(g, idTranslateX))
	require.Len(t, rec.commits, 1)
	assert.InDelta(t, 2.0, rec.commits[0].Position.X(), 1e-9)
	assert.InDelta(t, 2.0, g.Position().X(), 1e-9)
}

func TestDragFreezesWhenRayParallelToPlane(t *testing.T) {
	rec := &recorder{}
	g := attached(t, rec)
	require.True(t, g.PointerDown(down(0.5, 0), lookDown))
	require.True(t, g.PointerMove(down(1.5, 0)))
	before, _ := g.Candidate()
	previews := len(rec.previews)

	parallel := pick.Ray{Origin: mgl64.Vec3{0, 0, 5}, Direction: mgl64.Vec3{1, 0, 0}}
	assert.True(t, g.PointerMove(parallel))
	after, _ := g.Candidate()
	assert.True(t, before.ApproxEqual(after))
	assert.Len(t, rec.previews, previews, "a frozen candidate is not previewed")
}

func TestPointerDownMissIsNotConsumed(t *testing.T) {
	g := attached(t, &recorder{})
	assert.False(t, g.PointerDown(down(5, 5), lookDown))
	assert.Equal(t, StateIdle, g.State())
}

func TestPointerDownWhileDraggingIgnored(t *testing.T) {
	g := attached(t, &recorder{})
	require.True(t, g.PointerDown(down(0.5, 0), lookDown))
	h := g.Session().Handle
	assert.False(t, g.PointerDown(down(0, 0.5), lookDown))
	assert.Equal(t, h, g.Session().Handle)
}

func TestAttachNilDuringDragCancels(t *testing.T) {
	rec := &recorder{}
	g := attached(t, rec)
	require.True(t, g.PointerDown(down(0.5, 0), lookDown))
	require.True(t, g.PointerMove(down(3.5, 0)))

	g.Attach(nil)
	assert.Equal(t, StateHidden, g.State())
	assert.Empty(t, rec.commits)
	require.NotEmpty(t, rec.previews)
	assert.True(t, rec.previews[len(rec.previews)-1].ApproxEqual(Identity()), "cancel reverts the preview")
	assert.False(t, g.PointerUp())
}

func TestSetModeRefusedWhileDragging(t *testing.T) {
	g := attached(t, &recorder{})
	require.True(t, g.PointerDown(down(0.5, 0), lookDown))
	assert.False(t, g.SetMode(ModeRotate))
	assert.Equal(t, ModeTranslate, g.Mode())
}

func TestRotateDrag(t *testing.T) {
	rec := &recorder{}
	g := attached(t, rec)
	require.True(t, g.SetMode(ModeRotate))

	require.True(t, g.PointerDown(down(1, 0), lookDown))
	assert.Equal(t, HandleDescriptor{Kind: KindRotate, Axis: AxisZ}, g.Session().Descriptor)

	// 50 units of horizontal drag at 0.02 rad per unit is one radian.
	require.True(t, g.PointerMove(down(51, 0)))
	require.True(t, g.PointerUp())
	require.Len(t, rec.commits, 1)
	r := rec.commits[0].Rotation
	assert.InDelta(t, 0.0, r.X(), 1e-9)
	assert.InDelta(t, 0.0, r.Y(), 1e-9)
	assert.InDelta(t, 1.0, r.Z(), 1e-9)
}

func TestScaleDrag(t *testing.T) {
	tests := []struct {
		name  string
		to    float64
		wantX float64
	}{
		{"grow", 10.5, 1.1},
		{"shrink", -9.5, 0.9},
		{"clamped", -1000, minScaleFactor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			g := attached(t, rec)
			require.True(t, g.SetMode(ModeScale))
			require.True(t, g.PointerDown(down(0.5, 0), lookDown))
			require.True(t, g.PointerMove(down(tt.to, 0)))
			require.True(t, g.PointerUp())
			s := rec.commits[0].Scale
			assert.InDelta(t, tt.wantX, s.X(), 1e-9)
			assert.InDelta(t, 1.0, s.Y(), 1e-9)
			assert.InDelta(t, 1.0, s.Z(), 1e-9)
		})
	}
}

func TestUniformScaleDrag(t *testing.T) {
	rec := &recorder{}
	g := attached(t, rec)
	require.True(t, g.SetMode(ModeScale))

	// The center cube is nearer than the arrow roots.
	require.True(t, g.PointerDown(down(0, 0), lookDown))
	assert.Equal(t, KindUniform, g.Session().Descriptor.Kind)
	assert.Equal(t, ColorHighlight, colorOf(g, idScaleUniform))

	require.True(t, g.PointerMove(down(3, 2)))
	require.True(t, g.PointerUp())
	s := rec.commits[0].Scale
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.05, s[i], 1e-9)
	}
	assert.Equal(t, ColorUniform, colorOf(g, idScaleUniform))
}

func TestEulerRoundTrip(t *testing.T) {
	for _, e := range []mgl64.Vec3{
		{0, 0, 0},
		{0.3, -0.2, 1.1},
		{-1.2, 0.7, -2.5},
		{math.Pi / 2 * 0.9, 0.1, 0.2},
	} {
		got := QuatToEuler(EulerToQuat(e))
		assert.True(t, got.ApproxEqualThreshold(e, 1e-9), "round trip of %v gave %v", e, got)
	}
}

func TestMatrixOrder(t *testing.T) {
	tr := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.Vec3{0, 0, math.Pi / 2},
		Scale:    mgl64.Vec3{2, 2, 2},
	}
	p := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, tr.Matrix())
	// Scaled to 2, turned onto +Y, then moved.
	assert.True(t, p.ApproxEqualThreshold(mgl64.Vec3{1, 4, 3}, 1e-9), "got %v", p)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeTranslate, ModeRotate, ModeScale} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("shear")
	assert.Error(t, err)
}

func TestCanonicalColors(t *testing.T) {
	assert.Equal(t, ColorX, CanonicalColor(HandleDescriptor{Kind: KindTranslate, Axis: AxisX}))
	assert.Equal(t, ColorY, CanonicalColor(HandleDescriptor{Kind: KindRotate, Axis: AxisY}))
	assert.Equal(t, ColorZ, CanonicalColor(HandleDescriptor{Kind: KindScale, Axis: AxisZ}))
	assert.Equal(t, ColorUniform, CanonicalColor(HandleDescriptor{Kind: KindUniform}))
}

func TestAxisPlaneFallsBackWhenViewAlongAxis(t *testing.T) {
	p := axisPlane(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}, fallbackNormal(AxisX))
	assert.True(t, p.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9))
	assert.InDelta(t, 0.0, p.Normal.Dot(mgl64.Vec3{1, 0, 0}), 1e-9, "plane contains the axis")
}

// ---------------------------------------------------------------------------
// Extrusion gizmo
// ---------------------------------------------------------------------------

// floor is one triangle in the XZ plane facing +Y.
func floor() *mesh.Mesh {
	return mesh.New(
		[]float32{0, 0, 0, 0, 0, 1, 1, 0, 0},
		[]uint32{0, 1, 2},
	)
}

type extrudeRecorder struct {
	overlays  []*mesh.Mesh
	distances []float64
	commits   []*mesh.Mesh
}

func (r *extrudeRecorder) callbacks() ExtrudeCallbacks {
	return ExtrudeCallbacks{
		Preview: func(_ string, o *mesh.Mesh, d float64) {
			r.overlays = append(r.overlays, o)
			r.distances = append(r.distances, d)
		},
		Commit: func(_ string, m *mesh.Mesh, _ float64) { r.commits = append(r.commits, m) },
	}
}

func TestExtrudeGizmoDrag(t *testing.T) {
	rec := &extrudeRecorder{}
	g := NewExtrudeGizmo(rec.callbacks())
	m := floor()
	require.NoError(t, g.Attach(&FaceTarget{ObjectID: "obj_1", Mesh: m, Faces: []int{0}}))
	assert.True(t, g.Normal().ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-6))

	c := g.Position()
	require.True(t, g.PointerDown(down(c.X(), 0.5), lookDown))
	assert.Equal(t, ColorHighlight, colorOf(g, idExtrude))

	require.True(t, g.PointerMove(down(c.X()+0.7, 2.5)))
	assert.InDelta(t, 2.0, g.Distance(), 1e-6, "sideways motion is ignored")
	require.NotEmpty(t, rec.overlays)
	overlay := rec.overlays[len(rec.overlays)-1]
	require.NotNil(t, overlay)
	assert.InDelta(t, 2.0, float64(overlay.Vertex(0).Y()), 1e-6)
	assert.Equal(t, 1, m.TriangleCount(), "the mesh is untouched during the drag")

	require.True(t, g.PointerUp())
	require.Len(t, rec.commits, 1)
	out := rec.commits[0]
	assert.Equal(t, 7, out.TriangleCount())
	assert.Equal(t, 6, out.VertexCount())
	assert.InDelta(t, 2.0, float64(out.Vertex(3).Y()), 1e-6)
	assert.Equal(t, ColorFace, colorOf(g, idExtrude))
}

func TestExtrudeGizmoDistanceIsLocal(t *testing.T) {
	rec := &extrudeRecorder{}
	g := NewExtrudeGizmo(rec.callbacks())
	require.NoError(t, g.Attach(&FaceTarget{
		ObjectID: "obj_1",
		Mesh:     floor(),
		Faces:    []int{0},
		Model:    mgl64.Scale3D(2, 2, 2),
	}))
	c := g.Position()
	require.True(t, g.PointerDown(down(c.X(), 0.5), lookDown))
	require.True(t, g.PointerMove(down(c.X(), 2.5)))
	assert.InDelta(t, 1.0, g.Distance(), 1e-6)
}

func TestExtrudeGizmoZeroDragCommitsNothing(t *testing.T) {
	rec := &extrudeRecorder{}
	g := NewExtrudeGizmo(rec.callbacks())
	require.NoError(t, g.Attach(&FaceTarget{ObjectID: "obj_1", Mesh: floor(), Faces: []int{0}}))
	c := g.Position()
	require.True(t, g.PointerDown(down(c.X(), 0.5), lookDown))
	require.True(t, g.PointerUp())
	assert.Empty(t, rec.commits)
	assert.Equal(t, StateIdle, g.State())
}

func TestExtrudeGizmoDetachDiscardsPreview(t *testing.T) {
	rec := &extrudeRecorder{}
	g := NewExtrudeGizmo(rec.callbacks())
	require.NoError(t, g.Attach(&FaceTarget{ObjectID: "obj_1", Mesh: floor(), Faces: []int{0}}))
	c := g.Position()
	require.True(t, g.PointerDown(down(c.X(), 0.5), lookDown))
	require.True(t, g.PointerMove(down(c.X(), 1.5)))

	require.NoError(t, g.Attach(nil))
	assert.Equal(t, StateHidden, g.State())
	assert.Empty(t, rec.commits)
	assert.Nil(t, rec.overlays[len(rec.overlays)-1])
}

func TestExtrudeGizmoAttachRejectsBadFaces(t *testing.T) {
	g := NewExtrudeGizmo(ExtrudeCallbacks{})
	err := g.Attach(&FaceTarget{Mesh: floor(), Faces: []int{3}})
	assert.ErrorIs(t, err, mesh.ErrFaceOutOfRange)
	assert.Equal(t, StateHidden, g.State())

	require.NoError(t, g.Attach(&FaceTarget{Mesh: floor()}))
	assert.Equal(t, StateHidden, g.State(), "an empty selection hides the gizmo")
}

// ---------------------------------------------------------------------------
// Cutting-plane gizmo
// ---------------------------------------------------------------------------

func TestCuttingPlaneDrag(t *testing.T) {
	var committed []CutPlane
	g := NewCuttingPlaneGizmo(CutCallbacks{Commit: func(p CutPlane) { committed = append(committed, p) }})
	g.Attach(&CutPlane{ObjectID: "obj_1", Normal: mgl64.Vec3{0, 2, 0}})

	p, ok := g.Plane()
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.Normal.Len(), 1e-9)

	view := mgl64.Vec3{0, -1, 0}
	ray := func(x, z float64) pick.Ray {
		return pick.Ray{Origin: mgl64.Vec3{x, 10, z}, Direction: view}
	}
	require.True(t, g.PointerDown(ray(0.2, 0.3), view))
	assert.Equal(t, KindPlaneMove, g.Session().Descriptor.Kind)
	require.True(t, g.PointerMove(ray(1.2, -0.7)))
	require.True(t, g.PointerUp())

	require.Len(t, committed, 1)
	assert.True(t, committed[0].Origin.ApproxEqualThreshold(mgl64.Vec3{1, 0, -1}, 1e-9))
	assert.ErrorIs(t, g.Cut(), ErrCutUnsupported)
}

func TestCuttingPlaneHidden(t *testing.T) {
	g := NewCuttingPlaneGizmo(CutCallbacks{})
	assert.False(t, g.PointerDown(down(0, 0), lookDown))
	assert.NoError(t, g.Cut())
	_, ok := g.Plane()
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Sizer
// ---------------------------------------------------------------------------

func TestSizerSettlesOnCameraDistance(t *testing.T) {
	s := NewSizer(60)
	assert.InDelta(t, 1.0, s.Step(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}), 1e-9)

	eye := mgl64.Vec3{0, 0, 20}
	for i := 0; i < 600; i++ {
		size := s.Step(eye, mgl64.Vec3{})
		assert.LessOrEqual(t, size, 2.0+1e-6, "critically damped springs do not overshoot")
	}
	assert.InDelta(t, 2.0, s.Size(), 1e-3)
}
