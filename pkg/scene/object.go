package scene

import (
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/props"
)

// DefaultDisplayPrecision is the number of decimals shown for lengths.
const DefaultDisplayPrecision = 2

// Units are an object's measurement settings.
type Units struct {
	Length           props.Unit `json:"length"`
	DisplayPrecision int        `json:"displayPrecision"`
}

// Documentation is free-text engineering metadata.
type Documentation struct {
	Notes          string `json:"notes"`
	Specifications string `json:"specifications"`
	PartNumber     string `json:"partNumber"`
	Revision       string `json:"revision"`
	Designer       string `json:"designer"`
	DateCreated    string `json:"dateCreated"`
}

// Object is one entry of the scene. Values returned by a Store are
// copies; Mesh is shared but never mutated.
type Object struct {
	ID       string           `json:"id"`
	Type     primitive.Type   `json:"type"`
	Name     string           `json:"name"`
	Material string           `json:"material"`
	// Color overrides the material color when set, as "#rrggbb".
	Color     string           `json:"color,omitempty"`
	Geometry  primitive.Params `json:"geometry"`
	Transform gizmo.Transform  `json:"transform"`
	// Mesh is the object's local-frame geometry. It is built from Geometry
	// and replaced by topology edits; Edited reports the latter.
	Mesh          *mesh.Mesh       `json:"-"`
	Edited        bool             `json:"edited"`
	Units         Units            `json:"units"`
	Documentation Documentation    `json:"documentation"`
	Properties    props.Properties `json:"properties"`
	Visible       bool             `json:"visible"`
}

// Spec describes an object to add. Zero fields take defaults: geometry
// from the primitive type, material from the type, identity transform,
// centimeters, visible.
type Spec struct {
	Type          primitive.Type    `json:"type"`
	Name          string            `json:"name,omitempty"`
	Material      string            `json:"material,omitempty"`
	Color         string            `json:"color,omitempty"`
	Geometry      *primitive.Params `json:"geometry,omitempty"`
	Transform     *gizmo.Transform  `json:"transform,omitempty"`
	Units         *Units            `json:"units,omitempty"`
	Documentation *Documentation    `json:"documentation,omitempty"`
	Hidden        bool              `json:"hidden,omitempty"`
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	Name          *string           `json:"name,omitempty"`
	Material      *string           `json:"material,omitempty"`
	Color         *string           `json:"color,omitempty"`
	Geometry      *primitive.Params `json:"geometry,omitempty"`
	Transform     *gizmo.Transform  `json:"transform,omitempty"`
	Mesh          *mesh.Mesh        `json:"-"`
	Units         *Units            `json:"units,omitempty"`
	Documentation *Documentation    `json:"documentation,omitempty"`
	Visible       *bool             `json:"visible,omitempty"`
}

// touchesProperties reports whether applying p requires recomputing
// derived properties. Transforms never do.
func (p Patch) touchesProperties() bool {
	return p.Geometry != nil || p.Material != nil || p.Mesh != nil
}
