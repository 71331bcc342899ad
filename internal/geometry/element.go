// Package geometry turns solid and mesh descriptions of structural members
// into cut pieces: axis, endpoints, linear length and fitted end cuts.
package geometry

import (
	"github.com/piwi3910/BarCut/internal/model"
)

// Element kinds that describe linear members.
const (
	KindBeam   = "IfcBeam"
	KindColumn = "IfcColumn"
	KindMember = "IfcMember"
)

// IsLinearKind reports whether kind names a linear member. An empty kind is
// accepted so callers can feed untyped geometry.
func IsLinearKind(kind string) bool {
	switch kind {
	case "", KindBeam, KindColumn, KindMember:
		return true
	}
	return false
}

// Element is one building element as read from a model file. Coordinates
// are in the model's raw units; the extractor scales them to millimeters.
type Element struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind,omitempty"`
	Label       string    `json:"label,omitempty"`
	ProfileName string    `json:"profile_name,omitempty"`
	Placement   Transform `json:"placement,omitempty"` // Global 4x4, row-major rows
	Solid       *Solid    `json:"solid,omitempty"`
	Mesh        *Mesh     `json:"mesh,omitempty"`
}

// SolidType tags the variant held by a Solid.
type SolidType string

const (
	SolidExtrusion   SolidType = "extrusion"
	SolidBooleanClip SolidType = "boolean_clip"
	SolidMapped      SolidType = "mapped"
)

// Solid is a parametric solid: an extrusion, a clipped solid wrapping an
// operand, or a mapped representation listing items.
type Solid struct {
	Type      SolidType  `json:"type"`
	Extrusion *Extrusion `json:"extrusion,omitempty"`
	First     *Solid     `json:"first,omitempty"`
	Second    *Solid     `json:"second,omitempty"`
	Items     []*Solid   `json:"items,omitempty"`
}

// Extrusion sweeps a profile along Direction for Depth, in the local frame
// given by Position.
type Extrusion struct {
	Direction    model.Vec3      `json:"direction"`
	Depth        float64         `json:"depth"`
	Position     *Axis2Placement `json:"position,omitempty"`
	ProfileName  string          `json:"profile_name,omitempty"`
	ProfileDepth float64         `json:"profile_depth,omitempty"` // raw units, 0 = unknown
}

// Axis2Placement is a local frame: origin, Z axis and X reference direction.
type Axis2Placement struct {
	Location     model.Vec3  `json:"location"`
	Axis         *model.Vec3 `json:"axis,omitempty"`
	RefDirection *model.Vec3 `json:"ref_direction,omitempty"`
}

// Mesh is a triangulated surface in world coordinates.
type Mesh struct {
	Vertices []model.Vec3 `json:"vertices"`
	Faces    [][3]int     `json:"faces,omitempty"`
}

// FindExtrusion descends through clip and mapped wrappers and returns the
// first extrusion found, or nil. Clip operands are searched first operand
// first; mapped items in order.
func FindExtrusion(s *Solid) *Extrusion {
	return findExtrusion(s, 0)
}

const maxSolidNesting = 64

func findExtrusion(s *Solid, depth int) *Extrusion {
	if s == nil || depth > maxSolidNesting {
		return nil
	}
	switch s.Type {
	case SolidExtrusion:
		return s.Extrusion
	case SolidBooleanClip:
		if e := findExtrusion(s.First, depth+1); e != nil {
			return e
		}
		return findExtrusion(s.Second, depth+1)
	case SolidMapped:
		for _, item := range s.Items {
			if e := findExtrusion(item, depth+1); e != nil {
				return e
			}
		}
	default:
		// Untyped solids still carry whatever was decoded.
		if s.Extrusion != nil {
			return s.Extrusion
		}
	}
	return nil
}
