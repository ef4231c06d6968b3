package scenegraph

import (
	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
)

// Kind names the concrete variant of an [Attributes] payload.
type Kind int

const (
	// KindBase carries a position only.
	KindBase Kind = iota
	// KindSemantic adds a color and a semantic name.
	KindSemantic
	// KindObject extends KindSemantic with a bounding box.
	KindObject
	// KindPlace extends KindSemantic with a clearance distance.
	KindPlace
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindSemantic:
		return "semantic"
	case KindObject:
		return "object"
	case KindPlace:
		return "place"
	default:
		return "unknown"
	}
}

// Attributes is the per-node payload. It is a closed set of variants:
// *BaseAttributes, *SemanticAttributes, *ObjectAttributes, *PlaceAttributes.
type Attributes interface {
	// Kind returns the concrete variant.
	Kind() Kind
	// Position returns the node position in the world frame.
	Position() Vec3

	sealed()
}

// BaseAttributes carries only a position.
type BaseAttributes struct {
	Pos Vec3
}

// SemanticAttributes adds a display color and an optional semantic name.
type SemanticAttributes struct {
	BaseAttributes
	Color Color
	Name  string
}

// ObjectAttributes extends SemanticAttributes with a bounding box.
type ObjectAttributes struct {
	SemanticAttributes
	BoundingBox BoundingBox
}

// PlaceAttributes extends SemanticAttributes with the free-space distance
// around the place.
type PlaceAttributes struct {
	SemanticAttributes
	Distance float64
}

func (a *BaseAttributes) Kind() Kind     { return KindBase }
func (a *BaseAttributes) Position() Vec3 { return a.Pos }
func (a *BaseAttributes) sealed()        {}

func (a *SemanticAttributes) Kind() Kind { return KindSemantic }
func (a *ObjectAttributes) Kind() Kind   { return KindObject }
func (a *PlaceAttributes) Kind() Kind    { return KindPlace }

// BoundingBoxType distinguishes box representations.
type BoundingBoxType int

const (
	// BoxInvalid marks a box that cannot be drawn.
	BoxInvalid BoundingBoxType = iota
	// BoxAxisAligned is aligned with the world axes.
	BoxAxisAligned
	// BoxOriented carries a full rotation.
	BoxOriented
)

// String returns the wire name of the box type.
func (t BoundingBoxType) String() string {
	switch t {
	case BoxAxisAligned:
		return "aabb"
	case BoxOriented:
		return "obb"
	default:
		return "invalid"
	}
}

// BoundingBox describes an object's extent in the world frame.
type BoundingBox struct {
	Type     BoundingBoxType
	Min      Vec3
	Max      Vec3
	Center   Vec3
	Rotation Quaternion
}

// Extent returns max - min per axis.
func (b BoundingBox) Extent() Vec3 { return b.Max.Sub(b.Min) }

// =============================================================================
// Accessors
// =============================================================================

// SemanticOf returns the semantic view of a, which exists for the Semantic,
// Object, and Place variants.
func SemanticOf(a Attributes) (*SemanticAttributes, error) {
	switch v := a.(type) {
	case *SemanticAttributes:
		return v, nil
	case *ObjectAttributes:
		return &v.SemanticAttributes, nil
	case *PlaceAttributes:
		return &v.SemanticAttributes, nil
	default:
		return nil, mismatch(a, KindSemantic)
	}
}

// ObjectOf returns a as object attributes.
func ObjectOf(a Attributes) (*ObjectAttributes, error) {
	if v, ok := a.(*ObjectAttributes); ok {
		return v, nil
	}
	return nil, mismatch(a, KindObject)
}

// PlaceOf returns a as place attributes.
func PlaceOf(a Attributes) (*PlaceAttributes, error) {
	if v, ok := a.(*PlaceAttributes); ok {
		return v, nil
	}
	return nil, mismatch(a, KindPlace)
}

func mismatch(a Attributes, want Kind) error {
	if a == nil {
		return dsgerrors.New(dsgerrors.ErrCodeAttributeKindMismatch, "missing attributes, want %s", want)
	}
	return dsgerrors.New(dsgerrors.ErrCodeAttributeKindMismatch, "attributes are %s, want %s", a.Kind(), want)
}
