// Package marker defines the render primitives sent to the 3D renderer.
//
// A [Marker] is keyed by (namespace, id). The renderer keeps the last
// marker sent per key until it is replaced by another add, retracted by a
// delete, or cleared by a delete-all. Markers are grouped into an [Array]
// per channel for transmission.
package marker

import (
	"time"

	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// Type is the geometry kind of a marker.
type Type string

// Marker geometry kinds.
const (
	Cube           Type = "cube"
	Sphere         Type = "sphere"
	TextViewFacing Type = "text_view_facing"
	LineList       Type = "line_list"
	CubeList       Type = "cube_list"
	SphereList     Type = "sphere_list"
)

// Action is the lifecycle transition a marker requests.
type Action string

// Marker actions.
const (
	Add       Action = "add"
	Delete    Action = "delete"
	DeleteAll Action = "delete_all"
)

// Point is a position in the marker frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PointFrom converts a scene graph position.
func PointFrom(v scenegraph.Vec3) Point { return Point{X: v.X, Y: v.Y, Z: v.Z} }

// Vector3 is a per-axis scale.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Uniform returns a scale of s on every axis.
func Uniform(s float64) Vector3 { return Vector3{X: s, Y: s, Z: s} }

// Quaternion is an orientation in x, y, z, w order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// OrientationFrom converts a scene graph rotation.
func OrientationFrom(q scenegraph.Quaternion) Quaternion {
	return Quaternion{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
}

// Pose is a position and orientation.
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// IdentityPose is the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: Quaternion{W: 1}}
}

// ColorRGBA is a color with components in [0, 1].
type ColorRGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// ColorFrom converts an 8-bit node color and an alpha.
func ColorFrom(c scenegraph.Color, alpha float64) ColorRGBA {
	return ColorRGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: alpha,
	}
}

// Header carries the frame tag and timestamp of a marker.
type Header struct {
	FrameID string    `json:"frame_id"`
	Stamp   time.Time `json:"stamp"`
}

// Key identifies a marker on the renderer.
type Key struct {
	Namespace string
	ID        int64
}

// Marker is one render primitive.
type Marker struct {
	Header    Header      `json:"header"`
	Namespace string      `json:"ns"`
	ID        int64       `json:"id"`
	Type      Type        `json:"type,omitempty"`
	Action    Action      `json:"action"`
	Pose      Pose        `json:"pose"`
	Scale     Vector3     `json:"scale"`
	Color     ColorRGBA   `json:"color"`
	Colors    []ColorRGBA `json:"colors,omitempty"`
	Points    []Point     `json:"points,omitempty"`
	Text      string      `json:"text,omitempty"`
}

// Key returns the renderer key of m.
func (m Marker) Key() Key { return Key{Namespace: m.Namespace, ID: m.ID} }

// Stamp sets the header of m.
func (m *Marker) Stamp(frameID string, stamp time.Time) {
	m.Header = Header{FrameID: frameID, Stamp: stamp}
}

// NewDelete returns a marker retracting (ns, id).
func NewDelete(id int64, ns string) Marker {
	return Marker{Namespace: ns, ID: id, Action: Delete}
}

// NewDeleteAll returns a marker clearing every key on a channel.
func NewDeleteAll() Marker {
	return Marker{Action: DeleteAll}
}

// Array is a batch of markers sent together on one channel.
type Array []Marker

// Count returns how many markers in a carry the given action.
func (a Array) Count(action Action) int {
	n := 0
	for _, m := range a {
		if m.Action == action {
			n++
		}
	}
	return n
}

// Stamp sets the header of every marker in a.
func (a Array) Stamp(frameID string, stamp time.Time) {
	for i := range a {
		a[i].Stamp(frameID, stamp)
	}
}
