package scenegraph

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LayerID identifies a layer. Larger ids are structurally higher: an edge
// between layers runs from the higher (parent) layer to the lower one.
type LayerID int

// Well-known layer ids.
const (
	LayerMesh      LayerID = 1
	LayerObjects   LayerID = 2
	LayerPlaces    LayerID = 3
	LayerRooms     LayerID = 4
	LayerBuildings LayerID = 5
)

// String returns the layer's name for well-known ids, otherwise the number.
func (id LayerID) String() string {
	switch id {
	case LayerMesh:
		return "mesh"
	case LayerObjects:
		return "objects"
	case LayerPlaces:
		return "places"
	case LayerRooms:
		return "rooms"
	case LayerBuildings:
		return "buildings"
	default:
		return strconv.Itoa(int(id))
	}
}

// ParseLayerID parses a layer number ("3") or a well-known layer name
// ("places").
func ParseLayerID(s string) (LayerID, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return LayerID(n), nil
	}
	for id := LayerMesh; id <= LayerBuildings; id++ {
		if id.String() == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// =============================================================================
// NodeID
// =============================================================================

// NodeID identifies a node uniquely within a graph.
//
// An id built with [Symbol] stores an ASCII category letter in its high byte
// and an index in the remaining 56 bits, so "O12" is object 12.
type NodeID uint64

const symbolIndexBits = 56

// symbolIndexMask keeps the low 56 bits of a symbol.
const symbolIndexMask = (uint64(1) << symbolIndexBits) - 1

// Symbol builds a NodeID from a category letter and an index.
// Index bits above 56 are discarded.
func Symbol(key byte, index uint64) NodeID {
	return NodeID(uint64(key)<<symbolIndexBits | index&symbolIndexMask)
}

// Key returns the category letter of a symbol id, or 0 for plain ids.
func (id NodeID) Key() byte {
	key := byte(uint64(id) >> symbolIndexBits)
	if isSymbolKey(key) {
		return key
	}
	return 0
}

// Index returns the index part of a symbol id, or the full value for plain ids.
func (id NodeID) Index() uint64 {
	if id.Key() == 0 {
		return uint64(id)
	}
	return uint64(id) & symbolIndexMask
}

// Label returns the human-readable form used for text markers.
func (id NodeID) Label() string {
	if key := id.Key(); key != 0 {
		return fmt.Sprintf("%c%d", key, id.Index())
	}
	return strconv.FormatUint(uint64(id), 10)
}

// String implements fmt.Stringer.
func (id NodeID) String() string { return id.Label() }

// ParseNodeID parses a symbol label ("O12") or a decimal id.
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return 0, fmt.Errorf("empty node id")
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return NodeID(v), nil
	}
	if !isSymbolKey(s[0]) {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	index, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil || index > symbolIndexMask {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	return Symbol(s[0], index), nil
}

// UnmarshalJSON accepts both numeric ids and symbol strings.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseNodeID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	*id = NodeID(v)
	return nil
}

// MarshalJSON writes symbol ids as strings and plain ids as numbers.
func (id NodeID) MarshalJSON() ([]byte, error) {
	if id.Key() != 0 {
		return json.Marshal(id.Label())
	}
	return json.Marshal(uint64(id))
}

func isSymbolKey(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// =============================================================================
// Geometry
// =============================================================================

// Vec3 is a point or displacement in the world frame.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Quaternion is a rotation with scalar part W.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the zero rotation.
var Identity = Quaternion{W: 1}

// Color is an 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{}
	Red   = Color{R: 255}
)
