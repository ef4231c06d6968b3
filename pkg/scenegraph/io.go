package scenegraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
)

// =============================================================================
// Document - Scene Graph Serialization
// =============================================================================

// Document is the canonical serialization format for scene graphs.
// Used for graph files, API requests, and MongoDB snapshots.
//
// Node ids may be written as integers or as symbol strings ("O12").
type Document struct {
	Layers          []LayerDoc      `json:"layers" bson:"layers"`
	InterlayerEdges []EdgeDoc       `json:"interlayer_edges,omitempty" bson:"interlayer_edges,omitempty"`
	MeshSamples     []MeshSampleDoc `json:"mesh_samples,omitempty" bson:"mesh_samples,omitempty"`
}

// LayerDoc serializes one layer.
type LayerDoc struct {
	ID    LayerID   `json:"id" bson:"id"`
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
	Edges []EdgeDoc `json:"edges,omitempty" bson:"edges,omitempty"`
}

// NodeDoc serializes one node and its attributes.
type NodeDoc struct {
	ID       NodeID          `json:"id" bson:"id"`
	Kind     string          `json:"kind" bson:"kind"` // "base", "semantic", "object", "place"
	Position [3]float64      `json:"position" bson:"position"`
	Color    *[3]uint8       `json:"color,omitempty" bson:"color,omitempty"`
	Name     string          `json:"name,omitempty" bson:"name,omitempty"`
	Box      *BoundingBoxDoc `json:"bounding_box,omitempty" bson:"bounding_box,omitempty"`
	Distance float64         `json:"distance,omitempty" bson:"distance,omitempty"`
}

// BoundingBoxDoc serializes a bounding box. Rotation is [w, x, y, z].
type BoundingBoxDoc struct {
	Type     string      `json:"type" bson:"type"` // "aabb", "obb"
	Min      [3]float64  `json:"min" bson:"min"`
	Max      [3]float64  `json:"max" bson:"max"`
	Center   [3]float64  `json:"center" bson:"center"`
	Rotation *[4]float64 `json:"rotation,omitempty" bson:"rotation,omitempty"`
}

// EdgeDoc serializes an edge.
type EdgeDoc struct {
	Source NodeID `json:"source" bson:"source"`
	Target NodeID `json:"target" bson:"target"`
}

// MeshSampleDoc serializes the surface samples of one node.
type MeshSampleDoc struct {
	Node   NodeID       `json:"node" bson:"node"`
	Points [][3]float64 `json:"points" bson:"points"`
}

// =============================================================================
// Graph ↔ Document Conversion
// =============================================================================

// FromDocument builds a Graph from its serialized form.
// Intra-layer edges listed under a layer and inter-layer edges are both
// routed through [Graph.AddEdge], so their placement follows the endpoints.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for _, ld := range doc.Layers {
		g.AddLayer(ld.ID)
	}

	for _, ld := range doc.Layers {
		for _, nd := range ld.Nodes {
			attrs, err := nd.attributes()
			if err != nil {
				return nil, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidInput, err, "node %s", nd.ID)
			}
			if err := g.AddNode(ld.ID, nd.ID, attrs); err != nil {
				return nil, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidInput, err, "add node %s", nd.ID)
			}
		}
	}

	addEdges := func(edges []EdgeDoc) error {
		for _, ed := range edges {
			if err := g.AddEdge(ed.Source, ed.Target); err != nil {
				return dsgerrors.Wrap(dsgerrors.ErrCodeInvalidInput, err, "add edge %s→%s", ed.Source, ed.Target)
			}
		}
		return nil
	}
	for _, ld := range doc.Layers {
		if err := addEdges(ld.Edges); err != nil {
			return nil, err
		}
	}
	if err := addEdges(doc.InterlayerEdges); err != nil {
		return nil, err
	}

	for _, md := range doc.MeshSamples {
		if _, ok := g.Node(md.Node); !ok {
			return nil, dsgerrors.New(dsgerrors.ErrCodeInvalidInput, "mesh samples for unknown node %s", md.Node)
		}
		points := make([]Vec3, len(md.Points))
		for i, p := range md.Points {
			points[i] = vec(p)
		}
		g.SetMeshSamples(md.Node, points)
	}
	return g, nil
}

// ToDocument converts a Graph to its serialization format.
// Layers, nodes, and mesh samples are sorted by id for deterministic output.
func ToDocument(g *Graph) Document {
	var doc Document
	for _, l := range g.Layers() {
		ld := LayerDoc{ID: l.ID, Nodes: make([]NodeDoc, 0, l.NumNodes())}
		for _, n := range l.Nodes() {
			ld.Nodes = append(ld.Nodes, nodeDoc(n))
		}
		for _, e := range l.Edges() {
			ld.Edges = append(ld.Edges, EdgeDoc{Source: e.Source, Target: e.Target})
		}
		doc.Layers = append(doc.Layers, ld)
	}
	for _, e := range g.InterlayerEdges() {
		doc.InterlayerEdges = append(doc.InterlayerEdges, EdgeDoc{Source: e.Source, Target: e.Target})
	}

	ids := make([]NodeID, 0, len(g.samples))
	for id := range g.samples {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		md := MeshSampleDoc{Node: id}
		for _, p := range g.samples[id] {
			md.Points = append(md.Points, [3]float64{p.X, p.Y, p.Z})
		}
		doc.MeshSamples = append(doc.MeshSamples, md)
	}
	return doc
}

func (nd NodeDoc) attributes() (Attributes, error) {
	base := BaseAttributes{Pos: vec(nd.Position)}
	if nd.Kind == KindBase.String() {
		return &base, nil
	}

	sem := SemanticAttributes{BaseAttributes: base, Name: nd.Name}
	if nd.Color != nil {
		sem.Color = Color{R: nd.Color[0], G: nd.Color[1], B: nd.Color[2]}
	}

	switch nd.Kind {
	case KindSemantic.String():
		return &sem, nil
	case KindObject.String():
		obj := &ObjectAttributes{SemanticAttributes: sem}
		if nd.Box != nil {
			obj.BoundingBox = nd.Box.box()
		}
		return obj, nil
	case KindPlace.String():
		return &PlaceAttributes{SemanticAttributes: sem, Distance: nd.Distance}, nil
	default:
		return nil, fmt.Errorf("unknown attribute kind %q", nd.Kind)
	}
}

func (bd BoundingBoxDoc) box() BoundingBox {
	b := BoundingBox{
		Min:      vec(bd.Min),
		Max:      vec(bd.Max),
		Center:   vec(bd.Center),
		Rotation: Identity,
	}
	switch bd.Type {
	case BoxAxisAligned.String():
		b.Type = BoxAxisAligned
	case BoxOriented.String():
		b.Type = BoxOriented
	default:
		b.Type = BoxInvalid
	}
	if bd.Rotation != nil {
		r := bd.Rotation
		b.Rotation = Quaternion{W: r[0], X: r[1], Y: r[2], Z: r[3]}
	}
	return b
}

func nodeDoc(n *Node) NodeDoc {
	p := n.Position()
	nd := NodeDoc{ID: n.ID, Position: [3]float64{p.X, p.Y, p.Z}}
	if n.Attributes == nil {
		nd.Kind = KindBase.String()
		return nd
	}
	nd.Kind = n.Attributes.Kind().String()

	if sem, err := SemanticOf(n.Attributes); err == nil {
		nd.Color = &[3]uint8{sem.Color.R, sem.Color.G, sem.Color.B}
		nd.Name = sem.Name
	}
	switch a := n.Attributes.(type) {
	case *ObjectAttributes:
		b := a.BoundingBox
		nd.Box = &BoundingBoxDoc{
			Type:     b.Type.String(),
			Min:      arr(b.Min),
			Max:      arr(b.Max),
			Center:   arr(b.Center),
			Rotation: &[4]float64{b.Rotation.W, b.Rotation.X, b.Rotation.Y, b.Rotation.Z},
		}
	case *PlaceAttributes:
		nd.Distance = a.Distance
	}
	return nd
}

func vec(a [3]float64) Vec3 { return Vec3{a[0], a[1], a[2]} }
func arr(v Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// =============================================================================
// JSON API
// =============================================================================

// Marshal converts a Graph to JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a Graph as indented JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToDocument(g))
}

// WriteFile writes a Graph to a JSON file.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Unmarshal decodes JSON bytes into a Graph.
func Unmarshal(data []byte) (*Graph, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a JSON document from r into a Graph.
func Read(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.ErrCodeInvalidInput, err, "decode scene graph")
	}
	return FromDocument(doc)
}

// ReadFile reads a JSON file and returns the decoded Graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dsgerrors.Wrap(dsgerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
