package scenegraph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists anywhere in the graph. Node IDs are graph-unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownLayer is returned by [Graph.AddNode] when the layer was never
	// added with [Graph.AddLayer].
	ErrUnknownLayer = errors.New("unknown layer")

	// ErrMissingAttributes is returned by [Graph.AddNode] for nil attributes,
	// including typed nil pointers.
	ErrMissingAttributes = errors.New("node attributes must not be nil")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] when source equals target.
	ErrSelfLoop = errors.New("edge endpoints must differ")
)

// Edge connects two nodes. For inter-layer edges the source is the node in
// the parent (higher) layer by convention.
type Edge struct {
	Source NodeID
	Target NodeID
}

// Node is a vertex of the scene graph.
type Node struct {
	ID         NodeID
	Layer      LayerID
	Attributes Attributes
}

// Position returns the node position, or the origin for nodes without
// attributes.
func (n *Node) Position() Vec3 {
	if n.Attributes == nil {
		return Vec3{}
	}
	return n.Attributes.Position()
}

// Layer groups the nodes of one abstraction level and the edges between them.
type Layer struct {
	ID LayerID

	nodes map[NodeID]*Node
	edges []Edge
}

// Nodes returns the layer's nodes in ascending id order.
func (l *Layer) Nodes() []*Node {
	out := make([]*Node, 0, len(l.nodes))
	for _, id := range slices.Sorted(maps.Keys(l.nodes)) {
		out = append(out, l.nodes[id])
	}
	return out
}

// Node returns the node with the given id if it belongs to this layer.
func (l *Layer) Node(id NodeID) (*Node, bool) {
	n, ok := l.nodes[id]
	return n, ok
}

// Edges returns the intra-layer edges in insertion order.
func (l *Layer) Edges() []Edge { return slices.Clone(l.edges) }

// NumNodes returns the number of nodes in the layer.
func (l *Layer) NumNodes() int { return len(l.nodes) }

// NumEdges returns the number of intra-layer edges.
func (l *Layer) NumEdges() int { return len(l.edges) }

// Graph is a layered scene graph.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent writes.
type Graph struct {
	layers     map[LayerID]*Layer
	nodeLayers map[NodeID]LayerID
	interlayer []Edge
	samples    map[NodeID][]Vec3
}

// New creates an empty graph with the given layers.
func New(layers ...LayerID) *Graph {
	g := &Graph{
		layers:     make(map[LayerID]*Layer),
		nodeLayers: make(map[NodeID]LayerID),
		samples:    make(map[NodeID][]Vec3),
	}
	for _, id := range layers {
		g.AddLayer(id)
	}
	return g
}

// AddLayer adds an empty layer if it does not exist yet and returns it.
func (g *Graph) AddLayer(id LayerID) *Layer {
	if l, ok := g.layers[id]; ok {
		return l
	}
	l := &Layer{ID: id, nodes: make(map[NodeID]*Node)}
	g.layers[id] = l
	return l
}

// AddNode inserts a node into an existing layer.
func (g *Graph) AddNode(layer LayerID, id NodeID, attrs Attributes) error {
	l, ok := g.layers[layer]
	if !ok {
		return ErrUnknownLayer
	}
	if isNilAttributes(attrs) {
		return ErrMissingAttributes
	}
	if _, exists := g.nodeLayers[id]; exists {
		return ErrDuplicateNodeID
	}
	l.nodes[id] = &Node{ID: id, Layer: layer, Attributes: attrs}
	g.nodeLayers[id] = layer
	return nil
}

// isNilAttributes also catches typed nil pointers of every variant.
func isNilAttributes(attrs Attributes) bool {
	switch a := attrs.(type) {
	case nil:
		return true
	case *BaseAttributes:
		return a == nil
	case *SemanticAttributes:
		return a == nil
	case *ObjectAttributes:
		return a == nil
	case *PlaceAttributes:
		return a == nil
	}
	return false
}

// AddEdge inserts an edge between two existing nodes. Edges between nodes of
// the same layer become intra-layer edges; all others are inter-layer edges
// stored as given.
func (g *Graph) AddEdge(source, target NodeID) error {
	if source == target {
		return ErrSelfLoop
	}
	sl, ok := g.nodeLayers[source]
	if !ok {
		return ErrUnknownSourceNode
	}
	tl, ok := g.nodeLayers[target]
	if !ok {
		return ErrUnknownTargetNode
	}
	e := Edge{Source: source, Target: target}
	if sl == tl {
		g.layers[sl].edges = append(g.layers[sl].edges, e)
		return nil
	}
	g.interlayer = append(g.interlayer, e)
	return nil
}

// SetMeshSamples associates surface sample points with a node.
func (g *Graph) SetMeshSamples(id NodeID, points []Vec3) {
	if len(points) == 0 {
		delete(g.samples, id)
		return
	}
	g.samples[id] = slices.Clone(points)
}

// MeshSamples returns the surface samples for a node, or nil.
func (g *Graph) MeshSamples(id NodeID) []Vec3 { return g.samples[id] }

// Layers returns all layers in ascending id order.
func (g *Graph) Layers() []*Layer {
	out := make([]*Layer, 0, len(g.layers))
	for _, id := range slices.Sorted(maps.Keys(g.layers)) {
		out = append(out, g.layers[id])
	}
	return out
}

// Layer returns the layer with the given id.
func (g *Graph) Layer(id LayerID) (*Layer, bool) {
	l, ok := g.layers[id]
	return l, ok
}

// Node looks up a node in any layer.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	layer, ok := g.nodeLayers[id]
	if !ok {
		return nil, false
	}
	return g.layers[layer].Node(id)
}

// InterlayerEdges returns the inter-layer edges in insertion order.
func (g *Graph) InterlayerEdges() []Edge { return slices.Clone(g.interlayer) }

// NumNodes returns the number of nodes across all layers.
func (g *Graph) NumNodes() int { return len(g.nodeLayers) }

// NumEdges returns the number of intra- and inter-layer edges.
func (g *Graph) NumEdges() int {
	n := len(g.interlayer)
	for _, l := range g.layers {
		n += len(l.edges)
	}
	return n
}

// Empty reports whether the graph has no nodes. A nil graph is empty.
func (g *Graph) Empty() bool { return g == nil || len(g.nodeLayers) == 0 }
