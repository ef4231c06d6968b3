// Package scenegraph provides the layered scene graph model rendered by dsgviz.
//
// A scene graph partitions nodes into layers of increasing abstraction
// (objects, places, rooms, buildings). Every node has a 3D position and a
// typed attribute payload; edges connect nodes inside one layer or across
// layers.
//
// # Core Types
//
//   - [Graph]: layers keyed by [LayerID], inter-layer edges, mesh samples
//   - [Layer]: nodes keyed by [NodeID] and intra-layer edges
//   - [Node]: identifier, layer, and [Attributes]
//   - [Attributes]: tagged union over [BaseAttributes], [SemanticAttributes],
//     [ObjectAttributes], and [PlaceAttributes]
//
// # Attribute Access
//
// Builders match on the concrete variant:
//
//	switch a := node.Attributes.(type) {
//	case *scenegraph.ObjectAttributes:
//	    // bounding box available
//	case *scenegraph.SemanticAttributes:
//	    // color only
//	default:
//	    // unsupported combination
//	}
//
// When a caller needs one view regardless of subtype, [SemanticOf],
// [ObjectOf], and [PlaceOf] return it or an ATTRIBUTE_KIND_MISMATCH error.
//
// # Ordering
//
// [Graph.Layers] and [Layer.Nodes] iterate in ascending identifier order so
// renders are deterministic and node ids double as stable draw-order keys.
//
// # Serialization
//
// [Document] is the canonical wire format, used for JSON files, the HTTP
// API, and MongoDB snapshots:
//
//	g, _ := scenegraph.ReadFile("dsg.json")     // File → Graph
//	doc := scenegraph.ToDocument(g)             // Graph → Document
//	g, _ = scenegraph.FromDocument(doc)         // Document → Graph
//
// # Concurrency
//
// A Graph is built once by its provider and then only read. It is safe for
// concurrent reads but not concurrent writes.
package scenegraph
