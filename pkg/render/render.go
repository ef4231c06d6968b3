package render

import (
	"fmt"

	"github.com/matzehuels/dsgviz/pkg/colormap"
	"github.com/matzehuels/dsgviz/pkg/config"
	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// Marker namespaces.
const (
	NamespaceCentroids  = "layer_centroids"
	NamespaceGraphEdges = "graph_edges"
	NamespaceMeshEdges  = "mesh_layer_edges"
)

// LabelNamespace returns the text marker namespace of a layer.
func LabelNamespace(layer scenegraph.LayerID) string {
	return fmt.Sprintf("layer_%d_text", layer)
}

// BoundingBoxNamespace returns the bounding box namespace of a layer.
func BoundingBoxNamespace(layer scenegraph.LayerID) string {
	return fmt.Sprintf("layer_%d_bounding_boxes", layer)
}

// LayerEdgesNamespace returns the intra-layer edge namespace of a layer.
func LayerEdgesNamespace(layer scenegraph.LayerID) string {
	return fmt.Sprintf("layer_%d_edges", layer)
}

// ZOffset returns the vertical offset of a layer.
func ZOffset(lc config.LayerConfig, vc config.VisualizerConfig) float64 {
	if vc.CollapseLayers {
		return 0
	}
	return lc.ZOffsetScale * vc.LayerZStep
}

// Delete returns a marker retracting (ns, id).
func Delete(id int64, ns string) marker.Marker { return marker.NewDelete(id, ns) }

// DeleteAll returns a marker clearing a whole channel.
func DeleteAll() marker.Marker { return marker.NewDeleteAll() }

func raised(p scenegraph.Vec3, dz float64) marker.Point {
	return marker.PointFrom(p.Add(scenegraph.Vec3{Z: dz}))
}

// =============================================================================
// Centroids
// =============================================================================

// Centroids builds the point-list marker of a layer. A non-nil layerColor
// paints every node with that color. The returned bool reports whether the
// batch fell back to the sentinel color.
func Centroids(layer *scenegraph.Layer, lc config.LayerConfig, vc config.VisualizerConfig, layerColor *scenegraph.Color) (marker.Marker, bool) {
	if !lc.Visualize {
		return Delete(int64(layer.ID), NamespaceCentroids), false
	}

	m := marker.Marker{
		Namespace: NamespaceCentroids,
		ID:        int64(layer.ID),
		Type:      marker.CubeList,
		Action:    marker.Add,
		Pose:      marker.IdentityPose(),
		Scale:     marker.Uniform(lc.MarkerScale),
	}
	if lc.UseSphereMarker {
		m.Type = marker.SphereList
	}

	nodes := layer.Nodes()
	m.Points = make([]marker.Point, 0, len(nodes))
	m.Colors = make([]marker.ColorRGBA, 0, len(nodes))

	z := ZOffset(lc, vc)
	byDistance := vc.ColorPlacesByDistance && layer.ID == vc.PlacesLayer
	degraded := false
	for _, n := range nodes {
		m.Points = append(m.Points, raised(n.Position(), z))

		var c scenegraph.Color
		switch {
		case layerColor != nil:
			c = *layerColor
		case degraded:
			c = scenegraph.Red
		default:
			var ok bool
			c, ok = centroidColor(n, vc, byDistance)
			degraded = !ok
		}
		m.Colors = append(m.Colors, marker.ColorFrom(c, lc.MarkerAlpha))
	}
	return m, degraded
}

// centroidColor resolves the color of one node. It reports false when the
// node has no semantic color.
func centroidColor(n *scenegraph.Node, vc config.VisualizerConfig, byDistance bool) (scenegraph.Color, bool) {
	switch a := n.Attributes.(type) {
	case *scenegraph.PlaceAttributes:
		if byDistance {
			return colormap.DistanceColor(vc, a.Distance), true
		}
		return a.Color, true
	case *scenegraph.ObjectAttributes:
		return a.Color, true
	case *scenegraph.SemanticAttributes:
		return a.Color, true
	default:
		return scenegraph.Red, false
	}
}

// =============================================================================
// Labels and Bounding Boxes
// =============================================================================

// Label builds the text marker of a node, or a delete when labels are off.
func Label(node *scenegraph.Node, lc config.LayerConfig, vc config.VisualizerConfig) marker.Marker {
	ns := LabelNamespace(node.Layer)
	if !lc.Visualize || !lc.UseLabel {
		return Delete(int64(node.ID), ns)
	}

	pose := marker.IdentityPose()
	pose.Position = raised(node.Position(), ZOffset(lc, vc)+lc.LabelHeight)
	return marker.Marker{
		Namespace: ns,
		ID:        int64(node.ID),
		Type:      marker.TextViewFacing,
		Action:    marker.Add,
		Pose:      pose,
		Scale:     marker.Vector3{Z: lc.LabelScale},
		Color:     marker.ColorFrom(scenegraph.Black, 1),
		Text:      node.ID.Label(),
	}
}

// BoundingBox builds the cube marker of an object node, or a delete when
// boxes are off. It fails with ATTRIBUTE_KIND_MISMATCH for nodes that are
// not objects and INVALID_BOUNDING_BOX_TYPE for boxes of unknown type.
func BoundingBox(node *scenegraph.Node, lc config.LayerConfig, vc config.VisualizerConfig) (marker.Marker, error) {
	ns := BoundingBoxNamespace(node.Layer)
	if !lc.Visualize || !lc.UseBoundingBox {
		return Delete(int64(node.ID), ns), nil
	}

	obj, err := scenegraph.ObjectOf(node.Attributes)
	if err != nil {
		return marker.Marker{}, err
	}
	box := obj.BoundingBox

	var pose marker.Pose
	switch box.Type {
	case scenegraph.BoxOriented:
		pose.Orientation = marker.OrientationFrom(box.Rotation)
	case scenegraph.BoxAxisAligned:
		pose.Orientation = marker.OrientationFrom(scenegraph.Identity)
	default:
		return marker.Marker{}, dsgerrors.New(dsgerrors.ErrCodeInvalidBoundingBoxType,
			"node %s has bounding box type %s", node.ID, box.Type)
	}
	pose.Position = raised(box.Center, ZOffset(lc, vc))

	extent := box.Extent()
	return marker.Marker{
		Namespace: ns,
		ID:        int64(node.ID),
		Type:      marker.Cube,
		Action:    marker.Add,
		Pose:      pose,
		Scale:     marker.Vector3{X: extent.X, Y: extent.Y, Z: extent.Z},
		Color:     marker.ColorFrom(obj.Color, lc.BoundingBoxAlpha),
	}, nil
}

// =============================================================================
// Intra-layer and Mesh Edges
// =============================================================================

// LayerEdges builds the line-list marker of a layer's intra-layer edges.
// The first edge is drawn, then intralayer_edge_insertion_skip edges are
// skipped, and so on.
func LayerEdges(layer *scenegraph.Layer, lc config.LayerConfig, vc config.VisualizerConfig, color scenegraph.Color) marker.Marker {
	ns := LayerEdgesNamespace(layer.ID)
	if !lc.Visualize {
		return Delete(0, ns)
	}

	m := marker.Marker{
		Namespace: ns,
		ID:        0,
		Type:      marker.LineList,
		Action:    marker.Add,
		Pose:      marker.IdentityPose(),
		Scale:     marker.Vector3{X: lc.IntralayerEdgeScale},
		Color:     marker.ColorFrom(color, lc.IntralayerEdgeAlpha),
	}

	z := ZOffset(lc, vc)
	edges := layer.Edges()
	for i := 0; i < len(edges); i += stride(lc.IntralayerEdgeInsertionSkip) {
		source, ok := layer.Node(edges[i].Source)
		if !ok {
			continue
		}
		target, ok := layer.Node(edges[i].Target)
		if !ok {
			continue
		}
		m.Points = append(m.Points, raised(source.Position(), z), raised(target.Position(), z))
	}
	return m
}

// stride turns an insertion skip into a loop step. Negative skips draw
// every element.
func stride(skip int) int {
	return max(skip, 0) + 1
}

// MeshEdges builds the lines from each node of layer to its mesh samples.
// Each node with samples gets one edge from its raised centroid down to a
// break point, then one edge from the break point to every
// (interlayer_edge_insertion_skip+1)-th sample.
func MeshEdges(graph *scenegraph.Graph, layer *scenegraph.Layer, lc config.LayerConfig, vc config.VisualizerConfig) marker.Marker {
	if !lc.Visualize {
		return Delete(int64(layer.ID), NamespaceMeshEdges)
	}

	m := marker.Marker{
		Namespace: NamespaceMeshEdges,
		ID:        int64(layer.ID),
		Type:      marker.LineList,
		Action:    marker.Add,
		Pose:      marker.IdentityPose(),
		Scale:     marker.Vector3{X: lc.InterlayerEdgeScale},
	}

	z := ZOffset(lc, vc)
	sampleZ := vc.MeshLayerOffset
	if vc.CollapseLayers {
		sampleZ = 0
	}
	step := stride(lc.InterlayerEdgeInsertionSkip)

	for _, n := range layer.Nodes() {
		samples := graph.MeshSamples(n.ID)
		if len(samples) == 0 {
			continue
		}

		c := scenegraph.Black
		if lc.InterlayerEdgeUseColor {
			c = scenegraph.Red
			if sem, err := scenegraph.SemanticOf(n.Attributes); err == nil {
				c = sem.Color
			}
		}
		color := marker.ColorFrom(c, lc.InterlayerEdgeAlpha)

		breakPoint := raised(n.Position(), vc.MeshEdgeBreakRatio*z)
		m.Points = append(m.Points, raised(n.Position(), z), breakPoint)
		m.Colors = append(m.Colors, color, color)

		for i := 0; i < len(samples); i += step {
			m.Points = append(m.Points, breakPoint, raised(samples[i], sampleZ))
			m.Colors = append(m.Colors, color, color)
		}
	}
	return m
}
