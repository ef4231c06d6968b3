package render

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dsgviz/pkg/config"
	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// EdgeStats summarizes one [GraphEdges] call.
type EdgeStats struct {
	Drawn      int // edges added to a batch
	Skipped    int // eligible edges dropped by the insertion stride
	Hidden     int // edges with a hidden endpoint layer
	Normalized int // edges whose endpoints were swapped
	Rejected   int // edges dropped by the reject policy
	Unconfig   int // edges with an endpoint layer that has no config
}

// edgeGroup accumulates the inter-layer edges of one source layer.
type edgeGroup struct {
	marker        marker.Marker
	config        config.LayerConfig
	sinceInserted int
	targetVisible bool
}

// GraphEdges builds one line-list marker per source layer for the
// inter-layer edges of graph, in ascending layer order.
//
// An edge is drawn only when both endpoint layers are visualized. Within a
// source layer every (interlayer_edge_insertion_skip+1)-th eligible edge is
// drawn, counted independently per layer. A group whose source layer is
// hidden, or whose edges all target hidden layers, becomes a delete marker.
//
// Edges are expected to run from the higher (parent) layer to the lower
// one. Edges that run upward are swapped or dropped according to the
// interlayer_edge_policy. A nil logger discards warnings.
func GraphEdges(graph *scenegraph.Graph, snap config.Snapshot, logger *log.Logger) (marker.Array, EdgeStats) {
	var stats EdgeStats
	if graph == nil {
		return nil, stats
	}

	vc := snap.Visualizer
	policy := vc.InterlayerEdgePolicy.Resolved()
	groups := make(map[scenegraph.LayerID]*edgeGroup)
	missing := make(map[scenegraph.LayerID]bool)

	for _, e := range graph.InterlayerEdges() {
		source, ok := graph.Node(e.Source)
		if !ok {
			continue
		}
		target, ok := graph.Node(e.Target)
		if !ok {
			continue
		}

		if source.Layer < target.Layer {
			if policy == config.PolicyReject {
				stats.Rejected++
				continue
			}
			source, target = target, source
			stats.Normalized++
		}

		slc, ok := snap.Layer(source.Layer)
		if !ok {
			missing[source.Layer] = true
			stats.Unconfig++
			continue
		}
		tlc, ok := snap.Layer(target.Layer)
		if !ok {
			missing[target.Layer] = true
			stats.Unconfig++
			continue
		}

		g := groups[source.Layer]
		if g == nil {
			g = newEdgeGroup(source.Layer, slc)
			groups[source.Layer] = g
		}
		if tlc.Visualize {
			g.targetVisible = true
		}
		if !slc.Visualize || !tlc.Visualize {
			stats.Hidden++
			continue
		}

		if g.sinceInserted < slc.InterlayerEdgeInsertionSkip {
			g.sinceInserted++
			stats.Skipped++
			continue
		}
		g.sinceInserted = 0

		g.add(source, target, tlc, vc)
		stats.Drawn++
	}

	logEdgeWarnings(logger, stats, missing, policy)

	out := make(marker.Array, 0, len(groups))
	for _, id := range slices.Sorted(maps.Keys(groups)) {
		g := groups[id]
		if !g.config.Visualize || !g.targetVisible {
			out = append(out, Delete(int64(id), NamespaceGraphEdges))
			continue
		}
		out = append(out, g.marker)
	}
	return out, stats
}

func newEdgeGroup(layer scenegraph.LayerID, lc config.LayerConfig) *edgeGroup {
	return &edgeGroup{
		config: lc,
		marker: marker.Marker{
			Namespace: NamespaceGraphEdges,
			ID:        int64(layer),
			Type:      marker.LineList,
			Action:    marker.Add,
			Pose:      marker.IdentityPose(),
			Scale:     marker.Vector3{X: lc.InterlayerEdgeScale},
		},
	}
}

func (g *edgeGroup) add(source, target *scenegraph.Node, tlc config.LayerConfig, vc config.VisualizerConfig) {
	g.marker.Points = append(g.marker.Points,
		raised(source.Position(), ZOffset(g.config, vc)),
		raised(target.Position(), ZOffset(tlc, vc)),
	)

	c := scenegraph.Black
	if g.config.InterlayerEdgeUseColor {
		endpoint := target
		if g.config.UseEdgeSource {
			endpoint = source
		}
		c = scenegraph.Red
		if sem, err := scenegraph.SemanticOf(endpoint.Attributes); err == nil {
			c = sem.Color
		}
	}
	color := marker.ColorFrom(c, g.config.InterlayerEdgeAlpha)
	g.marker.Colors = append(g.marker.Colors, color, color)
}

func logEdgeWarnings(logger *log.Logger, stats EdgeStats, missing map[scenegraph.LayerID]bool, policy config.EdgePolicy) {
	if logger == nil {
		return
	}
	for _, id := range slices.Sorted(maps.Keys(missing)) {
		logger.Warn("skipping inter-layer edges", "layer", id,
			"err", dsgerrors.New(dsgerrors.ErrCodeMissingLayerConfig, "layer %s has no config", id))
	}
	if stats.Normalized > 0 {
		logger.Warn("inter-layer edges with child source swapped", "count", stats.Normalized, "policy", policy,
			"err", dsgerrors.New(dsgerrors.ErrCodeInvalidEdgeOrientation, "%d edges point from child to parent", stats.Normalized))
	}
	if stats.Rejected > 0 {
		logger.Warn("inter-layer edges with child source dropped", "count", stats.Rejected, "policy", policy,
			"err", dsgerrors.New(dsgerrors.ErrCodeInvalidEdgeOrientation, "%d edges point from child to parent", stats.Rejected))
	}
}
