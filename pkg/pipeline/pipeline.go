// Package pipeline turns a scene graph into one frame of render primitives.
//
// [Build] runs one orchestration pass: for every layer with a registered
// config it invokes the builders of [render] and merges their output into
// five per-channel batches, then adds the inter-layer edge batches for the
// whole graph and the intra-layer edge batch of every layer that has edges.
//
// # Usage
//
//	snap := store.Snapshot()
//	frame := pipeline.Build(g, snap, pipeline.Options{
//	    FrameID: "world",
//	    Logger:  logger,
//	})
//	for _, b := range frame.Batches() {
//	    publish(b.Kind, b.Markers)
//	}
//
// Build never fails. Layers without config are skipped with a warning,
// bounding boxes that cannot be built are skipped with an error log, and
// nodes without a color are drawn with the sentinel color.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/render"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pass.
type Options struct {
	// FrameID is the coordinate frame stamped on every marker.
	// Defaults to config.DefaultWorldFrame.
	FrameID string

	// Stamp is the pass timestamp. Defaults to time.Now().
	Stamp time.Time

	// LayerColors paints every node of a layer with a fixed color.
	LayerColors map[scenegraph.LayerID]scenegraph.Color

	// Logger receives warnings for skipped layers and edges. Nil discards.
	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.FrameID == "" {
		o.FrameID = config.DefaultWorldFrame
	}
	if o.Stamp.IsZero() {
		o.Stamp = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Frame
// =============================================================================

// Kind names the five batches of a frame.
type Kind int

// Batch kinds in publish order.
const (
	KindCentroids Kind = iota
	KindBoundingBoxes
	KindLabels
	KindMeshEdges
	KindEdges
)

// Kinds lists every batch kind in publish order.
var Kinds = []Kind{KindCentroids, KindBoundingBoxes, KindLabels, KindMeshEdges, KindEdges}

func (k Kind) String() string {
	switch k {
	case KindCentroids:
		return "centroids"
	case KindBoundingBoxes:
		return "bounding_boxes"
	case KindLabels:
		return "labels"
	case KindMeshEdges:
		return "mesh_edges"
	case KindEdges:
		return "edges"
	default:
		return "unknown"
	}
}

// Batch is the markers of one kind.
type Batch struct {
	Kind    Kind
	Markers marker.Array
}

// Frame is the output of one pass.
type Frame struct {
	Centroids     marker.Array
	BoundingBoxes marker.Array
	Labels        marker.Array
	MeshEdges     marker.Array
	Edges         marker.Array // inter-layer batches, then intra-layer batches

	Stats Stats
}

// Batches returns the five batches in publish order, including empty ones.
func (f *Frame) Batches() []Batch {
	return []Batch{
		{KindCentroids, f.Centroids},
		{KindBoundingBoxes, f.BoundingBoxes},
		{KindLabels, f.Labels},
		{KindMeshEdges, f.MeshEdges},
		{KindEdges, f.Edges},
	}
}

// Len returns the total number of markers in the frame.
func (f *Frame) Len() int {
	n := 0
	for _, b := range f.Batches() {
		n += len(b.Markers)
	}
	return n
}

// Stats summarizes one pass.
type Stats struct {
	LayersRendered  int
	LayersSkipped   []scenegraph.LayerID
	DegradedBatches int
	SkippedBoxes    int
	Edges           render.EdgeStats
	Duration        time.Duration
}

// =============================================================================
// Build
// =============================================================================

// Build runs one pass over g with the configuration in snap.
// A nil graph yields an empty frame.
func Build(g *scenegraph.Graph, snap config.Snapshot, opts Options) Frame {
	opts.SetDefaults()
	logger := opts.Logger
	start := time.Now()

	var f Frame
	if g == nil {
		return f
	}
	vc := snap.Visualizer

	for _, layer := range g.Layers() {
		lc, ok := snap.Layer(layer.ID)
		if !ok {
			logger.Warn("skipping layer", "layer", layer.ID,
				"err", errors.New(errors.ErrCodeMissingLayerConfig, "layer %s has no config", layer.ID))
			f.Stats.LayersSkipped = append(f.Stats.LayersSkipped, layer.ID)
			continue
		}
		f.Stats.LayersRendered++

		var fixed *scenegraph.Color
		if c, ok := opts.LayerColors[layer.ID]; ok {
			fixed = &c
		}
		centroids, degraded := render.Centroids(layer, lc, vc, fixed)
		if degraded {
			f.Stats.DegradedBatches++
			logger.Warn("layer has nodes without a semantic color, using sentinel", "layer", layer.ID)
		}
		f.Centroids = append(f.Centroids, centroids)

		for _, n := range layer.Nodes() {
			f.Labels = append(f.Labels, render.Label(n, lc, vc))
		}

		for _, n := range layer.Nodes() {
			box, err := render.BoundingBox(n, lc, vc)
			if err != nil {
				logger.Error("skipping bounding box", "layer", layer.ID, "node", n.ID, "err", err)
				f.Stats.SkippedBoxes++
				continue
			}
			f.BoundingBoxes = append(f.BoundingBoxes, box)
		}

		if layer.ID == vc.ObjectsLayer {
			f.MeshEdges = append(f.MeshEdges, render.MeshEdges(g, layer, lc, vc))
		}
	}

	edges, edgeStats := render.GraphEdges(g, snap, logger)
	f.Edges = append(f.Edges, edges...)
	f.Stats.Edges = edgeStats

	for _, layer := range g.Layers() {
		if layer.NumEdges() == 0 {
			continue
		}
		lc, ok := snap.Layer(layer.ID)
		if !ok {
			continue
		}
		f.Edges = append(f.Edges, render.LayerEdges(layer, lc, vc, scenegraph.Black))
	}

	for _, b := range f.Batches() {
		b.Markers.Stamp(opts.FrameID, opts.Stamp)
	}
	f.Stats.Duration = time.Since(start)
	return f
}
