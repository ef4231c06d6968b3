// Package visualizer drives redraw passes and publishes their output.
//
// A [Controller] holds the current scene graph and a dirty flag. Setting a
// graph or changing the configuration arms the flag; the next scheduler
// tick runs one pass through [pipeline.Build] with a single configuration
// snapshot and publishes every non-empty batch on its channel.
//
//	store := config.NewStore(config.Default())
//	ctl := visualizer.New(store, pub, visualizer.Options{Logger: logger})
//	_ = ctl.SetGraph(ctx, g)
//	go ctl.Run(ctx, 100*time.Millisecond)
//
// Graphs handed to SetGraph must not be modified afterwards.
package visualizer

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dsgviz/pkg/config"
	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/observability"
	"github.com/matzehuels/dsgviz/pkg/pipeline"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/transport"
)

// Options configures a Controller.
type Options struct {
	// FrameID is stamped on every marker. Defaults to config.DefaultWorldFrame.
	FrameID string

	// LayerColors paints every node of a layer with a fixed color.
	LayerColors map[scenegraph.LayerID]scenegraph.Color

	// Logger receives pass warnings and publish errors. Nil discards.
	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.FrameID == "" {
		o.FrameID = config.DefaultWorldFrame
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Status is a point-in-time view of a controller.
type Status struct {
	HasGraph  bool
	Nodes     int
	Edges     int
	Dirty     bool
	Passes    int
	LastPass  time.Time
	LastStats pipeline.Stats
}

// Controller schedules redraws. It is safe for concurrent use; passes are
// serialized.
type Controller struct {
	store *config.Store
	pub   transport.Transport
	opts  Options

	pass sync.Mutex // held for a whole pass or clear

	mu       sync.Mutex
	graph    *scenegraph.Graph
	dirty    bool
	passes   int
	lastPass time.Time
	last     pipeline.Stats
}

// New creates a controller reading configuration from store and publishing
// to pub. The controller subscribes to store changes.
func New(store *config.Store, pub transport.Transport, opts Options) *Controller {
	opts.SetDefaults()
	c := &Controller{store: store, pub: pub, opts: opts}
	store.OnChange(c.ConfigChanged)
	return c
}

// ChannelFor maps a pipeline batch to the channel it is published on.
func ChannelFor(kind pipeline.Kind) transport.Channel {
	switch kind {
	case pipeline.KindCentroids:
		return transport.ChannelCentroids
	case pipeline.KindBoundingBoxes:
		return transport.ChannelBoundingBoxes
	case pipeline.KindLabels:
		return transport.ChannelLabels
	case pipeline.KindMeshEdges:
		return transport.ChannelMeshEdges
	default:
		return transport.ChannelEdges
	}
}

// SetGraph stores g and arms a redraw. Nil and empty graphs are rejected
// with EMPTY_OR_ABSENT_GRAPH and leave the controller unchanged.
func (c *Controller) SetGraph(ctx context.Context, g *scenegraph.Graph) error {
	if g.Empty() {
		c.opts.Logger.Warn("ignoring empty scene graph")
		observability.Redraw().OnGraphRejected(ctx)
		return errors.New(errors.ErrCodeEmptyGraph, "scene graph is empty or absent")
	}

	c.mu.Lock()
	c.graph = g
	c.dirty = true
	c.mu.Unlock()
	c.opts.Logger.Debug("scene graph set", "nodes", g.NumNodes(), "edges", g.NumEdges())
	return nil
}

// Graph returns the held graph, or nil.
func (c *Controller) Graph() *scenegraph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph
}

// ConfigChanged arms a redraw.
func (c *Controller) ConfigChanged() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Status reports the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		HasGraph:  c.graph != nil,
		Dirty:     c.dirty,
		Passes:    c.passes,
		LastPass:  c.lastPass,
		LastStats: c.last,
	}
	if c.graph != nil {
		s.Nodes = c.graph.NumNodes()
		s.Edges = c.graph.NumEdges()
	}
	return s
}

// Redraw runs one pass if a redraw is armed and a graph is held, and
// reports whether it did. Publish failures are joined into the returned
// error and re-arm the controller so the next tick retries.
func (c *Controller) Redraw(ctx context.Context) (bool, error) {
	c.pass.Lock()
	defer c.pass.Unlock()

	c.mu.Lock()
	if !c.dirty || c.graph == nil {
		c.mu.Unlock()
		return false, nil
	}
	g := c.graph
	c.dirty = false
	c.mu.Unlock()

	start := time.Now()
	observability.Redraw().OnRedrawStart(ctx)

	snap := c.store.Snapshot()
	frame := pipeline.Build(g, snap, pipeline.Options{
		FrameID:     c.opts.FrameID,
		Stamp:       start,
		LayerColors: c.opts.LayerColors,
		Logger:      c.opts.Logger,
	})

	var errs []error
	for _, b := range frame.Batches() {
		if len(b.Markers) == 0 {
			continue
		}
		if err := c.publish(ctx, ChannelFor(b.Kind), b.Markers); err != nil {
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	if len(errs) > 0 {
		c.dirty = true
	}
	c.passes++
	c.lastPass = start
	c.last = frame.Stats
	c.mu.Unlock()

	st := frame.Stats
	observability.Redraw().OnRedrawComplete(ctx, observability.RedrawSummary{
		Markers:         frame.Len(),
		LayersRendered:  st.LayersRendered,
		LayersSkipped:   len(st.LayersSkipped),
		DegradedBatches: st.DegradedBatches,
		SkippedBoxes:    st.SkippedBoxes,
		EdgesDrawn:      st.Edges.Drawn,
		EdgesRejected:   st.Edges.Rejected,
		PublishErrors:   len(errs),
	}, time.Since(start))

	c.opts.Logger.Debug("redraw complete", "markers", frame.Len(), "layers", st.LayersRendered, "took", time.Since(start))
	return true, stderrors.Join(errs...)
}

// Clear sends one delete-all on every channel and drops the graph.
func (c *Controller) Clear(ctx context.Context) error {
	c.pass.Lock()
	defer c.pass.Unlock()

	var errs []error
	stamp := time.Now()
	for _, ch := range transport.Channels {
		m := marker.NewDeleteAll()
		m.Stamp(c.opts.FrameID, stamp)
		if err := c.publish(ctx, ch, marker.Array{m}); err != nil {
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	c.graph = nil
	c.dirty = false
	c.mu.Unlock()
	return stderrors.Join(errs...)
}

// Run calls Redraw every period until ctx is done. Errors are logged and
// the loop keeps going. A non-positive period uses config.DefaultLoopPeriod.
func (c *Controller) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = config.DefaultLoopPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Redraw(ctx); err != nil {
				c.opts.Logger.Error("redraw failed", "err", err)
			}
		}
	}
}

func (c *Controller) publish(ctx context.Context, ch transport.Channel, markers marker.Array) error {
	start := time.Now()
	err := c.pub.Publish(ctx, ch, markers)
	observability.Transport().OnPublish(ctx, string(ch), len(markers), time.Since(start), err)
	if err != nil {
		c.opts.Logger.Warn("publish failed", "channel", ch, "markers", len(markers), "err", err)
		return errors.Wrap(errors.ErrCodeTransport, err, "publish %s", ch)
	}
	return nil
}
