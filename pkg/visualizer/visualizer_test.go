package visualizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/dsgviz/pkg/config"
	dsgerrors "github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
	"github.com/matzehuels/dsgviz/pkg/observability"
	"github.com/matzehuels/dsgviz/pkg/pipeline"
	"github.com/matzehuels/dsgviz/pkg/scenegraph"
	"github.com/matzehuels/dsgviz/pkg/transport"
)

func smallGraph(t *testing.T) *scenegraph.Graph {
	t.Helper()
	g := scenegraph.New(scenegraph.LayerObjects, scenegraph.LayerPlaces)
	obj := &scenegraph.ObjectAttributes{
		SemanticAttributes: scenegraph.SemanticAttributes{
			BaseAttributes: scenegraph.BaseAttributes{Pos: scenegraph.Vec3{X: 1}},
			Color:          scenegraph.Red,
		},
		BoundingBox: scenegraph.BoundingBox{
			Type:     scenegraph.BoxAxisAligned,
			Max:      scenegraph.Vec3{X: 1, Y: 1, Z: 1},
			Rotation: scenegraph.Identity,
		},
	}
	place := &scenegraph.PlaceAttributes{
		SemanticAttributes: scenegraph.SemanticAttributes{
			BaseAttributes: scenegraph.BaseAttributes{Pos: scenegraph.Vec3{Y: 1}},
		},
		Distance: 1,
	}
	mustNoErr(t, g.AddNode(scenegraph.LayerObjects, scenegraph.Symbol('O', 1), obj))
	mustNoErr(t, g.AddNode(scenegraph.LayerPlaces, scenegraph.Symbol('p', 1), place))
	mustNoErr(t, g.AddNode(scenegraph.LayerPlaces, scenegraph.Symbol('p', 2), place))
	mustNoErr(t, g.AddEdge(scenegraph.Symbol('p', 1), scenegraph.Symbol('p', 2)))
	mustNoErr(t, g.AddEdge(scenegraph.Symbol('O', 1), scenegraph.Symbol('p', 1)))
	return g
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func newController() (*Controller, *config.Store, *transport.Memory) {
	store := config.NewStore(config.Default())
	mem := transport.NewMemory()
	return New(store, mem, Options{}), store, mem
}

func TestChannelFor(t *testing.T) {
	tests := []struct {
		kind pipeline.Kind
		want transport.Channel
	}{
		{pipeline.KindCentroids, transport.ChannelCentroids},
		{pipeline.KindBoundingBoxes, transport.ChannelBoundingBoxes},
		{pipeline.KindLabels, transport.ChannelLabels},
		{pipeline.KindMeshEdges, transport.ChannelMeshEdges},
		{pipeline.KindEdges, transport.ChannelEdges},
	}
	for _, tt := range tests {
		if got := ChannelFor(tt.kind); got != tt.want {
			t.Errorf("ChannelFor(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSetGraphRejectsEmpty(t *testing.T) {
	ctl, _, _ := newController()

	for name, g := range map[string]*scenegraph.Graph{
		"nil":   nil,
		"empty": scenegraph.New(scenegraph.LayerObjects),
	} {
		t.Run(name, func(t *testing.T) {
			err := ctl.SetGraph(context.Background(), g)
			if !dsgerrors.Is(err, dsgerrors.ErrCodeEmptyGraph) {
				t.Errorf("SetGraph err = %v, want EMPTY_OR_ABSENT_GRAPH", err)
			}
		})
	}

	if s := ctl.Status(); s.HasGraph || s.Dirty {
		t.Errorf("status after rejection = %+v, want unchanged", s)
	}
}

func TestSetGraphRejectionKeepsPreviousGraph(t *testing.T) {
	ctl, _, _ := newController()
	g := smallGraph(t)
	mustNoErr(t, ctl.SetGraph(context.Background(), g))

	_ = ctl.SetGraph(context.Background(), nil)
	if ctl.Graph() != g {
		t.Error("rejected SetGraph should keep the held graph")
	}
}

func TestRedrawDirtyLogic(t *testing.T) {
	ctx := context.Background()
	ctl, store, mem := newController()

	ran, err := ctl.Redraw(ctx)
	if ran || err != nil {
		t.Fatalf("Redraw without graph = %v, %v, want false, nil", ran, err)
	}

	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))
	ran, err = ctl.Redraw(ctx)
	if !ran || err != nil {
		t.Fatalf("Redraw after SetGraph = %v, %v, want true, nil", ran, err)
	}
	published := len(mem.Published())
	if published == 0 {
		t.Fatal("first pass should publish")
	}

	ran, _ = ctl.Redraw(ctx)
	if ran {
		t.Error("clean controller should not redraw")
	}
	if len(mem.Published()) != published {
		t.Error("clean tick should not publish")
	}

	lc, _ := store.Snapshot().Layer(scenegraph.LayerPlaces)
	lc.MarkerScale = 0.3
	mustNoErr(t, store.SetLayer(scenegraph.LayerPlaces, lc))
	if !ctl.Status().Dirty {
		t.Fatal("config change should arm the controller")
	}
	ran, _ = ctl.Redraw(ctx)
	if !ran {
		t.Error("armed controller should redraw")
	}
	if s := ctl.Status(); s.Passes != 2 || s.Dirty {
		t.Errorf("status = %+v, want 2 passes, clean", s)
	}
}

func TestRedrawPublishesNonEmptyChannels(t *testing.T) {
	ctx := context.Background()
	ctl, _, mem := newController()
	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))
	_, _ = ctl.Redraw(ctx)

	seen := map[transport.Channel]int{}
	for _, p := range mem.Published() {
		if len(p.Markers) == 0 {
			t.Errorf("empty batch published on %s", p.Channel)
		}
		seen[p.Channel]++
		for _, m := range p.Markers {
			if m.Header.FrameID != config.DefaultWorldFrame {
				t.Errorf("marker %s/%d frame = %q", m.Namespace, m.ID, m.Header.FrameID)
			}
		}
	}
	for _, ch := range []transport.Channel{transport.ChannelCentroids, transport.ChannelLabels, transport.ChannelEdges, transport.ChannelBoundingBoxes} {
		if seen[ch] != 1 {
			t.Errorf("batches on %s = %d, want 1", ch, seen[ch])
		}
	}

	boxes, _ := mem.Latest(transport.ChannelBoundingBoxes)
	for _, m := range boxes {
		if m.Type == marker.TextViewFacing {
			t.Error("text markers must not appear on the box channel")
		}
	}
}

func TestClearRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctl, _, mem := newController()
	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))
	_, _ = ctl.Redraw(ctx)
	mem.Reset()

	mustNoErr(t, ctl.Clear(ctx))

	got := mem.Published()
	if len(got) != len(transport.Channels) {
		t.Fatalf("batches = %d, want %d", len(got), len(transport.Channels))
	}
	for i, p := range got {
		if p.Channel != transport.Channels[i] {
			t.Errorf("batch %d channel = %q, want %q", i, p.Channel, transport.Channels[i])
		}
		if len(p.Markers) != 1 || p.Markers[0].Action != marker.DeleteAll {
			t.Errorf("batch %d = %+v, want one delete-all", i, p.Markers)
		}
	}

	if ctl.Graph() != nil {
		t.Error("Clear should drop the graph")
	}
	ctl.ConfigChanged()
	if ran, _ := ctl.Redraw(ctx); ran {
		t.Error("Redraw after Clear should report false")
	}
}

type flaky struct {
	mu   sync.Mutex
	fail bool
	*transport.Memory
}

func (f *flaky) Publish(ctx context.Context, ch transport.Channel, m marker.Array) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("broker down")
	}
	return f.Memory.Publish(ctx, ch, m)
}

func TestRedrawPublishFailureRearms(t *testing.T) {
	ctx := context.Background()
	store := config.NewStore(config.Default())
	pub := &flaky{fail: true, Memory: transport.NewMemory()}
	ctl := New(store, pub, Options{})
	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))

	ran, err := ctl.Redraw(ctx)
	if !ran || !dsgerrors.Is(err, dsgerrors.ErrCodeTransport) {
		t.Fatalf("Redraw = %v, %v, want true, TRANSPORT_ERROR", ran, err)
	}
	if !ctl.Status().Dirty {
		t.Fatal("failed publish should re-arm")
	}

	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()
	if ran, err := ctl.Redraw(ctx); !ran || err != nil {
		t.Errorf("retry = %v, %v, want true, nil", ran, err)
	}
}

type countingHooks struct {
	observability.NoopRedrawHooks
	mu        sync.Mutex
	completed int
	rejected  int
}

func (h *countingHooks) OnRedrawComplete(context.Context, observability.RedrawSummary, time.Duration) {
	h.mu.Lock()
	h.completed++
	h.mu.Unlock()
}

func (h *countingHooks) OnGraphRejected(context.Context) {
	h.mu.Lock()
	h.rejected++
	h.mu.Unlock()
}

func TestRedrawHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &countingHooks{}
	observability.SetRedrawHooks(hooks)

	ctx := context.Background()
	ctl, _, _ := newController()
	_ = ctl.SetGraph(ctx, nil)
	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))
	_, _ = ctl.Redraw(ctx)

	if hooks.completed != 1 || hooks.rejected != 1 {
		t.Errorf("hooks completed=%d rejected=%d, want 1, 1", hooks.completed, hooks.rejected)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctl, _, mem := newController()
	ctx, cancel := context.WithCancel(context.Background())
	mustNoErr(t, ctl.SetGraph(ctx, smallGraph(t)))

	done := make(chan error, 1)
	go func() { done <- ctl.Run(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for ctl.Status().Passes == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if len(mem.Published()) == 0 {
		t.Error("Run should have published a pass")
	}
}
