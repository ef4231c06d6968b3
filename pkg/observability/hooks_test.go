package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRedrawHooks{}
	r.OnRedrawStart(ctx)
	r.OnRedrawComplete(ctx, RedrawSummary{Markers: 10}, time.Millisecond)
	r.OnGraphRejected(ctx)

	NoopTransportHooks{}.OnPublish(ctx, "instance_ids", 3, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "edges_node_node")
	c.OnCacheMiss(ctx, "edges_node_node")

	NoopHTTPHooks{}.OnResponse(ctx, "POST", "/graph", 204, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Redraw().(NoopRedrawHooks); !ok {
		t.Error("Redraw() should return NoopRedrawHooks by default")
	}
	if _, ok := Transport().(NoopTransportHooks); !ok {
		t.Error("Transport() should return NoopTransportHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customRedraw := &testRedrawHooks{}
	SetRedrawHooks(customRedraw)
	if Redraw() != customRedraw {
		t.Error("SetRedrawHooks should set custom hooks")
	}

	customTransport := &testTransportHooks{}
	SetTransportHooks(customTransport)
	if Transport() != customTransport {
		t.Error("SetTransportHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Redraw().(NoopRedrawHooks); !ok {
		t.Error("Reset() should restore NoopRedrawHooks")
	}
	if _, ok := Transport().(NoopTransportHooks); !ok {
		t.Error("Reset() should restore NoopTransportHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRedrawHooks{}
	SetRedrawHooks(custom)
	SetRedrawHooks(nil)

	if Redraw() != custom {
		t.Error("SetRedrawHooks(nil) should be ignored")
	}

	Reset()
}

type testRedrawHooks struct{ NoopRedrawHooks }
type testTransportHooks struct{ NoopTransportHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
