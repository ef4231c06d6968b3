// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. The visualizer, the
// transports, and the control API call the registered hooks; pkg/metrics
// provides a Prometheus implementation registered by the CLI at startup.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages never
// import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    reg := metrics.New()
//	    observability.SetRedrawHooks(reg)
//	    observability.SetTransportHooks(reg)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Redraw().OnRedrawStart(ctx)
//	// ... build and publish ...
//	observability.Redraw().OnRedrawComplete(ctx, summary, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Redraw Hooks
// =============================================================================

// RedrawSummary describes one completed pass.
type RedrawSummary struct {
	Markers         int
	LayersRendered  int
	LayersSkipped   int
	DegradedBatches int
	SkippedBoxes    int
	EdgesDrawn      int
	EdgesRejected   int
	PublishErrors   int
}

// RedrawHooks receives events from the redraw controller.
type RedrawHooks interface {
	// OnRedrawStart records the start of a pass.
	OnRedrawStart(ctx context.Context)

	// OnRedrawComplete records a finished pass.
	OnRedrawComplete(ctx context.Context, summary RedrawSummary, duration time.Duration)

	// OnGraphRejected records a SetGraph call refused for an empty graph.
	OnGraphRejected(ctx context.Context)
}

// =============================================================================
// Transport Hooks
// =============================================================================

// TransportHooks receives events from marker publishing.
type TransportHooks interface {
	// OnPublish records one batch sent on channel.
	OnPublish(ctx context.Context, channel string, markers int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the last-sent digest cache.
type CacheHooks interface {
	// OnCacheHit records a marker suppressed because it was unchanged.
	OnCacheHit(ctx context.Context, channel string)

	// OnCacheMiss records a marker forwarded because it was new or changed.
	OnCacheMiss(ctx context.Context, channel string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the control API.
type HTTPHooks interface {
	// OnResponse records a served request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRedrawHooks is a no-op implementation of RedrawHooks.
type NoopRedrawHooks struct{}

func (NoopRedrawHooks) OnRedrawStart(context.Context)                                  {}
func (NoopRedrawHooks) OnRedrawComplete(context.Context, RedrawSummary, time.Duration) {}
func (NoopRedrawHooks) OnGraphRejected(context.Context)                                {}

// NoopTransportHooks is a no-op implementation of TransportHooks.
type NoopTransportHooks struct{}

func (NoopTransportHooks) OnPublish(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)  {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	redrawHooks    RedrawHooks    = NoopRedrawHooks{}
	transportHooks TransportHooks = NoopTransportHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetRedrawHooks registers custom redraw hooks.
// This should be called once at application startup before the controller runs.
func SetRedrawHooks(h RedrawHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		redrawHooks = h
	}
}

// SetTransportHooks registers custom transport hooks.
func SetTransportHooks(h TransportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		transportHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Redraw returns the registered redraw hooks.
func Redraw() RedrawHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return redrawHooks
}

// Transport returns the registered transport hooks.
func Transport() TransportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return transportHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	redrawHooks = NoopRedrawHooks{}
	transportHooks = NoopTransportHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
