// Package metrics implements the observability hooks with Prometheus.
//
// A [Registry] owns a private prometheus.Registry, so tests and multiple
// servers in one process never collide on metric names:
//
//	reg := metrics.NewRegistry()
//	reg.Install()                      // register as the global hooks
//	router.Handle("/metrics", reg.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/dsgviz/pkg/observability"
)

// Registry holds all metrics for the visualizer.
type Registry struct {
	// Redraw metrics
	RedrawsTotal        prometheus.Counter
	RedrawDuration      prometheus.Histogram
	MarkersPerRedraw    prometheus.Histogram
	LayersSkippedTotal  prometheus.Counter
	DegradedTotal       prometheus.Counter
	SkippedBoxesTotal   prometheus.Counter
	EdgesRejectedTotal  prometheus.Counter
	GraphRejectionTotal prometheus.Counter

	// Transport metrics
	PublishedBatches  *prometheus.CounterVec
	PublishedMarkers  *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec
	PublishDuration   *prometheus.HistogramVec
	DigestHitsTotal   *prometheus.CounterVec
	DigestMissesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initRedrawMetrics()
	r.initTransportMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initRedrawMetrics() {
	f := promauto.With(r.registry)
	r.RedrawsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_redraws_total",
		Help: "Total number of completed redraw passes",
	})
	r.RedrawDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "dsgviz_redraw_duration_seconds",
		Help:    "Redraw pass latency in seconds, publishing included",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	r.MarkersPerRedraw = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "dsgviz_redraw_markers",
		Help:    "Markers produced by one redraw pass",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	r.LayersSkippedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_layers_skipped_total",
		Help: "Layers skipped because no configuration was registered",
	})
	r.DegradedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_degraded_batches_total",
		Help: "Centroid batches drawn with the sentinel color",
	})
	r.SkippedBoxesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_skipped_bounding_boxes_total",
		Help: "Bounding boxes dropped because they could not be built",
	})
	r.EdgesRejectedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_interlayer_edges_rejected_total",
		Help: "Inter-layer edges dropped for pointing from a higher to a lower layer",
	})
	r.GraphRejectionTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "dsgviz_graph_rejections_total",
		Help: "Graphs refused for being empty",
	})
}

func (r *Registry) initTransportMetrics() {
	f := promauto.With(r.registry)
	r.PublishedBatches = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_published_batches_total",
		Help: "Marker batches published per channel",
	}, []string{"channel"})
	r.PublishedMarkers = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_published_markers_total",
		Help: "Markers published per channel",
	}, []string{"channel"})
	r.PublishErrors = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_publish_errors_total",
		Help: "Failed publishes per channel",
	}, []string{"channel"})
	r.PublishDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dsgviz_publish_duration_seconds",
		Help:    "Publish latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	r.DigestHitsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_digest_hits_total",
		Help: "Markers suppressed because they matched the last-sent digest",
	}, []string{"channel"})
	r.DigestMissesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_digest_misses_total",
		Help: "Markers forwarded because they were new or changed",
	}, []string{"channel"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dsgviz_http_requests_total",
		Help: "Total number of control API requests",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dsgviz_http_request_duration_seconds",
		Help:    "Control API latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as every global observability hook.
func (r *Registry) Install() {
	observability.SetRedrawHooks(r)
	observability.SetTransportHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

// =============================================================================
// Hook implementations
// =============================================================================

func (r *Registry) OnRedrawStart(context.Context) {}

func (r *Registry) OnRedrawComplete(_ context.Context, s observability.RedrawSummary, d time.Duration) {
	r.RedrawsTotal.Inc()
	r.RedrawDuration.Observe(d.Seconds())
	r.MarkersPerRedraw.Observe(float64(s.Markers))
	r.LayersSkippedTotal.Add(float64(s.LayersSkipped))
	r.DegradedTotal.Add(float64(s.DegradedBatches))
	r.SkippedBoxesTotal.Add(float64(s.SkippedBoxes))
	r.EdgesRejectedTotal.Add(float64(s.EdgesRejected))
}

func (r *Registry) OnGraphRejected(context.Context) {
	r.GraphRejectionTotal.Inc()
}

func (r *Registry) OnPublish(_ context.Context, channel string, markers int, d time.Duration, err error) {
	r.PublishDuration.WithLabelValues(channel).Observe(d.Seconds())
	if err != nil {
		r.PublishErrors.WithLabelValues(channel).Inc()
		return
	}
	r.PublishedBatches.WithLabelValues(channel).Inc()
	r.PublishedMarkers.WithLabelValues(channel).Add(float64(markers))
}

func (r *Registry) OnCacheHit(_ context.Context, channel string) {
	r.DigestHitsTotal.WithLabelValues(channel).Inc()
}

func (r *Registry) OnCacheMiss(_ context.Context, channel string) {
	r.DigestMissesTotal.WithLabelValues(channel).Inc()
}

func (r *Registry) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.RedrawHooks    = (*Registry)(nil)
	_ observability.TransportHooks = (*Registry)(nil)
	_ observability.CacheHooks     = (*Registry)(nil)
	_ observability.HTTPHooks      = (*Registry)(nil)
)
