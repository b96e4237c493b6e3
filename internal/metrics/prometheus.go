package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FractalMetrics wraps prometheus collectors for the render server.
type FractalMetrics struct {
	registry *prometheus.Registry

	// Counters
	rendersTotal             *prometheus.CounterVec
	incrementalRendersTotal  prometheus.Counter
	freshRendersTotal        prometheus.Counter
	sessionsStartedTotal     prometheus.Counter
	sessionsRebuiltTotal     prometheus.Counter
	approximateLayoutsTotal  prometheus.Counter
	panCatchUpsTotal         prometheus.Counter
	supersessionSkipsTotal   *prometheus.CounterVec
	saveCollisionsTotal      prometheus.Counter

	// Histograms
	renderDuration *prometheus.HistogramVec
	encodeDuration *prometheus.HistogramVec

	// Gauges
	uptime         prometheus.GaugeFunc
	activeSessions prometheus.Gauge
	queueDepth     *prometheus.GaugeVec
}

// Default histogram buckets for render duration (in milliseconds).
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var promMetrics *FractalMetrics

// InitPrometheus initializes the Prometheus metrics subsystem.
func InitPrometheus(namespace string, buckets []float64) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &FractalMetrics{
		registry: registry,

		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of completed fractal renders",
			},
			[]string{"handler", "strategy", "status"},
		),

		incrementalRendersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incremental_renders_total",
				Help:      "Total renders that reused a cached previous frame",
			},
		),

		freshRendersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fresh_renders_total",
				Help:      "Total renders with no usable previous frame",
			},
		),

		sessionsStartedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total distinct sessions observed",
			},
		),

		sessionsRebuiltTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_rebuilt_total",
				Help:      "Total handler pipeline rebuilds caused by a session_id change",
			},
		),

		approximateLayoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "approximate_layouts_total",
				Help:      "Total frames served by bilinear-resizing a stale frame instead of an exact recompute",
			},
		),

		panCatchUpsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pan_catch_ups_total",
				Help:      "Total pan-only recomputes that finished inside the catch-up timeout",
			},
		),

		supersessionSkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "supersession_skips_total",
				Help:      "Total stale writes a slot rejected because it already held a newer version",
			},
			[]string{"slot"},
		),

		saveCollisionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "save_collisions_total",
				Help:      "Total save requests that failed because the target file already existed",
			},
		),

		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_milliseconds",
				Help:      "Duration of a fractal render in milliseconds",
				Buckets:   buckets,
			},
			[]string{"handler", "strategy", "precision"},
		),

		encodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "encode_duration_milliseconds",
				Help:      "Duration of PNG encoding in milliseconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"encoder"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of sessions with a live handler pipeline",
			},
		),

		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_queue_depth",
				Help:      "Current worker pool queue depth",
			},
			[]string{"pool"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the render server started",
		},
		func() float64 {
			return time.Since(StartTime()).Seconds()
		},
	)

	registry.MustRegister(
		pm.rendersTotal,
		pm.incrementalRendersTotal,
		pm.freshRendersTotal,
		pm.sessionsStartedTotal,
		pm.sessionsRebuiltTotal,
		pm.approximateLayoutsTotal,
		pm.panCatchUpsTotal,
		pm.supersessionSkipsTotal,
		pm.saveCollisionsTotal,
		pm.renderDuration,
		pm.encodeDuration,
		pm.uptime,
		pm.activeSessions,
		pm.queueDepth,
	)

	promMetrics = pm
}

// RecordPrometheusRender records a completed render.
func RecordPrometheusRender(handler, strategy string, durationMs int64, success bool) {
	if promMetrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	promMetrics.rendersTotal.WithLabelValues(handler, strategy, status).Inc()
}

// RecordRenderDuration records a render's duration against the histogram.
func RecordRenderDuration(handler, strategy, precision string, durationMs float64) {
	if promMetrics == nil {
		return
	}
	promMetrics.renderDuration.WithLabelValues(handler, strategy, precision).Observe(durationMs)
}

// RecordEncodeDuration records a PNG encode's duration.
func RecordEncodeDuration(encoder string, durationMs float64) {
	if promMetrics == nil {
		return
	}
	promMetrics.encodeDuration.WithLabelValues(encoder).Observe(durationMs)
}

// RecordPrometheusSessionStarted records a new session.
func RecordPrometheusSessionStarted() {
	if promMetrics == nil {
		return
	}
	promMetrics.sessionsStartedTotal.Inc()
}

// RecordPrometheusSessionRebuilt records a pipeline rebuild.
func RecordPrometheusSessionRebuilt() {
	if promMetrics == nil {
		return
	}
	promMetrics.sessionsRebuiltTotal.Inc()
}

// RecordPrometheusApproximateLayout records an approximate layout frame.
func RecordPrometheusApproximateLayout() {
	if promMetrics == nil {
		return
	}
	promMetrics.approximateLayoutsTotal.Inc()
}

// RecordPrometheusPanCatchUp records a pan-only catch-up.
func RecordPrometheusPanCatchUp() {
	if promMetrics == nil {
		return
	}
	promMetrics.panCatchUpsTotal.Inc()
}

// RecordSupersessionSkip records a write to the named slot that was
// rejected because the slot already held a newer version.
func RecordSupersessionSkip(slot string) {
	if promMetrics == nil {
		return
	}
	promMetrics.supersessionSkipsTotal.WithLabelValues(slot).Inc()
}

// RecordSaveCollision records a save request that failed on a name collision.
func RecordSaveCollision() {
	if promMetrics == nil {
		return
	}
	promMetrics.saveCollisionsTotal.Inc()
}

// SetActiveSessions sets the active session gauge.
func SetActiveSessions(count int) {
	if promMetrics == nil {
		return
	}
	promMetrics.activeSessions.Set(float64(count))
}

// SetQueueDepth sets the worker queue depth gauge for a named pool.
func SetQueueDepth(pool string, depth int) {
	if promMetrics == nil {
		return
	}
	promMetrics.queueDepth.WithLabelValues(pool).Set(float64(depth))
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics scraping.
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}

// PrometheusRegistry returns the prometheus registry (for custom collectors).
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
