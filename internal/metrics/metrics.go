// Package metrics collects and exposes render-server observability data.
//
// # Design rationale
//
// Two metric stores coexist in this package:
//
//  1. The in-process Metrics struct (per-handler counters + time series)
//     for a lightweight JSON /metrics.json endpoint.
//  2. A Prometheus registry (prometheus.go) for scraping by external
//     monitoring systems.
//
// Keeping both lets an operator curl a human-readable snapshot without
// standing up a scrape target, while still exporting the same numbers to
// Prometheus for anyone who has one.
//
// # Concurrency — hot path
//
// RecordRender is called from every completed HandleFractalRequest and must
// be as fast as possible. It uses atomic increments for global counters and
// dispatches a lightweight event onto a buffered channel (tsChan) for the
// time-series worker to process asynchronously, so no lock is held on the
// request path itself.
//
// The per-handler HandlerMetrics struct also uses atomic operations
// exclusively; the sync.Map that stores per-handler entries is read-heavy
// and write-once-per-handler-kind, the ideal case for sync.Map.
//
// # Invariants
//
//   - TotalRenders == SuccessRenders + FailedRenders (maintained by
//     RecordRender).
//   - IncrementalRenders + FreshRenders == SuccessRenders.
//   - The time-series ring buffer holds at most timeSeriesBucketCount
//     buckets (24 * 60 = 1440 for the last 24 hours at 1-minute granularity).
//   - tsChan capacity is 8192 events; events dropped when full are counted
//     in tsDroppedEvents for observability.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	timeSeriesBucketDuration = time.Minute
	timeSeriesBucketCount    = 24 * 60
)

// TimeSeriesBucket stores metrics for a single time bucket.
type TimeSeriesBucket struct {
	Timestamp    time.Time
	Renders      int64
	Errors       int64
	TotalLatency int64
	Count        int64 // for calculating avg
}

// Metrics collects and exposes render-server runtime metrics.
type Metrics struct {
	// Render outcome metrics
	TotalRenders       atomic.Int64
	SuccessRenders     atomic.Int64
	FailedRenders      atomic.Int64
	IncrementalRenders atomic.Int64 // reused a cached previous frame
	FreshRenders       atomic.Int64 // no usable previous frame

	// Latency metrics (in milliseconds)
	TotalLatencyMs atomic.Int64
	MinLatencyMs   atomic.Int64
	MaxLatencyMs   atomic.Int64

	// Session / pipeline lifecycle metrics
	SessionsStarted        atomic.Int64
	SessionsRebuilt         atomic.Int64
	ApproximateLayoutsServed atomic.Int64
	PanCatchUpsServed       atomic.Int64

	// Per-handler metrics
	handlerMetrics sync.Map // handler kind -> *HandlerMetrics

	// Time-series data (minute buckets for last 24 hours)
	timeSeriesMu    sync.RWMutex
	timeSeries      []*TimeSeriesBucket
	tsChan          chan timeSeriesEvent
	tsDroppedEvents atomic.Int64

	startTime time.Time
}

// timeSeriesEvent is sent over a channel to avoid write-lock contention on the hot path.
type timeSeriesEvent struct {
	durationMs int64
	isError    bool
}

// HandlerMetrics tracks metrics for a single handler kind (sync, pipelined, async).
type HandlerMetrics struct {
	Renders  atomic.Int64
	Successes atomic.Int64
	Failures  atomic.Int64
	TotalMs   atomic.Int64
	MinMs     atomic.Int64
	MaxMs     atomic.Int64
}

// Global metrics instance.
var global = &Metrics{startTime: time.Now()}

func init() {
	global.MinLatencyMs.Store(int64(^uint64(0) >> 1)) // Max int64
	global.tsChan = make(chan timeSeriesEvent, 8192)
	global.initTimeSeries()
	go global.processTimeSeriesLoop()
}

// initTimeSeries initializes minute-level buckets for the last 24 hours.
func (m *Metrics) initTimeSeries() {
	m.timeSeriesMu.Lock()
	defer m.timeSeriesMu.Unlock()

	now := time.Now().Truncate(timeSeriesBucketDuration)
	m.timeSeries = make([]*TimeSeriesBucket, timeSeriesBucketCount)
	for i := 0; i < timeSeriesBucketCount; i++ {
		m.timeSeries[i] = &TimeSeriesBucket{
			Timestamp: now.Add(time.Duration(i-(timeSeriesBucketCount-1)) * timeSeriesBucketDuration),
		}
	}
}

// Global returns the global metrics instance.
func Global() *Metrics {
	return global
}

// StartTime returns the time when the metrics system was initialized.
func StartTime() time.Time {
	return global.startTime
}

// RecordRender records one completed HandleFractalRequest.
func (m *Metrics) RecordRender(handlerKind string, strategy string, durationMs int64, incremental bool, success bool) {
	m.TotalRenders.Add(1)

	if success {
		m.SuccessRenders.Add(1)
		if incremental {
			m.IncrementalRenders.Add(1)
		} else {
			m.FreshRenders.Add(1)
		}
	} else {
		m.FailedRenders.Add(1)
	}

	m.TotalLatencyMs.Add(durationMs)
	updateMin(&m.MinLatencyMs, durationMs)
	updateMax(&m.MaxLatencyMs, durationMs)

	hm := m.getHandlerMetrics(handlerKind)
	hm.Renders.Add(1)
	if success {
		hm.Successes.Add(1)
	} else {
		hm.Failures.Add(1)
	}
	hm.TotalMs.Add(durationMs)
	updateMin(&hm.MinMs, durationMs)
	updateMax(&hm.MaxMs, durationMs)

	m.recordTimeSeries(durationMs, !success)

	RecordPrometheusRender(handlerKind, strategy, durationMs, success)
}

// recordTimeSeries enqueues a time-series event for async processing,
// avoiding a write-lock on the hot render path.
func (m *Metrics) recordTimeSeries(durationMs int64, isError bool) {
	select {
	case m.tsChan <- timeSeriesEvent{durationMs: durationMs, isError: isError}:
	default:
		m.tsDroppedEvents.Add(1)
	}
}

// processTimeSeriesLoop drains tsChan and applies events under a write lock.
func (m *Metrics) processTimeSeriesLoop() {
	for evt := range m.tsChan {
		m.applyTimeSeriesEvent(evt.durationMs, evt.isError)
	}
}

// applyTimeSeriesEvent updates the time-series buckets (must be called from a single goroutine).
func (m *Metrics) applyTimeSeriesEvent(durationMs int64, isError bool) {
	m.timeSeriesMu.Lock()
	defer m.timeSeriesMu.Unlock()

	now := time.Now().Truncate(timeSeriesBucketDuration)

	if len(m.timeSeries) > 0 {
		lastBucket := m.timeSeries[len(m.timeSeries)-1]
		bucketsDiff := int(now.Sub(lastBucket.Timestamp) / timeSeriesBucketDuration)

		if bucketsDiff > 0 {
			if bucketsDiff >= timeSeriesBucketCount {
				m.timeSeries = make([]*TimeSeriesBucket, timeSeriesBucketCount)
				for i := 0; i < timeSeriesBucketCount; i++ {
					m.timeSeries[i] = &TimeSeriesBucket{
						Timestamp: now.Add(time.Duration(i-(timeSeriesBucketCount-1)) * timeSeriesBucketDuration),
					}
				}
			} else {
				m.timeSeries = m.timeSeries[bucketsDiff:]
				for i := 0; i < bucketsDiff; i++ {
					m.timeSeries = append(m.timeSeries, &TimeSeriesBucket{
						Timestamp: lastBucket.Timestamp.Add(time.Duration(i+1) * timeSeriesBucketDuration),
					})
				}
			}
		}
	}

	if len(m.timeSeries) > 0 {
		bucket := m.timeSeries[len(m.timeSeries)-1]
		bucket.Renders++
		bucket.TotalLatency += durationMs
		bucket.Count++
		if isError {
			bucket.Errors++
		}
	}
}

// RecordSessionStarted records a brand-new session being seen for the first time.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Add(1)
	RecordPrometheusSessionStarted()
}

// RecordSessionRebuilt records a handler tearing down and restarting its
// pipeline because a request's session_id changed.
func (m *Metrics) RecordSessionRebuilt() {
	m.SessionsRebuilt.Add(1)
	RecordPrometheusSessionRebuilt()
}

// RecordApproximateLayout records the asynchronous handler serving a
// bilinear-resized approximation instead of an exact recompute.
func (m *Metrics) RecordApproximateLayout() {
	m.ApproximateLayoutsServed.Add(1)
	RecordPrometheusApproximateLayout()
}

// RecordPanCatchUp records the asynchronous handler's pan-only recompute
// finishing inside its catch-up timeout.
func (m *Metrics) RecordPanCatchUp() {
	m.PanCatchUpsServed.Add(1)
	RecordPrometheusPanCatchUp()
}

func (m *Metrics) getHandlerMetrics(kind string) *HandlerMetrics {
	if v, ok := m.handlerMetrics.Load(kind); ok {
		return v.(*HandlerMetrics)
	}

	hm := &HandlerMetrics{}
	hm.MinMs.Store(int64(^uint64(0) >> 1))
	actual, _ := m.handlerMetrics.LoadOrStore(kind, hm)
	return actual.(*HandlerMetrics)
}

// GetHandlerMetrics returns the metrics for a specific handler kind (or nil if none recorded yet).
func (m *Metrics) GetHandlerMetrics(kind string) *HandlerMetrics {
	if v, ok := m.handlerMetrics.Load(kind); ok {
		return v.(*HandlerMetrics)
	}
	return nil
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() map[string]interface{} {
	total := m.TotalRenders.Load()
	avgLatency := float64(0)
	if total > 0 {
		avgLatency = float64(m.TotalLatencyMs.Load()) / float64(total)
	}

	minLatency := m.MinLatencyMs.Load()
	if minLatency == int64(^uint64(0)>>1) {
		minLatency = 0
	}

	result := map[string]interface{}{
		"uptime_seconds": int64(time.Since(m.startTime).Seconds()),
		"renders": map[string]interface{}{
			"total":       total,
			"success":     m.SuccessRenders.Load(),
			"failed":      m.FailedRenders.Load(),
			"incremental": m.IncrementalRenders.Load(),
			"fresh":       m.FreshRenders.Load(),
		},
		"latency_ms": map[string]interface{}{
			"avg": avgLatency,
			"min": minLatency,
			"max": m.MaxLatencyMs.Load(),
		},
		"sessions": map[string]interface{}{
			"started":              m.SessionsStarted.Load(),
			"rebuilt":              m.SessionsRebuilt.Load(),
			"approximate_layouts":  m.ApproximateLayoutsServed.Load(),
			"pan_catch_ups":        m.PanCatchUpsServed.Load(),
		},
		"ts_dropped_events": m.tsDroppedEvents.Load(),
	}

	return result
}

// HandlerStats returns per-handler-kind metrics.
func (m *Metrics) HandlerStats() map[string]interface{} {
	result := make(map[string]interface{})

	m.handlerMetrics.Range(func(key, value interface{}) bool {
		kind := key.(string)
		hm := value.(*HandlerMetrics)

		total := hm.Renders.Load()
		avgMs := float64(0)
		if total > 0 {
			avgMs = float64(hm.TotalMs.Load()) / float64(total)
		}

		minMs := hm.MinMs.Load()
		if minMs == int64(^uint64(0)>>1) {
			minMs = 0
		}

		result[kind] = map[string]interface{}{
			"renders":   total,
			"successes": hm.Successes.Load(),
			"failures":  hm.Failures.Load(),
			"avg_ms":    avgMs,
			"min_ms":    minMs,
			"max_ms":    hm.MaxMs.Load(),
		}
		return true
	})

	return result
}

// JSONHandler returns an HTTP handler that exposes metrics in JSON format.
func (m *Metrics) JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		result := m.Snapshot()
		result["handlers"] = m.HandlerStats()
		json.NewEncoder(w).Encode(result)
	})
}

// TimeSeries returns minute-level time-series data for the last 24 hours.
func (m *Metrics) TimeSeries() []map[string]interface{} {
	m.timeSeriesMu.RLock()
	defer m.timeSeriesMu.RUnlock()

	result := make([]map[string]interface{}, len(m.timeSeries))
	for i, bucket := range m.timeSeries {
		avgDuration := float64(0)
		if bucket.Count > 0 {
			avgDuration = float64(bucket.TotalLatency) / float64(bucket.Count)
		}
		result[i] = map[string]interface{}{
			"timestamp":    bucket.Timestamp.Format(time.RFC3339),
			"renders":      bucket.Renders,
			"errors":       bucket.Errors,
			"avg_duration": avgDuration,
		}
	}
	return result
}

// TimeSeriesHandler returns an HTTP handler for time-series metrics.
func (m *Metrics) TimeSeriesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.TimeSeries())
	})
}

// Helper functions

func updateMin(target *atomic.Int64, value int64) {
	for {
		old := target.Load()
		if value >= old {
			return
		}
		if target.CompareAndSwap(old, value) {
			return
		}
	}
}

func updateMax(target *atomic.Int64, value int64) {
	for {
		old := target.Load()
		if value <= old {
			return
		}
		if target.CompareAndSwap(old, value) {
			return
		}
	}
}
