// ============================================================================
// Threadspark Metrics - Prometheus instrumentation
// ============================================================================
//
// Package: pkg/metrics
// File: metrics.go
// Purpose: Collect and expose executor metrics for Prometheus
//
// Metric families:
//
//   1. Counters:
//      - threadspark_items_submitted_total: requests handed to a run
//      - threadspark_items_started_total: bodies that began executing
//      - threadspark_items_succeeded_total: bodies that returned a value
//      - threadspark_items_failed_total: bodies that returned an error or panicked
//      - threadspark_items_cancelled_total: requests skipped by cancellation
//
//   2. Histogram:
//      - threadspark_item_latency_seconds: body execution time
//
//   3. Gauges:
//      - threadspark_batch_duration_seconds: wall time of the last finished run
//      - threadspark_items_pending: requests queued but not yet picked up
//      - threadspark_items_in_flight: bodies executing right now
//
// Example queries:
//
//   # failure ratio
//   rate(threadspark_items_failed_total[5m]) / rate(threadspark_items_started_total[5m])
//
//   # saturation against a limit of K
//   threadspark_items_in_flight / K
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives executor events. Implementations must be safe for
// concurrent use because every worker reports directly.
type Recorder interface {
	RecordSubmitted(n int)
	RecordStarted()
	RecordSucceeded(latency time.Duration)
	RecordFailed(latency time.Duration)
	RecordCancelled()
	AddPending(delta int)
	AddInFlight(delta int)
	SetBatchDuration(d time.Duration)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordSubmitted(int) {}
func (Nop) RecordStarted() {}
func (Nop) RecordSucceeded(time.Duration) {}
func (Nop) RecordFailed(time.Duration) {}
func (Nop) RecordCancelled() {}
func (Nop) AddPending(int) {}
func (Nop) AddInFlight(int) {}
func (Nop) SetBatchDuration(time.Duration) {}

// Collector is a Recorder backed by Prometheus metrics.
type Collector struct {
	// item counters
	itemsSubmitted prometheus.Counter
	itemsStarted   prometheus.Counter
	itemsSucceeded prometheus.Counter
	itemsFailed    prometheus.Counter
	itemsCancelled prometheus.Counter

	// timing
	itemLatency   prometheus.Histogram
	batchDuration prometheus.Gauge

	// state
	itemsPending  prometheus.Gauge
	itemsInFlight prometheus.Gauge
}

// NewCollector creates a collector and registers it with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		itemsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadspark_items_submitted_total",
			Help: "Total number of functions submitted to a run",
		}),
		itemsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadspark_items_started_total",
			Help: "Total number of function bodies that started executing",
		}),
		itemsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadspark_items_succeeded_total",
			Help: "Total number of function bodies that returned a value",
		}),
		itemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadspark_items_failed_total",
			Help: "Total number of function bodies that returned an error or panicked",
		}),
		itemsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadspark_items_cancelled_total",
			Help: "Total number of functions skipped because the run was cancelled",
		}),
		itemLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "threadspark_item_latency_seconds",
			Help:    "Function body execution time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		batchDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "threadspark_batch_duration_seconds",
			Help: "Wall time of the most recently finished run in seconds",
		}),
		itemsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "threadspark_items_pending",
			Help: "Current number of queued functions not yet picked up",
		}),
		itemsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "threadspark_items_in_flight",
			Help: "Current number of executing function bodies",
		}),
	}

	reg.MustRegister(
		c.itemsSubmitted,
		c.itemsStarted,
		c.itemsSucceeded,
		c.itemsFailed,
		c.itemsCancelled,
		c.itemLatency,
		c.batchDuration,
		c.itemsPending,
		c.itemsInFlight,
	)

	return c
}

// RecordSubmitted counts n newly submitted functions.
func (c *Collector) RecordSubmitted(n int) {
	c.itemsSubmitted.Add(float64(n))
}

// RecordStarted counts a body that began executing.
func (c *Collector) RecordStarted() {
	c.itemsStarted.Inc()
}

// RecordSucceeded counts a successful body and observes its latency.
func (c *Collector) RecordSucceeded(latency time.Duration) {
	c.itemsSucceeded.Inc()
	c.itemLatency.Observe(latency.Seconds())
}

// RecordFailed counts a failed body and observes its latency.
func (c *Collector) RecordFailed(latency time.Duration) {
	c.itemsFailed.Inc()
	c.itemLatency.Observe(latency.Seconds())
}

// RecordCancelled counts a skipped request.
func (c *Collector) RecordCancelled() {
	c.itemsCancelled.Inc()
}

// AddPending adjusts the pending gauge.
func (c *Collector) AddPending(delta int) {
	c.itemsPending.Add(float64(delta))
}

// AddInFlight adjusts the in-flight gauge.
func (c *Collector) AddInFlight(delta int) {
	c.itemsInFlight.Add(float64(delta))
}

// SetBatchDuration records the wall time of a finished run.
func (c *Collector) SetBatchDuration(d time.Duration) {
	c.batchDuration.Set(d.Seconds())
}

// Handler returns an HTTP handler serving the metrics gathered by g.
// A nil g means prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StartServer starts the Prometheus metrics HTTP server
//
// Parameters:
//   - port: HTTP server port
//   - g: gatherer to expose (nil for the default registry)
//
// Returns:
//   - error: error from ListenAndServe
func StartServer(port int, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
