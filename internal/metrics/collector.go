// Package metrics exports Prometheus metrics for the load engine:
// requests issued, rate-limiter rejections, active tests, and a
// snapshot gauge of the last completed run's p95. Grounded on
// vaultaire's internal/gateway/metrics.Collector, which wraps
// promauto-registered vectors behind a small typed API rather than
// exposing prometheus.Counter/Gauge directly to callers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadforge_requests_issued_total",
			Help: "Total number of HTTP requests issued by the load engine.",
		},
		[]string{"outcome"}, // success, failure, timeout
	)

	rateLimiterRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loadforge_rate_limiter_rejections_total",
			Help: "Total number of admission attempts that found the sliding window full.",
		},
	)

	activeTests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadforge_active_tests",
			Help: "Number of load tests currently running.",
		},
	)

	lastRunP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadforge_last_completed_p95_response_time_ms",
			Help: "p95 response time in ms of the most recently completed test.",
		},
	)
)

// Collector is a thin, typed wrapper over the package-level vectors so
// callers (the engine, the rate limiter) don't import prometheus
// directly.
type Collector struct {
	startTime time.Time
}

// NewCollector builds a Collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordRequest tags one issued request by its outcome: "success",
// "failure", or "timeout".
func (c *Collector) RecordRequest(outcome string) {
	requestsIssued.WithLabelValues(outcome).Inc()
}

// RecordRateLimiterRejection records one sliding-window admission
// attempt that had to back off.
func (c *Collector) RecordRateLimiterRejection() {
	rateLimiterRejections.Inc()
}

// TestStarted increments the active-test gauge.
func (c *Collector) TestStarted() {
	activeTests.Inc()
}

// TestFinished decrements the active-test gauge.
func (c *Collector) TestFinished() {
	activeTests.Dec()
}

// RecordCompletion publishes the p95 of a just-completed test.
func (c *Collector) RecordCompletion(p95ResponseTimeMs float64) {
	lastRunP95.Set(p95ResponseTimeMs)
}

// Uptime returns how long this process has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}
