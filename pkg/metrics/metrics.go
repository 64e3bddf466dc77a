// Package metrics provides Prometheus instrumentation for the request
// pipeline: rate-limit decisions, sanitizer removals and HTTP responses.
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(metrics.WithRegistry(reg))
//	mux.Handle("/metrics", metrics.Handler(reg))
//
// Rate-limit metrics are partitioned by policy name and carry a "decision"
// label (allowed / denied).
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision label values.
const (
	Allowed = "allowed"
	Denied  = "denied"
)

// Collector holds Prometheus metric vectors for pipeline instrumentation.
type Collector struct {
	decisions   *prometheus.CounterVec
	checks      *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	releases    *prometheus.CounterVec
	removals    *prometheus.CounterVec
	responses   *prometheus.CounterVec
	respLatency *prometheus.HistogramVec
}

type collectorConfig struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer
	buckets   []float64
}

// CollectorOption configures a Collector.
type CollectorOption func(*collectorConfig)

// WithNamespace sets the Prometheus metric namespace (prefix).
func WithNamespace(ns string) CollectorOption {
	return func(c *collectorConfig) { c.namespace = ns }
}

// WithSubsystem sets the Prometheus metric subsystem.
func WithSubsystem(sub string) CollectorOption {
	return func(c *collectorConfig) { c.subsystem = sub }
}

// WithRegistry registers metrics with the given Registerer instead of
// prometheus.DefaultRegisterer.
func WithRegistry(r prometheus.Registerer) CollectorOption {
	return func(c *collectorConfig) { c.registry = r }
}

// WithBuckets sets custom histogram buckets for durations.
func WithBuckets(b []float64) CollectorOption {
	return func(c *collectorConfig) { c.buckets = b }
}

var defaultBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// NewCollector creates a Collector and registers its metrics.
//
// Metrics registered:
//   - {namespace}_ratelimit_requests_total          counter   (policy, decision)
//   - {namespace}_ratelimit_check_duration_seconds  histogram (policy)
//   - {namespace}_ratelimit_errors_total            counter   (policy)
//   - {namespace}_ratelimit_releases_total          counter   (policy)
//   - {namespace}_sanitizer_removed_keys_total      counter   (source)
//   - {namespace}_http_responses_total              counter   (method, status)
//   - {namespace}_http_request_duration_seconds     histogram (method)
//
// Default namespace is "hyperlocal".
func NewCollector(opts ...CollectorOption) *Collector {
	cfg := &collectorConfig{
		namespace: "hyperlocal",
		registry:  prometheus.DefaultRegisterer,
		buckets:   defaultBuckets,
	}
	for _, o := range opts {
		o(cfg)
	}

	c := &Collector{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "ratelimit_requests_total",
			Help:      "Total rate limit checks partitioned by policy and decision.",
		}, []string{"policy", "decision"}),
		checks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "ratelimit_check_duration_seconds",
			Help:      "Latency of rate limit checks in seconds.",
			Buckets:   cfg.buckets,
		}, []string{"policy"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "ratelimit_errors_total",
			Help:      "Total rate limit store errors.",
		}, []string{"policy"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "ratelimit_releases_total",
			Help:      "Total reservations released because the response did not count.",
		}, []string{"policy"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "sanitizer_removed_keys_total",
			Help:      "Total operator keys removed from requests partitioned by request part.",
		}, []string{"source"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "http_responses_total",
			Help:      "Total HTTP responses partitioned by method and status code.",
		}, []string{"method", "status"}),
		respLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Subsystem: cfg.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests in seconds.",
			Buckets:   cfg.buckets,
		}, []string{"method"}),
	}

	cfg.registry.MustRegister(c.decisions, c.checks, c.errors, c.releases,
		c.removals, c.responses, c.respLatency)

	return c
}

// ObserveRateLimit records the outcome of one rate limit check.
func (c *Collector) ObserveRateLimit(policy string, allowed bool, d time.Duration, err error) {
	c.checks.WithLabelValues(policy).Observe(d.Seconds())
	if err != nil {
		c.errors.WithLabelValues(policy).Inc()
		return
	}

	decision := Denied
	if allowed {
		decision = Allowed
	}
	c.decisions.WithLabelValues(policy, decision).Inc()
}

// ObserveRelease records a released reservation.
func (c *Collector) ObserveRelease(policy string) {
	c.releases.WithLabelValues(policy).Inc()
}

// RemovalHook returns a sanitizer removal hook counting removed keys by the
// request part their path starts with (body, query, params).
func (c *Collector) RemovalHook() func(ctx context.Context, field string) {
	return func(_ context.Context, field string) {
		c.removals.WithLabelValues(source(field)).Inc()
	}
}

// ObserveResponse records a completed HTTP request.
func (c *Collector) ObserveResponse(method string, status int, d time.Duration) {
	c.responses.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.respLatency.WithLabelValues(method).Observe(d.Seconds())
}

// Handler exposes the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func source(field string) string {
	for i := 0; i < len(field); i++ {
		if field[i] == '.' || field[i] == '[' {
			return field[:i]
		}
	}
	return field
}
