// Package metric provides Prometheus metrics for TableSync.
//
// It exposes metrics in Prometheus format for monitoring snapshot
// publication, sync planning decisions, conflict resolution, and recovery
// traffic. Metrics are exposed at /metrics.
//
// @req RQ-0403
// @design DS-0503
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Session metrics
	SessionsActive   prometheus.Gauge
	SessionsCreated  prometheus.Counter
	SessionsRemoved  prometheus.Counter
	SnapshotsCreated prometheus.Counter

	// Sync metrics
	DeltasGenerated prometheus.Counter
	SyncResults     *prometheus.CounterVec
	DeltaBytes      prometheus.Histogram

	// Conflict metrics
	ConflictsDetected *prometheus.CounterVec
	ActionsAccepted   prometheus.Counter

	// Recovery metrics
	RecoveryRequests  prometheus.Counter
	RecoveryLogMisses prometheus.Counter

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates the metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto{reg: reg}
	return &Registry{
		reg: reg,
		SessionsActive: factory.gauge(prometheus.GaugeOpts{
			Namespace: "tablesync", Name: "sessions_active",
			Help: "Number of registered session engines.",
		}),
		SessionsCreated: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "sessions_created_total",
			Help: "Sessions created since start.",
		}),
		SessionsRemoved: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "sessions_removed_total",
			Help: "Sessions removed since start.",
		}),
		SnapshotsCreated: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "snapshots_created_total",
			Help: "Snapshots published across all sessions.",
		}),
		DeltasGenerated: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "deltas_generated_total",
			Help: "Deltas generated between consecutive snapshots.",
		}),
		SyncResults: factory.counterVec(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "sync_results_total",
			Help: "Sync plans by result type (delta or snapshot).",
		}, []string{"type"}),
		DeltaBytes: factory.histogram(prometheus.HistogramOpts{
			Namespace: "tablesync", Name: "delta_bytes",
			Help:    "Estimated size of deltas served to clients.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
		ConflictsDetected: factory.counterVec(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "conflicts_detected_total",
			Help: "Conflicts detected in submitted action batches, by type.",
		}, []string{"type"}),
		ActionsAccepted: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "actions_accepted_total",
			Help: "Actions accepted after conflict resolution and batching.",
		}),
		RecoveryRequests: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "recovery_requests_total",
			Help: "Client recovery requests served.",
		}),
		RecoveryLogMisses: factory.counter(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "recovery_log_misses_total",
			Help: "Recovery responses flagged with an unavailable action log.",
		}),
		RequestsTotal: factory.counterVec(prometheus.CounterOpts{
			Namespace: "tablesync", Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: factory.histogramVec(prometheus.HistogramOpts{
			Namespace: "tablesync", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying prometheus registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// promauto mirrors the promauto package against our private registry.
type promauto struct {
	reg *prometheus.Registry
}

func (f promauto) counter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	f.reg.MustRegister(c)
	return c
}

func (f promauto) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	f.reg.MustRegister(c)
	return c
}

func (f promauto) gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	f.reg.MustRegister(g)
	return g
}

func (f promauto) histogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	f.reg.MustRegister(h)
	return h
}

func (f promauto) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(h)
	return h
}
