package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Allocations counts sequence values handed out. Labels: kind
	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labeldesk",
		Subsystem: "sequence",
		Name:      "allocations_total",
		Help:      "Sequence values allocated (committed or not)",
	}, []string{"kind"})

	// Deletions counts engine runs that removed a row. Labels: target, strategy
	Deletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labeldesk",
		Subsystem: "integrity",
		Name:      "deletions_total",
		Help:      "Referenced rows deleted, by strategy actually used",
	}, []string{"target", "strategy"})

	// Blocked counts deletions refused because the row is still referenced.
	Blocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labeldesk",
		Subsystem: "integrity",
		Name:      "blocked_total",
		Help:      "Deletions blocked by live references",
	}, []string{"target"})

	// DuplicateRetries counts create transactions re-run after a unique violation.
	DuplicateRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labeldesk",
		Subsystem: "inventory",
		Name:      "duplicate_retries_total",
		Help:      "Create transactions retried after a unique constraint violation",
	}, []string{"kind"})

	// HTTPRequests. Labels: method, route, status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labeldesk",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "labeldesk",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func Handler() http.Handler { return promhttp.Handler() }
