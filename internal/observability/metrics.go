// Package observability holds the Prometheus metric set and the tracing
// bootstrap shared by the client and the dev server.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Client-side API call metrics
	APICalls    *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	// Availability resolver metrics
	ResolverPasses        *prometheus.CounterVec
	ResolverChecks        prometheus.Counter
	ResolverCheckFailures prometheus.Counter

	// Link mutation metrics
	LinksCreated      prometheus.Counter
	LinksAlreadyExist prometheus.Counter
	LinksDeleted      prometheus.Counter

	// Transport breaker state changes
	BreakerTransitions *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	apiCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "Total number of backend API calls",
		},
		[]string{"operation", "outcome"},
	)

	apiDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "Backend API call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	resolverPasses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_passes_total",
			Help:      "Total number of availability resolver passes",
		},
		[]string{"mode"},
	)

	resolverChecks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_item_checks_total",
			Help:      "Total number of per-item availability checks",
		},
	)

	resolverCheckFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_item_check_failures_total",
			Help:      "Per-item availability checks that failed and were counted as available",
		},
	)

	linksCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Total number of links created",
		},
	)

	linksAlreadyExist := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_already_exist_total",
			Help:      "Link creations resolved as already linked",
		},
	)

	linksDeleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_deleted_total",
			Help:      "Total number of links deleted",
		},
	)

	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	registry.MustRegister(
		apiCalls, apiDuration,
		resolverPasses, resolverChecks, resolverCheckFailures,
		linksCreated, linksAlreadyExist, linksDeleted,
		breakerTransitions,
	)

	globalCollector = &Collector{
		registry:              registry,
		APICalls:              apiCalls,
		APIDuration:           apiDuration,
		ResolverPasses:        resolverPasses,
		ResolverChecks:        resolverChecks,
		ResolverCheckFailures: resolverCheckFailures,
		LinksCreated:          linksCreated,
		LinksAlreadyExist:     linksAlreadyExist,
		LinksDeleted:          linksDeleted,
		BreakerTransitions:    breakerTransitions,
	}
	return globalCollector
}

// Registry exposes the collector's registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveAPICall records one backend call.
func (c *Collector) ObserveAPICall(operation, outcome string, elapsed time.Duration) {
	c.APICalls.WithLabelValues(operation, outcome).Inc()
	c.APIDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
