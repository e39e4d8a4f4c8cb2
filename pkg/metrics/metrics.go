package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConfigOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_config_operations_total",
			Help: "Total number of notification config operations (count)",
		},
		[]string{"operation", "status"},
	)

	EventOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_event_operations_total",
			Help: "Total number of notification event operations (count)",
		},
		[]string{"operation", "status"},
	)

	ConfigOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_config_operation_duration_ms",
			Help:    "Duration of notification config operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"operation"},
	)

	EventOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_event_operation_duration_ms",
			Help:    "Duration of notification event operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"operation"},
	)

	StoreQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_queries_total",
			Help: "Total number of document store queries (count)",
		},
		[]string{"collection", "operation", "status"},
	)

	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_ms",
			Help:    "Duration of document store queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"collection", "operation"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_cache_requests_total",
			Help: "Total number of config cache lookups (count)",
		},
		[]string{"result"},
	)

	ChangeEventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_change_events_published_total",
			Help: "Total number of config change events published to the broker (count)",
		},
		[]string{"action", "status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func RegisterStoreMetrics() {
	prometheus.MustRegister(ConfigOperationsTotal)
	prometheus.MustRegister(EventOperationsTotal)
	prometheus.MustRegister(ConfigOperationDuration)
	prometheus.MustRegister(EventOperationDuration)
	prometheus.MustRegister(StoreQueriesTotal)
	prometheus.MustRegister(StoreQueryDuration)
	prometheus.MustRegister(CacheRequestsTotal)
	prometheus.MustRegister(ChangeEventsPublishedTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(CircuitBreakerState)
}

func IncConfigOperation(operation, status string) {
	ConfigOperationsTotal.WithLabelValues(operation, status).Inc()
}

func IncEventOperation(operation, status string) {
	EventOperationsTotal.WithLabelValues(operation, status).Inc()
}

func ObserveConfigOperationDuration(operation string, duration time.Duration) {
	ConfigOperationDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func ObserveEventOperationDuration(operation string, duration time.Duration) {
	EventOperationDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func IncStoreQuery(collection, operation, status string) {
	StoreQueriesTotal.WithLabelValues(collection, operation, status).Inc()
}

func ObserveStoreQueryDuration(collection, operation string, duration time.Duration) {
	StoreQueryDuration.WithLabelValues(collection, operation).Observe(float64(duration.Milliseconds()))
}

func IncCacheHit()  { CacheRequestsTotal.WithLabelValues("hit").Inc() }
func IncCacheMiss() { CacheRequestsTotal.WithLabelValues("miss").Inc() }

func IncChangeEventPublished(action, status string) {
	ChangeEventsPublishedTotal.WithLabelValues(action, status).Inc()
}

func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
