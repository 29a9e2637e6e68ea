package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DataServiceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_data_service_calls_total",
		Help: "Total number of mock data service calls",
	}, []string{"operation", "result"})

	DataServiceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_data_service_latency_seconds",
		Help:    "Observed latency of mock data service calls, including the simulated delay",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	InjectedFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_injected_faults_total",
		Help: "Total number of faults injected into mock data service calls",
	}, []string{"operation"})

	ProductsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_products_created_total",
		Help: "Total number of products created",
	})

	ProductsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_products_deleted_total",
		Help: "Total number of products deleted",
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_changes_total",
		Help: "Total number of order status changes",
	}, []string{"status"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_logins_total",
		Help: "Total number of simulated logins",
	}, []string{"role", "result"})

	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Total number of cart operations",
	}, []string{"operation"})

	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_notifications_total",
		Help: "Total number of notifications raised",
	})

	StateLoadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_state_load_failures_total",
		Help: "Total number of failed initial state loads",
	})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_lookups_total",
		Help: "Total number of snapshot cache lookups",
	}, []string{"result"})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cache_invalidations_total",
		Help: "Total number of snapshot cache keys invalidated",
	})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_events_consumed_total",
		Help: "Total number of storefront events consumed",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
