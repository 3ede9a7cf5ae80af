package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Tenant provisioning metrics
	ProvisionsTotal          prometheus.CounterVec
	InvitationsConsumedTotal prometheus.Counter
	InvitationsExpiredTotal  prometheus.Counter

	// Payment metrics
	ChargeEventsTotal prometheus.CounterVec

	// Database operation metrics
	DBOperationDuration prometheus.HistogramVec
)

// Init registers the Prometheus metrics under the given prefix.
func Init(prefix string) {
	HTTPRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ProvisionsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_provisions_total",
			Help: "Total number of tenant provisioning attempts by outcome",
		},
		[]string{"outcome"}, // "invited", "owner", "invalid", "conflict", "error"
	)

	InvitationsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invitations_consumed_total",
			Help: "Total number of invitations consumed at signup",
		},
	)

	InvitationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invitations_expired_total",
			Help: "Total number of invitations swept to expired",
		},
	)

	ChargeEventsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_charge_events_total",
			Help: "Total number of payment provider webhook events",
		},
		[]string{"event_type"},
	)

	DBOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
}

// TrackDBOperation returns a function that records the duration of a
// database operation when deferred.
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordProvision increments the provisioning counter for one outcome.
func RecordProvision(outcome string) {
	ProvisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordChargeEvent increments the webhook event counter.
func RecordChargeEvent(eventType string) {
	ChargeEventsTotal.WithLabelValues(eventType).Inc()
}
