package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsCreated counts accepted booking requests
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "bookings_created_total",
		Help:      "Booking requests accepted.",
	})

	// BookingTransitions counts approvals and rejections
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "booking_transitions_total",
		Help:      "Booking status changes by resulting status.",
	}, []string{"status"})

	// SlotConflicts counts requests refused because the slot was taken
	SlotConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "slot_conflicts_total",
		Help:      "Operations refused because the slot already had an approved booking.",
	}, []string{"operation"})

	// NotificationsSent counts email deliveries by kind and outcome
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "notifications_total",
		Help:      "Notification emails by kind and result.",
	}, []string{"kind", "result"})

	// CalendarCalls counts calendar collaborator calls by operation and outcome
	CalendarCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "calendar_calls_total",
		Help:      "Calendar API calls by operation and result.",
	}, []string{"operation", "result"})

	// HTTPRequests counts requests by method, route template and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiochamber",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route template
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "audiochamber",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Result turns an error into a label value
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
