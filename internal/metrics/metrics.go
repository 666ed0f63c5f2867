package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitaccess_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_bookings_total",
			Help: "Bookings created, by session type",
		},
		[]string{"type"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_booking_transitions_total",
			Help: "Booking lifecycle transitions, by resulting status",
		},
		[]string{"status"},
	)

	BookingReschedulesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitaccess_booking_reschedules_total",
			Help: "Total number of rescheduled bookings",
		},
	)

	BookingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitaccess_booking_conflicts_total",
			Help: "Booking writes rejected because of an overlapping booking",
		},
	)

	PolicyRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_policy_rejections_total",
			Help: "Lifecycle actions refused by booking policy",
		},
		[]string{"action"},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_validation_failures_total",
			Help: "Booking requests rejected by validation, by rule",
		},
		[]string{"tag"},
	)

	SlotQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_slot_queries_total",
			Help: "Slot discovery requests",
		},
		[]string{"kind"},
	)

	SlotsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitaccess_slots_returned",
			Help:    "Number of slots returned per discovery request",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_booking_events_total",
			Help: "Booking events pushed to the queue",
		},
		[]string{"event", "status"},
	)

	EventQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitaccess_booking_event_queue_length",
			Help: "Current length of the booking event queue",
		},
	)

	AnalyticsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitaccess_analytics_cache_total",
			Help: "Analytics cache lookups",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(bookingType string) {
	BookingsTotal.WithLabelValues(bookingType).Inc()
}

func RecordTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordReschedule() {
	BookingReschedulesTotal.Inc()
}

func RecordConflict() {
	BookingConflictsTotal.Inc()
}

func RecordPolicyRejection(action string) {
	PolicyRejectionsTotal.WithLabelValues(action).Inc()
}

func RecordValidationFailure(tag string) {
	ValidationFailuresTotal.WithLabelValues(tag).Inc()
}

func RecordSlotQuery(kind string, returned int) {
	SlotQueriesTotal.WithLabelValues(kind).Inc()
	SlotsReturned.Observe(float64(returned))
}

func RecordEvent(event, status string) {
	EventsPublishedTotal.WithLabelValues(event, status).Inc()
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AnalyticsCacheTotal.WithLabelValues(result).Inc()
}
