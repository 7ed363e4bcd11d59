package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "revir"

var (
	once sync.Once

	visitsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_opened_total",
			Help:      "Count of visits opened.",
		},
	)

	visitsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_closed_total",
			Help:      "Count of visits closed.",
		},
	)

	catchesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catches_recorded_total",
			Help:      "Count of catches recorded by species.",
		},
		[]string{"species"},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of cabin bookings created.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancelled_total",
			Help:      "Count of cabin bookings cancelled.",
		},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Count of rejected operations by error code.",
		},
		[]string{"operation", "code"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			visitsOpened,
			visitsClosed,
			catchesRecorded,
			bookingCreated,
			bookingCancelled,
			rejections,
			httpRequests,
			httpDuration,
		)
	})
}

func IncVisitOpened() {
	visitsOpened.Inc()
}

func IncVisitClosed() {
	visitsClosed.Inc()
}

func IncCatchRecorded(species string) {
	catchesRecorded.WithLabelValues(species).Inc()
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncRejection(operation, code string) {
	rejections.WithLabelValues(operation, code).Inc()
}

func ObserveHTTPRequest(route, status string, seconds float64) {
	httpRequests.WithLabelValues(route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}
