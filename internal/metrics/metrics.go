package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turista",
			Name:      "reservations_created_total",
			Help:      "Count of committed reservations by whether they rolled over and whether they hold parking.",
		},
		[]string{"moved", "parking"},
	)

	reservationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turista",
			Name:      "reservations_rejected_total",
			Help:      "Count of reservation attempts that created no record, by reason.",
		},
		[]string{"reason"},
	)

	visitorsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turista",
			Name:      "visitors_booked_total",
			Help:      "Sum of party sizes over committed reservations.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turista",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "turista",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationsCreated, reservationsRejected, visitorsBooked, httpRequests, httpDuration)
	})
}

func IncReservationCreated(moved, parking bool, partySize int) {
	reservationsCreated.WithLabelValues(strconv.FormatBool(moved), strconv.FormatBool(parking)).Inc()
	visitorsBooked.Add(float64(partySize))
}

// Rejection reasons.
const (
	ReasonValidation  = "validation"
	ReasonExhausted   = "exhausted"
	ReasonPersistence = "persistence"
)

func IncReservationRejected(reason string) {
	reservationsRejected.WithLabelValues(reason).Inc()
}

func ObserveHTTP(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
