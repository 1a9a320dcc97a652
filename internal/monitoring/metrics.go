// Package monitoring exposes Prometheus metrics for the reservation
// path.  Collectors are registered through promauto at init time and
// served on /metrics.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_requests_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Confirmed tickets inserted per tier",
		},
		[]string{"tier"},
	)

	reservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_duration_seconds",
			Help:    "End-to-end duration of reservation attempts including the capacity lock wait",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	remainingCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tier_remaining_capacity",
			Help: "Seats still available per tier, as observed by the last committed reservation",
		},
		[]string{"tier"},
	)
)

// ObserveReservation records one finished reservation attempt.
func ObserveReservation(outcome string, took time.Duration) {
	reservationOutcomes.WithLabelValues(outcome).Inc()
	reservationDuration.Observe(took.Seconds())
}

// AddTicketsSold bumps the sold counter after a successful commit.
func AddTicketsSold(tier string, n int) {
	ticketsSold.WithLabelValues(tier).Add(float64(n))
}

// SetRemainingCapacity publishes the availability observed under lock.
func SetRemainingCapacity(tier string, remaining int64) {
	remainingCapacity.WithLabelValues(tier).Set(float64(remaining))
}
