// Package metrics holds the domain counters exported on /metrics next to
// the HTTP metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "room_reservation"

// Metrics groups the reservation counters.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ReservationsCreated  prometheus.Counter
	ReservationsCanceled prometheus.Counter
	ReservationConflicts prometheus.Counter
	ValidationFailures   *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReservationsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Reservations successfully created.",
		}),
		ReservationsCanceled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_canceled_total",
			Help:      "Reservations canceled.",
		}),
		ReservationConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Create requests rejected because the slot overlapped an existing reservation.",
		}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_validation_failures_total",
			Help:      "Create requests rejected by validation, by field.",
		}, []string{"field"}),
	}
}

func (m *Metrics) Created() {
	if m != nil {
		m.ReservationsCreated.Inc()
	}
}

func (m *Metrics) Canceled() {
	if m != nil {
		m.ReservationsCanceled.Inc()
	}
}

func (m *Metrics) Conflict() {
	if m != nil {
		m.ReservationConflicts.Inc()
	}
}

func (m *Metrics) Invalid(field string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(field).Inc()
	}
}
