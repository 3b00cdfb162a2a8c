// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and the audit-log consumer.
package queue

import (
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// DefaultQueue is the durable queue carrying reservation events.
const DefaultQueue = "reservations.events"

// ReservationEvent is published after a reservation is durably created or
// canceled.  It carries the full reservation so consumers never need to
// query the store.
type ReservationEvent struct {
	Type        string            `json:"type"`
	Reservation model.Reservation `json:"reservation"`
	OccurredAt  time.Time         `json:"occurredAt"`
}
