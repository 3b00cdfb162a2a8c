package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Publisher sends ReservationEvents to a durable RabbitMQ queue.  Each
// publish opens its own connection so a broker outage never leaves a stale
// channel behind; the reservation service publishes off the request path.
type Publisher struct {
	url   string
	queue string
	dial  func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a publisher for queue on the broker at url.
func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{url: url, queue: queue, dial: amqp.Dial}
}

// PublishReservation publishes one event.  Messages are persistent and the
// queue is declared durable so events survive broker restarts.
func (p *Publisher) PublishReservation(ctx context.Context, eventType string, r model.Reservation, at time.Time) error {
	body, err := json.Marshal(ReservationEvent{Type: eventType, Reservation: r, OccurredAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		MessageId:    r.ID,
		Timestamp:    at.UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
