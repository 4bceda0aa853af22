package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/community-reservations/internal/model"
)

// BookingQueueName is the durable queue every booking event is routed to.
const BookingQueueName = "booking.events"

// Publisher sends booking events to RabbitMQ.  Each call dials, publishes
// one persistent message and closes; booking traffic is low enough that a
// pooled connection is not worth the reconnect handling.
type Publisher struct {
	URL string
	Log *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{URL: url, Log: log}
}

// Notify publishes ev to the booking.events queue.  Errors are logged and
// returned so the caller can choose to ignore them.
func (p *Publisher) Notify(ctx context.Context, ev model.BookingEvent) error {
	body, err := json.Marshal(NewBookingMessage(ev))
	if err != nil {
		p.Log.Error("rabbitmq: marshal event failed", "err", err)
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := declareBookingQueue(ch); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(ev.Kind),
		MessageId:    ev.Booking.ID + ":" + string(ev.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		BookingQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		p.Log.Warn("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}

func declareBookingQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		BookingQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}
