package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.  Used when EVENTS_ENABLED is false.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// AMQPPublisher dials the broker for every publish.  Publishing is rare
// (one message per committed write), so no connection is held open.
type AMQPPublisher struct {
	URL string
}

// NewAMQPPublisher returns a publisher for url.
func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// Publish declares the durable events queue and sends ev as a persistent
// JSON message.  Errors are logged and returned so the caller can choose
// to ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	log := logrus.WithFields(logrus.Fields{"component": "rabbitmq", "event": ev.Type})
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.WithError(err).Warn("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EventsQueue, false, false, pub); err != nil {
		log.WithError(err).Warn("publish failed")
		return err
	}
	return nil
}
