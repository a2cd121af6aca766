package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rideshare-groups/internal/queue"
)

// EventPublisher announces committed group changes.
type EventPublisher interface {
	PublishGroupChanged(ctx context.Context, ev queue.GroupChangedEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) PublishGroupChanged(context.Context, queue.GroupChangedEvent) error { return nil }

// AMQPPublisher publishes to the durable group.changed queue.  It dials per
// message; mutation rates on an admin surface are low.
type AMQPPublisher struct {
	URL string
	Log logrus.FieldLogger
}

// PublishGroupChanged sends ev as a persistent JSON message.  Errors are
// logged and returned so the caller can decide to ignore them.
func (p *AMQPPublisher) PublishGroupChanged(ctx context.Context, ev queue.GroupChangedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.GroupChangedQueue, true, false, false, false, nil); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: queue declare failed")
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
		MessageId:    ev.ChangeID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.GroupChangedQueue, false, false, pub); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}
