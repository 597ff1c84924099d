package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends Notifications to NotificationQueue.  It dials the
// broker for every message; notifications are rare enough that a
// long-lived connection is not worth its reconnect handling.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// maxDialTimeout caps the connect and handshake time when ctx carries
// no earlier deadline.
const maxDialTimeout = 5 * time.Second

func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := maxDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
}

// Publish delivers n as a persistent JSON message.  Connecting to the
// broker is bounded by ctx's deadline.
func (p *Publisher) Publish(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(n.Kind),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", NotificationQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", n.Kind, err)
	}
	return nil
}

func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
