package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/mailer"
)

const maxBackoff = 30 * time.Second

// StartNotificationConsumer consumes NotificationQueue and mails every
// event through sender.  It reconnects with exponential backoff when the
// broker goes away and returns ctx.Err() once ctx is cancelled.
func StartNotificationConsumer(ctx context.Context, url string, sender mailer.Sender, logger *zap.Logger) error {
	log := logger.Named("notification-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sender, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sender mailer.Sender, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn("set qos failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, sender, d.Body); err != nil {
				log.Error("handle notification failed", zap.Error(err))
				// no requeue: a bad message would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, sender mailer.Sender, body []byte) error {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	msg, err := n.Message()
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return sender.Send(sendCtx, msg)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
