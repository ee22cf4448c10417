package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

// Mailer sends booking confirmations.  Delivery is best-effort: false
// means the message was not sent and will not be retried.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, b model.Booking) bool
}

// StartBookingConsumer connects to RabbitMQ, declares the exchange and the
// notification queue, and hands created/updated bookings to the mailer.
// It reconnects with a capped backoff and returns only when ctx is done.
func StartBookingConsumer(ctx context.Context, url string, mailer Mailer, log *zap.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("booking-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, mailer, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("booking-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// DeclareTopology declares the durable exchange, the notification queue
// and their binding.  Publishers and consumers both call it.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(NotificationQueue, bindingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, mailer Mailer, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}
	if err := DeclareTopology(ch); err != nil {
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
			if err := HandleMessage(ctx, d.Body, mailer, log); err != nil {
				log.Error("booking-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event body and passes it to HandleEvent.
// Only malformed messages are errors.
func HandleMessage(ctx context.Context, body []byte, mailer Mailer, log *zap.Logger) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return HandleEvent(ctx, ev, mailer, log)
}

// HandleEvent mails a confirmation for created and updated bookings.  A
// mail that could not be sent is logged, not returned.
func HandleEvent(ctx context.Context, ev BookingEvent, mailer Mailer, log *zap.Logger) error {
	switch ev.Type {
	case KeyCreated, KeyUpdated:
		if !mailer.SendBookingConfirmation(ctx, ev.Booking) {
			log.Warn("booking-consumer: confirmation not sent",
				zap.String("booking_id", ev.Booking.BookingID), zap.String("event", ev.Type))
		}
	default:
		log.Debug("booking-consumer: event ignored",
			zap.String("booking_id", ev.Booking.BookingID), zap.String("event", ev.Type))
	}
	return nil
}
