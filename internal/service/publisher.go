package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/queue"
)

const (
	minRedial = time.Second
	maxRedial = 30 * time.Second
)

// publishChannel is the part of *amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher sends booking events to the durable topic exchange.  A
// closed or failed channel is replaced on the next publish; while the
// broker stays down, redials are spaced by a capped backoff so requests
// do not each wait on a dial.
type Publisher struct {
	mu       sync.Mutex
	connect  func() (publishChannel, io.Closer, error)
	ch       publishChannel
	conn     io.Closer
	backoff  time.Duration
	nextDial time.Time
	now      func() time.Time
}

// NewPublisher dials the broker and declares the booking topology.
func NewPublisher(url string) (*Publisher, error) {
	p := newPublisher(func() (publishChannel, io.Closer, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		if err := queue.DeclareTopology(ch); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
		return ch, conn, nil
	})
	if err := p.ensureLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(connect func() (publishChannel, io.Closer, error)) *Publisher {
	return &Publisher{connect: connect, now: time.Now}
}

// ensureLocked makes p.ch usable, dialing when allowed.  p.mu must be held.
func (p *Publisher) ensureLocked() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.dropLocked()
	now := p.now()
	if now.Before(p.nextDial) {
		return fmt.Errorf("rabbitmq unavailable, next dial in %s", p.nextDial.Sub(now).Round(time.Millisecond))
	}
	ch, conn, err := p.connect()
	if err != nil {
		p.backoff *= 2
		if p.backoff < minRedial {
			p.backoff = minRedial
		}
		if p.backoff > maxRedial {
			p.backoff = maxRedial
		}
		p.nextDial = now.Add(p.backoff)
		return err
	}
	p.ch, p.conn = ch, conn
	p.backoff = 0
	p.nextDial = time.Time{}
	return nil
}

func (p *Publisher) dropLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Publish implements Notifier.  Messages are persistent and carry a
// unique message id so consumers can drop redeliveries.  A publish that
// fails on a dead channel is tried once more on a fresh one.
func (p *Publisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLocked(); err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, queue.ExchangeName, ev.Type, false, false, pub)
	if err == nil {
		return nil
	}
	p.dropLocked()
	if rerr := p.ensureLocked(); rerr != nil {
		return fmt.Errorf("publish: %w (reconnect: %v)", err, rerr)
	}
	return p.ch.PublishWithContext(ctx, queue.ExchangeName, ev.Type, false, false, pub)
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked()
	return nil
}

// FallbackNotifier publishes through Primary and hands the event to
// Fallback when that fails, so a broker outage does not drop mail.
type FallbackNotifier struct {
	Primary  Notifier
	Fallback Notifier
	Log      *zap.Logger
}

// Publish implements Notifier.
func (f FallbackNotifier) Publish(ctx context.Context, ev queue.BookingEvent) error {
	err := f.Primary.Publish(ctx, ev)
	if err == nil || f.Fallback == nil {
		return err
	}
	if f.Log != nil {
		f.Log.Warn("event publish failed, using fallback notifier",
			zap.String("event", ev.Type), zap.String("booking_id", ev.Booking.BookingID), zap.Error(err))
	}
	return f.Fallback.Publish(ctx, ev)
}
