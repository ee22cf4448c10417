// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/LytheanSem/emotionwork-sub001/internal/model"

// Exchange and queue names.  Booking events are published to a durable
// topic exchange with one routing key per event type; the notification
// consumer binds its queue to all of them.
const (
	ExchangeName      = "bookings"
	NotificationQueue = "booking.notifications"
	bindingKey        = "booking.*"
)

// Routing keys, which double as event types.
const (
	KeyCreated   = "booking.created"
	KeyUpdated   = "booking.updated"
	KeyCancelled = "booking.cancelled"
	KeyStatus    = "booking.status"
)

// BookingEvent is published after a ledger write succeeded.  It carries
// the whole record so consumers never read the backing store.
type BookingEvent struct {
	Type       string        `json:"type"`
	Booking    model.Booking `json:"booking"`
	OccurredAt string        `json:"occurred_at"`
}
