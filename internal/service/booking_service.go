// Package service holds the booking workflow around the ledger and the
// collaborators it notifies: the event publisher, the mailer and the
// pricing catalog.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
	"github.com/LytheanSem/emotionwork-sub001/internal/model"
	"github.com/LytheanSem/emotionwork-sub001/internal/queue"
)

// Notifier receives booking events after the ledger write succeeded.
type Notifier interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// DirectNotifier mails confirmations in-process when no broker is
// configured.
type DirectNotifier struct {
	Mailer queue.Mailer
	Log    *zap.Logger
}

// Publish implements Notifier.
func (d DirectNotifier) Publish(ctx context.Context, ev queue.BookingEvent) error {
	return queue.HandleEvent(ctx, ev, d.Mailer, d.Log)
}

// BookingSvc runs booking operations against a ledger and emits events.
// Notification failures are logged and never undo a ledger write.
type BookingSvc struct {
	ledger ledger.Ledger
	notify Notifier
	log    *zap.Logger
}

// NewBookingSvc wires a BookingSvc.  notify may be nil.
func NewBookingSvc(l ledger.Ledger, notify Notifier, log *zap.Logger) *BookingSvc {
	if l == nil {
		panic("nil ledger passed to NewBookingSvc")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingSvc{ledger: l, notify: notify, log: log}
}

func (s *BookingSvc) emit(ctx context.Context, typ string, b model.Booking) {
	if s.notify == nil {
		return
	}
	ev := queue.BookingEvent{Type: typ, Booking: b, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
	// The request may be finishing; the event should still go out.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.notify.Publish(ctx, ev); err != nil {
		s.log.Warn("publish booking event failed",
			zap.String("event", typ), zap.String("booking_id", b.BookingID), zap.Error(err))
	}
}

// Create books a slot and returns the new booking.
func (s *BookingSvc) Create(ctx context.Context, f model.BookingFields) (*model.Booking, error) {
	id, err := s.ledger.Add(ctx, f)
	if err != nil {
		return nil, err
	}
	b := model.NewBooking(id, f)
	b.SlotTime = ledger.NormalizeTime(b.SlotTime)
	s.emit(ctx, queue.KeyCreated, b)
	return &b, nil
}

// Get returns the booking matching id and email.
func (s *BookingSvc) Get(ctx context.Context, id, email string) (*model.Booking, error) {
	return s.ledger.Find(ctx, id, email)
}

// Update rewrites a booking owned by email.
func (s *BookingSvc) Update(ctx context.Context, id, email string, f model.BookingFields) (*model.Booking, error) {
	b, err := s.ledger.Update(ctx, id, email, f)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.KeyUpdated, *b)
	return b, nil
}

// Cancel removes a booking owned by email.
func (s *BookingSvc) Cancel(ctx context.Context, id, email string) error {
	if err := s.ledger.Cancel(ctx, id, email); err != nil {
		return err
	}
	s.emit(ctx, queue.KeyCancelled, model.Booking{BookingID: id, Email: email})
	return nil
}

// BookedTimes lists the normalized times already taken on date, sorted.
func (s *BookingSvc) BookedTimes(ctx context.Context, date string) ([]string, error) {
	occupied, err := s.ledger.OccupiedSlots(ctx)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSpace(date) + "-"
	times := []string{}
	for key := range occupied {
		if t, ok := strings.CutPrefix(key, prefix); ok {
			times = append(times, t)
		}
	}
	sort.Strings(times)
	return times, nil
}

// List returns every live booking.
func (s *BookingSvc) List(ctx context.Context) ([]model.Booking, error) {
	return s.ledger.List(ctx)
}

// SetStatus records a staff decision on a booking.
func (s *BookingSvc) SetStatus(ctx context.Context, id string, confirmed, completed bool) (*model.Booking, error) {
	b, err := s.ledger.SetStatus(ctx, id, confirmed, completed)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.KeyStatus, *b)
	return b, nil
}

// Reconcile scans for slots held by more than one booking and logs each.
func (s *BookingSvc) Reconcile(ctx context.Context) (map[string][]string, error) {
	dups, err := s.ledger.DuplicateSlots(ctx)
	if err != nil {
		return nil, err
	}
	for key, ids := range dups {
		s.log.Warn("double booking detected", zap.String("slot", key), zap.Strings("booking_ids", ids))
	}
	return dups, nil
}

// RunReconciler calls Reconcile every interval until ctx is done.
func (s *BookingSvc) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Reconcile(ctx); err != nil {
				s.log.Error("reconcile failed", zap.Error(err))
			}
		}
	}
}
