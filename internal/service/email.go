package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

// LogMailer is the EmailService used when no mail transport is wired.  It
// records the confirmation it would have sent.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer returns a LogMailer writing to log.
func NewLogMailer(log *zap.Logger) *LogMailer { return &LogMailer{log: log} }

// SendBookingConfirmation implements queue.Mailer.
func (m *LogMailer) SendBookingConfirmation(_ context.Context, b model.Booking) bool {
	m.log.Info("booking confirmation",
		zap.String("to", b.Email),
		zap.String("booking_id", b.BookingID),
		zap.String("slot_date", b.SlotDate),
		zap.String("slot_time", b.SlotTime))
	return true
}
