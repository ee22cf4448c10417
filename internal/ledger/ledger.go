// Package ledger records slot reservations on a row-oriented backing
// store without transactions.  Writes follow a check-then-write shape:
// the occupied slot set is read again right before every write that
// depends on it, which narrows the race between concurrent writers but
// does not close it.  DuplicateSlots finds the double bookings that can
// slip through so they can be resolved by staff.
package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

// Ledger is the storage-neutral booking API.  SheetLedger implements it
// on a RowStore; a store with a real uniqueness constraint can implement
// it directly.
type Ledger interface {
	// Add books a free slot and returns the new booking id, or ErrConflict.
	Add(ctx context.Context, f model.BookingFields) (string, error)
	// Find returns the live booking matching both id and email, or ErrNotFound.
	Find(ctx context.Context, bookingID, email string) (*model.Booking, error)
	// Update rewrites a booking after the ownership check and resets its
	// workflow flags.  A new slot must be free.
	Update(ctx context.Context, bookingID, email string, f model.BookingFields) (*model.Booking, error)
	// Cancel removes a booking after the ownership check.
	Cancel(ctx context.Context, bookingID, email string) error
	// OccupiedSlots returns the slot keys held by live bookings.
	OccupiedSlots(ctx context.Context) (map[string]struct{}, error)
	// List returns every live booking.
	List(ctx context.Context) ([]model.Booking, error)
	// SetStatus changes the workflow flags of a booking on behalf of staff.
	SetStatus(ctx context.Context, bookingID string, confirmed, completed bool) (*model.Booking, error)
	// DuplicateSlots maps slot keys held by more than one live booking to
	// their booking ids.
	DuplicateSlots(ctx context.Context) (map[string][]string, error)
}

// SheetLedger implements Ledger on top of a RowStore.  It keeps no state
// of its own and holds no locks; any number of instances may share one
// store.
type SheetLedger struct {
	store RowStore
	retry RetryPolicy
	log   *zap.Logger
}

// NewSheetLedger returns a ledger bound to store.  A nil logger disables
// logging.
func NewSheetLedger(store RowStore, retry RetryPolicy, log *zap.Logger) *SheetLedger {
	if store == nil {
		panic("nil row store passed to NewSheetLedger")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SheetLedger{store: store, retry: retry, log: log}
}

var _ Ledger = (*SheetLedger)(nil)

func (l *SheetLedger) read(ctx context.Context) ([]Row, error) {
	rows, err := l.store.ReadRows(ctx)
	if err != nil {
		return nil, wrapStore("read rows", err)
	}
	return rows, nil
}

func (l *SheetLedger) writeRow(ctx context.Context, index int, cells []string) error {
	err := l.retry.Do(ctx, true, func() error { return l.store.WriteRow(ctx, index, cells) })
	return wrapStore("write row", err)
}

// Add implements Ledger.
func (l *SheetLedger) Add(ctx context.Context, f model.BookingFields) (string, error) {
	key := SlotKey(f.SlotDate, f.SlotTime)
	occupied, err := OccupiedSlots(ctx, l.store)
	if err != nil {
		return "", err
	}
	if _, taken := occupied[key]; taken {
		return "", ErrConflict
	}

	id, err := NewBookingID()
	if err != nil {
		return "", err
	}
	b := model.NewBooking(id, f)
	cells := EncodeRow(b)

	row, reuse := FindReusableRow(ctx, l.store, l.log)

	// Re-check right before the write: the slot may have been taken, and
	// the gap we picked may have been filled, since the first reads.
	rows, err := l.read(ctx)
	if err != nil {
		return "", err
	}
	if _, taken := occupiedFrom(rows, 0)[key]; taken {
		return "", ErrConflict
	}
	if reuse && !rowIsBlank(rows, row) {
		reuse = false
	}

	if reuse {
		if err := l.writeRow(ctx, row, cells); err != nil {
			return "", err
		}
	} else {
		err = l.retry.Do(ctx, false, func() error {
			var aerr error
			row, aerr = l.store.AppendRow(ctx, cells)
			return aerr
		})
		if err != nil {
			return "", wrapStore("append row", err)
		}
	}
	l.log.Info("booking added",
		zap.String("booking_id", id),
		zap.String("slot", key),
		zap.Int("row", row),
		zap.Bool("reused_row", reuse))
	return id, nil
}

func findIn(rows []Row, bookingID, email string) (*model.Booking, bool) {
	for _, r := range rows {
		b, ok := DecodeRow(r)
		if !ok {
			continue
		}
		if b.BookingID == bookingID && b.Email == email {
			return &b, true
		}
	}
	return nil, false
}

// Find implements Ledger.  Both id and email must match exactly.
func (l *SheetLedger) Find(ctx context.Context, bookingID, email string) (*model.Booking, error) {
	if bookingID == "" || email == "" {
		return nil, ErrNotFound
	}
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := findIn(rows, bookingID, email)
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Update implements Ledger.  The slot is checked only when it changes,
// against a snapshot read right before the write that excludes the
// booking's own row.  The same snapshot confirms the row still belongs
// to the booking.
func (l *SheetLedger) Update(ctx context.Context, bookingID, email string, f model.BookingFields) (*model.Booking, error) {
	cur, err := l.Find(ctx, bookingID, email)
	if err != nil {
		return nil, err
	}
	next := *cur
	next.Apply(f)
	curKey := SlotKey(cur.SlotDate, cur.SlotTime)
	newKey := SlotKey(next.SlotDate, next.SlotTime)

	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := findIn(rows, bookingID, email); !ok || b.Row != cur.Row {
		return nil, ErrNotFound
	}
	if newKey != curKey {
		if _, taken := occupiedFrom(rows, cur.Row)[newKey]; taken {
			return nil, ErrConflict
		}
	}

	if err := l.writeRow(ctx, cur.Row, EncodeRow(next)); err != nil {
		return nil, err
	}
	l.log.Info("booking updated",
		zap.String("booking_id", bookingID),
		zap.String("slot", newKey),
		zap.Int("row", cur.Row))
	return &next, nil
}

// Cancel implements Ledger.  The row is cleared, not removed, and becomes
// available to FindReusableRow.  A fresh snapshot taken right before the
// clear must still show the booking at the same row; otherwise the row
// may already hold someone else's booking.
func (l *SheetLedger) Cancel(ctx context.Context, bookingID, email string) error {
	cur, err := l.Find(ctx, bookingID, email)
	if err != nil {
		return err
	}
	rows, err := l.read(ctx)
	if err != nil {
		return err
	}
	if b, ok := findIn(rows, bookingID, email); !ok || b.Row != cur.Row {
		return ErrNotFound
	}
	err = l.retry.Do(ctx, true, func() error { return l.store.ClearRow(ctx, cur.Row) })
	if err != nil {
		return wrapStore("clear row", err)
	}
	l.log.Info("booking cancelled", zap.String("booking_id", bookingID), zap.Int("row", cur.Row))
	return nil
}

// OccupiedSlots implements Ledger.
func (l *SheetLedger) OccupiedSlots(ctx context.Context) (map[string]struct{}, error) {
	return OccupiedSlots(ctx, l.store)
}

// List implements Ledger.  Bookings come back in row order.
func (l *SheetLedger) List(ctx context.Context) ([]model.Booking, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		if b, ok := DecodeRow(r); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// SetStatus implements Ledger.  Staff are authenticated elsewhere, so
// only the booking id is needed.
func (l *SheetLedger) SetStatus(ctx context.Context, bookingID string, confirmed, completed bool) (*model.Booking, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		b, ok := DecodeRow(r)
		if !ok || b.BookingID != bookingID {
			continue
		}
		b.Confirmed = confirmed
		b.Completed = completed
		if err := l.writeRow(ctx, b.Row, EncodeRow(b)); err != nil {
			return nil, err
		}
		l.log.Info("booking status changed",
			zap.String("booking_id", bookingID),
			zap.Bool("confirmed", confirmed),
			zap.Bool("completed", completed))
		return &b, nil
	}
	return nil, ErrNotFound
}

// DuplicateSlots implements Ledger.
func (l *SheetLedger) DuplicateSlots(ctx context.Context) (map[string][]string, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return duplicatesFrom(rows), nil
}
