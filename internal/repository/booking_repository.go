package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

// BookingRepo is a ledger.Ledger stored in the bookings table.
type BookingRepo struct {
	db  *sql.DB
	log *zap.Logger
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, log *zap.Logger) *BookingRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingRepo{db: db, log: log}
}

var _ ledger.Ledger = (*BookingRepo)(nil)

const bookingColumns = `booking_id, first_name, middle_name, last_name, phone_number, email,
	slot_date, slot_time, description, confirmed, completed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.BookingID, &b.FirstName, &b.MiddleName, &b.LastName, &b.PhoneNumber, &b.Email,
		&b.SlotDate, &b.SlotTime, &b.Description, &b.Confirmed, &b.Completed)
	return b, err
}

// slotConflict reports whether err is a duplicate on the slot key index
// rather than on the primary key.
func slotConflict(err error) bool {
	return isDuplicate(err) && strings.Contains(err.Error(), "slot_key")
}

// Add implements ledger.Ledger.  The UNIQUE slot_key index makes the
// insert itself the conflict check.
func (r *BookingRepo) Add(ctx context.Context, f model.BookingFields) (string, error) {
	id, err := ledger.NewBookingID()
	if err != nil {
		return "", err
	}
	b := model.NewBooking(id, f)
	b.SlotTime = ledger.NormalizeTime(b.SlotTime)
	const q = `INSERT INTO bookings (booking_id, first_name, middle_name, last_name, phone_number, email,
		slot_date, slot_time, slot_key, description) VALUES (?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.ExecContext(ctx, q, b.BookingID, b.FirstName, b.MiddleName, b.LastName, b.PhoneNumber,
		b.Email, b.SlotDate, b.SlotTime, ledger.SlotKey(b.SlotDate, b.SlotTime), b.Description)
	if err != nil {
		if slotConflict(err) {
			return "", ledger.ErrConflict
		}
		return "", storeErr("insert booking", err)
	}
	r.log.Info("booking added", zap.String("booking_id", id), zap.String("slot", ledger.SlotKey(b.SlotDate, b.SlotTime)))
	return id, nil
}

// Find implements ledger.Ledger.
func (r *BookingRepo) Find(ctx context.Context, bookingID, email string) (*model.Booking, error) {
	if bookingID == "" || email == "" {
		return nil, ledger.ErrNotFound
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ? AND email = ? LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, storeErr("select booking", err)
	}
	return &b, nil
}

// Update implements ledger.Ledger.  The row is locked while it is
// rewritten; a new slot that is already taken fails on the unique index.
func (r *BookingRepo) Update(ctx context.Context, bookingID, email string, f model.BookingFields) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ? AND email = ? FOR UPDATE`
	cur, err := scanBooking(tx.QueryRowContext(ctx, q, bookingID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, storeErr("select booking", err)
	}
	next := cur
	next.Apply(f)
	next.SlotTime = ledger.NormalizeTime(next.SlotTime)

	const upd = `UPDATE bookings SET first_name = ?, middle_name = ?, last_name = ?, phone_number = ?, email = ?,
		slot_date = ?, slot_time = ?, slot_key = ?, description = ?, confirmed = 0, completed = 0
		WHERE booking_id = ?`
	_, err = tx.ExecContext(ctx, upd, next.FirstName, next.MiddleName, next.LastName, next.PhoneNumber, next.Email,
		next.SlotDate, next.SlotTime, ledger.SlotKey(next.SlotDate, next.SlotTime), next.Description, bookingID)
	if err != nil {
		if slotConflict(err) {
			return nil, ledger.ErrConflict
		}
		return nil, storeErr("update booking", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}
	committed = true
	r.log.Info("booking updated", zap.String("booking_id", bookingID))
	return &next, nil
}

// Cancel implements ledger.Ledger.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ? AND email = ?`, bookingID, email)
	if err != nil {
		return storeErr("delete booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete booking", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	r.log.Info("booking cancelled", zap.String("booking_id", bookingID))
	return nil
}

// OccupiedSlots implements ledger.Ledger.
func (r *BookingRepo) OccupiedSlots(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT slot_key FROM bookings`)
	if err != nil {
		return nil, storeErr("select slots", err)
	}
	defer rows.Close()
	set := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, storeErr("scan slot", err)
		}
		set[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select slots", err)
	}
	return set, nil
}

// List implements ledger.Ledger.  Oldest bookings come first.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at, booking_id`)
	if err != nil {
		return nil, storeErr("select bookings", err)
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storeErr("scan booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select bookings", err)
	}
	return out, nil
}

// SetStatus implements ledger.Ledger.
func (r *BookingRepo) SetStatus(ctx context.Context, bookingID string, confirmed, completed bool) (*model.Booking, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE bookings SET confirmed = ?, completed = ? WHERE booking_id = ?`,
		confirmed, completed, bookingID); err != nil {
		return nil, storeErr("update status", err)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ? LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, storeErr("select booking", err)
	}
	return &b, nil
}

// DuplicateSlots implements ledger.Ledger.  The unique index keeps this
// empty unless the index was dropped.
func (r *BookingRepo) DuplicateSlots(ctx context.Context) (map[string][]string, error) {
	const q = `SELECT slot_key, GROUP_CONCAT(booking_id ORDER BY created_at SEPARATOR ',')
		FROM bookings GROUP BY slot_key HAVING COUNT(*) > 1`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("select duplicates", err)
	}
	defer rows.Close()
	dups := make(map[string][]string)
	for rows.Next() {
		var key, ids string
		if err := rows.Scan(&key, &ids); err != nil {
			return nil, storeErr("scan duplicates", err)
		}
		dups[key] = strings.Split(ids, ",")
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select duplicates", err)
	}
	return dups, nil
}
