package ledger

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when the requested slot is already held by a
// live booking.  Callers should ask the customer for a different slot.
var ErrConflict = errors.New("slot already booked")

// ErrNotFound is returned when no live booking matches a (booking id,
// email) pair.  It does not reveal which of the two was wrong, nor
// whether the booking was cancelled.
var ErrNotFound = errors.New("booking not found")

// ErrBackingStore matches every *StoreError via errors.Is.
var ErrBackingStore = errors.New("backing store error")

// StoreError wraps an I/O failure against the backing store.  Transient
// errors (timeouts, 5xx) and rate-limit rejections are candidates for a
// retry; see RetryPolicy.
type StoreError struct {
	Op          string
	Transient   bool
	RateLimited bool
	Err         error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackingStore, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrBackingStore as a match so callers need not use errors.As.
func (e *StoreError) Is(target error) bool { return target == ErrBackingStore }

// wrapStore tags err with op unless it already is a *StoreError.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
