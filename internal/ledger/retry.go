package ledger

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds the exponential backoff applied to writes.
type RetryPolicy struct {
	Attempts  int           // total tries, including the first
	BaseDelay time.Duration // wait before the second try
	MaxDelay  time.Duration // cap for a single wait
}

// DefaultRetryPolicy suits the Sheets API per-minute write quota.
var DefaultRetryPolicy = RetryPolicy{Attempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

// NoRetry runs a write exactly once.
var NoRetry = RetryPolicy{Attempts: 1}

// retryable reports whether err may be retried.  Rate-limit rejections
// were never executed by the store, so they are always safe to repeat.
// Other transient failures have an unknown outcome and are repeated only
// for idempotent writes.
func retryable(err error, idempotent bool) bool {
	var se *StoreError
	if !errors.As(err, &se) {
		return false
	}
	if se.RateLimited {
		return true
	}
	return se.Transient && idempotent
}

// Do runs fn until it succeeds, fails permanently, the attempts run out
// or ctx is done.  The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, idempotent bool, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 || !retryable(err, idempotent) {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
