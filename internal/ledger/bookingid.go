package ledger

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// bookingIDBytes gives 144 bits of entropy, which makes collisions
// negligible without any lookup against existing ids.
const bookingIDBytes = 18

// NewBookingID returns a random, URL-safe booking identifier.  It keeps
// no state; the id is independent of the row the booking lands in.
func NewBookingID() (string, error) {
	buf := make([]byte, bookingIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate booking id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
