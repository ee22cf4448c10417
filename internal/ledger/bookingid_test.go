package ledger

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingIDIsURLSafeAndUnique(t *testing.T) {
	urlSafe := regexp.MustCompile(`^[A-Za-z0-9_-]{24}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewBookingID()
		require.NoError(t, err)
		assert.Regexp(t, urlSafe, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
