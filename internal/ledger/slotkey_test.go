package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotKeyEquivalentTimes(t *testing.T) {
	want := SlotKey("2025-01-01", "2:00 PM")
	for _, in := range []string{"2:00PM", "2:00 pm", " 2:00   PM ", "2 PM", "2pm", "02:00 p.m."} {
		assert.Equal(t, want, SlotKey("2025-01-01", in), "time %q", in)
	}
	assert.Equal(t, "2025-01-01-2:00 PM", want)
}

func TestSlotKeyDistinguishesSlots(t *testing.T) {
	assert.NotEqual(t, SlotKey("2025-01-01", "2:00 PM"), SlotKey("2025-01-01", "2:00 AM"))
	assert.NotEqual(t, SlotKey("2025-01-01", "2:00 PM"), SlotKey("2025-01-02", "2:00 PM"))
	assert.NotEqual(t, SlotKey("2025-01-01", "2:00 PM"), SlotKey("2025-01-01", "2:30 PM"))
}

func TestNormalizeTimePassesThroughUnknownFormats(t *testing.T) {
	assert.Equal(t, "14:00", NormalizeTime(" 14:00 "))
	assert.Equal(t, "noon ish", NormalizeTime("noon   ish"))
	assert.Equal(t, "", NormalizeTime("   "))
}

func TestParseSlotTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2pm", "2:00 PM", true},
		{" 02:30 p.m. ", "2:30 PM", true},
		{"14:05", "2:05 PM", true},
		{"00:15", "12:15 AM", true},
		{"12:00", "12:00 PM", true},
		{"9:00", "9:00 AM", true},
		{"13 PM", "", false},
		{"0 AM", "", false},
		{"2:75 PM", "", false},
		{"24:00", "", false},
		{"noon", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseSlotTime(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseSlotTime(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
