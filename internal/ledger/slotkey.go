package ledger

import (
	"regexp"
	"strconv"
	"strings"
)

// meridiemTime matches 12-hour times such as "2 PM", "2:00pm" or "2:00 p.m.".
var meridiemTime = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s?([AaPp])\.?\s?[Mm]\.?$`)

// NormalizeTime canonicalizes a display time.  Whitespace is trimmed and
// collapsed, the meridiem marker is upper-cased and separated from the
// digits by one space, and a missing minutes field becomes ":00".  Text
// that is not a recognizable 12-hour time is returned with only the
// whitespace normalized.
func NormalizeTime(t string) string {
	s := strings.Join(strings.Fields(t), " ")
	m := meridiemTime.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return s
	}
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	return strconv.Itoa(hour) + ":" + minutes + " " + strings.ToUpper(m[3]) + "M"
}

// SlotKey derives the conflict-detection key of a (date, time) pair.  Two
// requests with the same key compete for the same slot regardless of how
// the time was typed.  Input is not validated here.
func SlotKey(date, t string) string {
	return strings.TrimSpace(date) + "-" + NormalizeTime(t)
}

var clockTime = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// ParseSlotTime validates a customer-supplied time and returns its
// canonical 12-hour form.  Both "2:30 pm" and "14:30" are accepted.
func ParseSlotTime(t string) (string, bool) {
	s := strings.Join(strings.Fields(t), " ")
	if m := clockTime.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		suffix := "AM"
		if hour >= 12 {
			suffix = "PM"
		}
		if hour%12 == 0 {
			hour += 12
		}
		if hour > 12 {
			hour -= 12
		}
		return strconv.Itoa(hour) + ":" + m[2] + " " + suffix, true
	}
	m := meridiemTime.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	if hour < 1 || hour > 12 {
		return "", false
	}
	if m[2] != "" {
		if mins, _ := strconv.Atoi(m[2]); mins > 59 {
			return "", false
		}
	}
	return NormalizeTime(s), true
}
