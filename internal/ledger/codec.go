package ledger

import (
	"strings"

	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

// literalMarker keeps a cell from being evaluated as a formula when the
// sheet is exported or pasted elsewhere.
const literalMarker = "'"

// escapedLeads are the first characters that get a marker.  The marker
// itself is among them so a value typed with a leading quote survives.
const escapedLeads = "=+-@'"

const (
	flagYes = "yes"
	flagNo  = "no"
)

// escapeCell prefixes values that the sheet would evaluate as a formula.
func escapeCell(v string) string {
	if v != "" && strings.ContainsRune(escapedLeads, rune(v[0])) {
		return literalMarker + v
	}
	return v
}

// unescapeCell reverses escapeCell by dropping exactly one marker.  Cells
// a sheet returns without the marker are left as they are.
func unescapeCell(v string) string {
	if len(v) > 1 && strings.HasPrefix(v, literalMarker) && strings.ContainsRune(escapedLeads, rune(v[1])) {
		return v[1:]
	}
	return v
}

// SlotDisplay is the combined "date time" value stored in column G.
func SlotDisplay(date, t string) string {
	return strings.TrimSpace(date) + " " + NormalizeTime(t)
}

// splitSlotDisplay splits column G back into date and time.  The date is
// everything before the first space.
func splitSlotDisplay(v string) (date, t string) {
	v = strings.TrimSpace(v)
	date, t, _ = strings.Cut(v, " ")
	return date, strings.TrimSpace(t)
}

func flagCell(b bool) string {
	if b {
		return flagYes
	}
	return flagNo
}

func parseFlag(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), flagYes)
}

// EncodeRow lays a booking out in column order A..J.
func EncodeRow(b model.Booking) []string {
	cells := make([]string, ColumnCount)
	cells[colBookingID] = escapeCell(b.BookingID)
	cells[colFirstName] = escapeCell(b.FirstName)
	cells[colMiddleName] = escapeCell(b.MiddleName)
	cells[colLastName] = escapeCell(b.LastName)
	cells[colPhone] = escapeCell(b.PhoneNumber)
	cells[colEmail] = escapeCell(b.Email)
	cells[colSlot] = escapeCell(SlotDisplay(b.SlotDate, b.SlotTime))
	cells[colDescription] = escapeCell(b.Description)
	cells[colConfirmed] = flagCell(b.Confirmed)
	cells[colCompleted] = flagCell(b.Completed)
	return cells
}

// DecodeRow turns a stored row into a booking.  ok is false when the row
// holds no booking id, which covers both reusable rows and rows damaged
// by hand edits.
func DecodeRow(r Row) (b model.Booking, ok bool) {
	cell := func(i int) string {
		if i < len(r.Cells) {
			return unescapeCell(strings.TrimSpace(r.Cells[i]))
		}
		return ""
	}
	id := cell(colBookingID)
	if id == "" {
		return model.Booking{}, false
	}
	date, t := splitSlotDisplay(cell(colSlot))
	return model.Booking{
		BookingID:   id,
		FirstName:   cell(colFirstName),
		MiddleName:  cell(colMiddleName),
		LastName:    cell(colLastName),
		PhoneNumber: cell(colPhone),
		Email:       cell(colEmail),
		SlotDate:    date,
		SlotTime:    t,
		Description: cell(colDescription),
		Confirmed:   parseFlag(cell(colConfirmed)),
		Completed:   parseFlag(cell(colCompleted)),
		Row:         r.Index,
	}, true
}

// IsBlank reports whether every cell of r is absent or whitespace.
func IsBlank(r Row) bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
