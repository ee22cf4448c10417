package ledger

import "context"

// Row layout of the backing sheet.  Row 1 holds column titles and is
// never read as data or written.
const (
	HeaderRow    = 1
	FirstDataRow = 2
	ColumnCount  = 10
)

// Column positions, zero based (A=0 … J=9).
const (
	colBookingID = iota
	colFirstName
	colMiddleName
	colLastName
	colPhone
	colEmail
	colSlot
	colDescription
	colConfirmed
	colCompleted
)

// Header is the title row expected in row 1.
var Header = []string{
	"Booking ID", "First Name", "Middle Name", "Last Name", "Phone Number",
	"Email", "Date & Time", "Description", "Confirmed", "Completed",
}

// Row is one materialized row of the backing store.  Index is the
// 1-based sheet row number; Cells may be shorter than ColumnCount when
// trailing cells are empty.
type Row struct {
	Index int
	Cells []string
}

// RowStore is a rectangular, row-oriented medium without transactions.
// Implementations talk to a remote service, so every call may block and
// may fail transiently.  Errors should be *StoreError values so the
// retry policy can classify them.
type RowStore interface {
	// ReadRows returns every materialized data row from FirstDataRow to
	// the last non-empty row, in order.  Empty rows in between are
	// returned with no cells.
	ReadRows(ctx context.Context) ([]Row, error)
	// WriteRow overwrites the cells of an existing row.
	WriteRow(ctx context.Context, index int, cells []string) error
	// AppendRow writes cells after the last materialized row and returns
	// the index it landed on.
	AppendRow(ctx context.Context, cells []string) (int, error)
	// ClearRow blanks every cell of a row without removing it.
	ClearRow(ctx context.Context, index int) error
}
