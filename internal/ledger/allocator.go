package ledger

import (
	"context"

	"go.uber.org/zap"
)

// FindReusableRow returns the first data row whose cells are all blank.
// Cancelled bookings leave such rows behind; filling them first keeps
// the live range compact.  A failed scan reports no row so the caller
// falls back to appending, which is always safe.
func FindReusableRow(ctx context.Context, store RowStore, log *zap.Logger) (int, bool) {
	rows, err := store.ReadRows(ctx)
	if err != nil {
		if log != nil {
			log.Warn("reusable row scan failed, appending instead", zap.Error(err))
		}
		return 0, false
	}
	return firstBlankRow(rows)
}

func firstBlankRow(rows []Row) (int, bool) {
	for _, r := range rows {
		if r.Index < FirstDataRow {
			continue
		}
		if IsBlank(r) {
			return r.Index, true
		}
	}
	return 0, false
}

// rowIsBlank reports whether index is still blank in a fresh snapshot.
// Rows past the last materialized one count as blank.
func rowIsBlank(rows []Row, index int) bool {
	for _, r := range rows {
		if r.Index == index {
			return IsBlank(r)
		}
	}
	return true
}
