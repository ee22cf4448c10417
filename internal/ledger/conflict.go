package ledger

import "context"

// OccupiedSlots returns the slot keys of every live row.  The result is a
// snapshot: another writer may take a slot right after it was read, so
// callers re-invoke it immediately before a dependent write.  It is not
// retried; a stale read only narrows the race window anyway.
func OccupiedSlots(ctx context.Context, store RowStore) (map[string]struct{}, error) {
	rows, err := store.ReadRows(ctx)
	if err != nil {
		return nil, wrapStore("read rows", err)
	}
	return occupiedFrom(rows, 0), nil
}

// occupiedFrom derives the occupied set from rows, leaving out the row at
// skip (0 skips nothing).
func occupiedFrom(rows []Row, skip int) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.Index == skip {
			continue
		}
		b, ok := DecodeRow(r)
		if !ok {
			continue
		}
		set[SlotKey(b.SlotDate, b.SlotTime)] = struct{}{}
	}
	return set
}

// duplicatesFrom groups live booking ids by slot key and keeps the keys
// held by more than one booking.
func duplicatesFrom(rows []Row) map[string][]string {
	byKey := make(map[string][]string)
	for _, r := range rows {
		b, ok := DecodeRow(r)
		if !ok {
			continue
		}
		key := SlotKey(b.SlotDate, b.SlotTime)
		byKey[key] = append(byKey[key], b.BookingID)
	}
	dups := make(map[string][]string)
	for k, ids := range byKey {
		if len(ids) > 1 {
			dups[k] = ids
		}
	}
	return dups
}
