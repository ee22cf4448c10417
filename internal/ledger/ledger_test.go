package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LytheanSem/emotionwork-sub001/internal/model"
)

func fields(date, t, email string) model.BookingFields {
	return model.BookingFields{
		FirstName:   "Ann",
		LastName:    "Lee",
		PhoneNumber: "+1 555 0100",
		Email:       email,
		SlotDate:    date,
		SlotTime:    t,
		Description: "stage rental",
	}
}

func newTestLedger() (*SheetLedger, *MemoryRowStore) {
	store := NewMemoryRowStore()
	return NewSheetLedger(store, fastRetry, nil), store
}

func TestAddMakesSlotOccupied(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	key := SlotKey("2025-03-01", "10:00 AM")

	before, err := l.OccupiedSlots(ctx)
	require.NoError(t, err)
	assert.NotContains(t, before, key)

	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	after, err := l.OccupiedSlots(ctx)
	require.NoError(t, err)
	assert.Contains(t, after, key)
	assert.Len(t, after, 1)
}

func TestAddConflictOnEquivalentTime(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger()
	_, err := l.Add(ctx, fields("2025-03-01", "2:00 PM", "a@b.com"))
	require.NoError(t, err)

	_, err = l.Add(ctx, fields("2025-03-01", "2pm", "c@d.com"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, store.Len())
}

func TestFindRequiresMatchingEmail(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)

	b, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, id, b.BookingID)
	assert.Equal(t, "Ann", b.FirstName)
	assert.Equal(t, FirstDataRow, b.Row)

	_, err = l.Find(ctx, id, "x@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Find(ctx, "unknown", "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Find(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelTwiceReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)

	require.NoError(t, l.Cancel(ctx, id, "a@b.com"))
	assert.ErrorIs(t, l.Cancel(ctx, id, "a@b.com"), ErrNotFound)
}

func TestCancelWithWrongEmailKeepsBooking(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)

	assert.ErrorIs(t, l.Cancel(ctx, id, "other@b.com"), ErrNotFound)
	_, err = l.Find(ctx, id, "a@b.com")
	assert.NoError(t, err)
}

func TestUpdateResetsWorkflowFlags(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	_, err = l.SetStatus(ctx, id, true, true)
	require.NoError(t, err)

	f := fields("2025-03-01", "10:00 AM", "a@b.com")
	f.Description = "changed"
	got, err := l.Update(ctx, id, "a@b.com", f)
	require.NoError(t, err)
	assert.False(t, got.Confirmed)
	assert.False(t, got.Completed)
	assert.Equal(t, "changed", got.Description)

	stored, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.Confirmed)
	assert.False(t, stored.Completed)
	assert.Equal(t, "changed", stored.Description)
}

func TestUpdateToTakenSlotConflicts(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	_, err = l.Add(ctx, fields("2025-03-01", "11:00 AM", "c@d.com"))
	require.NoError(t, err)

	_, err = l.Update(ctx, id, "a@b.com", fields("2025-03-01", "11 am", "a@b.com"))
	assert.ErrorIs(t, err, ErrConflict)

	b, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "10:00 AM", b.SlotTime)
}

func TestUpdateSameSlotIsNotAConflict(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)

	_, err = l.Update(ctx, id, "a@b.com", fields("2025-03-01", "10am", "a@b.com"))
	assert.NoError(t, err)
}

func TestUpdateUnknownBooking(t *testing.T) {
	l, _ := newTestLedger()
	_, err := l.Update(context.Background(), "nope", "a@b.com", fields("2025-03-01", "10:00 AM", "a@b.com"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelledRowIsReused(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger()
	_, err := l.Add(ctx, fields("2025-03-01", "9:00 AM", "first@b.com"))
	require.NoError(t, err)
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	_, err = l.Add(ctx, fields("2025-03-01", "11:00 AM", "last@b.com"))
	require.NoError(t, err)

	old, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	require.NoError(t, l.Cancel(ctx, id, "a@b.com"))

	id2, err := l.Add(ctx, fields("2025-03-02", "1:00 PM", "e@f.com"))
	require.NoError(t, err)
	b, err := l.Find(ctx, id2, "e@f.com")
	require.NoError(t, err)
	assert.Equal(t, old.Row, b.Row)
	assert.Equal(t, 3, store.Len())
}

func TestCancelledLastRowIsReused(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	first, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	require.NoError(t, l.Cancel(ctx, id, "a@b.com"))

	id2, err := l.Add(ctx, fields("2025-03-05", "3:00 PM", "a@b.com"))
	require.NoError(t, err)
	second, err := l.Find(ctx, id2, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, first.Row, second.Row)
	assert.Equal(t, 1, store.Len())
}

func TestEscapedDescriptionRoundTrips(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger()
	f := fields("2025-03-01", "10:00 AM", "a@b.com")
	f.Description = "=1+1"
	id, err := l.Add(ctx, f)
	require.NoError(t, err)

	rows, err := store.ReadRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "'=1+1", rows[0].Cells[colDescription])

	b, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "=1+1", b.Description)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	x, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)

	_, err = l.Add(ctx, fields("2025-03-01", "10:00 AM", "other@b.com"))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = l.Update(ctx, x, "a@b.com", fields("2025-03-01", "11:00 AM", "a@b.com"))
	require.NoError(t, err)
	occupied, err := l.OccupiedSlots(ctx)
	require.NoError(t, err)
	assert.NotContains(t, occupied, SlotKey("2025-03-01", "10:00 AM"))
	assert.Contains(t, occupied, SlotKey("2025-03-01", "11:00 AM"))

	require.NoError(t, l.Cancel(ctx, x, "a@b.com"))
	_, err = l.Find(ctx, x, "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatusAndList(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	_, err = l.Add(ctx, fields("2025-03-01", "11:00 AM", "c@d.com"))
	require.NoError(t, err)

	b, err := l.SetStatus(ctx, id, true, false)
	require.NoError(t, err)
	assert.True(t, b.Confirmed)

	all, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id, all[0].BookingID)
	assert.True(t, all[0].Confirmed)

	_, err = l.SetStatus(ctx, "missing", true, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateSlotsReportsDoubleBookings(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger()
	a := model.NewBooking("id-a", fields("2025-03-01", "10:00 AM", "a@b.com"))
	b := model.NewBooking("id-b", fields("2025-03-01", "10am", "c@d.com"))
	c := model.NewBooking("id-c", fields("2025-03-01", "11:00 AM", "e@f.com"))
	for _, bk := range []model.Booking{a, b, c} {
		_, err := store.AppendRow(ctx, EncodeRow(bk))
		require.NoError(t, err)
	}

	dups, err := l.DuplicateSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		SlotKey("2025-03-01", "10:00 AM"): {"id-a", "id-b"},
	}, dups)
}

// racingStore lets a competing writer act between the ledger's reads.
type racingStore struct {
	*MemoryRowStore
	mu     sync.Mutex
	reads  int
	onRead map[int]func()
	failOn map[int]error
}

func (s *racingStore) ReadRows(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	s.reads++
	n := s.reads
	s.mu.Unlock()
	if err, ok := s.failOn[n]; ok {
		return nil, err
	}
	if fn, ok := s.onRead[n]; ok {
		fn()
	}
	return s.MemoryRowStore.ReadRows(ctx)
}

func TestAddRecheckCatchesSlotTakenAfterFirstCheck(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryRowStore()
	rival := model.NewBooking("rival", fields("2025-03-01", "10:00 AM", "r@b.com"))
	store := &racingStore{MemoryRowStore: mem, onRead: map[int]func(){
		3: func() { _, _ = mem.AppendRow(ctx, EncodeRow(rival)) },
	}}
	l := NewSheetLedger(store, fastRetry, nil)

	_, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, mem.Len())
}

func TestAddAppendsWhenReusableRowWasFilled(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryRowStore()
	l0 := NewSheetLedger(mem, fastRetry, nil)
	id, err := l0.Add(ctx, fields("2025-03-01", "9:00 AM", "a@b.com"))
	require.NoError(t, err)
	_, err = l0.Add(ctx, fields("2025-03-01", "10:00 AM", "b@b.com"))
	require.NoError(t, err)
	require.NoError(t, l0.Cancel(ctx, id, "a@b.com"))

	rival := model.NewBooking("rival", fields("2025-03-02", "9:00 AM", "r@b.com"))
	store := &racingStore{MemoryRowStore: mem, onRead: map[int]func(){
		3: func() { _ = mem.WriteRow(ctx, FirstDataRow, EncodeRow(rival)) },
	}}
	l := NewSheetLedger(store, fastRetry, nil)
	newID, err := l.Add(ctx, fields("2025-03-03", "9:00 AM", "c@b.com"))
	require.NoError(t, err)

	b, err := l.Find(ctx, newID, "c@b.com")
	require.NoError(t, err)
	assert.Equal(t, FirstDataRow+2, b.Row)
	_, err = l.Find(ctx, "rival", "r@b.com")
	assert.NoError(t, err)
}

func TestCancelSkipsRowReusedByAnotherBooking(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryRowStore()
	l0 := NewSheetLedger(mem, fastRetry, nil)
	x, err := l0.Add(ctx, fields("2025-03-01", "9:00 AM", "x@b.com"))
	require.NoError(t, err)

	// A concurrent cancel of X lands and Y takes the freed row between
	// this cancel's lookup and its clear.
	y := model.NewBooking("booking-y", fields("2025-03-02", "9:00 AM", "y@b.com"))
	store := &racingStore{MemoryRowStore: mem, onRead: map[int]func(){
		2: func() {
			_ = mem.ClearRow(ctx, FirstDataRow)
			_ = mem.WriteRow(ctx, FirstDataRow, EncodeRow(y))
		},
	}}
	l := NewSheetLedger(store, fastRetry, nil)

	err = l.Cancel(ctx, x, "x@b.com")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := l0.Find(ctx, "booking-y", "y@b.com")
	require.NoError(t, err)
	assert.Equal(t, FirstDataRow, got.Row)
}

func TestAllocatorReadFailureFallsBackToAppend(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryRowStore()
	store := &racingStore{MemoryRowStore: mem, failOn: map[int]error{
		2: &StoreError{Op: "read rows", Transient: true, Err: errors.New("timeout")},
	}}
	l := NewSheetLedger(store, fastRetry, nil)

	id, err := l.Add(ctx, fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	b, err := l.Find(ctx, id, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, FirstDataRow, b.Row)
}

func TestConflictCheckReadFailureIsBackingStoreError(t *testing.T) {
	mem := NewMemoryRowStore()
	store := &racingStore{MemoryRowStore: mem, failOn: map[int]error{
		1: errors.New("connection reset"),
	}}
	l := NewSheetLedger(store, fastRetry, nil)

	_, err := l.Add(context.Background(), fields("2025-03-01", "10:00 AM", "a@b.com"))
	assert.ErrorIs(t, err, ErrBackingStore)
	assert.Equal(t, 0, mem.Len())
}

// flakyWrites fails the first n writes with a rate-limit error.
type flakyWrites struct {
	*MemoryRowStore
	n int
}

func (s *flakyWrites) AppendRow(ctx context.Context, cells []string) (int, error) {
	if s.n > 0 {
		s.n--
		return 0, &StoreError{Op: "append row", RateLimited: true, Err: errors.New("429")}
	}
	return s.MemoryRowStore.AppendRow(ctx, cells)
}

func TestAddRetriesRateLimitedAppend(t *testing.T) {
	store := &flakyWrites{MemoryRowStore: NewMemoryRowStore(), n: 2}
	l := NewSheetLedger(store, fastRetry, nil)

	_, err := l.Add(context.Background(), fields("2025-03-01", "10:00 AM", "a@b.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
