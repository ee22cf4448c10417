package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryRowStore is an in-process RowStore with the same row semantics as
// the Sheets store: trailing blank rows are not materialized and appends
// land right after the last non-blank row.  Like the sheet, it stores the
// cells exactly as written.  It backs the "memory" ledger backend and
// tests.
type MemoryRowStore struct {
	mu   sync.Mutex
	rows [][]string // rows[0] is FirstDataRow
}

// NewMemoryRowStore returns an empty store.
func NewMemoryRowStore() *MemoryRowStore { return &MemoryRowStore{} }

func blankCells(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// lastMaterialized returns the count of rows up to the last non-blank one.
func (m *MemoryRowStore) lastMaterialized() int {
	n := len(m.rows)
	for n > 0 && blankCells(m.rows[n-1]) {
		n--
	}
	return n
}

// ReadRows implements RowStore.
func (m *MemoryRowStore) ReadRows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "read rows", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.lastMaterialized()
	out := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		cells := make([]string, len(m.rows[i]))
		copy(cells, m.rows[i])
		out = append(out, Row{Index: i + FirstDataRow, Cells: cells})
	}
	return out, nil
}

// WriteRow implements RowStore.
func (m *MemoryRowStore) WriteRow(ctx context.Context, index int, cells []string) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "write row", Err: err}
	}
	if index < FirstDataRow {
		return &StoreError{Op: "write row", Err: fmt.Errorf("row %d is not a data row", index)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := index - FirstDataRow
	for len(m.rows) <= i {
		m.rows = append(m.rows, nil)
	}
	m.rows[i] = append([]string(nil), cells...)
	return nil
}

// AppendRow implements RowStore.
func (m *MemoryRowStore) AppendRow(ctx context.Context, cells []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &StoreError{Op: "append row", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.lastMaterialized()
	m.rows = m.rows[:i]
	m.rows = append(m.rows, append([]string(nil), cells...))
	return i + FirstDataRow, nil
}

// ClearRow implements RowStore.
func (m *MemoryRowStore) ClearRow(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "clear row", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := index - FirstDataRow
	if i < 0 || i >= len(m.rows) {
		return nil
	}
	m.rows[i] = make([]string, len(m.rows[i]))
	return nil
}

// Len returns the number of materialized data rows.
func (m *MemoryRowStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMaterialized()
}
