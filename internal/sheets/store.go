// Package sheets implements ledger.RowStore on a Google Sheets tab.  The
// tab's first row holds column titles; bookings live in columns A..J
// from row 2 down.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
)

// rawInput stores cell text verbatim.  The sheet never parses it into a
// date, number or formula, so column G and phone numbers read back as
// written.
const rawInput = "RAW"

// Config identifies one tab of one spreadsheet and the credentials used
// to reach it.  Each Store owns its own client built from its Config;
// nothing is shared between stores.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
}

// Store is a ledger.RowStore backed by the Sheets v4 values API.
type Store struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
}

// New builds a Store.  Extra client options (endpoint, HTTP client) are
// applied after the credentials from cfg.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Bookings"
	}
	base := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		base = append(base, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheetsapi.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Store{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         cfg.SheetName,
	}, nil
}

var _ ledger.RowStore = (*Store)(nil)

// quotedSheet returns the tab name in A1 quoting.
func (s *Store) quotedSheet() string {
	return "'" + strings.ReplaceAll(s.sheet, "'", "''") + "'"
}

func (s *Store) rowRange(index int) string {
	return fmt.Sprintf("%s!A%d:J%d", s.quotedSheet(), index, index)
}

func toValues(cells []string) [][]interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return [][]interface{}{row}
}

func toCells(row []interface{}) []string {
	cells := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			cells[i] = fmt.Sprint(v)
		}
	}
	return cells
}

// ReadRows implements ledger.RowStore.
func (s *Store) ReadRows(ctx context.Context) ([]ledger.Row, error) {
	rng := fmt.Sprintf("%s!A%d:J", s.quotedSheet(), ledger.FirstDataRow)
	resp, err := s.values.Get(s.spreadsheetID, rng).MajorDimension("ROWS").Context(ctx).Do()
	if err != nil {
		return nil, classify("read rows", err)
	}
	rows := make([]ledger.Row, len(resp.Values))
	for i, v := range resp.Values {
		rows[i] = ledger.Row{Index: ledger.FirstDataRow + i, Cells: toCells(v)}
	}
	return rows, nil
}

// WriteRow implements ledger.RowStore.
func (s *Store) WriteRow(ctx context.Context, index int, cells []string) error {
	if index < ledger.FirstDataRow {
		return &ledger.StoreError{Op: "write row", Err: fmt.Errorf("row %d is not a data row", index)}
	}
	vr := &sheetsapi.ValueRange{Values: toValues(cells)}
	_, err := s.values.Update(s.spreadsheetID, s.rowRange(index), vr).
		ValueInputOption(rawInput).Context(ctx).Do()
	if err != nil {
		return classify("write row", err)
	}
	return nil
}

// updatedRow pulls the first row number out of an A1 range such as
// "'Bookings'!A7:J7".
var updatedRow = regexp.MustCompile(`!\$?[A-Z]+\$?(\d+)`)

// AppendRow implements ledger.RowStore.  Rows are inserted, never written
// over, so a concurrent append cannot clobber this one.
func (s *Store) AppendRow(ctx context.Context, cells []string) (int, error) {
	vr := &sheetsapi.ValueRange{Values: toValues(cells)}
	rng := s.quotedSheet() + "!A:J"
	resp, err := s.values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption(rawInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, classify("append row", err)
	}
	if resp.Updates == nil {
		return 0, &ledger.StoreError{Op: "append row", Err: errors.New("response carries no updated range")}
	}
	m := updatedRow.FindStringSubmatch(resp.Updates.UpdatedRange)
	if m == nil {
		return 0, &ledger.StoreError{Op: "append row", Err: fmt.Errorf("unexpected updated range %q", resp.Updates.UpdatedRange)}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ledger.StoreError{Op: "append row", Err: err}
	}
	return n, nil
}

// ClearRow implements ledger.RowStore.
func (s *Store) ClearRow(ctx context.Context, index int) error {
	if index < ledger.FirstDataRow {
		return &ledger.StoreError{Op: "clear row", Err: fmt.Errorf("row %d is not a data row", index)}
	}
	_, err := s.values.Clear(s.spreadsheetID, s.rowRange(index), &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return classify("clear row", err)
	}
	return nil
}

// EnsureHeader writes the column titles into row 1 when it is empty.
func (s *Store) EnsureHeader(ctx context.Context) error {
	rng := s.rowRange(ledger.HeaderRow)
	resp, err := s.values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return classify("read header", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &sheetsapi.ValueRange{Values: toValues(ledger.Header)}
	if _, err := s.values.Update(s.spreadsheetID, rng, vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return classify("write header", err)
	}
	return nil
}

// classify maps API failures onto ledger.StoreError so the ledger's retry
// policy can tell quota rejections and outages from permanent errors.
func classify(op string, err error) error {
	se := &ledger.StoreError{Op: op, Err: err}
	var gerr *googleapi.Error
	var nerr net.Error
	switch {
	case errors.As(err, &gerr):
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			se.RateLimited = true
		case gerr.Code >= http.StatusInternalServerError:
			se.Transient = true
		}
	case errors.Is(err, context.DeadlineExceeded):
		se.Transient = true
	case errors.As(err, &nerr) && nerr.Timeout():
		se.Transient = true
	}
	return se
}
