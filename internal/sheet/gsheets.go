package sheet

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore reads and writes worksheets of a single Google spreadsheet,
// one worksheet per logical table. Writes clear the worksheet and rewrite
// it in full, which is the only replace primitive the Sheets API offers
// without tracking row identities.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string

	// SettleDelay is slept after a successful write. The Sheets backend is
	// not read-after-write consistent under load; a short pause lets an
	// immediate re-read observe the new contents.
	SettleDelay time.Duration
}

// NewSheetsStore builds a store from a service-account credentials file.
func NewSheetsStore(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets store: spreadsheet id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets store: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsStore) Read(ctx context.Context, table string) (Table, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return Table{}, unavailable("read", table, err)
	}
	var t Table
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		if i == 0 {
			t.Columns = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func (s *SheetsStore) Replace(ctx context.Context, table string, t Table) error {
	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	values = append(values, header)
	for _, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		values = append(values, cells)
	}

	// Clear first so a shrinking table leaves no stale trailing rows.
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, table, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return unavailable("clear", table, err)
	}
	vr := &sheets.ValueRange{Values: values}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, table, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return unavailable("write", table, err)
	}
	if s.SettleDelay > 0 {
		time.Sleep(s.SettleDelay)
	}
	return nil
}
