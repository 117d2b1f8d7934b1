// Package sheet abstracts the remote two-table store the application reads
// from and writes back to. The store exposes spreadsheet semantics only:
// read a whole table, replace a whole table. There are no row-level writes.
package sheet

import (
	"context"
	"errors"
	"fmt"
)

// Canonical table names.
const (
	MaintenanceTable = "maintenance_data"
	StockTable       = "stock_data"
)

// ErrUnavailable wraps transport-level failures so handlers can map them to
// a blocking "try again later" response instead of a generic 500.
var ErrUnavailable = errors.New("table store unavailable")

// Table is an untyped tabular dataset as the store holds it. Rows carry
// cell values positionally under Columns; widths may be ragged on read.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Cell returns the value of the named column in row i, or "" when the
// column is absent or the row is short.
func (t Table) Cell(i int, column string) string {
	for c, name := range t.Columns {
		if name != column {
			continue
		}
		if i < 0 || i >= len(t.Rows) || c >= len(t.Rows[i]) {
			return ""
		}
		return t.Rows[i][c]
	}
	return ""
}

// Store is the remote table store. Replace must overwrite the table's
// entire contents with exactly the submitted rows (full-replace semantics);
// partial writes are not part of the contract.
type Store interface {
	Read(ctx context.Context, table string) (Table, error)
	Replace(ctx context.Context, table string, t Table) error
}

func unavailable(op, table string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, table, err)
}
