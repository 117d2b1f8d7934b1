package sheet

import (
	"context"
	"os"
	"sync"

	"github.com/tealeg/xlsx/v3"
)

// XLSXStore keeps the tables in a local workbook file, one worksheet per
// table. It exists for offline use and for seeding a deployment from an
// exported spreadsheet. Replace rewrites the whole workbook; the file is
// the unit of durability, mirroring the remote store's semantics.
type XLSXStore struct {
	mu   sync.Mutex
	path string
}

func NewXLSXStore(path string) *XLSXStore {
	return &XLSXStore{path: path}
}

func (s *XLSXStore) Read(_ context.Context, table string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return Table{}, unavailable("read", table, err)
	}
	if f == nil {
		return Table{}, nil
	}
	sh, ok := f.Sheet[table]
	if !ok {
		return Table{}, nil
	}
	return sheetToTable(sh), nil
}

func (s *XLSXStore) Replace(_ context.Context, table string, t Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.open()
	if err != nil {
		return unavailable("write", table, err)
	}

	out := xlsx.NewFile()
	// Carry the sibling worksheets over untouched.
	if old != nil {
		for _, sh := range old.Sheets {
			if sh.Name == table {
				continue
			}
			if err := copySheet(out, sh); err != nil {
				return unavailable("write", table, err)
			}
		}
	}
	dst, err := out.AddSheet(table)
	if err != nil {
		return unavailable("write", table, err)
	}
	writeRow(dst, t.Columns)
	for _, row := range t.Rows {
		writeRow(dst, row)
	}
	if err := out.Save(s.path); err != nil {
		return unavailable("write", table, err)
	}
	return nil
}

// open returns nil without error when the workbook does not exist yet.
func (s *XLSXStore) open() (*xlsx.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}
	return xlsx.OpenFile(s.path)
}

func sheetToTable(sh *xlsx.Sheet) Table {
	var t Table
	for i := 0; i < sh.MaxRow; i++ {
		row, err := sh.Row(i)
		if err != nil {
			break
		}
		cells := make([]string, 0, sh.MaxCol)
		for j := 0; j < sh.MaxCol; j++ {
			cells = append(cells, row.GetCell(j).String())
		}
		// Trim trailing blanks so ragged sheets round-trip cleanly.
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if i == 0 {
			t.Columns = cells
			continue
		}
		if len(cells) == 0 {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func copySheet(dst *xlsx.File, src *xlsx.Sheet) error {
	sh, err := dst.AddSheet(src.Name)
	if err != nil {
		return err
	}
	for i := 0; i < src.MaxRow; i++ {
		row, err := src.Row(i)
		if err != nil {
			break
		}
		out := sh.AddRow()
		for j := 0; j < src.MaxCol; j++ {
			out.AddCell().SetString(row.GetCell(j).String())
		}
	}
	return nil
}

func writeRow(sh *xlsx.Sheet, cells []string) {
	row := sh.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
