// Package importer bulk-loads an Excel workbook into the table store,
// normalizing each worksheet through the same reconciliation path the API
// uses. It exists for seeding a deployment from the spreadsheet exports
// the site already keeps.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"

	"plant-maint-api/internal/reconcile"
	"plant-maint-api/internal/sheet"
)

// ImportOptions configures an import run.
type ImportOptions struct {
	MappingPath string // optional YAML mapping, see MappingConfig
	DryRun      bool
	Append      bool // append to existing rows instead of replacing
	MaxErrors   int  // default 50
}

// RowError records one rejected row.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary is the outcome for a single worksheet.
type SheetSummary struct {
	Name     string     `json:"name"`
	Table    string     `json:"table"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Repaired int        `json:"repaired"` // cells fixed by reconciliation
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary is the overall outcome.
type ImportSummary struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// MappingConfig maps worksheet names to logical tables and adds header
// aliases for drifted exports.
type MappingConfig struct {
	Version int                            `yaml:"version"`
	Sheets  map[string]string              `yaml:"sheets"`  // worksheet -> table
	Aliases map[string]map[string][]string `yaml:"aliases"` // table -> column -> headers
}

func defaultMapping() *MappingConfig {
	return &MappingConfig{
		Version: 1,
		Sheets: map[string]string{
			sheet.MaintenanceTable: sheet.MaintenanceTable,
			sheet.StockTable:       sheet.StockTable,
			"メンテナンス":              sheet.MaintenanceTable,
			"在庫":                  sheet.StockTable,
		},
	}
}

func loadMappingConfig(path string) (*MappingConfig, error) {
	if path == "" {
		return defaultMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultMapping()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ImportExcel reads every mapped worksheet of the workbook, reconciles it
// to the table's canonical schema, validates rows, and submits the result
// to the store (full replace, or merged with existing rows in append
// mode). Dry-run performs everything except the writes.
func ImportExcel(ctx context.Context, store sheet.Store, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}

	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	mapping, err := loadMappingConfig(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	now := time.Now()
	for _, ws := range xlFile.Sheets {
		table, ok := mapping.Sheets[ws.Name]
		if !ok {
			continue // unmapped worksheets are not an error
		}
		schema := schemaFor(table)
		if schema == nil {
			continue
		}
		s := *schema
		applyAliases(&s, mapping.Aliases[table])

		sheetSummary := processSheet(ctx, store, ws, table, s, now, opts)
		summary.Sheets = append(summary.Sheets, sheetSummary)
		summary.Imported += sheetSummary.Imported
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

func schemaFor(table string) *reconcile.Schema {
	switch table {
	case sheet.MaintenanceTable:
		return &reconcile.Maintenance
	case sheet.StockTable:
		return &reconcile.Stock
	default:
		return nil
	}
}

func applyAliases(s *reconcile.Schema, extra map[string][]string) {
	if extra == nil {
		return
	}
	cols := make([]reconcile.Column, len(s.Columns))
	copy(cols, s.Columns)
	for i := range cols {
		if add, ok := extra[cols[i].Name]; ok {
			cols[i].Aliases = append(append([]string(nil), cols[i].Aliases...), add...)
		}
	}
	s.Columns = cols
}

func processSheet(ctx context.Context, store sheet.Store, ws *xlsx.Sheet, table string, schema reconcile.Schema, now time.Time, opts ImportOptions) SheetSummary {
	summary := SheetSummary{Name: ws.Name, Table: table}

	raw := readWorksheet(ws)
	repaired, stats := reconcile.Repair(raw, schema, now)
	summary.Repaired = stats.BadDates + stats.BadIntegers + stats.ScrubbedCells

	keyColumn := keyColumnFor(table)
	kept := repaired.Rows[:0:0]
	for i := range repaired.Rows {
		key := strings.TrimSpace(repaired.Cell(i, keyColumn))
		if key == "" {
			if rowEmpty(raw, i) {
				summary.Skipped++
			} else {
				summary.Errors++
				if len(summary.Samples) < 10 {
					summary.Samples = append(summary.Samples, RowError{
						Sheet:   ws.Name,
						Row:     i + 2, // 1-based, after header
						Message: keyColumn + " is required",
					})
				}
			}
			continue
		}
		kept = append(kept, repaired.Rows[i])
		summary.Imported++
	}
	repaired.Rows = kept

	if opts.DryRun {
		return summary
	}

	if opts.Append {
		existing, err := store.Read(ctx, table)
		if err != nil {
			summary.Errors++
			summary.Samples = append(summary.Samples, RowError{Sheet: ws.Name, Message: err.Error()})
			return summary
		}
		merged, _ := reconcile.Repair(existing, schema, now)
		merged.Rows = append(merged.Rows, repaired.Rows...)
		repaired = merged
	}
	if err := store.Replace(ctx, table, repaired); err != nil {
		summary.Errors++
		summary.Imported = 0
		summary.Samples = append(summary.Samples, RowError{Sheet: ws.Name, Message: err.Error()})
	}
	return summary
}

func keyColumnFor(table string) string {
	if table == sheet.StockTable {
		return "部品名"
	}
	return "設備名"
}

func rowEmpty(t sheet.Table, i int) bool {
	if i >= len(t.Rows) {
		return true
	}
	for _, v := range t.Rows[i] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// readWorksheet flattens a worksheet into the store's table form, first
// row as header.
func readWorksheet(ws *xlsx.Sheet) sheet.Table {
	var t sheet.Table
	for i := 0; i < ws.MaxRow; i++ {
		row, err := ws.Row(i)
		if err != nil {
			break
		}
		cells := make([]string, 0, ws.MaxCol)
		for j := 0; j < ws.MaxCol; j++ {
			cells = append(cells, strings.TrimSpace(row.GetCell(j).String()))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if i == 0 {
			t.Columns = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
