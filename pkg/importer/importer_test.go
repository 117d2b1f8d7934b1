package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"plant-maint-api/internal/sheet"
)

// buildWorkbook assembles an in-memory xlsx: sheet name -> rows, first row
// is the header.
func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sh, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, cells := range rows {
			row := sh.AddRow()
			for _, v := range cells {
				row.AddCell().SetString(v)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestImportExcel(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		sheet.MaintenanceTable: {
			{"設備名", "最終点検日", "作業内容", "費用", "備考", "画像"},
			{"[ジョークラッシャ] No.1", "2024/5/1", "ベアリング交換", "¥12,000", "", "0"},
			{"[スクリーン] 2号機", "2024-05-10", "金網張替", "34000", "次回は6月", ""},
		},
		sheet.StockTable: {
			{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
			{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"},
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	assert.Len(t, summary.Sheets, 2)

	maint, err := store.Read(context.Background(), sheet.MaintenanceTable)
	require.NoError(t, err)
	require.Len(t, maint.Rows, 2)
	// Reconciliation normalizes the slash date, strips the yen formatting
	// and scrubs the "0" image artifact.
	assert.Equal(t, "2024-05-01", maint.Cell(0, "最終点検日"))
	assert.Equal(t, "12000", maint.Cell(0, "費用"))
	assert.Equal(t, "", maint.Cell(0, "画像"))

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	assert.Len(t, stock.Rows, 1)
}

func TestImportExcelJapaneseSheetNames(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		"在庫": {
			{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
			{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"},
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)
	require.Len(t, summary.Sheets, 1)
	assert.Equal(t, sheet.StockTable, summary.Sheets[0].Table)

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	assert.Len(t, stock.Rows, 1)
}

func TestImportExcelSkipsAndRejectsRows(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		sheet.StockTable: {
			{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
			{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"},
			{"", "", "", "", "", ""},                  // blank row: skipped silently
			{"スクリーン", "", "3", "8000", "2", ""}, // missing key: rejected
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.Sheets, 1)
	require.NotEmpty(t, summary.Sheets[0].Samples)
	assert.Contains(t, summary.Sheets[0].Samples[0].Message, "部品名")
	assert.Equal(t, 4, summary.Sheets[0].Samples[0].Row)
}

func TestImportExcelIgnoresUnmappedSheets(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		"メモ": {
			{"whatever"},
			{"free text"},
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Empty(t, summary.Sheets)
}

func TestImportExcelDryRun(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		sheet.StockTable: {
			{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
			{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"},
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Imported)

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	assert.Empty(t, stock.Rows, "dry run must not write")
}

func TestImportExcelAppend(t *testing.T) {
	ctx := context.Background()
	store := sheet.NewMemoryStore()
	require.NoError(t, store.Replace(ctx, sheet.StockTable, sheet.Table{
		Columns: []string{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
		Rows:    [][]string{{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"}},
	}))

	data := buildWorkbook(t, map[string][][]string{
		sheet.StockTable: {
			{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
			{"スクリーン", "金網 3.5mm", "2", "8000", "2", "2024-06-01"},
		},
	})

	_, err := ImportExcel(ctx, store, bytes.NewReader(data), ImportOptions{Append: true})
	require.NoError(t, err)

	stock, err := store.Read(ctx, sheet.StockTable)
	require.NoError(t, err)
	require.Len(t, stock.Rows, 2)
	assert.Equal(t, "Vベルト A型", stock.Cell(0, "部品名"))
	assert.Equal(t, "金網 3.5mm", stock.Cell(1, "部品名"))
}

func TestImportExcelCustomMapping(t *testing.T) {
	dir := t.TempDir()
	mapping := filepath.Join(dir, "mapping.yaml")
	content := `version: 1
sheets:
  parts_export: stock_data
aliases:
  stock_data:
    部品名:
      - "Part"
    分類:
      - "Group"
    在庫数:
      - "Qty"
`
	require.NoError(t, os.WriteFile(mapping, []byte(content), 0o600))

	data := buildWorkbook(t, map[string][][]string{
		"parts_export": {
			{"Group", "Part", "Qty"},
			{"ベルト", "Vベルト A型", "10"},
		},
	})

	store := sheet.NewMemoryStore()
	summary, err := ImportExcel(context.Background(), store, bytes.NewReader(data), ImportOptions{MappingPath: mapping})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	require.Len(t, stock.Rows, 1)
	assert.Equal(t, "Vベルト A型", stock.Cell(0, "部品名"))
	assert.Equal(t, "ベルト", stock.Cell(0, "分類"))
	assert.Equal(t, "10", stock.Cell(0, "在庫数"))
}
