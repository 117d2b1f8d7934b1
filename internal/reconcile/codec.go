package reconcile

import (
	"strconv"
	"time"

	"plant-maint-api/internal/models"
	"plant-maint-api/internal/sheet"
)

// DecodeMaintenance converts a repaired maintenance table into typed
// records. The input must come from Repair; cells are trusted to be in
// canonical form.
func DecodeMaintenance(t sheet.Table) []models.MaintenanceRecord {
	recs := make([]models.MaintenanceRecord, 0, len(t.Rows))
	for i := range t.Rows {
		date, _ := time.Parse(models.DateLayout, t.Cell(i, "最終点検日"))
		cost, _ := strconv.Atoi(t.Cell(i, "費用"))
		recs = append(recs, models.MaintenanceRecord{
			EquipmentLabel:  t.Cell(i, "設備名"),
			InspectionDate:  date,
			WorkDescription: t.Cell(i, "作業内容"),
			Cost:            cost,
			Notes:           t.Cell(i, "備考"),
			Images:          t.Cell(i, "画像"),
		})
	}
	return recs
}

// EncodeMaintenance serializes records back into the canonical table form
// submitted to the store.
func EncodeMaintenance(recs []models.MaintenanceRecord) sheet.Table {
	t := sheet.Table{Columns: Maintenance.Names(), Rows: make([][]string, 0, len(recs))}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{
			r.EquipmentLabel,
			r.InspectionDate.Format(models.DateLayout),
			r.WorkDescription,
			strconv.Itoa(r.Cost),
			r.Notes,
			r.Images,
		})
	}
	return t
}

// DecodeStock converts a repaired stock table into typed items.
func DecodeStock(t sheet.Table) []models.StockItem {
	items := make([]models.StockItem, 0, len(t.Rows))
	for i := range t.Rows {
		qty, _ := strconv.Atoi(t.Cell(i, "在庫数"))
		price, _ := strconv.Atoi(t.Cell(i, "単価"))
		reorder, _ := strconv.Atoi(t.Cell(i, "発注点"))
		updated, _ := time.Parse(models.DateLayout, t.Cell(i, "最終更新日"))
		items = append(items, models.StockItem{
			Category:     t.Cell(i, "分類"),
			PartName:     t.Cell(i, "部品名"),
			Quantity:     qty,
			UnitPrice:    price,
			ReorderPoint: reorder,
			LastUpdated:  updated,
		})
	}
	return items
}

// EncodeStock serializes stock items back into canonical table form.
func EncodeStock(items []models.StockItem) sheet.Table {
	t := sheet.Table{Columns: Stock.Names(), Rows: make([][]string, 0, len(items))}
	for _, s := range items {
		t.Rows = append(t.Rows, []string{
			s.Category,
			s.PartName,
			strconv.Itoa(s.Quantity),
			strconv.Itoa(s.UnitPrice),
			strconv.Itoa(s.ReorderPoint),
			s.LastUpdated.Format(models.DateLayout),
		})
	}
	return t
}
