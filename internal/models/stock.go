package models

import "time"

// DefaultReorderPoint is applied when a stock row arrives without one.
const DefaultReorderPoint = 5

// StockItem is one row of the stock_data table after reconciliation.
// PartName is the lookup key; uniqueness is advisory only (the remote
// sheet can hold duplicates, in which case the first match wins).
type StockItem struct {
	Category     string    `json:"category"`
	PartName     string    `json:"part_name"`
	Quantity     int       `json:"quantity_on_hand"`
	UnitPrice    int       `json:"unit_price"`
	ReorderPoint int       `json:"reorder_point"`
	LastUpdated  time.Time `json:"last_updated"`
}

// LowStock reports whether the item is at or below its reorder point.
func (s StockItem) LowStock() bool {
	return s.Quantity <= s.ReorderPoint
}
