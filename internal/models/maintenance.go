package models

import "time"

// MaintenanceRecord is one row of the maintenance_data table after
// reconciliation. Every field is populated; InspectionDate is never zero.
type MaintenanceRecord struct {
	EquipmentLabel  string    `json:"equipment_label"`
	InspectionDate  time.Time `json:"inspection_date"`
	WorkDescription string    `json:"work_description"`
	Cost            int       `json:"cost"`
	Notes           string    `json:"notes"`
	Images          string    `json:"images,omitempty"` // packed cell, see imagecodec
}

// Key identifies a maintenance record within its table. The source data has
// no surrogate id, so the date plus the equipment label acts as the row key.
type MaintenanceKey struct {
	InspectionDate time.Time
	EquipmentLabel string
}

// Key returns the record's composite key.
func (r MaintenanceRecord) Key() MaintenanceKey {
	return MaintenanceKey{InspectionDate: r.InspectionDate, EquipmentLabel: r.EquipmentLabel}
}

// Matches reports whether the record is the row the key identifies.
// Dates compare by calendar day, not instant.
func (r MaintenanceRecord) Matches(k MaintenanceKey) bool {
	return r.EquipmentLabel == k.EquipmentLabel &&
		r.InspectionDate.Format(DateLayout) == k.InspectionDate.Format(DateLayout)
}

// DateLayout is the canonical date form used in both tables.
const DateLayout = "2006-01-02"

// MaintenanceUpdate carries the edited fields of an update; nil pointers
// leave the stored value untouched.
type MaintenanceUpdate struct {
	EquipmentLabel  *string    `json:"equipment_label,omitempty"`
	InspectionDate  *time.Time `json:"inspection_date,omitempty"`
	WorkDescription *string    `json:"work_description,omitempty"`
	Cost            *int       `json:"cost,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Images          *string    `json:"images,omitempty"`
}

// CategorySummary is the per-category aggregation shown on the dashboard.
// It is derived on read and never persisted.
type CategorySummary struct {
	Category  string `json:"category"`
	Count     int    `json:"count"`
	TotalCost int    `json:"total_cost"`
}

// MonthlyCost is one point of the dashboard cost series.
type MonthlyCost struct {
	Month string `json:"month"` // YYYY-MM
	Cost  int    `json:"cost"`
}
