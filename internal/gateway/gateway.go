// Package gateway is the only path between in-memory edits and the remote
// store. Every mutation follows the same cycle: read the whole table,
// reconcile it, apply one row-level edit in memory, then submit the whole
// table back. The store never merges; after a successful call its contents
// equal the submitted snapshot exactly. Two concurrent editors therefore
// race last-writer-wins; that hazard is inherent to the storage model and
// deliberately not papered over here.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"plant-maint-api/internal/models"
	"plant-maint-api/internal/reconcile"
	"plant-maint-api/internal/sheet"
)

// ErrNotFound is returned when the keyed row is absent from the table.
var ErrNotFound = errors.New("record not found")

type Gateway struct {
	store sheet.Store
	log   *zap.Logger

	// now stands in for time.Now so tests can pin the reconciliation
	// timestamp and the stock last-updated date.
	now func() time.Time
}

func New(store sheet.Store, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{store: store, log: log, now: time.Now}
}

// WithClock overrides the gateway's clock. Test use only.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Maintenance loads and reconciles the maintenance table.
func (g *Gateway) Maintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	t, err := g.loadRepaired(ctx, sheet.MaintenanceTable, reconcile.Maintenance)
	if err != nil {
		return nil, err
	}
	return reconcile.DecodeMaintenance(t), nil
}

// Stock loads and reconciles the stock table.
func (g *Gateway) Stock(ctx context.Context) ([]models.StockItem, error) {
	t, err := g.loadRepaired(ctx, sheet.StockTable, reconcile.Stock)
	if err != nil {
		return nil, err
	}
	return reconcile.DecodeStock(t), nil
}

func (g *Gateway) loadRepaired(ctx context.Context, table string, schema reconcile.Schema) (sheet.Table, error) {
	raw, err := g.store.Read(ctx, table)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("load %s: %w", table, err)
	}
	repaired, stats := reconcile.Repair(raw, schema, g.now())
	if stats.Dirty() {
		// Bad dates are rewritten to today on the next save; surface them
		// so silently corrupted history is at least traceable.
		g.log.Warn("reconciliation repaired remote data",
			zap.String("table", table),
			zap.Strings("missing_columns", stats.MissingColumns),
			zap.Strings("dropped_columns", stats.DroppedColumns),
			zap.Int("bad_dates", stats.BadDates),
			zap.Int("bad_integers", stats.BadIntegers),
			zap.Int("scrubbed_cells", stats.ScrubbedCells),
		)
	}
	return repaired, nil
}

// InsertMaintenance appends one record and persists the full table.
func (g *Gateway) InsertMaintenance(ctx context.Context, rec models.MaintenanceRecord) error {
	recs, err := g.Maintenance(ctx)
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	return g.replaceMaintenance(ctx, recs)
}

// UpdateMaintenance overwrites the edited fields of the row the key
// identifies, leaving all other rows and the row order untouched.
func (g *Gateway) UpdateMaintenance(ctx context.Context, key models.MaintenanceKey, upd models.MaintenanceUpdate) error {
	recs, err := g.Maintenance(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range recs {
		if !recs[i].Matches(key) {
			continue
		}
		applyUpdate(&recs[i], upd)
		found = true
		break
	}
	if !found {
		return fmt.Errorf("%w: %s %s", ErrNotFound,
			key.InspectionDate.Format(models.DateLayout), key.EquipmentLabel)
	}
	return g.replaceMaintenance(ctx, recs)
}

// DeleteMaintenance filters the keyed row out and persists the remainder.
func (g *Gateway) DeleteMaintenance(ctx context.Context, key models.MaintenanceKey) error {
	recs, err := g.Maintenance(ctx)
	if err != nil {
		return err
	}
	kept := recs[:0]
	removed := 0
	for _, r := range recs {
		if removed == 0 && r.Matches(key) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound,
			key.InspectionDate.Format(models.DateLayout), key.EquipmentLabel)
	}
	return g.replaceMaintenance(ctx, kept)
}

func applyUpdate(r *models.MaintenanceRecord, upd models.MaintenanceUpdate) {
	if upd.EquipmentLabel != nil {
		r.EquipmentLabel = *upd.EquipmentLabel
	}
	if upd.InspectionDate != nil {
		r.InspectionDate = *upd.InspectionDate
	}
	if upd.WorkDescription != nil {
		r.WorkDescription = *upd.WorkDescription
	}
	if upd.Cost != nil {
		r.Cost = *upd.Cost
	}
	if upd.Notes != nil {
		r.Notes = *upd.Notes
	}
	if upd.Images != nil {
		r.Images = *upd.Images
	}
}

func (g *Gateway) replaceMaintenance(ctx context.Context, recs []models.MaintenanceRecord) error {
	if err := g.store.Replace(ctx, sheet.MaintenanceTable, reconcile.EncodeMaintenance(recs)); err != nil {
		return fmt.Errorf("persist %s: %w", sheet.MaintenanceTable, err)
	}
	return nil
}

// UpsertStock updates the first row whose 部品名 matches, or appends a new
// row, and returns the item as persisted (最終更新日 stamped with the
// operation date) plus whether a new row was created. Duplicate part names
// can only arrive from the remote sheet; the first match wins and siblings
// stay untouched.
func (g *Gateway) UpsertStock(ctx context.Context, item models.StockItem) (models.StockItem, bool, error) {
	items, err := g.Stock(ctx)
	if err != nil {
		return item, false, err
	}
	item.LastUpdated = g.now()
	created := true
	for i := range items {
		if items[i].PartName != item.PartName {
			continue
		}
		items[i].Category = item.Category
		items[i].Quantity = item.Quantity
		items[i].UnitPrice = item.UnitPrice
		items[i].ReorderPoint = item.ReorderPoint
		items[i].LastUpdated = item.LastUpdated
		created = false
		break
	}
	if created {
		items = append(items, item)
	}
	if err := g.replaceStock(ctx, items); err != nil {
		return item, false, err
	}
	return item, created, nil
}

// DeleteStock removes the first row with the given part name.
func (g *Gateway) DeleteStock(ctx context.Context, partName string) error {
	items, err := g.Stock(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	removed := 0
	for _, it := range items {
		if removed == 0 && it.PartName == partName {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, partName)
	}
	return g.replaceStock(ctx, kept)
}

func (g *Gateway) replaceStock(ctx context.Context, items []models.StockItem) error {
	if err := g.store.Replace(ctx, sheet.StockTable, reconcile.EncodeStock(items)); err != nil {
		return fmt.Errorf("persist %s: %w", sheet.StockTable, err)
	}
	return nil
}
