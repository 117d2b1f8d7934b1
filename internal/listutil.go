package internal

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"plant-maint-api/internal/models"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit    int
	offset   int
	q        string
	category string
	sort     string
}

// parseListParams parses limit, offset, q, category, and sort.
// Defaults: limit=50 (max 200), offset=0.
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 50
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:    limit,
		offset:   offset,
		q:        strings.TrimSpace(values.Get("q")),
		category: strings.TrimSpace(values.Get("category")),
		sort:     strings.TrimSpace(values.Get("sort")),
	}
}

// page slices out the requested window after filtering, returning the
// window and the pre-page total.
func page[T any](items []T, p listParams) ([]T, int) {
	total := len(items)
	if p.offset >= total {
		return []T{}, total
	}
	end := p.offset + p.limit
	if end > total {
		end = total
	}
	return items[p.offset:end], total
}

// sortMaintenance orders records by the sort key ("date", "cost",
// "equipment"; '-' prefix for descending). Default is newest first, since
// the history view leads with recent work. Sorting is stable so rows with
// equal keys keep their table order.
func sortMaintenance(recs []models.MaintenanceRecord, key string) {
	if key == "" {
		key = "-date"
	}
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	less := func(a, b models.MaintenanceRecord) bool {
		switch key {
		case "cost":
			return a.Cost < b.Cost
		case "equipment":
			return a.EquipmentLabel < b.EquipmentLabel
		default:
			return a.InspectionDate.Before(b.InspectionDate)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if desc {
			return less(recs[j], recs[i])
		}
		return less(recs[i], recs[j])
	})
}

// sortStock orders items by "name", "quantity", or "updated" (default
// name ascending).
func sortStock(items []models.StockItem, key string) {
	if key == "" {
		key = "name"
	}
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	less := func(a, b models.StockItem) bool {
		switch key {
		case "quantity":
			return a.Quantity < b.Quantity
		case "updated":
			return a.LastUpdated.Before(b.LastUpdated)
		default:
			return a.PartName < b.PartName
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// listResponse is the standard list envelope.
type listResponse struct {
	Data interface{} `json:"data"`
	Meta listMeta    `json:"meta"`
}

type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func sendListResponse(w http.ResponseWriter, items interface{}, total int, p listParams) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(listResponse{
		Data: items,
		Meta: listMeta{Total: total, Limit: p.limit, Offset: p.offset},
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
