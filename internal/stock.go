package internal

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"plant-maint-api/internal/models"
)

// listStock serves the inventory view. category=すべて (or empty) shows
// everything; any other value filters on the stored 分類.
func (s *Server) listStock(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	items, err := s.Gateway.Stock(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	filtered := items[:0:0]
	for _, it := range items {
		if params.q != "" && !strings.Contains(it.PartName, params.q) {
			continue
		}
		if params.category != "" && params.category != models.CategoryAll &&
			it.Category != params.category {
			continue
		}
		filtered = append(filtered, it)
	}

	sortStock(filtered, params.sort)
	window, total := page(filtered, params)
	sendListResponse(w, window, total, params)
}

// listLowStock returns items at or below their reorder point.
func (s *Server) listLowStock(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	items, err := s.Gateway.Stock(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	low := items[:0:0]
	for _, it := range items {
		if it.LowStock() {
			low = append(low, it)
		}
	}
	sortStock(low, params.sort)
	window, total := page(low, params)
	sendListResponse(w, window, total, params)
}

type stockRequest struct {
	Category     string `json:"category"`
	PartName     string `json:"part_name"`
	Quantity     int    `json:"quantity_on_hand"`
	UnitPrice    int    `json:"unit_price"`
	ReorderPoint *int   `json:"reorder_point,omitempty"`
}

// upsertStock creates or updates a stock row, keyed by part name as the
// registration form does. 201 on create, 200 on update.
func (s *Server) upsertStock(w http.ResponseWriter, r *http.Request) {
	var in stockRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidationError(w, "", "invalid JSON")
		return
	}
	in.PartName = strings.TrimSpace(in.PartName)
	if in.PartName == "" {
		writeValidationError(w, "part_name", "部品名 is required")
		return
	}
	if !models.ValidCategory(in.Category) {
		writeValidationError(w, "category", "unknown 分類: "+in.Category)
		return
	}
	if in.Quantity < 0 || in.UnitPrice < 0 {
		writeValidationError(w, "quantity_on_hand", "在庫数 and 単価 must not be negative")
		return
	}
	reorder := models.DefaultReorderPoint
	if in.ReorderPoint != nil {
		if *in.ReorderPoint < 0 {
			writeValidationError(w, "reorder_point", "発注点 must not be negative")
			return
		}
		reorder = *in.ReorderPoint
	}

	item := models.StockItem{
		Category:     in.Category,
		PartName:     in.PartName,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		ReorderPoint: reorder,
	}
	stored, created, err := s.Gateway.UpsertStock(r.Context(), item)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

func (s *Server) deleteStock(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if name == "" {
		writeValidationError(w, "part_name", "部品名 is required")
		return
	}
	if err := s.Gateway.DeleteStock(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
