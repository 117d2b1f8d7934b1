package internal

import (
	"net/http"

	"plant-maint-api/internal/category"
)

// categorySummary serves the dashboard's per-category grouping: row count
// and total cost per extracted category.
func (s *Server) categorySummary(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Gateway.Maintenance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": category.Summarize(recs),
	})
}

// monthlyCosts serves the dashboard's cost time series, one point per
// calendar month.
func (s *Server) monthlyCosts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Gateway.Maintenance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": category.MonthlyCosts(recs),
	})
}
