// Package category derives a coarse equipment category from free-text
// labels for grouping only. Labels conventionally read "[分類] 詳細"; the
// derivation is lossy by design and never written back.
package category

import (
	"regexp"
	"sort"
	"strings"

	"plant-maint-api/internal/models"
)

var bracketed = regexp.MustCompile(`\[([^\]]*)\]`)

// Extract returns the first bracketed substring of label. Labels without a
// bracket prefix, or with empty brackets, resolve to その他; legacy data
// entered before the convention existed degrades there intentionally.
func Extract(label string) string {
	m := bracketed.FindStringSubmatch(label)
	if m == nil {
		return models.CategoryOther
	}
	c := strings.TrimSpace(m[1])
	if c == "" {
		return models.CategoryOther
	}
	return c
}

// Summarize groups records by extracted category, accumulating row count
// and total cost. Output order follows first appearance in the input so
// repeated runs over the same table are stable.
func Summarize(recs []models.MaintenanceRecord) []models.CategorySummary {
	idx := make(map[string]int)
	var out []models.CategorySummary
	for _, r := range recs {
		c := Extract(r.EquipmentLabel)
		i, ok := idx[c]
		if !ok {
			i = len(out)
			idx[c] = i
			out = append(out, models.CategorySummary{Category: c})
		}
		out[i].Count++
		out[i].TotalCost += r.Cost
	}
	return out
}

// MonthlyCosts aggregates cost per calendar month (YYYY-MM), sorted
// chronologically.
func MonthlyCosts(recs []models.MaintenanceRecord) []models.MonthlyCost {
	totals := make(map[string]int)
	for _, r := range recs {
		totals[r.InspectionDate.Format("2006-01")] += r.Cost
	}
	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]models.MonthlyCost, 0, len(months))
	for _, m := range months {
		out = append(out, models.MonthlyCost{Month: m, Cost: totals[m]})
	}
	return out
}
