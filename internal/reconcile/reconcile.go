package reconcile

import (
	"strconv"
	"strings"
	"time"

	"plant-maint-api/internal/sheet"
)

// Stats reports what Repair had to fix. A non-zero Stats on a re-read of
// previously written data means the remote sheet was edited out-of-band.
type Stats struct {
	MissingColumns []string // expected columns absent from the input
	DroppedColumns []string // input columns outside the schema
	BadDates       int      // values rewritten to the run timestamp
	BadIntegers    int      // values rewritten to 0
	ScrubbedCells  int      // image artifacts rewritten to ""
}

// Dirty reports whether any repair was applied.
func (s Stats) Dirty() bool {
	return len(s.MissingColumns) > 0 || len(s.DroppedColumns) > 0 ||
		s.BadDates > 0 || s.BadIntegers > 0 || s.ScrubbedCells > 0
}

// dateFormats are tried in order by coerceDate. The canonical layout comes
// first so reconciled output re-parses on the fast path.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"2006年1月2日",
}

// Repair restricts and reorders t to exactly the schema's columns and
// coerces every cell to its column's canonical form. Missing columns are
// materialized with defaults, extra columns dropped silently, and an empty
// input still yields the full column set. now is the reconciliation
// timestamp used as the sentinel for unparseable dates.
//
// Repair is pure and idempotent: repairing its own output is the identity.
func Repair(t sheet.Table, s Schema, now time.Time) (sheet.Table, Stats) {
	var stats Stats

	// Map each schema column to its position in the input, honoring
	// aliases and ignoring surrounding whitespace in headers.
	srcIdx := make([]int, len(s.Columns))
	matched := make([]bool, len(t.Columns))
	for i, col := range s.Columns {
		srcIdx[i] = -1
		for j, header := range t.Columns {
			if headerMatches(col, header) {
				srcIdx[i] = j
				matched[j] = true
				break
			}
		}
		if srcIdx[i] < 0 {
			stats.MissingColumns = append(stats.MissingColumns, col.Name)
		}
	}
	for j, header := range t.Columns {
		if !matched[j] {
			stats.DroppedColumns = append(stats.DroppedColumns, header)
		}
	}

	out := sheet.Table{Columns: s.Names(), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		cells := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			raw := ""
			if j := srcIdx[i]; j >= 0 && j < len(row) {
				raw = row[j]
			}
			cells[i] = coerce(col.Kind, raw, now, &stats)
		}
		out.Rows[r] = cells
	}
	return out, stats
}

func headerMatches(col Column, header string) bool {
	h := strings.TrimSpace(header)
	if h == col.Name {
		return true
	}
	for _, a := range col.Aliases {
		if h == a {
			return true
		}
	}
	return false
}

func coerce(kind Kind, raw string, now time.Time, stats *Stats) string {
	switch kind {
	case Date:
		return coerceDate(raw, now, stats)
	case Integer:
		return strconv.Itoa(coerceInt(raw, stats))
	case Image:
		return coerceImage(raw, stats)
	default:
		return raw
	}
}

// coerceDate parses leniently and falls back to the run timestamp. The
// fallback silently rewrites bad historical dates on every re-save; the
// caller is expected to log Stats.BadDates so those rewrites leave a trace.
func coerceDate(raw string, now time.Time, stats *Stats) string {
	v := strings.TrimSpace(raw)
	if v != "" {
		for _, layout := range dateFormats {
			if d, err := time.Parse(layout, v); err == nil {
				return d.Format("2006-01-02")
			}
		}
	}
	stats.BadDates++
	return now.Format("2006-01-02")
}

func coerceInt(raw string, stats *Stats) int {
	v := strings.TrimSpace(raw)
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimPrefix(v, "¥")
	if v == "" {
		stats.BadIntegers++
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			stats.BadIntegers++
			return 0
		}
		return n
	}
	// The sheet backend renders numeric cells as floats ("12000.0").
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f < 0 {
			stats.BadIntegers++
			return 0
		}
		return int(f)
	}
	stats.BadIntegers++
	return 0
}

// imageArtifacts are values the number-vs-text ambiguity of the remote
// store produces in an empty image cell; none of them is real image data.
var imageArtifacts = map[string]bool{
	"0": true, "0.0": true, "nan": true, "NaN": true, "None": true, "null": true,
}

func coerceImage(raw string, stats *Stats) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if imageArtifacts[v] {
		stats.ScrubbedCells++
		return ""
	}
	return v
}
