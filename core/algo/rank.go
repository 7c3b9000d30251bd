package algo

import (
	"sort"

	"github.com/huangsam/filepulse/schema"
)

// RankRows sorts rows by neglect age in descending order and returns the
// top 'limit' rows. A non-positive limit returns every row. Ties are
// broken by path so the order is stable across runs.
func RankRows(rows []schema.ReportRow, limit int) []schema.ReportRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AgeDays != rows[j].AgeDays {
			return rows[i].AgeDays > rows[j].AgeDays
		}
		return rows[i].File.Path < rows[j].File.Path
	})
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// FilterBands keeps only rows whose band is in keep. An empty keep set
// returns rows unchanged.
func FilterBands(rows []schema.ReportRow, keep map[schema.Band]struct{}) []schema.ReportRow {
	if len(keep) == 0 {
		return rows
	}
	out := make([]schema.ReportRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := keep[r.Band]; ok {
			out = append(out, r)
		}
	}
	return out
}
