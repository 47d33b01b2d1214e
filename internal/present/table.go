package present

import (
	"go-prod-dashboard/internal/model"
	"sort"
)

// ToDisplayTable renders the filtered rows as the raw-data table: the given
// columns that exist in the source, newest first with undated rows last.
func ToDisplayTable(t *model.Table, rows []model.Record, columns []string, dateColumn string) model.DisplayTable {
	out := model.DisplayTable{Columns: []string{}, Rows: [][]string{}}
	for _, c := range columns {
		if t.HasColumn(c) {
			out.Columns = append(out.Columns, c)
		}
	}

	sorted := make([]model.Record, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Dated != b.Dated {
			return a.Dated
		}
		return a.Date.After(b.Date)
	})

	for _, r := range sorted {
		row := make([]string, len(out.Columns))
		for i, c := range out.Columns {
			if c == dateColumn && r.Dated {
				row[i] = FormatDate(r.Date)
				continue
			}
			row[i] = r.Text(c)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
