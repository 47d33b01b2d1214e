package pipeline

import (
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/pkg/utils"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ------------------- Filter Engine -------------------

// ValidateSelection rejects date ranges that end before they start
func ValidateSelection(sel model.Selection) error {
	if !sel.Start.IsZero() && !sel.End.IsZero() && utils.Day(sel.End).Before(utils.Day(sel.Start)) {
		return fmt.Errorf("%w: end %s is before start %s", model.ErrBadSelection,
			sel.End.Format("2006-01-02"), sel.Start.Format("2006-01-02"))
	}
	return nil
}

// Filter returns the records inside the selected date range (inclusive, by day)
// that match every non-empty categorical filter. Undated records never match.
// Filters on columns the table does not have are ignored.
func Filter(t *model.Table, sel model.Selection) []model.Record {
	if t == nil {
		return nil
	}

	var start, end time.Time
	if !sel.Start.IsZero() {
		start = utils.Day(sel.Start)
	}
	if !sel.End.IsZero() {
		end = utils.Day(sel.End)
	}

	active := make(map[string]map[string]bool)
	for _, col := range sel.Columns() {
		accepted := sel.Categories[col]
		if len(accepted) == 0 {
			continue
		}
		if !t.HasColumn(col) {
			log.Debug().Str("column", col).Msg("⚠️ Ignoring filter on missing column")
			continue
		}
		set := make(map[string]bool, len(accepted))
		for _, v := range accepted {
			set[v] = true
		}
		active[col] = set
	}

	out := make([]model.Record, 0, len(t.Records))
	for _, r := range t.Records {
		if !r.Dated {
			continue
		}
		day := utils.Day(r.Date)
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		if !matchSets(r, active) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchSets(r model.Record, sets map[string]map[string]bool) bool {
	for col, set := range sets {
		if !set[r.Text(col)] {
			return false
		}
	}
	return true
}

// matchWhere applies a widget or KPI pre-filter (column → accepted values)
func matchWhere(r model.Record, where map[string][]string) bool {
	for col, accepted := range where {
		if len(accepted) == 0 {
			continue
		}
		v := r.Text(col)
		found := false
		for _, a := range accepted {
			if v == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func filterWhere(rows []model.Record, where map[string][]string) []model.Record {
	if len(where) == 0 {
		return rows
	}
	out := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		if matchWhere(r, where) {
			out = append(out, r)
		}
	}
	return out
}

// FilterOptions lists the sorted distinct non-empty values of each filter column
func FilterOptions(t *model.Table, filters []model.FilterDef) []model.FilterOption {
	options := make([]model.FilterOption, 0, len(filters))
	for _, f := range filters {
		if !t.HasColumn(f.Column) {
			continue
		}
		seen := make(map[string]bool)
		values := []string{}
		for _, r := range t.Records {
			v := r.Text(f.Column)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)

		label := f.Label
		if label == "" {
			label = f.Column
		}
		options = append(options, model.FilterOption{Column: f.Column, Label: label, Values: values})
	}
	return options
}

// DefaultSelection is the selection used before the user picks anything:
// the last DefaultRangeDays days up to the latest record, or the full date span.
func DefaultSelection(t *model.Table, d model.Dashboard) model.Selection {
	sel := model.Selection{Period: d.DefaultPeriod}
	if sel.Period == "" {
		sel.Period = model.PeriodDaily
	}

	min, max, ok := t.DateBounds()
	if !ok {
		return sel
	}
	sel.Start, sel.End = utils.Day(min), utils.Day(max)
	if d.DefaultRangeDays > 0 {
		from := sel.End.AddDate(0, 0, -d.DefaultRangeDays)
		if from.After(sel.Start) {
			sel.Start = from
		}
	}
	return sel
}

// ResolveSelection fills the unset parts of a user selection from the defaults
func ResolveSelection(t *model.Table, d model.Dashboard, sel model.Selection) model.Selection {
	def := DefaultSelection(t, d)
	if sel.Start.IsZero() {
		sel.Start = def.Start
	}
	if sel.End.IsZero() {
		sel.End = def.End
	}
	if sel.Period == "" {
		sel.Period = def.Period
	}
	return sel
}
