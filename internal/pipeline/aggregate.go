package pipeline

import (
	"fmt"
	"go-prod-dashboard/internal/model"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Aggregation ops, shared by measures and KPIs
const (
	OpSum     = "sum"
	OpCount   = "count"
	OpMean    = "mean"
	OpPercent = "percent"
	OpTop     = "top"
)

// Percent bases
const (
	BaseMeasure = "measure"
	BaseRows    = "rows"
)

// ValuePercent is the pseudo-measure name that selects Group.Percent
const ValuePercent = "percent"

const keySep = "\x1f"

// groupAcc accumulates one group while scanning rows
type groupAcc struct {
	group model.Group
	sums  map[string]float64
}

// MeasureName is the output name of a measure, defaulting to "<op>_<column>"
func MeasureName(m model.Measure) string {
	if m.Name != "" {
		return m.Name
	}
	if m.Op == OpCount {
		return OpCount
	}
	return m.Op + "_" + m.Column
}

// ------------------- Aggregator -------------------

// Aggregate groups rows by spec.Keys and computes each measure per group.
// Groups come out in first-seen order, then sorted, ranked, truncated and
// ordered as the GroupSpec says. rows is not modified.
func Aggregate(rows []model.Record, spec model.GroupSpec, period model.Period) model.GroupedTable {
	if period == "" {
		period = model.PeriodDaily
	}
	subset := filterWhere(rows, spec.Where)

	out := model.GroupedTable{
		Keys:   spec.Keys,
		Period: period,
		Base:   len(rows),
		Groups: []model.Group{},
	}
	for _, m := range spec.Measures {
		out.Measures = append(out.Measures, MeasureName(m))
	}

	// each summed column is accumulated once, however many measures read it
	var sumCols []string
	seen := make(map[string]bool)
	for _, m := range spec.Measures {
		if (m.Op == OpSum || m.Op == OpMean) && !seen[m.Column] {
			seen[m.Column] = true
			sumCols = append(sumCols, m.Column)
		}
	}

	byKey := make(map[string]*groupAcc)
	var order []*groupAcc
	for _, r := range subset {
		key, periodStart, ok := groupKey(r, spec.Keys, period)
		if !ok {
			continue
		}
		id := strings.Join(key, keySep)
		acc, exists := byKey[id]
		if !exists {
			acc = &groupAcc{
				group: model.Group{
					Key:         key,
					Label:       strings.Join(key, " / "),
					PeriodStart: periodStart,
					Values:      make(map[string]float64, len(spec.Measures)),
				},
				sums: make(map[string]float64),
			}
			byKey[id] = acc
			order = append(order, acc)
		}
		acc.group.Count++
		for _, c := range sumCols {
			acc.sums[c] += r.Number(c)
		}
	}

	groups := make([]model.Group, 0, len(order))
	for _, acc := range order {
		g := acc.group
		for _, m := range spec.Measures {
			g.Values[MeasureName(m)] = measureValue(m, acc)
		}
		groups = append(groups, g)
	}

	if spec.Percent != nil {
		applyPercent(groups, spec, out.Base)
	}

	sortGroups(groups, spec)

	for i := range groups {
		groups[i].Rank = i + 1
		if spec.HighlightTop > 0 {
			if groups[i].Rank <= spec.HighlightTop {
				groups[i].Highlight = fmt.Sprintf("Top %d", spec.HighlightTop)
			} else {
				groups[i].Highlight = "Others"
			}
		}
	}

	if spec.TopN > 0 && len(groups) > spec.TopN {
		groups = groups[:spec.TopN]
	}

	if strings.EqualFold(spec.Order, "asc") {
		for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
			groups[i], groups[j] = groups[j], groups[i]
		}
	}

	out.Groups = groups
	return out
}

// groupKey builds the key tuple of a record; undated records have no period key
func groupKey(r model.Record, keys []string, period model.Period) ([]string, time.Time, bool) {
	key := make([]string, len(keys))
	var periodStart time.Time
	for i, k := range keys {
		if k == model.PeriodKey {
			if !r.Dated {
				return nil, time.Time{}, false
			}
			periodStart = BucketStart(r.Date, period)
			key[i] = BucketLabel(periodStart, period)
			continue
		}
		key[i] = r.Text(k)
	}
	return key, periodStart, true
}

func measureValue(m model.Measure, acc *groupAcc) float64 {
	switch m.Op {
	case OpSum:
		return acc.sums[m.Column]
	case OpMean:
		if acc.group.Count == 0 {
			return 0
		}
		return acc.sums[m.Column] / float64(acc.group.Count)
	default:
		return float64(acc.group.Count)
	}
}

// ------------------- Percentages -------------------

// applyPercent sets Group.Percent to the group's share of its partition total
// (or of the input row count for BaseRows)
func applyPercent(groups []model.Group, spec model.GroupSpec, rowBase int) {
	p := spec.Percent
	name := p.Measure
	if name == "" && len(spec.Measures) > 0 {
		name = MeasureName(spec.Measures[0])
	}

	if p.Base == BaseRows {
		for i := range groups {
			groups[i].Percent = Percentage(groups[i].Values[name], float64(rowBase))
		}
		return
	}

	var within []int
	for _, w := range p.Within {
		for i, k := range spec.Keys {
			if k == w {
				within = append(within, i)
			}
		}
	}
	partition := func(g model.Group) string {
		parts := make([]string, len(within))
		for i, idx := range within {
			parts[i] = g.Key[idx]
		}
		return strings.Join(parts, keySep)
	}

	totals := make(map[string]float64)
	for _, g := range groups {
		totals[partition(g)] += g.Values[name]
	}
	for i := range groups {
		groups[i].Percent = Percentage(groups[i].Values[name], totals[partition(groups[i])])
	}
}

// Percentage returns value/base*100 rounded to one decimal, half away from zero.
// A zero base yields 0.
func Percentage(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return Round1(value / base * 100)
}

// Round1 rounds to one decimal place, half away from zero
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// ------------------- Sorting -------------------

func sortGroups(groups []model.Group, spec model.GroupSpec) {
	hasPeriod := false
	for _, k := range spec.Keys {
		if k == model.PeriodKey {
			hasPeriod = true
		}
	}

	keyRank := make(map[string]int, len(spec.KeyOrder))
	for i, v := range spec.KeyOrder {
		keyRank[v] = i
	}
	lastKeyRank := func(g model.Group) int {
		if len(keyRank) == 0 || len(g.Key) == 0 {
			return 0
		}
		if r, ok := keyRank[g.Key[len(g.Key)-1]]; ok {
			return r
		}
		return len(keyRank)
	}

	sortBy := spec.SortBy
	if sortBy == "" && hasPeriod {
		sortBy = model.PeriodKey
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		switch sortBy {
		case "":
		case model.PeriodKey:
			if !a.PeriodStart.Equal(b.PeriodStart) {
				if spec.Descending {
					return a.PeriodStart.After(b.PeriodStart)
				}
				return a.PeriodStart.Before(b.PeriodStart)
			}
		default:
			av, bv := sortValue(a, sortBy), sortValue(b, sortBy)
			if av != bv {
				if spec.Descending {
					return av > bv
				}
				return av < bv
			}
		}
		return lastKeyRank(a) < lastKeyRank(b)
	})
}

func sortValue(g model.Group, name string) float64 {
	if name == ValuePercent {
		return g.Percent
	}
	if name == OpCount {
		if v, ok := g.Values[name]; ok {
			return v
		}
		return float64(g.Count)
	}
	return g.Values[name]
}
