package pipeline

import (
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/present"
	"strings"
)

// Severity levels of thresholded KPIs
const (
	LevelOK       = "ok"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// ------------------- KPIs -------------------

// ComputeKPIs evaluates the KPI cards over the filtered rows.
// A KPI whose columns are missing from the table is skipped with a reason.
func ComputeKPIs(t *model.Table, rows []model.Record, kpis []model.KPI) []model.KPIValue {
	out := make([]model.KPIValue, 0, len(kpis))
	for _, k := range kpis {
		v := model.KPIValue{ID: k.ID, Title: k.Title}
		if missing := MissingColumns(t, KPIColumns(k)); len(missing) > 0 {
			v.Skipped = true
			v.Reason = "missing column(s): " + strings.Join(missing, ", ")
			v.Text = "-"
			out = append(out, v)
			continue
		}
		out = append(out, computeKPI(k, rows))
	}
	return out
}

func computeKPI(k model.KPI, rows []model.Record) model.KPIValue {
	v := model.KPIValue{ID: k.ID, Title: k.Title, InInsight: k.InInsight}
	subset := filterWhere(rows, k.Where)

	switch k.Op {
	case OpCount:
		v.Value = float64(len(subset))
		v.Text = present.FormatNumber(v.Value, 0)
	case OpSum, OpMean:
		v.Value = reduce(subset, k.Column, k.Op)
		v.Text = present.FormatNumber(v.Value, k.Decimals)
		if k.Plan != "" {
			v.Plan = reduce(subset, k.Plan, k.Op)
			v.Delta = present.FormatDelta(v.Value-v.Plan, k.Decimals)
		}
	case OpPercent:
		v.Value = Percentage(float64(len(subset)), float64(len(rows)))
		v.Text = present.FormatPercent(v.Value)
	case OpTop:
		label, value, count := topGroup(subset, k.GroupBy, k.Column)
		v.Value = value
		v.TopLabel = label
		v.TopCount = count
		v.Text = label
		if label == "" {
			v.Text = "-"
		}
	}

	if k.Unit != "" && v.Text != "-" && k.Op != OpTop && k.Op != OpPercent {
		v.Text += " " + k.Unit
	}
	if k.Thresholds != nil {
		v.Level = Level(v.Value, *k.Thresholds)
	}
	return v
}

func reduce(rows []model.Record, col, op string) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.Number(col)
	}
	if op == OpMean {
		if len(rows) == 0 {
			return 0
		}
		return sum / float64(len(rows))
	}
	return sum
}

// topGroup returns the group with the highest sum of col (or row count when col
// is empty). Ties keep the first-seen group; empty labels are not ranked.
func topGroup(rows []model.Record, groupBy, col string) (label string, value float64, count int) {
	type acc struct {
		value float64
		count int
	}
	byLabel := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		key := r.Text(groupBy)
		if key == "" {
			continue
		}
		a, ok := byLabel[key]
		if !ok {
			a = &acc{}
			byLabel[key] = a
			order = append(order, key)
		}
		a.count++
		if col == "" {
			a.value++
		} else {
			a.value += r.Number(col)
		}
	}

	for _, key := range order {
		a := byLabel[key]
		if label == "" || a.value > value {
			label, value, count = key, a.value, a.count
		}
	}
	return label, value, count
}

// Level maps a value onto threshold severities
func Level(v float64, th model.Thresholds) string {
	switch {
	case v >= th.Critical:
		return LevelCritical
	case v >= th.Warning:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Insight is the one-line executive summary of a KPI set: the first
// thresholded KPI's level plus the main cause from the first "top" KPI.
func Insight(values []model.KPIValue) string {
	var parts []string
	for _, v := range values {
		if v.Level != "" && !v.Skipped {
			switch v.Level {
			case LevelCritical:
				parts = append(parts, fmt.Sprintf("🔴 %s is critical at %s", v.Title, v.Text))
			case LevelWarning:
				parts = append(parts, fmt.Sprintf("🟠 %s needs attention at %s", v.Title, v.Text))
			default:
				parts = append(parts, fmt.Sprintf("🟢 %s is under control at %s", v.Title, v.Text))
			}
			break
		}
	}
	for _, v := range values {
		if v.TopLabel != "" && !v.Skipped {
			parts = append(parts, fmt.Sprintf("main cause is %s (%d rows)", v.TopLabel, v.TopCount))
			break
		}
	}
	for _, v := range values {
		if v.InInsight && !v.Skipped && v.Value > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", v.Title, v.Text))
		}
	}
	return strings.Join(parts, "; ")
}
