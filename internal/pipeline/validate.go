package pipeline

import (
	"errors"
	"fmt"
	"go-prod-dashboard/internal/model"
	"sort"
)

// ------------------- Column checks -------------------

// MissingColumns returns the columns of cols absent from the table header
func MissingColumns(t *model.Table, cols []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, c := range cols {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// GroupColumns lists the source columns a group step reads.
// The virtual period key maps to the dashboard date column.
func GroupColumns(spec model.GroupSpec, dateColumn string) []string {
	var cols []string
	for _, k := range spec.Keys {
		if k == model.PeriodKey {
			cols = append(cols, dateColumn)
			continue
		}
		cols = append(cols, k)
	}
	for _, m := range spec.Measures {
		if m.Op != OpCount {
			cols = append(cols, m.Column)
		}
	}
	cols = append(cols, sortedKeys(spec.Where)...)
	return cols
}

// KPIColumns lists the source columns a KPI reads
func KPIColumns(k model.KPI) []string {
	cols := []string{}
	if k.Op == OpSum || k.Op == OpMean || k.Op == OpTop {
		cols = append(cols, k.Column)
	}
	cols = append(cols, k.GroupBy, k.Plan)
	cols = append(cols, sortedKeys(k.Where)...)
	return cols
}

// ------------------- Definition checks -------------------

var validKinds = map[model.ChartKind]bool{
	model.ChartBar:           true,
	model.ChartHorizontalBar: true,
	model.ChartPie:           true,
	model.ChartDonut:         true,
	model.ChartStackedBar:    true,
	model.ChartLineSecondary: true,
}

// ValidateDashboard checks a dashboard definition for configuration mistakes
func ValidateDashboard(d model.Dashboard) error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if d.Source.URL == "" && d.Source.SheetID == "" {
		errs = append(errs, ErrNoSource)
	}
	if d.Source.URL == "" && d.Source.SheetName == "" && d.Source.GID == "" {
		errs = append(errs, errors.New("source needs a sheet name or gid"))
	}
	if d.Schema.DateColumn == "" {
		errs = append(errs, errors.New("schema has no date column"))
	}
	if d.DefaultPeriod != "" {
		if _, ok := model.ParsePeriod(string(d.DefaultPeriod)); !ok {
			errs = append(errs, fmt.Errorf("unknown default period %q", d.DefaultPeriod))
		}
	}

	for _, w := range d.Widgets {
		if !validKinds[w.Kind] {
			errs = append(errs, fmt.Errorf("widget %s: unknown chart kind %q", w.ID, w.Kind))
		}
		if len(w.Group.Keys) == 0 {
			errs = append(errs, fmt.Errorf("widget %s: no group keys", w.ID))
		}
		if len(w.Group.Measures) == 0 {
			errs = append(errs, fmt.Errorf("widget %s: no measures", w.ID))
		}
		for _, m := range w.Group.Measures {
			if err := validateMeasure(m); err != nil {
				errs = append(errs, fmt.Errorf("widget %s: %w", w.ID, err))
			}
		}
		if w.Kind == model.ChartStackedBar && len(w.Group.Keys) != 2 {
			errs = append(errs, fmt.Errorf("widget %s: stacked bars need two group keys", w.ID))
		}
		if w.LabelMeasure != "" && !hasMeasure(w.Group.Measures, w.LabelMeasure) {
			errs = append(errs, fmt.Errorf("widget %s: label measure %q is not a measure of the widget", w.ID, w.LabelMeasure))
		}
		if w.Kind == model.ChartLineSecondary && len(w.Group.Measures) < 2 {
			errs = append(errs, fmt.Errorf("widget %s: secondary-axis charts need two measures", w.ID))
		}
	}

	for _, k := range d.KPIs {
		switch k.Op {
		case OpCount, OpPercent:
		case OpSum, OpMean:
			if k.Column == "" {
				errs = append(errs, fmt.Errorf("kpi %s: %s needs a column", k.ID, k.Op))
			}
		case OpTop:
			if k.GroupBy == "" {
				errs = append(errs, fmt.Errorf("kpi %s: top needs group_by", k.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("kpi %s: unknown op %q", k.ID, k.Op))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("dashboard %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

func validateMeasure(m model.Measure) error {
	switch m.Op {
	case OpCount:
		return nil
	case OpSum, OpMean:
		if m.Column == "" {
			return fmt.Errorf("measure %s: %s needs a column", m.Name, m.Op)
		}
		return nil
	}
	return fmt.Errorf("measure %s: unknown op %q", m.Name, m.Op)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasMeasure(measures []model.Measure, name string) bool {
	for _, m := range measures {
		if MeasureName(m) == name {
			return true
		}
	}
	return false
}
