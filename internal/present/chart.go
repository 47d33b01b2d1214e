package present

import (
	"fmt"
	"go-prod-dashboard/internal/model"
	"math"
)

// ------------------- Chart Specs -------------------

// ToChartSpec shapes a grouped table into the chart a widget asks for
func ToChartSpec(g model.GroupedTable, w model.Widget) model.ChartSpec {
	spec := model.ChartSpec{
		Kind:  w.Kind,
		Title: w.Title,
		XName: w.XName,
		YName: w.YName,
	}
	value := w.Value
	if value == "" && len(g.Measures) > 0 {
		value = g.Measures[0]
	}

	switch w.Kind {
	case model.ChartPie, model.ChartDonut:
		for _, grp := range g.Groups {
			spec.Slices = append(spec.Slices, model.Slice{
				Name:  grp.Label,
				Value: groupValue(grp, value),
				Color: w.Colors[grp.Label],
			})
		}

	case model.ChartStackedBar:
		stackedSeries(&spec, g, w, value)

	case model.ChartLineSecondary:
		s0 := model.Series{Name: measureAt(g, 0), Axis: 0, Kind: "bar"}
		s1 := model.Series{Name: measureAt(g, 1), Axis: 1, Kind: "line"}
		for _, grp := range g.Groups {
			spec.Categories = append(spec.Categories, grp.Label)
			s0.Values = append(s0.Values, grp.Values[s0.Name])
			s1.Values = append(s1.Values, grp.Values[s1.Name])
		}
		spec.Series = []model.Series{s0, s1}

	default: // bar, horizontal-bar
		s := model.Series{Name: value, Kind: "bar"}
		withPercent := w.Group.Percent != nil
		for _, grp := range g.Groups {
			v := groupValue(grp, value)
			spec.Categories = append(spec.Categories, grp.Label)
			s.Values = append(s.Values, v)
			switch {
			case w.LabelMeasure != "":
				s.Labels = append(s.Labels, fmt.Sprintf("%s (%s)",
					withUnit(v, w.Units[value]), withUnit(grp.Values[w.LabelMeasure], w.Units[w.LabelMeasure])))
			case value == "percent":
				s.Labels = append(s.Labels, FormatPercent(v))
			case withPercent:
				s.Labels = append(s.Labels, BarLabel(v, grp.Percent, decimalsOf(v)))
			default:
				s.Labels = append(s.Labels, FormatNumber(v, decimalsOf(v)))
			}
			if len(w.Colors) > 0 {
				color := w.Colors[grp.Highlight]
				if c, ok := w.Colors[grp.Label]; ok {
					color = c
				}
				s.Colors = append(s.Colors, color)
			}
		}
		spec.Series = []model.Series{s}
	}
	return spec
}

// stackedSeries pivots (category, stack) groups: the first key becomes the
// axis and the second key one series per distinct value, both in group order
func stackedSeries(spec *model.ChartSpec, g model.GroupedTable, w model.Widget, value string) {
	catIndex := make(map[string]int)
	seriesIndex := make(map[string]int)
	for _, grp := range g.Groups {
		if len(grp.Key) < 2 {
			continue
		}
		if _, ok := catIndex[grp.Key[0]]; !ok {
			catIndex[grp.Key[0]] = len(spec.Categories)
			spec.Categories = append(spec.Categories, grp.Key[0])
		}
		if _, ok := seriesIndex[grp.Key[1]]; !ok {
			seriesIndex[grp.Key[1]] = len(spec.Series)
			spec.Series = append(spec.Series, model.Series{Name: grp.Key[1], Kind: "bar", Colors: colorOf(w, grp.Key[1])})
		}
	}
	for i := range spec.Series {
		spec.Series[i].Values = make([]float64, len(spec.Categories))
		spec.Series[i].Labels = make([]string, len(spec.Categories))
	}
	for _, grp := range g.Groups {
		if len(grp.Key) < 2 {
			continue
		}
		si, ci := seriesIndex[grp.Key[1]], catIndex[grp.Key[0]]
		v := groupValue(grp, value)
		spec.Series[si].Values[ci] = v
		if value == "percent" {
			spec.Series[si].Labels[ci] = FormatPercent(v)
		} else {
			spec.Series[si].Labels[ci] = FormatNumber(v, decimalsOf(v))
		}
	}
}

func colorOf(w model.Widget, name string) []string {
	if c, ok := w.Colors[name]; ok {
		return []string{c}
	}
	return nil
}

func groupValue(g model.Group, value string) float64 {
	if value == "percent" {
		return g.Percent
	}
	return g.Values[value]
}

func measureAt(g model.GroupedTable, i int) string {
	if i < len(g.Measures) {
		return g.Measures[i]
	}
	return ""
}

// decimalsOf shows whole numbers without decimals and everything else with one
func decimalsOf(v float64) int {
	if v == math.Trunc(v) {
		return 0
	}
	return 1
}

func withUnit(v float64, unit string) string {
	s := FormatNumber(v, decimalsOf(v))
	if unit != "" {
		s += " " + unit
	}
	return s
}
