package present

import (
	"go-prod-dashboard/internal/model"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "420px"
)

// ------------------- go-echarts Rendering -------------------

// RenderChartsPage writes every rendered widget of a result as one go-echarts page
func RenderChartsPage(w io.Writer, res *model.DashboardResult) error {
	page := components.NewPage()
	page.PageTitle = res.Title
	for _, wr := range res.Widgets {
		if wr.Skipped || wr.Chart == nil {
			continue
		}
		if c := RenderChart(*wr.Chart); c != nil {
			page.AddCharts(c)
		}
	}
	return page.Render(w)
}

// RenderChart converts a chart spec into a go-echarts chart
func RenderChart(spec model.ChartSpec) components.Charter {
	switch spec.Kind {
	case model.ChartPie, model.ChartDonut:
		return renderPie(spec)
	case model.ChartLineSecondary:
		return renderDualAxis(spec)
	case model.ChartBar, model.ChartHorizontalBar, model.ChartStackedBar:
		return renderBar(spec)
	}
	return nil
}

func globalOpts(spec model.ChartSpec, legend bool) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(legend), Top: "bottom"}),
	}
}

func renderBar(spec model.ChartSpec) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(spec, len(spec.Series) > 1)...)
	bar.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XName}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YName}),
		charts.WithGridOpts(opts.Grid{Left: "160", Bottom: "60"}),
	)
	bar.SetXAxis(spec.Categories)

	for _, s := range spec.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
			if i < len(s.Colors) && s.Colors[i] != "" && len(s.Colors) == len(s.Values) {
				data[i].ItemStyle = &opts.ItemStyle{Color: s.Colors[i]}
			}
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: labelPosition(spec.Kind)}),
		}
		if spec.Kind == model.ChartStackedBar {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
			if len(s.Colors) == 1 {
				seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Colors[0]}))
			}
		}
		bar.AddSeries(s.Name, data, seriesOpts...)
	}

	if spec.Kind == model.ChartHorizontalBar {
		bar.XYReversal()
	}
	return bar
}

func labelPosition(kind model.ChartKind) string {
	switch kind {
	case model.ChartHorizontalBar:
		return "right"
	case model.ChartStackedBar:
		return "inside"
	default:
		return "top"
	}
}

func renderPie(spec model.ChartSpec) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(spec, true)...)

	data := make([]opts.PieData, 0, len(spec.Slices))
	for _, s := range spec.Slices {
		d := opts.PieData{Name: s.Name, Value: s.Value}
		if s.Color != "" {
			d.ItemStyle = &opts.ItemStyle{Color: s.Color}
		}
		data = append(data, d)
	}

	radius := []string{"0%", "70%"}
	if spec.Kind == model.ChartDonut {
		radius = []string{"40%", "70%"}
	}
	pie.AddSeries(spec.Title, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: radius}),
		)
	return pie
}

// renderDualAxis draws the first series as bars on the left axis and the
// second as a line on a secondary right axis
func renderDualAxis(spec model.ChartSpec) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(spec, true)...)
	bar.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XName}),
		charts.WithYAxisOpts(opts.YAxis{Name: seriesName(spec, 0)}),
	)
	bar.ExtendYAxis(opts.YAxis{Name: seriesName(spec, 1), Position: "right"})
	bar.SetXAxis(spec.Categories)

	if len(spec.Series) > 0 {
		data := make([]opts.BarData, len(spec.Series[0].Values))
		for i, v := range spec.Series[0].Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(spec.Series[0].Name, data)
	}

	if len(spec.Series) > 1 {
		line := charts.NewLine()
		line.SetXAxis(spec.Categories)
		data := make([]opts.LineData, len(spec.Series[1].Values))
		for i, v := range spec.Series[1].Values {
			data[i] = opts.LineData{Value: v, YAxisIndex: 1}
		}
		line.AddSeries(spec.Series[1].Name, data,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1, Smooth: opts.Bool(true)}),
		)
		bar.Overlap(line)
	}
	return bar
}

func seriesName(spec model.ChartSpec, i int) string {
	if i < len(spec.Series) {
		return spec.Series[i].Name
	}
	return ""
}
