package present

import (
	"go-prod-dashboard/internal/model"
	"html/template"
	"io"
	"net/url"
	"time"
)

// PageData feeds the dashboard page template
type PageData struct {
	Result     *model.DashboardResult
	Dashboards []model.Dashboard
	ChartsURL  string
	ExportURL  string
	ReloadURL  string
	Query      url.Values
}

// Selected reports whether value is selected for column in the current query
func (p PageData) Selected(column, value string) bool {
	for _, v := range p.Query["f."+column] {
		if v == value {
			return true
		}
	}
	return false
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"iso": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04:05")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Result.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5rem; }
nav a { margin-right: 1rem; }
.warning { background: #fff3cd; border: 1px solid #ffe08a; padding: .75rem; margin: 1rem 0; }
.insight { padding: .75rem; margin: 1rem 0; background: #eef5ff; }
.kpis { display: flex; gap: 1rem; flex-wrap: wrap; }
.kpi { border: 1px solid #ddd; border-radius: 6px; padding: .75rem 1rem; min-width: 10rem; }
.kpi .value { font-size: 1.6rem; font-weight: bold; }
.kpi.critical { border-color: #d62728; }
.kpi.warning { border-color: #ff7f0e; }
.kpi.ok { border-color: #2ca02c; }
.skipped { color: #888; font-size: .85rem; }
table { border-collapse: collapse; margin-top: 1rem; font-size: .85rem; }
th, td { border: 1px solid #ddd; padding: .25rem .5rem; }
iframe { border: 0; width: 100%; height: 1400px; }
</style>
</head>
<body>
<nav>{{range .Dashboards}}<a href="/dashboards/{{.ID}}">{{.Title}}</a>{{end}}</nav>
<h1>{{.Result.Title}}</h1>
{{if .Result.Warning}}<div class="warning">⚠️ {{.Result.Warning}}</div>{{end}}

<form method="get">
  <label>From <input type="date" name="start" value="{{iso .Result.Selection.Start}}"></label>
  <label>To <input type="date" name="end" value="{{iso .Result.Selection.End}}"></label>
  <label>Period
    <select name="period">
      {{$period := .Result.Selection.Period}}
      {{range $p := .Periods}}<option value="{{$p}}"{{if eq (print $p) (print $period)}} selected{{end}}>{{$p}}</option>{{end}}
    </select>
  </label>
  {{$page := .}}
  {{range .Result.Options}}
  <label>{{.Label}}
    <select name="f.{{.Column}}" multiple size="4">
      {{$col := .Column}}
      {{range .Values}}<option value="{{.}}"{{if $page.Selected $col .}} selected{{end}}>{{.}}</option>{{end}}
    </select>
  </label>
  {{end}}
  <button type="submit">Apply</button>
  <a href="{{.ExportURL}}&format=csv">CSV</a>
  <a href="{{.ExportURL}}&format=xlsx">Excel</a>
</form>
<form method="post" action="{{.ReloadURL}}">
  <button type="submit">Clear cache and reload</button>
</form>

<p>{{.Result.FilteredRows}} of {{.Result.TotalRows}} rows{{with stamp .Result.FetchedAt}} · loaded {{.}}{{end}}</p>

<div class="kpis">
{{range .Result.KPIs}}
  <div class="kpi {{.Level}}">
    <div>{{.Title}}</div>
    <div class="value">{{.Text}}</div>
    {{if .Delta}}<div>vs plan {{.Delta}}</div>{{end}}
    {{if .Skipped}}<div class="skipped">{{.Reason}}</div>{{end}}
  </div>
{{end}}
</div>
{{if .Result.Insight}}<div class="insight">{{.Result.Insight}}</div>{{end}}

{{range .Result.Widgets}}{{if .Skipped}}<p class="skipped">{{.Title}}: {{.Reason}}</p>{{end}}{{end}}
<iframe src="{{.ChartsURL}}" title="charts"></iframe>

<h2>Data</h2>
<table>
  <thead><tr>{{range .Result.Table.Columns}}<th>{{.}}</th>{{end}}</tr></thead>
  <tbody>
  {{range .Result.Table.Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
  {{end}}
  </tbody>
</table>
</body>
</html>
`))

// Periods lists the selectable bucket sizes
func (p PageData) Periods() []model.Period {
	return []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly, model.PeriodYearly}
}

// RenderPage writes the HTML dashboard page
func RenderPage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}
