package model

import "time"

// Group is one row of a grouped table
type Group struct {
	Key         []string           `json:"key"`
	Label       string             `json:"label"`
	PeriodStart time.Time          `json:"period_start,omitempty"`
	Count       int                `json:"count"`
	Values      map[string]float64 `json:"values"`
	Percent     float64            `json:"percent,omitempty"`
	Rank        int                `json:"rank"`
	Highlight   string             `json:"highlight,omitempty"`
}

// GroupedTable is the output of one group-and-aggregate step
type GroupedTable struct {
	Keys     []string `json:"keys"`
	Measures []string `json:"measures"`
	Period   Period   `json:"period,omitempty"`
	Groups   []Group  `json:"groups"`
	// Base is the row count of the pre-filtered subset the groups were built from
	Base int `json:"base"`
}

// Series is one named value sequence of a chart
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Labels []string  `json:"labels,omitempty"`
	Axis   int       `json:"axis"` // 0 = primary, 1 = secondary
	Kind   string    `json:"kind,omitempty"`
	Colors []string  `json:"colors,omitempty"`
}

// Slice is one sector of a pie or donut
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ChartSpec is a rendering-neutral chart description
type ChartSpec struct {
	Kind       ChartKind `json:"kind"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Slices     []Slice   `json:"slices,omitempty"`
	XName      string    `json:"x_name,omitempty"`
	YName      string    `json:"y_name,omitempty"`
}

// DisplayTable is the raw-rows table shown under the charts
type DisplayTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	// Numeric marks the columns declared as numbers, in Columns order
	Numeric []bool `json:"numeric,omitempty"`
}

// KPIValue is a computed KPI card
type KPIValue struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
	Plan     float64 `json:"plan,omitempty"`
	Delta    string  `json:"delta,omitempty"`
	Level    string  `json:"level,omitempty"` // ok, warning, critical
	TopLabel string  `json:"top_label,omitempty"`
	TopCount int     `json:"top_count,omitempty"`
	Skipped  bool    `json:"skipped,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	// InInsight mirrors KPI.InInsight
	InInsight bool `json:"in_insight,omitempty"`
}

// WidgetResult is one computed chart
type WidgetResult struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Kind    ChartKind     `json:"kind"`
	Grouped *GroupedTable `json:"grouped,omitempty"`
	Chart   *ChartSpec    `json:"chart,omitempty"`
	Skipped bool          `json:"skipped,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "xlsx", "html"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// StageTiming is the wall time of one pipeline stage
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	Records    int    `json:"records"`
}

// DashboardResult is everything one dashboard view shows
type DashboardResult struct {
	DashboardID  string         `json:"dashboard_id"`
	Title        string         `json:"title"`
	Warning      string         `json:"warning,omitempty"`
	LoadError    string         `json:"load_error,omitempty"`
	Insight      string         `json:"insight,omitempty"`
	Cached       bool           `json:"cached"`
	FetchedAt    time.Time      `json:"fetched_at,omitempty"`
	TotalRows    int            `json:"total_rows"`
	FilteredRows int            `json:"filtered_rows"`
	Selection    Selection      `json:"selection"`
	Options      []FilterOption `json:"options"`
	KPIs         []KPIValue     `json:"kpis"`
	Widgets      []WidgetResult `json:"widgets"`
	Table        DisplayTable   `json:"table"`
	Stages       []StageTiming  `json:"stages,omitempty"`

	// Rows are the filtered records behind the view, kept for exports
	Rows []Record `json:"-"`
}
