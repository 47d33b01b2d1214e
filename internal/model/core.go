package model

import (
	"strings"
	"time"
)

// ColumnType is the declared type of a source column
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
)

// Date orders accepted by date columns
const (
	DateOrderDMY = "dmy"
	DateOrderMDY = "mdy"
)

// PeriodKey is the virtual group key that buckets rows by the dashboard date column
const PeriodKey = "period"

// Period is a temporal bucket size for trend views
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod accepts the period names used in query strings and config files.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodDaily, "day", "d":
		return PeriodDaily, true
	case PeriodWeekly, "week", "w":
		return PeriodWeekly, true
	case PeriodMonthly, "month", "m":
		return PeriodMonthly, true
	case PeriodYearly, "year", "y":
		return PeriodYearly, true
	}
	return "", false
}

// ChartKind selects how a grouped table is drawn
type ChartKind string

const (
	ChartBar           ChartKind = "bar"
	ChartHorizontalBar ChartKind = "horizontal-bar"
	ChartPie           ChartKind = "pie"
	ChartDonut         ChartKind = "donut"
	ChartStackedBar    ChartKind = "stacked-bar"
	ChartLineSecondary ChartKind = "line-with-secondary-axis"
)

// Column declares one expected source column
type Column struct {
	Name      string     `yaml:"name" json:"name"`
	Type      ColumnType `yaml:"type" json:"type"`
	DateOrder string     `yaml:"date_order,omitempty" json:"date_order,omitempty"` // dmy (default) or mdy
}

// Schema lists the columns a dashboard depends on. Columns not listed are kept as text.
type Schema struct {
	DateColumn string   `yaml:"date_column" json:"date_column"`
	Columns    []Column `yaml:"columns" json:"columns"`
}

// Lookup returns the declared column with the given name
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Source identifies the spreadsheet tab a dashboard reads
type Source struct {
	SheetID   string `yaml:"sheet_id" json:"sheet_id"`
	SheetName string `yaml:"sheet_name,omitempty" json:"sheet_name,omitempty"`
	GID       string `yaml:"gid,omitempty" json:"gid,omitempty"`
	URL       string `yaml:"url,omitempty" json:"url,omitempty"` // overrides the spreadsheet export URL
}

// Key is the cache key of the source: (source id, sheet ref)
func (s Source) Key() string {
	if s.URL != "" {
		return "url:" + s.URL
	}
	ref := s.SheetName
	if s.GID != "" {
		ref = "gid=" + s.GID
	}
	return s.SheetID + "|" + ref
}

// FilterDef is a categorical multi-select filter
type FilterDef struct {
	Column string `yaml:"column" json:"column"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Measure is one aggregated value per group
type Measure struct {
	Name   string `yaml:"name" json:"name"`
	Op     string `yaml:"op" json:"op"` // sum, count, mean
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
}

// Percent derives a percentage column from a measure
type Percent struct {
	Measure string   `yaml:"measure" json:"measure"`
	Within  []string `yaml:"within,omitempty" json:"within,omitempty"` // partition keys; empty = all groups
	Base    string   `yaml:"base,omitempty" json:"base,omitempty"`     // "measure" (default) or "rows"
}

// GroupSpec describes one group-and-aggregate step
type GroupSpec struct {
	Keys         []string            `yaml:"keys" json:"keys"`
	Measures     []Measure           `yaml:"measures" json:"measures"`
	Where        map[string][]string `yaml:"where,omitempty" json:"where,omitempty"`
	Percent      *Percent            `yaml:"percent,omitempty" json:"percent,omitempty"`
	SortBy       string              `yaml:"sort_by,omitempty" json:"sort_by,omitempty"` // measure name or "period"
	Descending   bool                `yaml:"descending,omitempty" json:"descending,omitempty"`
	TopN         int                 `yaml:"top_n,omitempty" json:"top_n,omitempty"`
	Order        string              `yaml:"order,omitempty" json:"order,omitempty"` // final order: "asc" reverses the ranked list
	HighlightTop int                 `yaml:"highlight_top,omitempty" json:"highlight_top,omitempty"`
	KeyOrder     []string            `yaml:"key_order,omitempty" json:"key_order,omitempty"` // fixed order for the last key (stack order)
}

// Widget is one chart on a dashboard
type Widget struct {
	ID    string    `yaml:"id" json:"id"`
	Title string    `yaml:"title" json:"title"`
	Kind  ChartKind `yaml:"kind" json:"kind"`
	Group GroupSpec `yaml:"group" json:"group"`
	// Value is the measure drawn by the chart; defaults to the first measure,
	// "percent" draws the derived percentage.
	Value  string            `yaml:"value,omitempty" json:"value,omitempty"`
	Colors map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`
	XName  string            `yaml:"x_name,omitempty" json:"x_name,omitempty"`
	YName  string            `yaml:"y_name,omitempty" json:"y_name,omitempty"`
	// LabelMeasure adds a second measure to bar labels: "<value> (<label measure>)"
	LabelMeasure string `yaml:"label_measure,omitempty" json:"label_measure,omitempty"`
	// Units are label suffixes by measure name
	Units map[string]string `yaml:"units,omitempty" json:"units,omitempty"`
}

// Thresholds turn a KPI value into a severity level
type Thresholds struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// KPI is one headline card
type KPI struct {
	ID         string              `yaml:"id" json:"id"`
	Title      string              `yaml:"title" json:"title"`
	Op         string              `yaml:"op" json:"op"` // count, sum, mean, percent, top
	Column     string              `yaml:"column,omitempty" json:"column,omitempty"`
	GroupBy    string              `yaml:"group_by,omitempty" json:"group_by,omitempty"` // for "top"
	Where      map[string][]string `yaml:"where,omitempty" json:"where,omitempty"`
	Plan       string              `yaml:"plan,omitempty" json:"plan,omitempty"` // plan column for actual-vs-plan
	Unit       string              `yaml:"unit,omitempty" json:"unit,omitempty"`
	Decimals   int                 `yaml:"decimals,omitempty" json:"decimals,omitempty"`
	Thresholds *Thresholds         `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	// InInsight adds the value to the insight line when it is positive
	InInsight bool `yaml:"in_insight,omitempty" json:"in_insight,omitempty"`
}

// Dashboard is the full definition of one dashboard. One pipeline runs every dashboard.
type Dashboard struct {
	ID               string      `yaml:"id" json:"id"`
	Title            string      `yaml:"title" json:"title"`
	Source           Source      `yaml:"source" json:"source"`
	Schema           Schema      `yaml:"schema" json:"schema"`
	Filters          []FilterDef `yaml:"filters" json:"filters"`
	DefaultRangeDays int         `yaml:"default_range_days,omitempty" json:"default_range_days,omitempty"`
	DefaultPeriod    Period      `yaml:"default_period,omitempty" json:"default_period,omitempty"`
	KPIs             []KPI       `yaml:"kpis" json:"kpis"`
	Widgets          []Widget    `yaml:"widgets" json:"widgets"`
	DisplayColumns   []string    `yaml:"display_columns" json:"display_columns"`
	CacheTTL         string      `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`
}

// TTL returns the dashboard cache TTL, falling back to def
func (d Dashboard) TTL(def time.Duration) time.Duration {
	if d.CacheTTL == "" {
		return def
	}
	ttl, err := time.ParseDuration(d.CacheTTL)
	if err != nil || ttl <= 0 {
		return def
	}
	return ttl
}
