package model

import (
	"sort"
	"time"
)

// Record is one coerced spreadsheet row
type Record struct {
	Date    time.Time          `json:"date"`
	Dated   bool               `json:"dated"`
	Values  map[string]string  `json:"values"`
	Numbers map[string]float64 `json:"numbers,omitempty"`
}

// Text returns the normalized text of a column ("" when absent)
func (r Record) Text(col string) string {
	return r.Values[col]
}

// Number returns the coerced numeric value of a column (0 when absent)
func (r Record) Number(col string) float64 {
	return r.Numbers[col]
}

// Table is the loaded content of one source, immutable after load
type Table struct {
	Columns   []string  `json:"columns"`
	Records   []Record  `json:"records"`
	SourceKey string    `json:"source_key"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// HasColumn reports whether the source header contained col
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// DateBounds returns the earliest and latest record dates
func (t *Table) DateBounds() (min, max time.Time, ok bool) {
	if t == nil {
		return
	}
	for _, r := range t.Records {
		if !r.Dated {
			continue
		}
		if !ok || r.Date.Before(min) {
			min = r.Date
		}
		if !ok || r.Date.After(max) {
			max = r.Date
		}
		ok = true
	}
	return
}

// Selection is the user's current filter state
type Selection struct {
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Categories map[string][]string `json:"categories,omitempty"`
	Period     Period              `json:"period,omitempty"`
}

// Columns returns the categorical filter columns in a stable order
func (s Selection) Columns() []string {
	cols := make([]string, 0, len(s.Categories))
	for c := range s.Categories {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// FilterOption lists the choices of one multi-select filter
type FilterOption struct {
	Column string   `json:"column"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}
