package pipeline

import (
	"go-prod-dashboard/internal/model"
	"testing"
	"time"
)

// day parses a YYYY-MM-DD test date
func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// rec builds a dated record; numbers are stored both as text and as values
func rec(t *testing.T, date string, text map[string]string, numbers map[string]float64) model.Record {
	t.Helper()
	r := model.Record{Values: map[string]string{}, Numbers: map[string]float64{}}
	if date != "" {
		r.Date = day(t, date)
		r.Dated = true
		r.Values["date"] = date
	}
	for k, v := range text {
		r.Values[k] = v
	}
	for k, v := range numbers {
		r.Numbers[k] = v
	}
	return r
}

func tableOf(columns []string, records ...model.Record) *model.Table {
	return &model.Table{Columns: columns, Records: records, SourceKey: "test", FetchedAt: time.Now().UTC()}
}
