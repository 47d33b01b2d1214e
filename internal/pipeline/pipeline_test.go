package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"go-prod-dashboard/internal/model"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	table *model.Table
	err   error
}

func (f *fakeLoader) Load(ctx context.Context, d model.Dashboard) (*model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []model.LoadEvent
}

func (f *fakeRecorder) RecordLoad(ctx context.Context, ev model.LoadEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func runnerDashboard() model.Dashboard {
	short := map[string][]string{"status": {"SHORT"}}
	return model.Dashboard{
		ID:     "shortage",
		Title:  "Shortage",
		Source: model.Source{SheetID: "sheet", GID: "1"},
		Schema: model.Schema{DateColumn: "date"},
		Filters: []model.FilterDef{
			{Column: "MC"},
		},
		DefaultRangeDays: 7,
		KPIs: []model.KPI{
			{ID: "orders", Op: OpCount},
			{ID: "short_pct", Op: OpPercent, Where: short, Thresholds: &model.Thresholds{Warning: 15, Critical: 20}},
			{ID: "cause", Op: OpTop, GroupBy: "detail", Where: short},
		},
		Widgets: []model.Widget{
			{
				ID:   "top_detail",
				Kind: model.ChartHorizontalBar,
				Group: model.GroupSpec{
					Keys:     []string{"detail"},
					Measures: []model.Measure{{Name: "orders", Op: OpCount}},
					Where:    short,
					Percent:  &model.Percent{Measure: "orders", Base: BaseRows},
					SortBy:   "orders", Descending: true, TopN: 10, Order: "asc",
				},
			},
			{
				ID:   "trend",
				Kind: model.ChartStackedBar,
				Group: model.GroupSpec{
					Keys:     []string{model.PeriodKey, "status"},
					Measures: []model.Measure{{Name: "orders", Op: OpCount}},
				},
			},
			{
				ID:   "repairs",
				Kind: model.ChartPie,
				Group: model.GroupSpec{
					Keys:     []string{"repair_status"},
					Measures: []model.Measure{{Op: OpCount}},
				},
			},
		},
		DisplayColumns: []string{"date", "MC", "status", "detail", "customer"},
	}
}

func runnerTable(t *testing.T) *model.Table {
	return tableOf([]string{"date", "MC", "status", "detail"},
		rec(t, "2024-12-20", map[string]string{"MC": "MC1", "status": "OK"}, nil),
		rec(t, "2025-01-06", map[string]string{"MC": "MC1", "status": "SHORT", "detail": "Roll"}, nil),
		rec(t, "2025-01-07", map[string]string{"MC": "MC2", "status": "SHORT", "detail": "Roll"}, nil),
		rec(t, "2025-01-08", map[string]string{"MC": "MC1", "status": "OK"}, nil),
		rec(t, "2025-01-09", map[string]string{"MC": "MC2", "status": "SHORT", "detail": "Glue"}, nil),
	)
}

func TestRunnerRun(t *testing.T) {
	loader := &fakeLoader{table: runnerTable(t)}
	recorder := &fakeRecorder{}
	r := NewRunner(loader, nil, recorder, time.Minute)
	d := runnerDashboard()

	res, err := r.Run(context.Background(), d, model.Selection{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning %q", res.Warning)
	}
	if res.TotalRows != 5 || res.FilteredRows != 4 {
		t.Fatalf("rows = %d/%d, want 4 of 5 in the default 7-day window", res.FilteredRows, res.TotalRows)
	}
	if !res.Selection.Start.Equal(day(t, "2025-01-02")) || res.Selection.Period != model.PeriodDaily {
		t.Fatalf("selection = %+v", res.Selection)
	}
	if len(res.Options) != 1 || len(res.Options[0].Values) != 2 {
		t.Fatalf("options = %+v", res.Options)
	}

	if len(res.Widgets) != 3 {
		t.Fatalf("got %d widgets", len(res.Widgets))
	}
	top := res.Widgets[0]
	if top.Skipped || top.Chart == nil || top.Grouped == nil {
		t.Fatalf("top_detail widget not computed: %+v", top)
	}
	if got := top.Chart.Series[0].Labels; len(got) != 2 || got[1] != "2 (50.0%)" {
		t.Fatalf("bar labels = %v", got)
	}
	if !res.Widgets[2].Skipped || !strings.Contains(res.Widgets[2].Reason, "repair_status") {
		t.Fatalf("widget on a missing column should be skipped: %+v", res.Widgets[2])
	}

	if res.KPIs[1].Text != "75.0%" || res.KPIs[1].Level != LevelCritical {
		t.Fatalf("short_pct = %+v", res.KPIs[1])
	}
	if !strings.Contains(res.Insight, "main cause is Roll (2 rows)") {
		t.Fatalf("insight = %q", res.Insight)
	}
	if len(res.Table.Columns) != 4 || res.Table.Rows[0][0] != "09/01/2025" {
		t.Fatalf("display table = %v / first row %v", res.Table.Columns, res.Table.Rows[0])
	}
	if len(res.Stages) != 5 {
		t.Fatalf("stages = %+v", res.Stages)
	}

	// second run is served from the cache
	res, _ = r.Run(context.Background(), d, model.Selection{Categories: map[string][]string{"MC": {"MC2"}}})
	if !res.Cached || res.FilteredRows != 2 {
		t.Fatalf("cached=%v filtered=%d", res.Cached, res.FilteredRows)
	}
	if loader.calls != 1 {
		t.Fatalf("loader called %d times, want 1", loader.calls)
	}
	if len(recorder.events) != 1 || recorder.events[0].Trigger != model.TriggerCacheMiss || recorder.events[0].Rows != 5 {
		t.Fatalf("events = %+v", recorder.events)
	}
}

func TestRunnerLoadFailureIsAWarning(t *testing.T) {
	loader := &fakeLoader{err: errors.New("HTTP 403")}
	recorder := &fakeRecorder{}
	r := NewRunner(loader, nil, recorder, time.Minute)

	res, err := r.Run(context.Background(), runnerDashboard(), model.Selection{})
	if err != nil {
		t.Fatalf("a failed fetch must not be an error: %v", err)
	}
	if !strings.Contains(res.Warning, "HTTP 403") || res.LoadError == "" {
		t.Fatalf("warning = %q load_error = %q", res.Warning, res.LoadError)
	}
	if len(res.KPIs) != 0 || len(res.Table.Rows) != 0 {
		t.Fatal("failed load should produce an empty view")
	}
	if len(recorder.events) != 1 || recorder.events[0].Status != model.LoadFailed {
		t.Fatalf("events = %+v", recorder.events)
	}
}

func TestRunnerWarnings(t *testing.T) {
	d := runnerDashboard()

	empty := NewRunner(&fakeLoader{table: tableOf([]string{"date"})}, nil, nil, time.Minute)
	res, _ := empty.Run(context.Background(), d, model.Selection{})
	if !strings.Contains(res.Warning, "no data rows") {
		t.Fatalf("empty sheet warning = %q", res.Warning)
	}

	noDate := NewRunner(&fakeLoader{table: tableOf([]string{"MC"}, rec(t, "", map[string]string{"MC": "MC1"}, nil))}, nil, nil, time.Minute)
	res, _ = noDate.Run(context.Background(), d, model.Selection{})
	if !strings.Contains(res.Warning, "no date column") {
		t.Fatalf("missing date column warning = %q", res.Warning)
	}

	r := NewRunner(&fakeLoader{table: runnerTable(t)}, nil, nil, time.Minute)
	res, _ = r.Run(context.Background(), d, model.Selection{Categories: map[string][]string{"MC": {"MC9"}}})
	if !strings.Contains(res.Warning, "No rows match") || res.FilteredRows != 0 {
		t.Fatalf("empty filter warning = %q", res.Warning)
	}
}

func TestRunnerBadSelection(t *testing.T) {
	r := NewRunner(&fakeLoader{table: runnerTable(t)}, nil, nil, time.Minute)
	d := runnerDashboard()

	_, err := r.Run(context.Background(), d, model.Selection{Start: day(t, "2025-01-09"), End: day(t, "2025-01-01")})
	if !errors.Is(err, model.ErrBadSelection) {
		t.Fatalf("expected ErrBadSelection, got %v", err)
	}
	_, err = r.Run(context.Background(), d, model.Selection{Period: "hourly"})
	if !errors.Is(err, model.ErrBadSelection) {
		t.Fatalf("expected ErrBadSelection for unknown period, got %v", err)
	}
}

func TestRunnerReload(t *testing.T) {
	loader := &fakeLoader{table: runnerTable(t)}
	recorder := &fakeRecorder{}
	r := NewRunner(loader, nil, recorder, time.Minute)
	d := runnerDashboard()
	ctx := context.Background()

	if _, _, err := r.Table(ctx, d, model.TriggerCacheMiss); err != nil {
		t.Fatalf("Table: %v", err)
	}
	if _, err := r.Reload(ctx, d); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("loader called %d times, want 2", loader.calls)
	}
	if recorder.events[1].Trigger != model.TriggerReload {
		t.Fatalf("second event trigger = %s", recorder.events[1].Trigger)
	}

	if err := r.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, hit, _ := r.Table(ctx, d, model.TriggerCacheMiss); hit {
		t.Fatal("cleared cache should miss")
	}
}

func TestRunnerRunIsDeterministic(t *testing.T) {
	r := NewRunner(&fakeLoader{table: runnerTable(t)}, nil, nil, time.Minute)
	d := runnerDashboard()
	d.Filters = append(d.Filters, model.FilterDef{Column: "status"}, model.FilterDef{Column: "detail"})
	d.DefaultPeriod = model.PeriodWeekly
	sel := model.Selection{Categories: map[string][]string{
		"MC":     {"MC2", "MC1"},
		"status": {"SHORT", "OK"},
		"detail": {},
	}}

	if _, err := r.Run(context.Background(), d, sel); err != nil {
		t.Fatalf("Run: %v", err)
	}

	render := func() []byte {
		res, err := r.Run(context.Background(), d, sel)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !res.Cached {
			t.Fatal("expected a cached table")
		}
		res.Stages = nil
		b, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return b
	}

	first := render()
	for i := 0; i < 20; i++ {
		if next := render(); !bytes.Equal(first, next) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, next)
		}
	}
}
