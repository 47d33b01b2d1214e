package handler_test

import (
	"encoding/json"
	"errors"
	"go-prod-dashboard/internal/api"
	"go-prod-dashboard/internal/api/handler"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/pipeline"
	"go-prod-dashboard/internal/store"
	"go-prod-dashboard/pkg/router"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sheetCSV = "date,MC,status,detail,qty\n" +
	"01/01/2025,MC1,OK,,10\n" +
	"02/01/2025,MC1,SHORT,Roll,5\n" +
	"03/01/2025,MC2,SHORT,Glue,\"1,200\"\n" +
	"05/01/2025,MC2,OK,,7\n"

type testEnv struct {
	api   *httptest.Server
	hits  *atomic.Int32
	sheet *httptest.Server
}

func testDashboards(sheetURL string) []model.Dashboard {
	short := map[string][]string{"status": {"SHORT"}}
	shortage := model.Dashboard{
		ID:     "shortage",
		Title:  "Production Shortage",
		Source: model.Source{URL: sheetURL + "/shortage.csv"},
		Schema: model.Schema{
			DateColumn: "date",
			Columns:    []model.Column{{Name: "date", Type: model.ColumnDate}, {Name: "qty", Type: model.ColumnNumber}},
		},
		Filters:          []model.FilterDef{{Column: "MC", Label: "Machine"}, {Column: "status"}},
		DefaultRangeDays: 7,
		KPIs: []model.KPI{
			{ID: "orders", Title: "ORDER TOTAL", Op: "count"},
			{ID: "short_pct", Title: "% Short", Op: "percent", Where: short},
		},
		Widgets: []model.Widget{{
			ID:    "top_detail",
			Title: "Top causes",
			Kind:  model.ChartHorizontalBar,
			Group: model.GroupSpec{
				Keys:     []string{"detail"},
				Measures: []model.Measure{{Name: "orders", Op: "count"}},
				Where:    short,
			},
		}},
		DisplayColumns: []string{"date", "MC", "status", "qty"},
	}
	broken := shortage
	broken.ID = "broken"
	broken.Title = "Broken"
	broken.Source = model.Source{URL: sheetURL + "/missing.csv"}
	return []model.Dashboard{shortage, broken}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if err := store.InitDB(":memory:"); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hits := &atomic.Int32{}
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shortage.csv" {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, sheetCSV)
	}))
	t.Cleanup(sheet.Close)

	runner := pipeline.NewRunner(
		pipeline.NewLoader(sheet.URL, 5*time.Second),
		pipeline.NewTableCache(pipeline.NewMemoryCache()),
		store.Recorder{},
		time.Minute,
	)
	h := handler.NewDashboardHandler(testDashboards(sheet.URL), runner, nil)

	r := router.New()
	api.RegisterRoutes(r, h)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{api: srv, hits: hits, sheet: sheet}
}

func (e *testEnv) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.api.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s: status %d, want %d: %s", resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

type dashboardBody struct {
	TotalRows    int                  `json:"total_rows"`
	FilteredRows int                  `json:"filtered_rows"`
	Cached       bool                 `json:"cached"`
	Warning      string               `json:"warning"`
	KPIs         []model.KPIValue     `json:"kpis"`
	Widgets      []model.WidgetResult `json:"widgets"`
}

func TestGetDashboard(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboards/shortage")
	expectStatus(t, resp, http.StatusOK)
	var body dashboardBody
	decode(t, resp, &body)

	if body.TotalRows != 4 || body.FilteredRows != 4 || body.Cached {
		t.Fatalf("unexpected counts: %+v", body)
	}
	if body.KPIs[0].Text != "4" || body.KPIs[1].Text != "50.0%" {
		t.Fatalf("kpis = %+v", body.KPIs)
	}
	if body.Widgets[0].Chart == nil || len(body.Widgets[0].Chart.Categories) != 2 {
		t.Fatalf("widget chart = %+v", body.Widgets[0])
	}

	resp = env.do(t, http.MethodGet, "/api/v1/dashboards/shortage?f.MC=MC2&start=2025-01-01&end=2025-01-04")
	expectStatus(t, resp, http.StatusOK)
	body = dashboardBody{}
	decode(t, resp, &body)
	if body.FilteredRows != 1 || !body.Cached {
		t.Fatalf("filtered request: %+v", body)
	}
	if env.hits.Load() != 1 {
		t.Fatalf("sheet fetched %d times, want 1", env.hits.Load())
	}
}

func TestGetDashboardErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/dashboards/unknown", http.StatusNotFound},
		{"/api/v1/dashboards/shortage/extra/segments", http.StatusNotFound},
		{"/api/v1/dashboards/shortage?start=01-01-2025", http.StatusBadRequest},
		{"/api/v1/dashboards/shortage?start=2025-01-05&end=2025-01-01", http.StatusBadRequest},
		{"/api/v1/dashboards/shortage?period=hourly", http.StatusBadRequest},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp := env.do(t, http.MethodGet, tt.path)
		expectStatus(t, resp, tt.want)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/dashboards/shortage/filters")
	expectStatus(t, resp, http.StatusMethodNotAllowed)
}

func TestLoadFailureIsAWarning(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboards/broken")
	expectStatus(t, resp, http.StatusOK)
	var body dashboardBody
	decode(t, resp, &body)
	if !strings.Contains(body.Warning, "HTTP 500") {
		t.Fatalf("warning = %q", body.Warning)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/dashboards/broken/export"), http.StatusBadGateway)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/dashboards/broken/filters"), http.StatusBadGateway)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/dashboards/broken/reload"), http.StatusBadGateway)
}

func TestGetFilters(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/filters")
	expectStatus(t, resp, http.StatusOK)
	var body struct {
		Options          []model.FilterOption `json:"options"`
		DefaultSelection struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"default_selection"`
	}
	decode(t, resp, &body)

	if len(body.Options) != 2 || !reflect.DeepEqual(body.Options[0].Values, []string{"MC1", "MC2"}) {
		t.Fatalf("options = %+v", body.Options)
	}
	if body.DefaultSelection.Start.Format("2006-01-02") != "2025-01-01" || body.DefaultSelection.End.Format("2006-01-02") != "2025-01-05" {
		t.Fatalf("default selection = %+v", body.DefaultSelection)
	}
}

func TestGetRows(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/rows?f.status=SHORT")
	expectStatus(t, resp, http.StatusOK)
	var body struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
		Count   int        `json:"count"`
	}
	decode(t, resp, &body)

	if !reflect.DeepEqual(body.Columns, []string{"date", "MC", "status", "qty"}) {
		t.Fatalf("columns = %v", body.Columns)
	}
	want := [][]string{
		{"03/01/2025", "MC2", "SHORT", "1,200"},
		{"02/01/2025", "MC1", "SHORT", "5"},
	}
	if body.Count != 2 || !reflect.DeepEqual(body.Rows, want) {
		t.Fatalf("rows = %v", body.Rows)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/export?f.MC=MC1")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != pipeline.ContentType(pipeline.FormatCSV) {
		t.Fatalf("content type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="shortage_`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Fatalf("content disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "\ufeffdate,MC,status,qty\n") || strings.Count(string(data), "\n") != 3 {
		t.Fatalf("csv = %q", data)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/export?format=xlsx")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != pipeline.ContentType(pipeline.FormatXLSX) {
		t.Fatalf("content type = %q", ct)
	}
	data, _ = io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "PK") {
		t.Fatal("xlsx body should be a zip archive")
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/export?format=pdf"), http.StatusBadRequest)
}

func TestReloadClearCacheAndHistory(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/dashboards/shortage"), http.StatusOK)

	resp := env.do(t, http.MethodPost, "/api/v1/dashboards/shortage/reload")
	expectStatus(t, resp, http.StatusOK)
	var reload struct {
		Rows int `json:"rows"`
	}
	decode(t, resp, &reload)
	if reload.Rows != 4 || env.hits.Load() != 2 {
		t.Fatalf("reload rows=%d hits=%d", reload.Rows, env.hits.Load())
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/cache/clear"), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/dashboards/shortage"), http.StatusOK)
	if env.hits.Load() != 3 {
		t.Fatalf("expected a refetch after clearing the cache, hits=%d", env.hits.Load())
	}

	resp = env.do(t, http.MethodGet, "/api/v1/dashboards/shortage/history?limit=2")
	expectStatus(t, resp, http.StatusOK)
	var history struct {
		Loads []model.LoadEvent `json:"loads"`
		Count int               `json:"count"`
		Limit int               `json:"limit"`
	}
	decode(t, resp, &history)
	if history.Count != 2 || history.Limit != 2 {
		t.Fatalf("history = %+v", history)
	}
	for _, ev := range history.Loads {
		if ev.Status != model.LoadOK || ev.Rows != 4 || ev.DashboardID != "shortage" {
			t.Fatalf("unexpected load event %+v", ev)
		}
	}
	triggers := map[string]bool{}
	for _, ev := range history.Loads {
		triggers[ev.Trigger] = true
	}
	if !triggers[model.TriggerReload] || !triggers[model.TriggerCacheMiss] {
		t.Fatalf("triggers = %v", triggers)
	}
}

func TestHealthAndList(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/healthz")
	expectStatus(t, resp, http.StatusOK)
	var health map[string]interface{}
	decode(t, resp, &health)
	if health["status"] != "ok" {
		t.Fatalf("health = %v", health)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/dashboards")
	expectStatus(t, resp, http.StatusOK)
	var list struct {
		Count      int `json:"count"`
		Dashboards []struct {
			ID      string   `json:"id"`
			Widgets []string `json:"widgets"`
		} `json:"dashboards"`
	}
	decode(t, resp, &list)
	if list.Count != 2 || list.Dashboards[0].ID != "shortage" || list.Dashboards[0].Widgets[0] != "top_detail" {
		t.Fatalf("list = %+v", list)
	}

	store.Close()
	expectStatus(t, env.do(t, http.MethodGet, "/healthz"), http.StatusServiceUnavailable)
}

func TestHTMLPages(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/")
	expectStatus(t, resp, http.StatusFound)
	if loc := resp.Header.Get("Location"); loc != "/dashboards/shortage" {
		t.Fatalf("redirect = %q", loc)
	}

	resp = env.do(t, http.MethodGet, "/dashboards/shortage?f.MC=MC1")
	expectStatus(t, resp, http.StatusOK)
	page, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"Production Shortage",
		"ORDER TOTAL",
		"/dashboards/shortage/charts?f.MC=MC1",
		`<form method="post" action="/dashboards/shortage/reload?f.MC=MC1">`,
	} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("page should contain %q", want)
		}
	}

	before := env.hits.Load()
	resp = env.do(t, http.MethodPost, "/dashboards/shortage/reload?f.MC=MC1")
	expectStatus(t, resp, http.StatusSeeOther)
	if loc := resp.Header.Get("Location"); loc != "/dashboards/shortage?f.MC=MC1" {
		t.Fatalf("reload redirect = %q", loc)
	}
	if env.hits.Load() != before+1 {
		t.Fatalf("reload should refetch the sheet: hits %d -> %d", before, env.hits.Load())
	}
	expectStatus(t, env.do(t, http.MethodPost, "/dashboards/unknown/reload"), http.StatusNotFound)

	resp = env.do(t, http.MethodGet, "/dashboards/shortage/charts")
	expectStatus(t, resp, http.StatusOK)
	charts, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(charts), "Top causes") {
		t.Fatal("charts page should contain the widget title")
	}

	expectStatus(t, env.do(t, http.MethodGet, "/dashboards/unknown"), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/dashboards/shortage/extra"), http.StatusNotFound)
}

func TestParseSelection(t *testing.T) {
	q := url.Values{
		"start":  {"2025-01-01"},
		"end":    {"2025-01-31"},
		"period": {"Weekly"},
		"f.MC":   {"MC1", " ", "MC2"},
		"f.":     {"ignored"},
		"other":  {"x"},
	}
	sel, err := handler.ParseSelection(q)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if sel.Start.Day() != 1 || sel.End.Day() != 31 || sel.Period != model.PeriodWeekly {
		t.Fatalf("selection = %+v", sel)
	}
	if !reflect.DeepEqual(sel.Categories, map[string][]string{"MC": {"MC1", "MC2"}}) {
		t.Fatalf("categories = %v", sel.Categories)
	}

	for _, bad := range []url.Values{
		{"start": {"2025/01/01"}},
		{"end": {"tomorrow"}},
		{"period": {"hourly"}},
	} {
		if _, err := handler.ParseSelection(bad); !errors.Is(err, model.ErrBadSelection) {
			t.Fatalf("expected ErrBadSelection for %v, got %v", bad, err)
		}
	}
}
