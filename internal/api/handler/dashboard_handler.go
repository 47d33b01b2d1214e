package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/pipeline"
	"go-prod-dashboard/internal/present"
	"go-prod-dashboard/internal/store"
	"go-prod-dashboard/pkg/router"
	"go-prod-dashboard/pkg/utils"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DashboardHandler serves the dashboard API and HTML pages
type DashboardHandler struct {
	dashboards []model.Dashboard
	runner     *pipeline.Runner
	outputs    *utils.OutputManager
}

// NewDashboardHandler creates a handler over a fixed set of dashboards
func NewDashboardHandler(dashboards []model.Dashboard, runner *pipeline.Runner, outputs *utils.OutputManager) *DashboardHandler {
	if outputs == nil {
		outputs = utils.NewOutputManager("output")
	}
	return &DashboardHandler{dashboards: dashboards, runner: runner, outputs: outputs}
}

func (h *DashboardHandler) lookup(id string) (model.Dashboard, bool) {
	for _, d := range h.dashboards {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dashboard{}, false
}

// dashboardFor resolves the dashboard named by path segment i, writing a 404 if unknown
func (h *DashboardHandler) dashboardFor(w http.ResponseWriter, r *http.Request, i int) (model.Dashboard, bool) {
	id := router.Segment(r, i)
	if id == "" {
		http.Error(w, "Dashboard ID is required", http.StatusBadRequest)
		return model.Dashboard{}, false
	}
	d, ok := h.lookup(id)
	if !ok {
		http.Error(w, fmt.Sprintf("Dashboard %s not found", id), http.StatusNotFound)
		return model.Dashboard{}, false
	}
	return d, true
}

// ParseSelection reads start, end, period and f.<column> filters from a query
func ParseSelection(q url.Values) (model.Selection, error) {
	var sel model.Selection
	var err error
	if v := q.Get("start"); v != "" {
		if sel.Start, err = time.Parse("2006-01-02", v); err != nil {
			return sel, fmt.Errorf("%w: invalid start date %q", model.ErrBadSelection, v)
		}
	}
	if v := q.Get("end"); v != "" {
		if sel.End, err = time.Parse("2006-01-02", v); err != nil {
			return sel, fmt.Errorf("%w: invalid end date %q", model.ErrBadSelection, v)
		}
	}
	if v := q.Get("period"); v != "" {
		p, ok := model.ParsePeriod(v)
		if !ok {
			return sel, fmt.Errorf("%w: unknown period %q", model.ErrBadSelection, v)
		}
		sel.Period = p
	}

	for key, values := range q {
		col, ok := strings.CutPrefix(key, "f.")
		if !ok || col == "" {
			continue
		}
		for _, v := range values {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if sel.Categories == nil {
				sel.Categories = make(map[string][]string)
			}
			sel.Categories[col] = append(sel.Categories[col], v)
		}
	}
	return sel, nil
}

// run parses the query and computes the dashboard, writing a 400 on a bad selection
func (h *DashboardHandler) run(w http.ResponseWriter, r *http.Request, d model.Dashboard) (*model.DashboardResult, bool) {
	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	res, err := h.runner.Run(r.Context(), d, sel)
	if err != nil {
		if errors.Is(err, model.ErrBadSelection) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, "Failed to compute dashboard", http.StatusInternalServerError)
		}
		return nil, false
	}
	return res, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Health reports liveness and the load history database status
// @Summary Health check
// @Description Liveness check including a ping of the load history database
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "Database unavailable"
// @Router /healthz [get]
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"db":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"dashboards": len(h.dashboards),
	})
}

// ListDashboards lists the configured dashboards
// @Summary List dashboards
// @Description Get the configured dashboards with their widgets and KPIs
// @Tags dashboards
// @Produce json
// @Success 200 {object} map[string]interface{} "List of dashboards"
// @Router /api/v1/dashboards [get]
func (h *DashboardHandler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	items := make([]map[string]interface{}, 0, len(h.dashboards))
	for _, d := range h.dashboards {
		widgets := make([]string, 0, len(d.Widgets))
		for _, wd := range d.Widgets {
			widgets = append(widgets, wd.ID)
		}
		kpis := make([]string, 0, len(d.KPIs))
		for _, k := range d.KPIs {
			kpis = append(kpis, k.ID)
		}
		items = append(items, map[string]interface{}{
			"id":      d.ID,
			"title":   d.Title,
			"source":  d.Source.Key(),
			"filters": d.Filters,
			"widgets": widgets,
			"kpis":    kpis,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dashboards": items,
		"count":      len(items),
	})
}

// GetDashboard computes a dashboard for the requested selection
// @Summary Get dashboard
// @Description Load, filter, aggregate and present one dashboard
// @Tags dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param start query string false "Start date (YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM-DD)"
// @Param period query string false "daily, weekly, monthly or yearly"
// @Success 200 {object} model.DashboardResult "Dashboard result"
// @Failure 400 {object} map[string]interface{} "Invalid selection"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Router /api/v1/dashboards/{id} [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if router.Segment(r, 4) != "" {
		http.NotFound(w, r)
		return
	}
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}
	res, ok := h.run(w, r, d)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetFilters returns the filter choices and the default selection
// @Summary Get dashboard filters
// @Description Distinct values of every filter column and the default date range
// @Tags dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{} "Filter options"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Failure 502 {object} map[string]interface{} "Sheet could not be loaded"
// @Router /api/v1/dashboards/{id}/filters [get]
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}
	table, cached, err := h.runner.Table(r.Context(), d, model.TriggerCacheMiss)
	if err != nil {
		http.Error(w, "Failed to load sheet: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dashboard_id":      d.ID,
		"options":           pipeline.FilterOptions(table, d.Filters),
		"default_selection": pipeline.DefaultSelection(table, d),
		"cached":            cached,
	})
}

// GetRows returns the filtered display table
// @Summary Get dashboard rows
// @Description Filtered rows restricted to the dashboard's display columns
// @Tags dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{} "Display table"
// @Failure 400 {object} map[string]interface{} "Invalid selection"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Router /api/v1/dashboards/{id}/rows [get]
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}
	res, ok := h.run(w, r, d)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dashboard_id": d.ID,
		"columns":      res.Table.Columns,
		"rows":         res.Table.Rows,
		"count":        len(res.Table.Rows),
		"warning":      res.Warning,
	})
}

// Export downloads the filtered rows as CSV or XLSX
// @Summary Export dashboard rows
// @Description Download the filtered display table
// @Tags dashboards
// @Produce application/octet-stream
// @Param id path string true "Dashboard ID"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file "Export file"
// @Failure 400 {object} map[string]interface{} "Invalid selection or format"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Failure 502 {object} map[string]interface{} "Sheet could not be loaded"
// @Router /api/v1/dashboards/{id}/export [get]
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = pipeline.FormatCSV
	}
	if format != pipeline.FormatCSV && format != pipeline.FormatXLSX {
		http.Error(w, fmt.Sprintf("Unsupported export format: %s", format), http.StatusBadRequest)
		return
	}

	res, ok := h.run(w, r, d)
	if !ok {
		return
	}
	if res.LoadError != "" {
		http.Error(w, "Failed to load sheet: "+res.LoadError, http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := pipeline.Write(&buf, format, res); err != nil {
		log.Error().Err(err).Str("dashboard", d.ID).Msg("❌ Export failed")
		http.Error(w, "Failed to write export", http.StatusInternalServerError)
		return
	}

	fileName := h.outputs.ExportFileName(d.ID, time.Now().Format("20060102_150405"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// Reload drops the cached sheet and fetches it again
// @Summary Reload dashboard data
// @Description Invalidate the dashboard's cached sheet and fetch it again
// @Tags dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{} "Reloaded"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Failure 502 {object} map[string]interface{} "Sheet could not be loaded"
// @Router /api/v1/dashboards/{id}/reload [post]
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}
	table, err := h.runner.Reload(r.Context(), d)
	if err != nil {
		http.Error(w, "Failed to reload sheet: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Dashboard reloaded",
		"dashboard_id": d.ID,
		"rows":         len(table.Records),
		"fetched_at":   table.FetchedAt,
	})
}

// GetHistory lists the recorded load attempts of a dashboard
// @Summary Get load history
// @Description Recent sheet loads (cache misses and reloads), newest first
// @Tags dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} map[string]interface{} "Load history"
// @Failure 404 {object} map[string]interface{} "Dashboard not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/dashboards/{id}/history [get]
func (h *DashboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 3)
	if !ok {
		return
	}

	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	loads, err := store.ListLoads(d.ID, limit)
	if err != nil {
		http.Error(w, "Failed to retrieve load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dashboard_id": d.ID,
		"loads":        loads,
		"count":        len(loads),
		"limit":        limit,
	})
}

// ClearCache drops every cached sheet
// @Summary Clear cache
// @Description Drop all cached sheets; the next request of every dashboard fetches again
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache cleared"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/cache/clear [post]
func (h *DashboardHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.ClearCache(r.Context()); err != nil {
		http.Error(w, "Failed to clear cache", http.StatusInternalServerError)
		return
	}
	log.Info().Msg("🧹 Cache cleared")
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Cache cleared"})
}

// ------------------- HTML -------------------

// Index redirects to the first dashboard page
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	if len(h.dashboards) == 0 {
		http.Error(w, "No dashboards configured", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/dashboards/"+h.dashboards[0].ID, http.StatusFound)
}

// Page renders the HTML dashboard
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	if router.Segment(r, 2) != "" {
		http.NotFound(w, r)
		return
	}
	d, ok := h.dashboardFor(w, r, 1)
	if !ok {
		return
	}
	res, ok := h.run(w, r, d)
	if !ok {
		return
	}

	query := r.URL.RawQuery
	var buf bytes.Buffer
	err := present.RenderPage(&buf, present.PageData{
		Result:     res,
		Dashboards: h.dashboards,
		ChartsURL:  "/dashboards/" + d.ID + "/charts?" + query,
		ExportURL:  "/api/v1/dashboards/" + d.ID + "/export?" + query,
		ReloadURL:  "/dashboards/" + d.ID + "/reload?" + query,
		Query:      r.URL.Query(),
	})
	if err != nil {
		log.Error().Err(err).Str("dashboard", d.ID).Msg("❌ Page render failed")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// ReloadPage refetches the sheet and sends the browser back to the page with its filters
func (h *DashboardHandler) ReloadPage(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 1)
	if !ok {
		return
	}
	if _, err := h.runner.Reload(r.Context(), d); err != nil {
		http.Error(w, "Failed to reload sheet: "+err.Error(), http.StatusBadGateway)
		return
	}
	log.Info().Str("dashboard", d.ID).Msg("🔄 Reloaded from page")

	target := "/dashboards/" + d.ID
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Charts renders the go-echarts page of a dashboard
func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r, 1)
	if !ok {
		return
	}
	res, ok := h.run(w, r, d)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := present.RenderChartsPage(&buf, res); err != nil {
		log.Error().Err(err).Str("dashboard", d.ID).Msg("❌ Chart render failed")
		http.Error(w, "Failed to render charts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
