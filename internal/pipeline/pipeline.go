package pipeline

import (
	"context"
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/present"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Stage names reported in DashboardResult.Stages
const (
	StageLoad      = "load"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
	StageKPI       = "kpi"
	StagePresent   = "present"
)

// TableLoader fetches a dashboard's source table
type TableLoader interface {
	Load(ctx context.Context, d model.Dashboard) (*model.Table, error)
}

// ------------------- Pipeline Runner -------------------

// Runner runs Loader → Filter → Aggregate → Present for any dashboard definition
type Runner struct {
	loader     TableLoader
	cache      *TableCache
	recorder   LoadRecorder
	defaultTTL time.Duration
}

// NewRunner wires a runner; a nil cache gets an in-process one
func NewRunner(loader TableLoader, cache *TableCache, recorder LoadRecorder, defaultTTL time.Duration) *Runner {
	if cache == nil {
		cache = NewTableCache(nil)
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Runner{loader: loader, cache: cache, recorder: recorder, defaultTTL: defaultTTL}
}

// Table returns the dashboard's source table, from cache when fresh.
// hit reports a cache hit.
func (r *Runner) Table(ctx context.Context, d model.Dashboard, trigger string) (*model.Table, bool, error) {
	return r.cache.GetOrLoad(ctx, d.Source.Key(), d.TTL(r.defaultTTL), func(ctx context.Context) (*model.Table, error) {
		start := time.Now()
		t, err := r.loader.Load(ctx, d)

		ev := model.LoadEvent{
			DashboardID: d.ID,
			SourceKey:   d.Source.Key(),
			Trigger:     trigger,
			Status:      model.LoadOK,
			DurationMS:  time.Since(start).Milliseconds(),
			CreatedAt:   time.Now().UTC(),
		}
		if err != nil {
			ev.Status = model.LoadFailed
			ev.Error = err.Error()
		} else {
			ev.Rows = len(t.Records)
		}
		recordLoad(ctx, r.recorder, ev)
		return t, err
	})
}

// Reload drops the dashboard's cached table and fetches it again
func (r *Runner) Reload(ctx context.Context, d model.Dashboard) (*model.Table, error) {
	if err := r.cache.Invalidate(ctx, d.Source.Key()); err != nil {
		return nil, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	log.Info().Str("dashboard", d.ID).Msg("🔄 Cache invalidated, reloading")
	t, _, err := r.Table(ctx, d, model.TriggerReload)
	return t, err
}

// ClearCache drops every cached table
func (r *Runner) ClearCache(ctx context.Context) error {
	return r.cache.Clear(ctx)
}

// Run computes the full view of a dashboard for a selection.
//
// Only a bad selection is returned as an error. A failed fetch, an empty
// sheet or an empty filter result come back as a result with a Warning, and
// widgets or KPIs whose columns are missing are skipped with a reason.
func (r *Runner) Run(ctx context.Context, d model.Dashboard, sel model.Selection) (*model.DashboardResult, error) {
	if err := ValidateSelection(sel); err != nil {
		return nil, err
	}
	if sel.Period != "" {
		p, ok := model.ParsePeriod(string(sel.Period))
		if !ok {
			return nil, fmt.Errorf("%w: unknown period %q", model.ErrBadSelection, sel.Period)
		}
		sel.Period = p
	}

	res := &model.DashboardResult{
		DashboardID: d.ID,
		Title:       d.Title,
		Selection:   sel,
		Options:     []model.FilterOption{},
		KPIs:        []model.KPIValue{},
		Widgets:     []model.WidgetResult{},
		Table:       model.DisplayTable{Columns: []string{}, Rows: [][]string{}},
	}
	tracker := NewStageTracker(d.ID)

	tracker.StartStage(StageLoad)
	table, hit, err := r.Table(ctx, d, model.TriggerCacheMiss)
	if err != nil {
		tracker.EndStage(0)
		res.Stages = tracker.Stages()
		res.LoadError = err.Error()
		res.Warning = "Could not load data from the sheet: " + err.Error()
		log.Warn().Err(err).Str("dashboard", d.ID).Msg("❌ Sheet load failed")
		return res, nil
	}
	tracker.EndStage(len(table.Records))
	res.Cached = hit
	res.FetchedAt = table.FetchedAt
	res.TotalRows = len(table.Records)

	if len(table.Records) == 0 {
		res.Stages = tracker.Stages()
		res.Warning = "The sheet returned no data rows"
		return res, nil
	}
	if missing := MissingColumns(table, []string{d.Schema.DateColumn}); len(missing) > 0 {
		res.Stages = tracker.Stages()
		res.Warning = "The sheet has no date column " + d.Schema.DateColumn
		return res, nil
	}

	tracker.StartStage(StageFilter)
	res.Selection = ResolveSelection(table, d, sel)
	res.Options = FilterOptions(table, d.Filters)
	rows := Filter(table, res.Selection)
	res.FilteredRows = len(rows)
	res.Rows = rows
	tracker.EndStage(len(rows))

	if len(rows) == 0 {
		res.Stages = tracker.Stages()
		res.Warning = "No rows match the current filters"
		return res, nil
	}

	tracker.StartStage(StageAggregate)
	groups := 0
	for _, w := range d.Widgets {
		wr := model.WidgetResult{ID: w.ID, Title: w.Title, Kind: w.Kind}
		if missing := MissingColumns(table, GroupColumns(w.Group, d.Schema.DateColumn)); len(missing) > 0 {
			wr.Skipped = true
			wr.Reason = "missing column(s): " + strings.Join(missing, ", ")
			res.Widgets = append(res.Widgets, wr)
			continue
		}
		grouped := Aggregate(rows, w.Group, res.Selection.Period)
		wr.Grouped = &grouped
		groups += len(grouped.Groups)
		res.Widgets = append(res.Widgets, wr)
	}
	tracker.EndStage(groups)

	tracker.StartStage(StageKPI)
	res.KPIs = ComputeKPIs(table, rows, d.KPIs)
	res.Insight = Insight(res.KPIs)
	tracker.EndStage(len(res.KPIs))

	tracker.StartStage(StagePresent)
	for i, wr := range res.Widgets {
		if wr.Skipped {
			continue
		}
		chart := present.ToChartSpec(*wr.Grouped, d.Widgets[i])
		res.Widgets[i].Chart = &chart
	}
	res.Table = present.ToDisplayTable(table, rows, d.DisplayColumns, d.Schema.DateColumn)
	res.Table.Numeric = numericColumns(res.Table.Columns, d.Schema)
	tracker.EndStage(len(res.Table.Rows))

	res.Stages = tracker.Stages()
	log.Info().
		Str("dashboard", d.ID).
		Int("rows", res.TotalRows).
		Int("filtered", res.FilteredRows).
		Bool("cached", hit).
		Msg("🏁 Dashboard computed")
	return res, nil
}

// numericColumns flags the display columns the schema declares as numbers
func numericColumns(cols []string, schema model.Schema) []bool {
	out := make([]bool, len(cols))
	for i, c := range cols {
		if col, ok := schema.Lookup(c); ok && col.Type == model.ColumnNumber {
			out[i] = true
		}
	}
	return out
}
