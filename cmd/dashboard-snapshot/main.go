package main

import (
	"context"
	"flag"
	"fmt"
	"go-prod-dashboard/internal/api/handler"
	"go-prod-dashboard/internal/config"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/pipeline"
	"go-prod-dashboard/internal/present"
	"go-prod-dashboard/internal/store"
	"go-prod-dashboard/pkg/utils"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	subtle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	panel         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	levelOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	levelWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	levelCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// filterFlags collects repeated -filter column=value flags
type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }

func (f *filterFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("filter must be column=value, got %q", v)
	}
	*f = append(*f, v)
	return nil
}

// selectionQuery turns the command line selection into the same query the HTTP API accepts
func selectionQuery(start, end, period string, filters []string) url.Values {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	if period != "" {
		q.Set("period", period)
	}
	for _, f := range filters {
		col, value, _ := strings.Cut(f, "=")
		q.Add("f."+strings.TrimSpace(col), strings.TrimSpace(value))
	}
	return q
}

func main() {
	var filters filterFlags
	configPath := flag.String("config", "", "path to the YAML config (default $DASHBOARD_CONFIG or config.yaml)")
	dashboardID := flag.String("dashboard", "shortage", "dashboard id")
	start := flag.String("start", "", "start date YYYY-MM-DD (default: dashboard default range)")
	end := flag.String("end", "", "end date YYYY-MM-DD")
	period := flag.String("period", "", "daily, weekly, monthly or yearly")
	formats := flag.String("formats", "csv,xlsx,html", "artifacts to write")
	outDir := flag.String("out", "", "output directory (default from config)")
	record := flag.Bool("record", true, "record the load in the history database")
	flag.Var(&filters, "filter", "categorical filter column=value (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}
	cfg.Log.SetupLogging()

	d, err := cfg.Dashboard(*dashboardID)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Unknown dashboard")
	}
	sel, err := handler.ParseSelection(selectionQuery(*start, *end, *period, filters))
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid selection")
	}

	var recorder pipeline.LoadRecorder
	if *record {
		if err := store.InitDB(cfg.Server.DBPath); err != nil {
			log.Warn().Err(err).Msg("⚠️ Load history disabled")
		} else {
			defer store.Close()
			recorder = store.Recorder{}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Sheets.GetFetchTimeout())
	defer cancel()

	loader := pipeline.NewLoader(cfg.Sheets.BaseURL, cfg.Sheets.GetFetchTimeout())
	runner := pipeline.NewRunner(loader, nil, recorder, cfg.Cache.GetTTL())

	// Warm the cache so the load is recorded as a snapshot
	if _, _, err := runner.Table(ctx, d, model.TriggerSnapshot); err != nil {
		log.Error().Err(err).Str("dashboard", d.ID).Msg("❌ Sheet load failed")
		os.Exit(1)
	}
	res, err := runner.Run(ctx, d, sel)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Dashboard computation failed")
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.Server.OutputDir
	}
	exports := writeArtifacts(utils.NewOutputManager(dir), res, strings.Split(*formats, ","))

	fmt.Println(renderSummary(res, exports))
	for _, e := range exports {
		if !e.Success {
			os.Exit(1)
		}
	}
}

// writeArtifacts writes one file per format into a fresh run directory
func writeArtifacts(om *utils.OutputManager, res *model.DashboardResult, formats []string) []model.ExportResult {
	runID := uuid.New().String()
	stamp := time.Now().Format("20060102_150405")

	var exports []model.ExportResult
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		path, err := om.GetOutputFilePath(res.DashboardID, runID, om.ExportFileName(res.DashboardID, stamp, format))
		if err != nil {
			exports = append(exports, model.ExportResult{Type: format, Error: err.Error(), Timestamp: time.Now().UTC()})
			continue
		}
		if om.GetFileType(path) == "html" {
			exports = append(exports, writeChartsHTML(path, res))
			continue
		}
		exports = append(exports, pipeline.ExportToFile(path, res))
	}
	return exports
}

func writeChartsHTML(path string, res *model.DashboardResult) model.ExportResult {
	result := model.ExportResult{Type: "html", Path: path, RecordCount: len(res.Widgets), Timestamp: time.Now().UTC()}
	file, err := os.Create(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create file: %v", err)
		return result
	}
	defer file.Close()

	if err := present.RenderChartsPage(file, res); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	log.Info().Str("path", path).Int("charts", result.RecordCount).Msg("💾 HTML charts done")
	return result
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case pipeline.LevelCritical:
		return levelCritical
	case pipeline.LevelWarning:
		return levelWarning
	}
	return levelOK
}

// renderSummary prints the KPI cards and written artifacts for a terminal
func renderSummary(res *model.DashboardResult, exports []model.ExportResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(res.Title))
	b.WriteString("\n")
	b.WriteString(subtle.Render(fmt.Sprintf("%s - %s · %d of %d rows",
		present.FormatDate(res.Selection.Start), present.FormatDate(res.Selection.End),
		res.FilteredRows, res.TotalRows)))
	b.WriteString("\n")
	if res.Warning != "" {
		b.WriteString(levelWarning.Render("⚠️ " + res.Warning))
		b.WriteString("\n")
	}

	var cards []string
	for _, k := range res.KPIs {
		body := k.Title + "\n" + levelStyle(k.Level).Render(k.Text)
		if k.Delta != "" {
			body += "\nvs plan " + k.Delta
		}
		if k.Skipped {
			body += "\n" + subtle.Render(k.Reason)
		}
		cards = append(cards, panel.Render(body))
	}
	if len(cards) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		b.WriteString("\n")
	}
	if res.Insight != "" {
		b.WriteString(res.Insight)
		b.WriteString("\n")
	}

	for _, e := range exports {
		if e.Success {
			b.WriteString(levelOK.Render("✔ "))
			b.WriteString(fmt.Sprintf("%s %s (%d)\n", strings.ToUpper(e.Type), e.Path, e.RecordCount))
			continue
		}
		b.WriteString(levelCritical.Render("✘ "))
		b.WriteString(fmt.Sprintf("%s %s\n", strings.ToUpper(e.Type), e.Error))
	}
	return b.String()
}
