package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"go-prod-dashboard/internal/model"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSheetsBaseURL is the host of the spreadsheet export endpoints
const DefaultSheetsBaseURL = "https://docs.google.com"

// ErrNoSource is returned when a dashboard names neither a sheet nor a URL
var ErrNoSource = errors.New("source has no spreadsheet id or url")

// ------------------- Loader -------------------

// Loader fetches a dashboard's sheet as CSV and coerces it into a Table
type Loader struct {
	Client  *http.Client
	BaseURL string
	Timeout time.Duration
}

// NewLoader creates a loader with the given base URL and per-fetch timeout
func NewLoader(baseURL string, timeout time.Duration) *Loader {
	if baseURL == "" {
		baseURL = DefaultSheetsBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Loader{
		Client:  &http.Client{},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
	}
}

// BuildExportURL returns the CSV export URL of a sheet.
// A sheet name uses the visualization query endpoint; a gid uses the export endpoint.
func BuildExportURL(baseURL string, src model.Source) (string, error) {
	if src.URL != "" {
		return src.URL, nil
	}
	if src.SheetID == "" {
		return "", ErrNoSource
	}
	if baseURL == "" {
		baseURL = DefaultSheetsBaseURL
	}
	base := strings.TrimRight(baseURL, "/") + "/spreadsheets/d/" + url.PathEscape(src.SheetID)

	if src.GID != "" {
		return base + "/export?format=csv&gid=" + url.QueryEscape(src.GID), nil
	}
	u := base + "/gviz/tq?tqx=out:csv"
	if src.SheetName != "" {
		u += "&sheet=" + strings.ReplaceAll(url.QueryEscape(src.SheetName), "+", "%20")
	}
	return u, nil
}

// Load fetches and coerces the dashboard source. One attempt, no retry.
func (l *Loader) Load(ctx context.Context, d model.Dashboard) (*model.Table, error) {
	sourceURL, err := BuildExportURL(l.BaseURL, d.Source)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("dashboard", d.ID).Str("url", sourceURL).Msg("➡️ Starting sheet fetch")

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET CSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to GET CSV: HTTP %d", resp.StatusCode)
	}

	headers, rows, err := readCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	table := &model.Table{
		Columns:   headers,
		Records:   CoerceRows(headers, rows, d.Schema),
		SourceKey: d.Source.Key(),
		SourceURL: sourceURL,
		FetchedAt: time.Now().UTC(),
	}

	log.Info().Str("dashboard", d.ID).Int("rows", len(table.Records)).Msg("📄 CSV ingestion done")
	return table, nil
}

// ------------------- CSV Parsing -------------------

// readCSV reads the header row and every data row; short rows are padded
func readCSV(r io.Reader) ([]string, [][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	rawHeaders, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", model.ErrEmptyTable)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		// Clean header names: trim whitespace, strip BOM and quotes
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.ReplaceAll(h, `"`, "")
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("CSV read error: %w", err)
		}
		if isBlankRow(record) {
			continue
		}
		for len(record) < len(headers) {
			record = append(record, "")
		}
		rows = append(rows, record[:len(headers)])
	}
	return headers, rows, nil
}

func isBlankRow(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
