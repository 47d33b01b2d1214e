package store

import (
	"context"
	"database/sql"
	"errors"
	"go-prod-dashboard/internal/model"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// ErrNotInitialized is returned when the store is used before InitDB
var ErrNotInitialized = errors.New("store: database not initialized")

// Initialize DB connection
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	// sqlite allows one writer; this also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	loadTable := `
	CREATE TABLE IF NOT EXISTS load_history (
		id TEXT PRIMARY KEY,
		dashboard_id TEXT,
		source_key TEXT,
		load_trigger TEXT,
		status TEXT,
		row_count INTEGER,
		duration_ms INTEGER,
		error_message TEXT,
		created_at DATETIME
	);
	`
	loadIndex := `CREATE INDEX IF NOT EXISTS idx_load_history_dashboard ON load_history (dashboard_id, created_at);`

	if _, err := db.Exec(loadTable); err != nil {
		return err
	}
	if _, err := db.Exec(loadIndex); err != nil {
		return err
	}

	return nil
}

// Close closes the DB connection
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// Ping checks the DB connection
func Ping(ctx context.Context) error {
	if db == nil {
		return ErrNotInitialized
	}
	return db.PingContext(ctx)
}

// SaveLoad stores one load attempt, assigning an ID and timestamp when missing
func SaveLoad(ev *model.LoadEvent) error {
	if db == nil {
		return ErrNotInitialized
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`INSERT INTO load_history (id, dashboard_id, source_key, load_trigger, status, row_count, duration_ms, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.DashboardID, ev.SourceKey, ev.Trigger, ev.Status, ev.Rows, ev.DurationMS, ev.Error, ev.CreatedAt)
	return err
}

// ListLoads returns the most recent load attempts of a dashboard, newest first
func ListLoads(dashboardID string, limit int) ([]model.LoadEvent, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`SELECT id, dashboard_id, source_key, load_trigger, status, row_count, duration_ms, error_message, created_at
		FROM load_history WHERE dashboard_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, dashboardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.LoadEvent{}
	for rows.Next() {
		var ev model.LoadEvent
		var errMsg sql.NullString
		if err := rows.Scan(&ev.ID, &ev.DashboardID, &ev.SourceKey, &ev.Trigger, &ev.Status,
			&ev.Rows, &ev.DurationMS, &errMsg, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Error = errMsg.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Recorder adapts the package-level store to the pipeline's load recorder
type Recorder struct{}

// RecordLoad saves ev to the load history
func (Recorder) RecordLoad(_ context.Context, ev model.LoadEvent) error {
	return SaveLoad(&ev)
}
