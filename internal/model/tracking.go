package model

import "time"

// Load statuses recorded in the history table
const (
	LoadOK     = "ok"
	LoadFailed = "failed"
)

// Load triggers
const (
	TriggerCacheMiss = "cache-miss"
	TriggerReload    = "reload"
	TriggerSnapshot  = "snapshot"
)

// LoadEvent records one fetch of a dashboard source
type LoadEvent struct {
	ID          string    `json:"id"`
	DashboardID string    `json:"dashboard_id"`
	SourceKey   string    `json:"source_key"`
	Trigger     string    `json:"trigger"`
	Status      string    `json:"status"`
	Rows        int       `json:"rows"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
