package pipeline

import (
	"context"
	"go-prod-dashboard/internal/model"
	"time"

	"github.com/rs/zerolog/log"
)

// LoadRecorder persists load attempts (the sqlite store in production)
type LoadRecorder interface {
	RecordLoad(ctx context.Context, ev model.LoadEvent) error
}

// recordLoad saves one load attempt; history failures never fail the request
func recordLoad(ctx context.Context, rec LoadRecorder, ev model.LoadEvent) {
	if rec == nil {
		return
	}
	if err := rec.RecordLoad(ctx, ev); err != nil {
		log.Warn().Err(err).Str("dashboard", ev.DashboardID).Msg("⚠️ Failed to record load history")
	}
}

// ------------------- Stage Tracking -------------------

// StageTracker times the stages of one dashboard run
type StageTracker struct {
	dashboardID string
	current     string
	started     time.Time
	stages      []model.StageTiming
}

// NewStageTracker creates a tracker for one run
func NewStageTracker(dashboardID string) *StageTracker {
	return &StageTracker{dashboardID: dashboardID}
}

// StartStage marks the start of a stage
func (st *StageTracker) StartStage(stage string) {
	st.current = stage
	st.started = time.Now()
}

// EndStage marks the end of the current stage
func (st *StageTracker) EndStage(records int) {
	if st.current == "" {
		return
	}
	d := time.Since(st.started)
	st.stages = append(st.stages, model.StageTiming{
		Stage:      st.current,
		DurationMS: d.Milliseconds(),
		Records:    records,
	})
	log.Debug().
		Str("dashboard", st.dashboardID).
		Str("stage", st.current).
		Int("records", records).
		Dur("duration", d).
		Msg("📊 Stage completed")
	st.current = ""
}

// Stages returns the completed stage timings
func (st *StageTracker) Stages() []model.StageTiming {
	return st.stages
}
