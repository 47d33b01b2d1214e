package pipeline

import (
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/pkg/utils"
	"time"
)

// ------------------- Temporal Bucketing -------------------

// BucketStart returns the first day of the period containing t. Weeks start on Monday.
func BucketStart(t time.Time, period model.Period) time.Time {
	day := utils.Day(t)
	switch period {
	case model.PeriodWeekly:
		// Monday = 0 ... Sunday = 6
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case model.PeriodMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	case model.PeriodYearly:
		return time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// BucketLabel renders a bucket start for chart axes
func BucketLabel(start time.Time, period model.Period) string {
	switch period {
	case model.PeriodWeekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("Week %02d / %d", week, year)
	case model.PeriodMonthly:
		return start.Format("Jan 2006")
	case model.PeriodYearly:
		return start.Format("2006")
	default:
		return start.Format("02/01/2006")
	}
}
