package analytics

import (
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// Summary is the completion overview over a rolling window.
type Summary struct {
	TotalCompleted         int     `json:"total_completed"`
	CompletedOnTime        int     `json:"completed_on_time"`
	OnTimeRate             float64 `json:"on_time_rate"`
	AvgCompletionDays      float64 `json:"avg_completion_days"`
	AvgCompletionHours     float64 `json:"avg_completion_hours"`
	AvgCompletionMinutes   float64 `json:"avg_completion_minutes"`
	TasksCompletedThisWeek int     `json:"tasks_completed_this_week"`
	TimeWindowDays         int     `json:"time_window_days"`
}

// Summarize counts completions inside the last days and how many met their
// due date, and averages creation-to-completion time.
// The weekly count always uses WeekDays regardless of days.
func Summarize(tasks []*models.Task, days int, now time.Time) (Summary, error) {
	if err := ValidateWindow(days); err != nil {
		return Summary{}, err
	}
	loc := now.Location()
	start := WindowStart(now, days)
	weekStart := WindowStart(now, WeekDays)

	s := Summary{TimeWindowDays: days}
	var totalSeconds float64
	for _, t := range tasks {
		if completedSince(t, weekStart) {
			s.TasksCompletedThisWeek++
		}
		if !completedSince(t, start) {
			continue
		}
		s.TotalCompleted++
		if OnTime(*t.CompletedAt, t.DueDate, loc) {
			s.CompletedOnTime++
		}
		totalSeconds += t.CompletedAt.Sub(t.CreatedAt).Seconds()
	}

	if s.TotalCompleted == 0 {
		return s, nil
	}
	s.OnTimeRate = round2(float64(s.CompletedOnTime) / float64(s.TotalCompleted))
	avg := totalSeconds / float64(s.TotalCompleted)
	s.AvgCompletionMinutes = round2(avg / 60)
	s.AvgCompletionHours = round2(avg / 3600)
	s.AvgCompletionDays = avg / 86400
	return s, nil
}
