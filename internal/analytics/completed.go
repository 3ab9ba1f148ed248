package analytics

import (
	"sort"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// CompletedTask is one row of the completion history.
type CompletedTask struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DueDate     models.Date     `json:"dueDate"`
	Priority    models.Priority `json:"priority"`
	CompletedAt time.Time       `json:"completedAt"`
	OnTime      bool            `json:"onTime"`
}

// CompletedTasks lists tasks completed in the last days, newest first.
func CompletedTasks(tasks []*models.Task, days int, now time.Time) ([]CompletedTask, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}
	loc := now.Location()
	start := WindowStart(now, days)

	out := make([]CompletedTask, 0)
	for _, t := range tasks {
		if !completedSince(t, start) {
			continue
		}
		out = append(out, CompletedTask{
			ID:          t.ID,
			Name:        t.Name,
			DueDate:     t.DueDate,
			Priority:    t.Priority,
			CompletedAt: t.CompletedAt.In(loc),
			OnTime:      OnTime(*t.CompletedAt, t.DueDate, loc),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}
