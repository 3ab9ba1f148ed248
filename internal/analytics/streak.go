package analytics

import (
	"sort"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// StreakResult is the current run of on-time completion days.
type StreakResult struct {
	StreakDays      int  `json:"on_time_streak_days"`
	HasActiveStreak bool `json:"current_streak"`
}

// Streak counts consecutive on-time days ending today. A day is on-time when
// at least one task completed that day met its due date. One missing day
// between on-time days is tolerated; a longer gap ends the streak.
// Only the StreakScanLimit most recent completions are considered.
func Streak(tasks []*models.Task, now time.Time) StreakResult {
	loc := now.Location()

	completed := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil {
			completed = append(completed, t)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})
	if len(completed) > StreakScanLimit {
		completed = completed[:StreakScanLimit]
	}

	onTimeDays := make(map[models.Date]struct{})
	for _, t := range completed {
		if OnTime(*t.CompletedAt, t.DueDate, loc) {
			onTimeDays[DateOf(*t.CompletedAt, loc)] = struct{}{}
		}
	}

	dates := make([]models.Date, 0, len(onTimeDays))
	for d := range onTimeDays {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	streak := 0
	expected := DateOf(now, loc)
	for _, d := range dates {
		if expected.DaysSince(d) > 1 {
			break
		}
		streak++
		expected = d.AddDays(-1)
	}
	return StreakResult{StreakDays: streak, HasActiveStreak: streak > 0}
}
