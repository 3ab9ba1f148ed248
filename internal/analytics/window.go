// Package analytics derives productivity metrics from a snapshot of one
// user's tasks: the completion summary, the on-time streak, cumulative flow
// buckets and the completed-task history.
//
// Every exported function here is pure. Callers fetch the snapshot, pick the
// clock and pass both in; the location of now decides calendar days.
package analytics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// Window defaults and limits, in days.
const (
	DefaultSummaryDays   = 30
	DefaultCFDDays       = 30
	DefaultCompletedDays = 365
	MaxWindowDays        = 3650

	// StreakScanLimit caps how many of the most recent completions the
	// streak looks at.
	StreakScanLimit = 365

	// WeekDays is the fixed window of Summary.TasksCompletedThisWeek.
	WeekDays = 7
)

// ValidateWindow accepts 1..MaxWindowDays. Out of range values are rejected,
// never clamped.
func ValidateWindow(days int) error {
	if days < 1 || days > MaxWindowDays {
		return &WindowError{Raw: strconv.Itoa(days), Reason: "must be between 1 and " + strconv.Itoa(MaxWindowDays)}
	}
	return nil
}

// ParseWindow parses a days query value. An empty value yields def.
func ParseWindow(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &WindowError{Raw: raw, Reason: "must be an integer"}
	}
	if err := ValidateWindow(days); err != nil {
		return 0, err
	}
	return days, nil
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) models.Date {
	return models.DateOf(t.In(loc))
}

// WindowStart returns the earliest instant inside a rolling window of days.
func WindowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// OnTime reports whether a completion at completedAt met the due date.
// A task finished any time on its due day counts.
func OnTime(completedAt time.Time, due models.Date, loc *time.Location) bool {
	return !DateOf(completedAt, loc).After(due)
}

// completedSince reports whether t was completed at or after start.
func completedSince(t *models.Task, start time.Time) bool {
	return t.Completed && t.CompletedAt != nil && !t.CompletedAt.Before(start)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
