package analytics

import (
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// Bucket is one day of the cumulative flow diagram.
type Bucket struct {
	Date       models.Date `json:"date"`
	Backlog    int         `json:"backlog"`
	InProgress int         `json:"in_progress"`
	Done       int         `json:"done"`
}

// Total is the number of tasks that existed on the bucket's day.
func (b Bucket) Total() int {
	return b.Backlog + b.InProgress + b.Done
}

// CFD returns one bucket per day for the last days days, oldest first,
// ending today. Each task that existed on a day is placed in exactly one
// column: done if it was completed by then, in progress if it has any
// completion percent, backlog otherwise. Past days are reconstructed from
// the tasks' current percent, so a task that is in progress today counts as
// in progress on every earlier day it existed.
func CFD(tasks []*models.Task, days int, now time.Time) ([]Bucket, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}
	loc := now.Location()

	type span struct {
		created    models.Date
		completed  models.Date
		inProgress bool
	}
	spans := make([]span, 0, len(tasks))
	for _, t := range tasks {
		s := span{
			created:    DateOf(t.CreatedAt, loc),
			inProgress: t.CompletionPercent > 0,
		}
		if t.CompletedAt != nil {
			s.completed = DateOf(*t.CompletedAt, loc)
		}
		spans = append(spans, s)
	}

	start := DateOf(now, loc).AddDays(-(days - 1))
	buckets := make([]Bucket, days)
	for i := range buckets {
		day := start.AddDays(i)
		b := Bucket{Date: day}
		for _, s := range spans {
			switch {
			case s.created.After(day):
			case !s.completed.IsZero() && !s.completed.After(day):
				b.Done++
			case s.inProgress:
				b.InProgress++
			default:
				b.Backlog++
			}
		}
		buckets[i] = b
	}
	return buckets, nil
}
