package analytics

import (
	"context"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// TaskLister returns one self-consistent snapshot of a user's tasks.
type TaskLister interface {
	ListTasks(ctx context.Context, userID string) ([]*models.Task, error)
}

// Service binds the pure metric functions to a task source and a clock.
type Service struct {
	tasks TaskLister
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a Service. A nil loc means time.Local and a nil now
// means time.Now.
func NewService(tasks TaskLister, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{tasks: tasks, loc: loc, now: now}
}

func (s *Service) snapshot(ctx context.Context, userID string) ([]*models.Task, time.Time, error) {
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		return nil, time.Time{}, &DataUnavailableError{UserID: userID, Err: err}
	}
	return tasks, s.now().In(s.loc), nil
}

// Summary computes the completion summary for userID.
func (s *Service) Summary(ctx context.Context, userID string, days int) (Summary, error) {
	if err := ValidateWindow(days); err != nil {
		return Summary{}, err
	}
	tasks, now, err := s.snapshot(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(tasks, days, now)
}

// Streak computes the current on-time streak for userID.
func (s *Service) Streak(ctx context.Context, userID string) (StreakResult, error) {
	tasks, now, err := s.snapshot(ctx, userID)
	if err != nil {
		return StreakResult{}, err
	}
	return Streak(tasks, now), nil
}

// CFD computes cumulative flow buckets for userID.
func (s *Service) CFD(ctx context.Context, userID string, days int) ([]Bucket, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}
	tasks, now, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return CFD(tasks, days, now)
}

// CompletedTasks lists userID's recent completions.
func (s *Service) CompletedTasks(ctx context.Context, userID string, days int) ([]CompletedTask, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}
	tasks, now, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return CompletedTasks(tasks, days, now)
}
