package tui

import (
	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/models"
)

// TasksLoadedMsg carries the user's task list.
type TasksLoadedMsg struct {
	Tasks []*models.Task
}

// StatsLoadedMsg carries every analytics view for one window.
type StatsLoadedMsg struct {
	Days      int
	Summary   *analytics.Summary
	Streak    *analytics.StreakResult
	CFD       []analytics.Bucket
	Completed []analytics.CompletedTask
}

// TaskSavedMsg signals a task was updated.
type TaskSavedMsg struct {
	Task *models.Task
}

// TaskDeletedMsg signals a task was deleted.
type TaskDeletedMsg struct{}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// UnauthorizedMsg signals the session is no longer valid.
type UnauthorizedMsg struct{}

// TickMsg is the periodic refresh tick.
type TickMsg struct{}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}

// ClearSavedMsg clears the "Saved" indicator.
type ClearSavedMsg struct{}
