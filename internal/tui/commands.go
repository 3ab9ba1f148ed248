package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/apiclient"
	"github.com/ontrack-io/ontrack/internal/models"
)

const (
	requestTimeout  = 5 * time.Second
	refreshInterval = 30 * time.Second
)

// Client is the subset of the API the dashboard uses.
type Client interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch apiclient.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Summary(ctx context.Context, days int) (*analytics.Summary, error)
	Streak(ctx context.Context) (*analytics.StreakResult, error)
	CFD(ctx context.Context, days int) ([]analytics.Bucket, error)
	CompletedTasks(ctx context.Context, days int) ([]analytics.CompletedTask, error)
}

func errorMsg(what string, err error) tea.Msg {
	if apiclient.IsUnauthorized(err) {
		return UnauthorizedMsg{}
	}
	return ErrorMsg{Err: fmt.Errorf("failed to %s: %w", what, err)}
}

func loadTasksCmd(c Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		tasks, err := c.ListTasks(ctx)
		if err != nil {
			return errorMsg("load tasks", err)
		}
		return TasksLoadedMsg{Tasks: tasks}
	}
}

func loadStatsCmd(c Client, days int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := StatsLoadedMsg{Days: days}
		var err error
		if msg.Summary, err = c.Summary(ctx, days); err != nil {
			return errorMsg("load summary", err)
		}
		if msg.Streak, err = c.Streak(ctx); err != nil {
			return errorMsg("load streak", err)
		}
		if msg.CFD, err = c.CFD(ctx, days); err != nil {
			return errorMsg("load flow", err)
		}
		if msg.Completed, err = c.CompletedTasks(ctx, days); err != nil {
			return errorMsg("load history", err)
		}
		return msg
	}
}

func setCompletedCmd(c Client, id string, done bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		t, err := c.UpdateTask(ctx, id, apiclient.TaskPatch{Completed: &done})
		if err != nil {
			return errorMsg("update task", err)
		}
		return TaskSavedMsg{Task: t}
	}
}

func deleteTaskCmd(c Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := c.DeleteTask(ctx, id); err != nil {
			return errorMsg("delete task", err)
		}
		return TaskDeletedMsg{}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearSavedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearSavedMsg{}
	})
}
