// Package task handles task management for the daemon.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

// ValidationError and ErrValidation are shared with the user manager.
type ValidationError = models.ValidationError

// ErrValidation is matched by every validation failure.
var ErrValidation = models.ErrValidation

// ErrNothingToUpdate is returned for an update that names no fields.
var ErrNothingToUpdate = &ValidationError{Message: "Nothing to update."}

// Telemetry events emitted by the manager.
const (
	EventTaskCreated   = "task_created"
	EventTaskCompleted = "task_completed"
	EventTaskDeleted   = "task_deleted"
)

// EventSink receives product events. A nil sink drops them.
type EventSink interface {
	Track(userID, event string, props map[string]interface{})
}

// Manager handles task operations.
type Manager struct {
	store  store.Store
	loc    *time.Location
	now    func() time.Time
	events EventSink
}

// NewManager creates a new task manager. loc decides which calendar day is
// "today" for due date checks.
func NewManager(s store.Store, loc *time.Location, now func() time.Time, events EventSink) *Manager {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, loc: loc, now: now, events: events}
}

// CreateOptions contains options for creating a task.
type CreateOptions struct {
	Name              string
	DueDate           string
	Priority          string
	ActionableItems   []string
	CompletionPercent int
}

// UpdateOptions contains options for updating a task. Nil fields are left
// unchanged.
type UpdateOptions struct {
	TaskID            string
	Name              *string
	DueDate           *string
	Priority          *string
	Completed         *bool
	ActionableItems   *[]string
	CompletionPercent *int
}

// Empty reports whether no field is set.
func (o UpdateOptions) Empty() bool {
	return o.Name == nil && o.DueDate == nil && o.Priority == nil &&
		o.Completed == nil && o.ActionableItems == nil && o.CompletionPercent == nil
}

// ListTasks returns the user's tasks ordered by due date, then creation.
func (m *Manager) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := m.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	store.SortTasks(tasks)
	return tasks, nil
}

// GetTask retrieves a task by ID.
func (m *Manager) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := m.store.GetTask(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return task, nil
}

// CreateTask validates opts and creates a new task.
func (m *Manager) CreateTask(ctx context.Context, userID string, opts CreateOptions) (*models.Task, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, models.Invalid("name", "Task name is required and cannot be empty.")
	}
	if strings.TrimSpace(opts.DueDate) == "" {
		return nil, models.Invalid("dueDate", "Due date is required.")
	}
	due, err := m.parseDueDate(opts.DueDate)
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(opts.Priority)
	if err != nil {
		return nil, err
	}
	items, err := cleanItems(opts.ActionableItems)
	if err != nil {
		return nil, err
	}
	if err := checkPercent(opts.CompletionPercent); err != nil {
		return nil, err
	}

	task := models.NewTask(uuid.NewString(), userID, name, due, priority, items, opts.CompletionPercent, m.now())
	if err := m.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	m.track(userID, EventTaskCreated, map[string]interface{}{
		"priority":    string(task.Priority),
		"items":       len(task.ActionableItems),
		"days_to_due": task.DueDate.DaysSince(models.DateOf(m.now().In(m.loc))),
		"initial_pct": task.CompletionPercent,
	})
	return task, nil
}

// UpdateTask applies a partial update. Setting Completed stamps or clears
// CompletedAt; setting it to true on a completed task restamps it.
func (m *Manager) UpdateTask(ctx context.Context, userID string, opts UpdateOptions) (*models.Task, error) {
	if opts.Empty() {
		return nil, ErrNothingToUpdate
	}

	// Validate everything before touching the store.
	var (
		name     string
		due      models.Date
		priority models.Priority
		items    []string
		err      error
	)
	if opts.Name != nil {
		if name = strings.TrimSpace(*opts.Name); name == "" {
			return nil, models.Invalid("name", "Task name cannot be empty.")
		}
	}
	if opts.DueDate != nil {
		if strings.TrimSpace(*opts.DueDate) == "" {
			return nil, models.Invalid("dueDate", "Due date cannot be empty.")
		}
		if due, err = m.parseDueDate(*opts.DueDate); err != nil {
			return nil, err
		}
	}
	if opts.Priority != nil {
		if priority, err = parsePriority(*opts.Priority); err != nil {
			return nil, err
		}
	}
	if opts.ActionableItems != nil {
		if items, err = cleanItems(*opts.ActionableItems); err != nil {
			return nil, err
		}
	}
	if opts.CompletionPercent != nil {
		if err := checkPercent(*opts.CompletionPercent); err != nil {
			return nil, err
		}
	}

	task, err := m.GetTask(ctx, userID, opts.TaskID)
	if err != nil {
		return nil, err
	}
	wasCompleted := task.Completed

	if opts.Name != nil {
		task.Name = name
	}
	if opts.DueDate != nil {
		task.DueDate = due
	}
	if opts.Priority != nil {
		task.Priority = priority
	}
	if opts.ActionableItems != nil {
		task.ActionableItems = items
	}
	if opts.CompletionPercent != nil {
		task.CompletionPercent = *opts.CompletionPercent
	}
	if opts.Completed != nil {
		task.SetCompleted(*opts.Completed, m.now())
	}

	if err := m.store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}

	if task.Completed && !wasCompleted {
		m.track(userID, EventTaskCompleted, map[string]interface{}{
			"priority": string(task.Priority),
			"on_time":  !models.DateOf(task.CompletedAt.In(m.loc)).After(task.DueDate),
			"hours":    task.CompletedAt.Sub(task.CreatedAt).Hours(),
		})
	}
	return task, nil
}

// DeleteTask permanently deletes a task.
func (m *Manager) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := m.store.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	m.track(userID, EventTaskDeleted, nil)
	return nil
}

func (m *Manager) track(userID, event string, props map[string]interface{}) {
	if m.events != nil {
		m.events.Track(userID, event, props)
	}
}

// parseDueDate accepts YYYY-MM-DD dates no earlier than today.
func (m *Manager) parseDueDate(raw string) (models.Date, error) {
	due, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return models.Date{}, models.Invalid("dueDate", "Invalid due date format. Please use YYYY-MM-DD.")
	}
	if due.Before(models.DateOf(m.now().In(m.loc))) {
		return models.Date{}, models.Invalid("dueDate", "Due date cannot be in the past. Please select a future date.")
	}
	return due, nil
}

func parsePriority(raw string) (models.Priority, error) {
	p := models.Priority(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", models.Invalid("priority", "Priority must be P1, P2, or P3.")
	}
	return p, nil
}

// cleanItems trims items and drops blank ones; at least one must remain.
func cleanItems(raw []string) ([]string, error) {
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, models.Invalid("actionableItems", "At least one actionable item is required.")
	}
	return items, nil
}

func checkPercent(p int) error {
	if p < 0 || p > 100 {
		return models.Invalid("completionPercent", "Completion percent must be between 0 and 100.")
	}
	return nil
}
