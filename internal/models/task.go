package models

import "time"

// Priority is a task's priority bucket.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Valid reports whether p is one of P1, P2 or P3.
func (p Priority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return true
	}
	return false
}

// Task represents a single tracked task owned by one user.
// In the file store this corresponds to users/<user_id>/tasks/<id>.yaml.
type Task struct {
	ID                string     `yaml:"id" json:"id"`
	UserID            string     `yaml:"user_id" json:"-"`
	Name              string     `yaml:"name" json:"name"`
	DueDate           Date       `yaml:"due_date" json:"dueDate"`
	Priority          Priority   `yaml:"priority" json:"priority"`
	Completed         bool       `yaml:"completed" json:"completed"`
	CompletedAt       *time.Time `yaml:"completed_at,omitempty" json:"completedAt"` // Set iff Completed
	CompletionPercent int        `yaml:"completion_percent" json:"completionPercent"`
	ActionableItems   []string   `yaml:"actionable_items" json:"actionableItems"`
	CreatedAt         time.Time  `yaml:"created_at" json:"createdAt"`
}

// NewTask creates a new, not yet completed task.
func NewTask(id, userID, name string, due Date, priority Priority, items []string, percent int, now time.Time) *Task {
	return &Task{
		ID:                id,
		UserID:            userID,
		Name:              name,
		DueDate:           due,
		Priority:          priority,
		CompletionPercent: percent,
		ActionableItems:   append([]string(nil), items...),
		CreatedAt:         now.UTC(),
	}
}

// SetCompleted toggles completion and keeps CompletedAt in step with it.
// Marking an already completed task done again restamps CompletedAt.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if done {
		at := now.UTC()
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.ActionableItems = append([]string(nil), t.ActionableItems...)
	return &c
}
