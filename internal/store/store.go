// Package store defines the persistence contract for users and their tasks.
// Backends live in the filestore, pgstore and sqlitestore subpackages.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/ontrack-io/ontrack/internal/models"
)

var (
	// ErrNotFound is returned when a task or user does not exist, or the
	// task belongs to a different user.
	ErrNotFound = errors.New("not found")

	// ErrUserExists is returned by CreateUser for a taken username.
	ErrUserExists = errors.New("username already exists")
)

// Store persists users and tasks. ListTasks must return one self-consistent
// snapshot of the user's tasks; analytics are computed over it.
type Store interface {
	ListTasks(ctx context.Context, userID string) ([]*models.Task, error)
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)

	Close() error
}

// SortTasks orders tasks by due date, then creation time, then ID.
func SortTasks(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
