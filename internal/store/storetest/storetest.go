// Package storetest holds a behavioural suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	alice := models.NewUser(uuid.NewString(), "alice", "hash-a", created)
	bob := models.NewUser(uuid.NewString(), "bob", "hash-b", created)

	t.Run("users", func(t *testing.T) {
		for _, u := range []*models.User{alice, bob} {
			if err := s.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser(%s) error = %v", u.Username, err)
			}
		}
		dup := models.NewUser(uuid.NewString(), "alice", "x", created)
		if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrUserExists) {
			t.Errorf("CreateUser(duplicate) error = %v, want ErrUserExists", err)
		}

		got, err := s.GetUserByName(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserByName() error = %v", err)
		}
		if got.ID != alice.ID || got.PasswordHash != "hash-a" || !got.CreatedAt.Equal(created) {
			t.Errorf("GetUserByName() = %+v, want %+v", got, alice)
		}
		if _, err := s.GetUser(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("tasks", func(t *testing.T) {
		first := models.NewTask(uuid.NewString(), alice.ID, "write report", models.NewDate(2024, 6, 10),
			models.PriorityP1, []string{"outline", "draft"}, 25, created)
		second := models.NewTask(uuid.NewString(), alice.ID, "book flights", models.NewDate(2024, 6, 5),
			models.PriorityP3, []string{"compare"}, 0, created.Add(time.Minute))
		for _, task := range []*models.Task{first, second} {
			if err := s.CreateTask(ctx, task); err != nil {
				t.Fatalf("CreateTask(%s) error = %v", task.Name, err)
			}
		}

		tasks, err := s.ListTasks(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListTasks() error = %v", err)
		}
		if len(tasks) != 2 || tasks[0].ID != second.ID {
			t.Fatalf("ListTasks() returned %d tasks, want 2 ordered by due date", len(tasks))
		}
		if got := tasks[1]; got.Name != "write report" || got.CompletionPercent != 25 ||
			len(got.ActionableItems) != 2 || !got.DueDate.Equal(first.DueDate) || got.Priority != models.PriorityP1 {
			t.Errorf("ListTasks()[1] = %+v", got)
		}

		doneAt := created.Add(48 * time.Hour)
		first.SetCompleted(true, doneAt)
		first.ActionableItems = []string{"outline"}
		if err := s.UpdateTask(ctx, first); err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		got, err := s.GetTask(ctx, alice.ID, first.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if !got.Completed || got.CompletedAt == nil || !got.CompletedAt.Equal(doneAt) {
			t.Errorf("GetTask() completion = %v %v, want true %v", got.Completed, got.CompletedAt, doneAt)
		}
		if len(got.ActionableItems) != 1 {
			t.Errorf("GetTask() ActionableItems = %v", got.ActionableItems)
		}

		first.SetCompleted(false, doneAt)
		if err := s.UpdateTask(ctx, first); err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		if got, _ := s.GetTask(ctx, alice.ID, first.ID); got.Completed || got.CompletedAt != nil {
			t.Errorf("GetTask() after undo = %v %v, want false nil", got.Completed, got.CompletedAt)
		}

		if _, err := s.GetTask(ctx, bob.ID, first.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetTask(other user) error = %v, want ErrNotFound", err)
		}
		if err := s.DeleteTask(ctx, bob.ID, first.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("DeleteTask(other user) error = %v, want ErrNotFound", err)
		}

		if err := s.DeleteTask(ctx, alice.ID, first.ID); err != nil {
			t.Fatalf("DeleteTask() error = %v", err)
		}
		if _, err := s.GetTask(ctx, alice.ID, first.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetTask() after delete error = %v, want ErrNotFound", err)
		}
		missing := models.NewTask(uuid.NewString(), alice.ID, "ghost", first.DueDate, models.PriorityP2, []string{"x"}, 0, created)
		if err := s.UpdateTask(ctx, missing); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("UpdateTask(missing) error = %v, want ErrNotFound", err)
		}

		empty, err := s.ListTasks(ctx, bob.ID)
		if err != nil || empty == nil || len(empty) != 0 {
			t.Errorf("ListTasks(bob) = %v, %v; want empty non-nil", empty, err)
		}
	})
}
