package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

var created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func newTask(id, userID string, due models.Date) *models.Task {
	return models.NewTask(id, userID, "task "+id, due, models.PriorityP1, []string{"first", "second"}, 0, created)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	later := newTask("b", "u1", models.NewDate(2024, 7, 2))
	sooner := newTask("a", "u1", models.NewDate(2024, 7, 1))
	for _, task := range []*models.Task{later, sooner} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", task.ID, err)
		}
	}
	if !config.FileExists(config.TaskFile(s.Dir(), "u1", "a")) {
		t.Fatal("task file was not written")
	}

	tasks, err := s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "a" || tasks[1].ID != "b" {
		t.Fatalf("ListTasks() = %v, want [a b] by due date", ids(tasks))
	}

	got, err := s.GetTask(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	got.SetCompleted(true, created.Add(time.Hour))
	got.CompletionPercent = 100
	if err := s.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	// A fresh store reads the same state back from disk.
	reopened, err := New(s.Dir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	back, err := reopened.GetTask(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("GetTask() after reopen error = %v", err)
	}
	if !back.Completed || back.CompletedAt == nil || !back.CompletedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("reloaded completion = %v %v", back.Completed, back.CompletedAt)
	}
	if !back.DueDate.Equal(models.NewDate(2024, 7, 1)) {
		t.Errorf("reloaded DueDate = %s", back.DueDate)
	}
	if len(back.ActionableItems) != 2 {
		t.Errorf("reloaded ActionableItems = %v", back.ActionableItems)
	}

	if err := s.DeleteTask(ctx, "u1", "a"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := s.GetTask(ctx, "u1", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTask() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTask(ctx, "u1", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrNotFound", err)
	}
}

func TestTasksAreScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.CreateTask(ctx, newTask("a", "u1", models.NewDate(2024, 7, 1))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTask(ctx, "u2", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTask(other user) error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateTask(ctx, newTask("a", "u2", models.NewDate(2024, 7, 1))); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateTask(other user) error = %v, want ErrNotFound", err)
	}
	tasks, err := s.ListTasks(ctx, "u2")
	if err != nil || len(tasks) != 0 {
		t.Errorf("ListTasks(u2) = %v, %v; want empty", ids(tasks), err)
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.CreateTask(ctx, newTask("a", "u1", models.NewDate(2024, 7, 1))); err != nil {
		t.Fatal(err)
	}

	tasks, _ := s.ListTasks(ctx, "u1")
	tasks[0].Name = "mutated"
	tasks[0].ActionableItems[0] = "mutated"

	again, _ := s.GetTask(ctx, "u1", "a")
	if again.Name != "task a" || again.ActionableItems[0] != "first" {
		t.Errorf("cache was mutated through a returned task: %+v", again)
	}
}

func TestInvalidatePicksUpExternalEdits(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if _, err := s.ListTasks(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	external := newTask("x", "u1", models.NewDate(2024, 8, 1))
	if err := config.SaveYAML(config.TaskFile(s.Dir(), "u1", "x"), external); err != nil {
		t.Fatal(err)
	}
	// Stray files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(config.UserTasksDir(s.Dir(), "u1"), "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	tasks, _ := s.ListTasks(ctx, "u1")
	if len(tasks) != 0 {
		t.Fatalf("ListTasks() before Invalidate = %v, want cached empty list", ids(tasks))
	}

	s.Invalidate("u1")
	tasks, err := s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "x" || tasks[0].UserID != "u1" {
		t.Errorf("ListTasks() after Invalidate = %v", ids(tasks))
	}
}

func TestFileNameOwnsTaskID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// A hand-edited file whose id field disagrees with its name.
	edited := newTask("renamed-in-yaml", "u1", models.NewDate(2024, 8, 1))
	path := config.TaskFile(s.Dir(), "u1", "on-disk")
	if err := config.SaveYAML(path, edited); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "on-disk" {
		t.Fatalf("ListTasks() = %v, want [on-disk]", ids(tasks))
	}

	tasks[0].Name = "updated"
	if err := s.UpdateTask(ctx, tasks[0]); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if err := s.DeleteTask(ctx, "u1", "on-disk"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("task file still present after DeleteTask: %v", err)
	}

	s.Invalidate("u1")
	tasks, err = s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("ListTasks() after delete and Invalidate = %v, want empty", ids(tasks))
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ana := models.NewUser("id-ana", "ana", "hash", created)
	if err := s.CreateUser(ctx, ana); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := s.CreateUser(ctx, models.NewUser("id-2", "ana", "hash", created)); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrUserExists", err)
	}

	byName, err := s.GetUserByName(ctx, "ana")
	if err != nil || byName.ID != "id-ana" {
		t.Errorf("GetUserByName() = %+v, %v", byName, err)
	}
	byID, err := s.GetUser(ctx, "id-ana")
	if err != nil || byID.PasswordHash != "hash" {
		t.Errorf("GetUser() = %+v, %v", byID, err)
	}
	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}

	s.InvalidateUsers()
	ids, err := s.UserIDs()
	if err != nil || len(ids) != 1 || ids[0] != "id-ana" {
		t.Errorf("UserIDs() = %v, %v", ids, err)
	}
}

func TestRejectsPathLikeUserIDs(t *testing.T) {
	s := newStore(t)
	for _, id := range []string{"", "..", "a/b"} {
		if _, err := s.ListTasks(context.Background(), id); err == nil {
			t.Errorf("ListTasks(%q) error = nil, want error", id)
		}
	}
}

func ids(tasks []*models.Task) []string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
