package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ontrack-io/ontrack/internal/config"
)

func TestClassify(t *testing.T) {
	dataDir := t.TempDir()
	w, err := New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.WatchUser("u1"); err != nil {
		t.Fatal(err)
	}
	newUserDir := filepath.Join(config.UsersDir(dataDir), "u2")
	if err := os.MkdirAll(newUserDir, 0755); err != nil {
		t.Fatal(err)
	}
	tasksDir := config.UserTasksDir(dataDir, "u1")

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   EventType
		userID string
		taskID string
		ok     bool
	}{
		{"users index", config.UsersFile(dataDir), fsnotify.Write, EventUsersChanged, "", "", true},
		{"new user dir", newUserDir, fsnotify.Create, EventUserAdded, "u2", "", true},
		{"user dir write ignored", newUserDir, fsnotify.Write, 0, "", "", false},
		{"task write", filepath.Join(tasksDir, "t1.yaml"), fsnotify.Write, EventTaskChanged, "u1", "t1", true},
		{"task create", filepath.Join(tasksDir, "t1.yaml"), fsnotify.Create, EventTaskCreated, "u1", "t1", true},
		{"task remove", filepath.Join(tasksDir, "t1.yaml"), fsnotify.Remove, EventTaskDeleted, "u1", "t1", true},
		{"non yaml", filepath.Join(tasksDir, "notes.txt"), fsnotify.Write, 0, "", "", false},
		{"unwatched user", filepath.Join(config.UserTasksDir(dataDir, "u9"), "t1.yaml"), fsnotify.Write, 0, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := w.classify(filepath.Dir(tt.path), filepath.Base(tt.path), tt.path, tt.op)
			if ok != tt.ok {
				t.Fatalf("classify(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if !ok {
				return
			}
			if ev.Type != tt.want || ev.UserID != tt.userID || ev.TaskID != tt.taskID {
				t.Errorf("classify(%q) = %+v, want %v user=%q task=%q", tt.path, ev, tt.want, tt.userID, tt.taskID)
			}
		})
	}
}

func TestWatchUserIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 2; i++ {
		if err := w.WatchUser("u1"); err != nil {
			t.Fatalf("WatchUser() #%d error = %v", i, err)
		}
	}
	if !w.Watching("u1") {
		t.Error("Watching(u1) = false after WatchUser")
	}
	w.UnwatchUser("u1")
	if w.Watching("u1") {
		t.Error("Watching(u1) = true after UnwatchUser")
	}
}

type recordingCache struct {
	mu          sync.Mutex
	ids         []string
	invalidated map[string]int
	usersReload int
}

func (c *recordingCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated[userID]++
}

func (c *recordingCache) InvalidateUsers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usersReload++
}

func (c *recordingCache) UserIDs() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...), nil
}

func (c *recordingCache) count(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[userID]
}

func TestRunInvalidatesOnTaskEdit(t *testing.T) {
	dataDir := t.TempDir()
	w, err := New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	cache := &recordingCache{ids: []string{"u1"}, invalidated: map[string]int{}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, cache)

	waitFor(t, func() bool { return w.Watching("u1") })

	path := config.TaskFile(dataDir, "u1", "t1")
	if err := os.WriteFile(path, []byte("id: t1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return cache.count("u1") > 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
