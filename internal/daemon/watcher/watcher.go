// Package watcher keeps the file store's cache in step with edits made to
// the data directory outside the daemon.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ontrack-io/ontrack/internal/config"
)

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventUsersChanged EventType = iota // users.yaml rewritten
	EventUserAdded                     // new directory under users/
	EventTaskChanged
	EventTaskCreated
	EventTaskDeleted
)

func (t EventType) String() string {
	switch t {
	case EventUsersChanged:
		return "users-changed"
	case EventUserAdded:
		return "user-added"
	case EventTaskChanged:
		return "task-changed"
	case EventTaskCreated:
		return "task-created"
	case EventTaskDeleted:
		return "task-deleted"
	}
	return "unknown"
}

// DebounceDelay is how long a path must stay quiet before its event fires.
const DebounceDelay = 100 * time.Millisecond

// Event represents a file system change event.
type Event struct {
	Type   EventType
	UserID string
	TaskID string
	Path   string
}

// Cache is the part of the file store the watcher refreshes.
type Cache interface {
	Invalidate(userID string)
	InvalidateUsers()
	UserIDs() ([]string, error)
}

// Watcher watches a file store data directory.
type Watcher struct {
	dataDir    string
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	users      map[string]string // tasks dir -> userID
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new file system watcher for dataDir.
func New(dataDir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dataDir:    filepath.Clean(dataDir),
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 100),
		done:       make(chan struct{}),
		users:      make(map[string]string),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start watches the data directory and the users directory.
func (w *Watcher) Start() error {
	usersDir := config.UsersDir(w.dataDir)
	if err := os.MkdirAll(usersDir, 0755); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(w.dataDir); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(usersDir); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Stop stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

// WatchUser adds a user's tasks directory, creating it if needed.
func (w *Watcher) WatchUser(userID string) error {
	tasksDir := config.UserTasksDir(w.dataDir, userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.users[tasksDir]; ok {
		return nil
	}

	if err := config.EnsureUserDir(w.dataDir, userID); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(tasksDir); err != nil {
		return err
	}
	w.users[tasksDir] = userID
	log.Printf("[watcher] Watching user %s: %s", userID, tasksDir)
	return nil
}

// UnwatchUser stops watching a user's tasks directory.
func (w *Watcher) UnwatchUser(userID string) {
	tasksDir := config.UserTasksDir(w.dataDir, userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.users[tasksDir]; !ok {
		return
	}
	delete(w.users, tasksDir)
	_ = w.fsWatcher.Remove(tasksDir)
}

// Watching reports whether userID's tasks directory is watched.
func (w *Watcher) Watching(userID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.users[config.UserTasksDir(w.dataDir, userID)]
	return ok
}

// Run applies events to cache until ctx is done or the watcher stops.
// Every known user is watched first, and users added later are picked up
// from users.yaml changes.
func (w *Watcher) Run(ctx context.Context, cache Cache) {
	w.watchAll(cache)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev := <-w.eventsChan:
			switch ev.Type {
			case EventUsersChanged:
				cache.InvalidateUsers()
				w.watchAll(cache)
			case EventUserAdded:
				cache.InvalidateUsers()
				if err := w.WatchUser(ev.UserID); err != nil {
					log.Printf("[watcher] Failed to watch user %s: %v", ev.UserID, err)
				}
				cache.Invalidate(ev.UserID)
			default:
				cache.Invalidate(ev.UserID)
			}
		}
	}
}

func (w *Watcher) watchAll(cache Cache) {
	ids, err := cache.UserIDs()
	if err != nil {
		log.Printf("[watcher] Failed to list users: %v", err)
		return
	}
	for _, id := range ids {
		if err := w.WatchUser(id); err != nil {
			log.Printf("[watcher] Failed to watch user %s: %v", id, err)
		}
	}
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] Error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	// Temp files from atomic saves show up as the final name after rename.
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	w.debounceEvent(event.Name, func() {
		w.processFileChange(event.Name, event.Op)
	})
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(DebounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

// processFileChange handles a debounced file change.
func (w *Watcher) processFileChange(path string, op fsnotify.Op) {
	filename := filepath.Base(path)
	dir := filepath.Dir(path)

	if ev, ok := w.classify(dir, filename, path, op); ok {
		select {
		case w.eventsChan <- ev:
		case <-w.done:
		}
	}
}

func (w *Watcher) classify(dir, filename, path string, op fsnotify.Op) (Event, bool) {
	if dir == w.dataDir && filename == config.UsersFileName {
		return Event{Type: EventUsersChanged, Path: path}, true
	}
	if dir == config.UsersDir(w.dataDir) {
		if op&fsnotify.Create == 0 {
			return Event{}, false
		}
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			return Event{}, false
		}
		return Event{Type: EventUserAdded, UserID: filename, Path: path}, true
	}

	w.mu.RLock()
	userID, ok := w.users[dir]
	w.mu.RUnlock()
	if !ok || filepath.Ext(filename) != ".yaml" {
		return Event{}, false
	}

	eventType := EventTaskChanged
	switch {
	case op&fsnotify.Remove != 0:
		eventType = EventTaskDeleted
	case op&fsnotify.Create != 0:
		eventType = EventTaskCreated
	}
	return Event{
		Type:   eventType,
		UserID: userID,
		TaskID: strings.TrimSuffix(filename, ".yaml"),
		Path:   path,
	}, true
}
