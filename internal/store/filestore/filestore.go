// Package filestore implements store.Store on plain YAML files:
//
//	<data_dir>/users.yaml
//	<data_dir>/users/<user_id>/tasks/<task_id>.yaml
//
// Loaded data is cached in memory. Writes made through the Store keep the
// cache current; edits made behind its back are picked up after Invalidate,
// which the daemon's file watcher calls.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

// Store is a YAML file backed store.
type Store struct {
	dir string

	mu    sync.RWMutex
	users []*models.User                     // nil until loaded
	tasks map[string]map[string]*models.Task // user ID -> task ID -> task
}

var _ store.Store = (*Store)(nil)

// New opens (and creates if needed) a file store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(config.UsersDir(dir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Store{
		dir:   dir,
		tasks: make(map[string]map[string]*models.Task),
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Invalidate drops the cached tasks of one user.
func (s *Store) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.tasks, userID)
	s.mu.Unlock()
}

// InvalidateUsers drops the cached account index.
func (s *Store) InvalidateUsers() {
	s.mu.Lock()
	s.users = nil
	s.mu.Unlock()
}

// Close is a no-op; files are written synchronously.
func (s *Store) Close() error {
	return nil
}

// ListTasks returns copies of all of the user's tasks, sorted by due date.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	byID, err := s.userTasks(userID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	tasks := make([]*models.Task, 0, len(byID))
	for _, t := range byID {
		tasks = append(tasks, t.Clone())
	}
	s.mu.RUnlock()

	store.SortTasks(tasks)
	return tasks, nil
}

// GetTask returns a copy of one task.
func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	byID, err := s.userTasks(userID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := byID[taskID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t.Clone(), nil
}

// CreateTask writes a new task file.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.tasksLocked(task.UserID)
	if err != nil {
		return err
	}
	if _, exists := byID[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	if err := s.saveTask(task); err != nil {
		return err
	}
	byID[task.ID] = task.Clone()
	return nil
}

// UpdateTask rewrites an existing task file.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.tasksLocked(task.UserID)
	if err != nil {
		return err
	}
	if _, exists := byID[task.ID]; !exists {
		return store.ErrNotFound
	}
	if err := s.saveTask(task); err != nil {
		return err
	}
	byID[task.ID] = task.Clone()
	return nil
}

// DeleteTask removes a task file.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.tasksLocked(userID)
	if err != nil {
		return err
	}
	if _, exists := byID[taskID]; !exists {
		return store.ErrNotFound
	}
	if err := os.Remove(config.TaskFile(s.dir, userID, taskID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	delete(byID, taskID)
	return nil
}

// CreateUser appends a user to users.yaml and creates the user's directory.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.loadUsers(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		// Invalidated between load and lock; reload under the write lock.
		if err := s.readUsersLocked(); err != nil {
			return err
		}
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return store.ErrUserExists
		}
	}

	next := append(append([]*models.User(nil), s.users...), cloneUser(user))
	if err := config.SaveYAML(config.UsersFile(s.dir), &models.UsersFile{Version: 1, Users: next}); err != nil {
		return err
	}
	if err := config.EnsureUserDir(s.dir, user.ID); err != nil {
		return fmt.Errorf("failed to create user dir: %w", err)
	}
	s.users = next
	return nil
}

// GetUser looks a user up by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ID == id })
}

// GetUserByName looks a user up by username.
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

// UserIDs returns the IDs of all known users.
func (s *Store) UserIDs() ([]string, error) {
	if err := s.loadUsers(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for _, u := range s.users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	if err := s.loadUsers(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) loadUsers() error {
	s.mu.RLock()
	loaded := s.users != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users != nil {
		return nil
	}
	return s.readUsersLocked()
}

func (s *Store) readUsersLocked() error {
	file, err := config.LoadYAMLOrDefault(config.UsersFile(s.dir), func() *models.UsersFile {
		return &models.UsersFile{Version: 1}
	})
	if err != nil {
		return err
	}
	s.users = file.Users
	if s.users == nil {
		s.users = []*models.User{}
	}
	return nil
}

// userTasks makes sure the user's tasks are cached and returns the cache
// map. Callers must hold s.mu before reading it.
func (s *Store) userTasks(userID string) (map[string]*models.Task, error) {
	s.mu.RLock()
	byID, ok := s.tasks[userID]
	s.mu.RUnlock()
	if ok {
		return byID, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLocked(userID)
}

// tasksLocked returns the cache map for userID, reading the directory on a
// miss. Callers must hold the write lock.
func (s *Store) tasksLocked(userID string) (map[string]*models.Task, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if byID, ok := s.tasks[userID]; ok {
		return byID, nil
	}
	byID, err := s.readTasks(userID)
	if err != nil {
		return nil, err
	}
	s.tasks[userID] = byID
	return byID, nil
}

func validateUserID(userID string) error {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}

// readTasks scans a user's tasks directory in one pass.
func (s *Store) readTasks(userID string) (map[string]*models.Task, error) {
	tasksDir := config.UserTasksDir(s.dir, userID)
	byID := make(map[string]*models.Task)

	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return byID, nil
		}
		return nil, fmt.Errorf("failed to read tasks dir %s: %w", tasksDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") || strings.HasPrefix(name, ".") {
			continue
		}

		var task models.Task
		if err := config.LoadYAML(filepath.Join(tasksDir, name), &task); err != nil {
			return nil, err
		}
		// The path owns the task; the file's own id fields are advisory.
		// Keying by file name keeps later writes and deletes on this file.
		task.UserID = userID
		task.ID = strings.TrimSuffix(name, ".yaml")
		byID[task.ID] = &task
	}
	return byID, nil
}

func (s *Store) saveTask(task *models.Task) error {
	if err := config.EnsureUserDir(s.dir, task.UserID); err != nil {
		return fmt.Errorf("failed to create tasks dir: %w", err)
	}
	if err := config.SaveYAML(config.TaskFile(s.dir, task.UserID, task.ID), task); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}
