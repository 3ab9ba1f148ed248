// Package sqlitestore implements store.Store on a local SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

// Timestamps are stored as UTC RFC 3339 text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite backed store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tables and adds columns missing from older files.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    name       TEXT NOT NULL,
    due_date   TEXT NOT NULL,
    priority   TEXT NOT NULL CHECK (priority IN ('P1','P2','P3')),
    completed  INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks (user_id, due_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	existing, err := s.columns(ctx, "tasks")
	if err != nil {
		return err
	}
	migrations := []struct {
		column string
		ddl    string
	}{
		{"actionable_items", `ALTER TABLE tasks ADD COLUMN actionable_items TEXT NOT NULL DEFAULT '[]'`},
		{"completion_percent", `ALTER TABLE tasks ADD COLUMN completion_percent INTEGER NOT NULL DEFAULT 0`},
		{"completed_at", `ALTER TABLE tasks ADD COLUMN completed_at TEXT NULL`},
	}
	for _, m := range migrations {
		if existing[m.column] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("failed to add column %s: %w", m.column, err)
		}
	}
	return nil
}

func (s *Store) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const taskColumns = `id, user_id, name, due_date, priority, completed, completed_at,
    completion_percent, actionable_items, created_at`

// ListTasks returns the user's tasks in a single query.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks
WHERE user_id = ? ORDER BY due_date ASC, created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one of the user's tasks.
func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	items, err := json.Marshal(nonNil(t.ActionableItems))
	if err != nil {
		return fmt.Errorf("failed to encode actionable items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.DueDate, string(t.Priority), t.Completed, formatTimePtr(t.CompletedAt),
		t.CompletionPercent, string(items), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTask overwrites the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	items, err := json.Marshal(nonNil(t.ActionableItems))
	if err != nil {
		return fmt.Errorf("failed to encode actionable items: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET
    name = ?, due_date = ?, priority = ?, completed = ?, completed_at = ?,
    completion_percent = ?, actionable_items = ?
WHERE id = ? AND user_id = ?`,
		t.Name, t.DueDate, string(t.Priority), t.Completed, formatTimePtr(t.CompletedAt),
		t.CompletionPercent, string(items), t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRow(res)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(res)
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return store.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser looks a user up by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

// GetUserByName looks a user up by username.
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = ?`, username)
}

func (s *Store) getUser(ctx context.Context, where, arg string) (*models.User, error) {
	var (
		u       models.User
		created string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		t           models.Task
		priority    string
		completedAt sql.NullString
		items       string
		created     string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.DueDate, &priority, &t.Completed, &completedAt,
		&t.CompletionPercent, &items, &created); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if completedAt.Valid && completedAt.String != "" {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		t.CompletedAt = &at
	}
	if err := json.Unmarshal([]byte(items), &t.ActionableItems); err != nil {
		return nil, fmt.Errorf("failed to decode actionable items of task %s: %w", t.ID, err)
	}
	if t.ActionableItems == nil {
		t.ActionableItems = []string{}
	}
	return &t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
