// Package pgstore implements store.Store on PostgreSQL via pgx.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

const (
	usersTable = "users"
	tasksTable = "tasks"

	uniqueViolation = "23505"
)

// Store is a Postgres backed store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, verifies the connection and ensures the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables if they don't exist and adds columns that
// older databases lack.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (
    id            TEXT PRIMARY KEY,
    username      TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE TABLE IF NOT EXISTS ` + tasksTable + ` (
    id                 TEXT PRIMARY KEY,
    user_id            TEXT NOT NULL REFERENCES ` + usersTable + `(id) ON DELETE CASCADE,
    name               TEXT NOT NULL,
    due_date           DATE NOT NULL,
    priority           TEXT NOT NULL CHECK (priority IN ('P1','P2','P3')),
    completed          BOOLEAN NOT NULL DEFAULT FALSE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`ALTER TABLE ` + tasksTable + ` ADD COLUMN IF NOT EXISTS actionable_items JSONB NOT NULL DEFAULT '[]'::jsonb`,
		`ALTER TABLE ` + tasksTable + ` ADD COLUMN IF NOT EXISTS completion_percent INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE ` + tasksTable + ` ADD COLUMN IF NOT EXISTS completed_at TIMESTAMPTZ`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON ` + tasksTable + ` (user_id, due_date)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const taskColumns = `id, user_id, name, due_date, priority, completed, completed_at,
    completion_percent, actionable_items, created_at`

// ListTasks returns the user's tasks in a single query.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM `+tasksTable+`
WHERE user_id = $1 ORDER BY due_date ASC, created_at ASC, id ASC`, userID)
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
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM `+tasksTable+`
WHERE id = $1 AND user_id = $2`, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	items, err := marshalItems(t.ActionableItems)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO `+tasksTable+` (`+taskColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`,
		t.ID, t.UserID, t.Name, t.DueDate.Time(), string(t.Priority), t.Completed, t.CompletedAt,
		t.CompletionPercent, items, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTask overwrites the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	items, err := marshalItems(t.ActionableItems)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE `+tasksTable+` SET
    name = $3, due_date = $4, priority = $5, completed = $6, completed_at = $7,
    completion_percent = $8, actionable_items = $9::jsonb
WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, t.Name, t.DueDate.Time(), string(t.Priority), t.Completed, t.CompletedAt,
		t.CompletionPercent, items,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+tasksTable+` WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO `+usersTable+` (id, username, password_hash, created_at)
VALUES ($1, $2, $3, $4)`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser looks a user up by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

// GetUserByName looks a user up by username.
func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM `+usersTable+` WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		t        models.Task
		due      time.Time
		priority string
		items    []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &due, &priority, &t.Completed, &t.CompletedAt,
		&t.CompletionPercent, &items, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.DueDate = models.DateOf(due)
	t.Priority = models.Priority(priority)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &t.ActionableItems); err != nil {
			return nil, fmt.Errorf("failed to decode actionable items of task %s: %w", t.ID, err)
		}
	}
	if t.ActionableItems == nil {
		t.ActionableItems = []string{}
	}
	return &t, nil
}

func marshalItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode actionable items: %w", err)
	}
	return string(data), nil
}
