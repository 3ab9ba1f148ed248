// Package user handles account registration and authentication.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit in bytes
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or a
// wrong password; callers cannot tell which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Manager handles user operations.
type Manager struct {
	store store.Store
	now   func() time.Time
	cost  int
}

// NewManager creates a new user manager.
func NewManager(s store.Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, now: now, cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (m *Manager) SetHashCost(cost int) {
	m.cost = cost
}

// Register validates and creates a new account.
func (m *Manager) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.Invalid("username", "Username and password are required.")
	}
	if len([]rune(username)) < minUsernameLen {
		return nil, models.Invalid("username", "Username must be at least 3 characters long.")
	}
	if len(password) < minPasswordLen {
		return nil, models.Invalid("password", "Password must be at least 6 characters long.")
	}
	if len(password) > maxPasswordLen {
		return nil, models.Invalid("password", "Password must be at most 72 bytes long.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := models.NewUser(uuid.NewString(), username, string(hash), m.now())
	if err := m.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, models.Invalid("username", fmt.Sprintf("Username '%s' already exists. Please choose another one.", username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username and password.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.Invalid("username", "Username and password are required.")
	}

	u, err := m.store.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns a user by ID.
func (m *Manager) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := m.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}
