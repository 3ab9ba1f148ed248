package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
	"github.com/ontrack-io/ontrack/internal/store/filestore"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	s, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(s, func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) })
	m.SetHashCost(bcrypt.MinCost)
	return m
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{"missing both", "", "", "Username and password are required."},
		{"blank username", "   ", "secret1", "Username and password are required."},
		{"missing password", "ana", "", "Username and password are required."},
		{"short username", "ab", "secret1", "Username must be at least 3 characters long."},
		{"short password", "ana", "12345", "Password must be at least 6 characters long."},
		{"password over bcrypt limit", "ana", strings.Repeat("x", 73), "Password must be at most 72 bytes long."},
		{"multibyte password over limit", "ana", strings.Repeat("é", 37), "Password must be at most 72 bytes long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t)
			_, err := m.Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			if err.Error() != tt.message {
				t.Errorf("Register() error = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	u, err := m.Register(ctx, "  ana  ", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Username != "ana" || u.ID == "" {
		t.Errorf("Register() = %+v", u)
	}
	if u.PasswordHash == "secret1" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", u.PasswordHash)
	}

	long := strings.Repeat("p", 72)
	if _, err := m.Register(ctx, "bo-72", long); err != nil {
		t.Errorf("Register(72-byte password) error = %v", err)
	}
	if _, err := m.Authenticate(ctx, "bo-72", long); err != nil {
		t.Errorf("Authenticate(72-byte password) error = %v", err)
	}

	_, err = m.Register(ctx, "ana", "another1")
	if !errors.Is(err, models.ErrValidation) || err.Error() != "Username 'ana' already exists. Please choose another one." {
		t.Errorf("Register(duplicate) error = %v", err)
	}

	got, err := m.Authenticate(ctx, "ana", "secret1")
	if err != nil || got.ID != u.ID {
		t.Errorf("Authenticate() = %+v, %v", got, err)
	}
	if _, err := m.Authenticate(ctx, "ana", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := m.Authenticate(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(unknown user) error = %v, want ErrInvalidCredentials", err)
	}

	byID, err := m.Get(ctx, u.ID)
	if err != nil || byID.Username != "ana" {
		t.Errorf("Get() = %+v, %v", byID, err)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}
