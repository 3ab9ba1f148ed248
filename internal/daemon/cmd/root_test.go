package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store/filestore"
	"github.com/ontrack-io/ontrack/internal/store/sqlitestore"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("file", func(t *testing.T) {
		s, err := OpenStore(ctx, models.StoreConfig{Backend: models.BackendFile, DataDir: filepath.Join(dir, "data")})
		if err != nil {
			t.Fatalf("OpenStore(file) error: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*filestore.Store); !ok {
			t.Errorf("OpenStore(file) = %T, want *filestore.Store", s)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenStore(ctx, models.StoreConfig{Backend: models.BackendSQLite, SQLitePath: filepath.Join(dir, "db", "ontrack.db")})
		if err != nil {
			t.Fatalf("OpenStore(sqlite) error: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*sqlitestore.Store); !ok {
			t.Errorf("OpenStore(sqlite) = %T, want *sqlitestore.Store", s)
		}
	})

	errTests := []struct {
		name string
		cfg  models.StoreConfig
		want string
	}{
		{"postgres without url", models.StoreConfig{Backend: models.BackendPostgres}, "DATABASE_URL"},
		{"unknown backend", models.StoreConfig{Backend: "mongo"}, "unknown store backend"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenStore(ctx, tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("OpenStore() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestAwaitShutdown(t *testing.T) {
	listenErr := errors.New("accept tcp: use of closed network connection")

	tests := []struct {
		name    string
		signal  os.Signal
		serve   error
		stopped bool
		wantErr error
	}{
		{name: "signal", signal: syscall.SIGTERM},
		{name: "listener failure", serve: listenErr, stopped: true, wantErr: listenErr},
		{name: "clean stop", stopped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errCh := make(chan error, 1)
			sigCh := make(chan os.Signal, 1)
			if tt.signal != nil {
				sigCh <- tt.signal
			}
			if tt.stopped {
				errCh <- tt.serve
			}

			err := awaitShutdown(errCh, sigCh)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("awaitShutdown() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("awaitShutdown() error = %v, want wrapping %v", err, tt.wantErr)
			}
		})
	}
}
