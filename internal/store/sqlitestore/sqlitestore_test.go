package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ontrack-io/ontrack/internal/store/storetest"
)

func TestStoreSuite(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "ontrack.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	storetest.Run(t, s)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ontrack.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Errorf("second EnsureSchema() error = %v", err)
	}
	cols, err := s.columns(ctx, "tasks")
	if err != nil {
		t.Fatalf("columns() error = %v", err)
	}
	for _, c := range []string{"actionable_items", "completion_percent", "completed_at"} {
		if !cols[c] {
			t.Errorf("tasks table missing column %s", c)
		}
	}
	s.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	reopened.Close()
}
