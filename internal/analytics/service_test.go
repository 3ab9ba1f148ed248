package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

type fakeLister struct {
	tasks []*models.Task
	err   error
	calls int
}

func (f *fakeLister) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	f.calls++
	return f.tasks, f.err
}

func TestServiceStoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	svc := NewService(&fakeLister{err: cause}, time.UTC, func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.Summary(ctx, "u1", 30)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("Summary() error = %v, want ErrDataUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Summary() error = %v, want it to wrap the store error", err)
	}
	if errors.Is(err, ErrInvalidWindow) {
		t.Errorf("store failure must not look like invalid input")
	}

	var dataErr *DataUnavailableError
	if !errors.As(err, &dataErr) || dataErr.UserID != "u1" {
		t.Errorf("errors.As() = %v, %+v", err, dataErr)
	}

	if _, err := svc.Streak(ctx, "u1"); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Streak() error = %v, want ErrDataUnavailable", err)
	}
	if _, err := svc.CFD(ctx, "u1", 30); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("CFD() error = %v, want ErrDataUnavailable", err)
	}
	if _, err := svc.CompletedTasks(ctx, "u1", 30); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("CompletedTasks() error = %v, want ErrDataUnavailable", err)
	}
}

func TestServiceValidatesBeforeFetching(t *testing.T) {
	lister := &fakeLister{}
	svc := NewService(lister, time.UTC, func() time.Time { return now })

	if _, err := svc.CFD(context.Background(), "u1", 0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("CFD(days=0) error = %v, want ErrInvalidWindow", err)
	}
	if lister.calls != 0 {
		t.Errorf("ListTasks called %d times for an invalid window", lister.calls)
	}
}

func TestServiceUsesConfiguredLocation(t *testing.T) {
	zone := time.FixedZone("UTC-10", -10*3600)
	lister := &fakeLister{tasks: []*models.Task{
		models.NewTask("a", "u1", "a", today, models.PriorityP1, []string{"x"}, 0, now),
	}}
	svc := NewService(lister, zone, func() time.Time { return now })

	buckets, err := svc.CFD(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("CFD() error = %v", err)
	}
	// 12:00 UTC is 02:00 the same day in UTC-10.
	if got := buckets[0].Date; !got.Equal(today) {
		t.Errorf("bucket date = %s, want %s", got, today)
	}
	if buckets[0].Backlog != 1 {
		t.Errorf("bucket = %+v, want one backlog task", buckets[0])
	}
}
