package telemetry

import (
	"testing"

	"github.com/posthog/posthog-go"

	"github.com/ontrack-io/ontrack/internal/daemon/task"
	"github.com/ontrack-io/ontrack/internal/models"
)

var _ task.EventSink = (*Client)(nil)

type fakePostHog struct {
	posthog.Client
	messages []posthog.Message
	closed   bool
}

func (f *fakePostHog) Enqueue(m posthog.Message) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakePostHog) Close() error {
	f.closed = true
	return nil
}

func TestNewDisabled(t *testing.T) {
	tests := []models.TelemetryConfig{
		{},
		{Enabled: true},
		{APIKey: "phc_x"},
	}
	for _, cfg := range tests {
		c, err := New(cfg)
		if err != nil || c != nil {
			t.Errorf("New(%+v) = %v, %v, want nil, nil", cfg, c, err)
		}
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	c.Track("u1", task.EventTaskCreated, nil)
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

func TestTrack(t *testing.T) {
	fake := &fakePostHog{}
	c := &Client{ph: fake}

	c.Track("u1", task.EventTaskCompleted, map[string]interface{}{"on_time": true})

	if len(fake.messages) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(fake.messages))
	}
	capture, ok := fake.messages[0].(posthog.Capture)
	if !ok {
		t.Fatalf("message type = %T, want posthog.Capture", fake.messages[0])
	}
	if capture.DistinctId != "u1" || capture.Event != task.EventTaskCompleted {
		t.Errorf("capture = %+v", capture)
	}
	if capture.Properties["on_time"] != true {
		t.Errorf("on_time property = %v, want true", capture.Properties["on_time"])
	}
	if _, ok := capture.Properties["version"]; !ok {
		t.Error("version property missing")
	}

	if err := c.Close(); err != nil || !fake.closed {
		t.Errorf("Close() = %v, closed = %v", err, fake.closed)
	}
}
