// Package telemetry sends opt-in product events to PostHog.
package telemetry

import (
	"fmt"
	"log"

	"github.com/posthog/posthog-go"

	"github.com/ontrack-io/ontrack/internal/buildinfo"
	"github.com/ontrack-io/ontrack/internal/models"
)

// Client tracks events for the task manager. A nil *Client is valid and
// drops everything.
type Client struct {
	ph posthog.Client
}

// New returns a client for cfg, or nil when telemetry is disabled or no
// API key is configured.
func New(cfg models.TelemetryConfig) (*Client, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, nil
	}
	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{Endpoint: cfg.Endpoint})
	if err != nil {
		return nil, fmt.Errorf("failed to create posthog client: %w", err)
	}
	log.Printf("[telemetry] Sending events to %s", cfg.Endpoint)
	return &Client{ph: ph}, nil
}

// Track enqueues an event. Errors are logged and never returned.
func (c *Client) Track(userID, event string, props map[string]interface{}) {
	if c == nil || c.ph == nil {
		return
	}
	properties := posthog.NewProperties().Set("version", buildinfo.Version)
	for k, v := range props {
		properties.Set(k, v)
	}
	err := c.ph.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		log.Printf("[telemetry] Failed to enqueue %s: %v", event, err)
	}
}

// Close flushes pending events.
func (c *Client) Close() error {
	if c == nil || c.ph == nil {
		return nil
	}
	return c.ph.Close()
}
