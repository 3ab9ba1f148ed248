// Package apiclient is the HTTP client the CLI and dashboard use to talk to
// the daemon.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/daemon/session"
	"github.com/ontrack-io/ontrack/internal/models"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the daemon.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// User is the public view of an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Probe is the body of GET /api/test.
type Probe struct {
	Message string  `json:"message"`
	Origin  *string `json:"origin"`
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Name              string   `json:"name"`
	DueDate           string   `json:"dueDate"`
	Priority          string   `json:"priority"`
	ActionableItems   []string `json:"actionableItems"`
	CompletionPercent int      `json:"completionPercent"`
}

// TaskPatch is the body of PATCH /api/tasks/{id}. Nil fields are omitted.
type TaskPatch struct {
	Name              *string   `json:"name,omitempty"`
	DueDate           *string   `json:"dueDate,omitempty"`
	Priority          *string   `json:"priority,omitempty"`
	Completed         *bool     `json:"completed,omitempty"`
	ActionableItems   *[]string `json:"actionableItems,omitempty"`
	CompletionPercent *int      `json:"completionPercent,omitempty"`
}

// Client talks to one daemon with one session cookie.
type Client struct {
	baseURL string
	http    *http.Client
	cookie  string
}

// New creates a client for baseURL. cookie may be empty.
func New(baseURL, cookie string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cookie:  cookie,
	}
}

// BaseURL returns the daemon URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cookie returns the current session cookie value.
func (c *Client) Cookie() string {
	return c.cookie
}

// Test probes the daemon.
func (c *Client) Test(ctx context.Context) (*Probe, error) {
	var p Probe
	if err := c.do(ctx, http.MethodGet, "/api/test", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Register creates an account and logs in as it.
func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var u User
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var u User
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout ends the session and forgets the cookie.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.cookie = ""
	return err
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// User looks up any account by ID.
func (c *Client) User(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListTasks returns the user's tasks ordered by due date.
func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// Summary fetches completion statistics. days <= 0 uses the daemon default.
func (c *Client) Summary(ctx context.Context, days int) (*analytics.Summary, error) {
	var s analytics.Summary
	if err := c.do(ctx, http.MethodGet, withDays("/api/analytics/summary", days), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Streak fetches the on-time streak.
func (c *Client) Streak(ctx context.Context) (*analytics.StreakResult, error) {
	var s analytics.StreakResult
	if err := c.do(ctx, http.MethodGet, "/api/analytics/streak", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CFD fetches the cumulative flow buckets, oldest first.
func (c *Client) CFD(ctx context.Context, days int) ([]analytics.Bucket, error) {
	var buckets []analytics.Bucket
	if err := c.do(ctx, http.MethodGet, withDays("/api/analytics/cfd", days), nil, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// CompletedTasks fetches completed tasks, most recent first.
func (c *Client) CompletedTasks(ctx context.Context, days int) ([]analytics.CompletedTask, error) {
	var tasks []analytics.CompletedTask
	if err := c.do(ctx, http.MethodGet, withDays("/api/completed-tasks", days), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func withDays(path string, days int) string {
	if days <= 0 {
		return path
	}
	return path + "?days=" + strconv.Itoa(days)
}

// do sends a JSON request and decodes a JSON response into out.
// A session cookie in the response replaces the stored one.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: c.cookie})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == session.CookieName {
			c.cookie = cookie.Value
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
