package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ontrack-io/ontrack/internal/apiclient"
	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/models"
)

const requestTimeout = 15 * time.Second

// serverURL picks the daemon to talk to: --server, then the saved login,
// then settings.yaml, then the local daemon (started if needed).
func serverURL(saved *models.ClientSession) (string, error) {
	if serverFlag != "" {
		return serverFlag, nil
	}
	if saved != nil && saved.ServerURL != "" {
		return saved.ServerURL, nil
	}

	settings, err := config.LoadFileSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Client.ServerURL != "" {
		return settings.Client.ServerURL, nil
	}

	if err := EnsureDaemon(); err != nil {
		return "", err
	}
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return "", fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return "", fmt.Errorf("daemon not running")
	}
	return config.DaemonURL(info), nil
}

// newClient returns a client for the current daemon without requiring a login.
func newClient() (*apiclient.Client, error) {
	saved, err := config.LoadClientSession()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	url, err := serverURL(saved)
	if err != nil {
		return nil, err
	}
	cookie := ""
	if saved != nil && saved.ServerURL == url {
		cookie = saved.Cookie
	}
	return apiclient.New(url, cookie), nil
}

// loggedInClient returns a client carrying the saved session cookie.
func loggedInClient() (*apiclient.Client, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	if c.Cookie() == "" {
		return nil, fmt.Errorf("not logged in. Run 'ontrack login' first")
	}
	return c, nil
}

func saveLogin(c *apiclient.Client, u *apiclient.User) error {
	return config.SaveClientSession(&models.ClientSession{
		ServerURL: c.BaseURL(),
		Cookie:    c.Cookie(),
		UserID:    u.ID,
		Username:  u.Username,
		SavedAt:   time.Now().UTC(),
	})
}

// wrapAuth turns an expired session into a hint to log in again.
func wrapAuth(err error) error {
	if apiclient.IsUnauthorized(err) {
		return fmt.Errorf("session expired. Run 'ontrack login' again")
	}
	return err
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
