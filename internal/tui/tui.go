// Package tui implements the interactive dashboard for OnTrack.
package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrSessionExpired is returned by Run when the daemon rejects the session.
var ErrSessionExpired = errors.New("session expired")

// Run launches the dashboard and blocks until the user quits.
func Run(client Client, username string) error {
	p := tea.NewProgram(
		NewModel(client, username, time.Now),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.LoggedOut() {
		return ErrSessionExpired
	}
	return nil
}
