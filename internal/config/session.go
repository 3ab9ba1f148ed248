package config

import (
	"os"

	"github.com/ontrack-io/ontrack/internal/models"
)

// LoadClientSession loads the CLI login from ~/.ontrack/session.yaml.
// Returns nil if the user is not logged in.
func LoadClientSession() (*models.ClientSession, error) {
	path, err := GlobalSessionFile()
	if err != nil {
		return nil, err
	}
	if !FileExists(path) {
		return nil, nil
	}

	var s models.ClientSession
	if err := LoadYAML(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveClientSession persists the CLI login. The file holds a session cookie
// and is written owner-readable only.
func SaveClientSession(s *models.ClientSession) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}
	path, err := GlobalSessionFile()
	if err != nil {
		return err
	}
	return SaveYAMLPrivate(path, s)
}

// RemoveClientSession deletes session.yaml.
func RemoveClientSession() error {
	path, err := GlobalSessionFile()
	if err != nil {
		return err
	}
	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}
