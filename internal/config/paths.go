// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global ontrack directory.
	GlobalDirName = ".ontrack"

	// DataDirName is the default file store directory within the global directory.
	DataDirName = "data"

	// UsersDirName holds one subdirectory per user inside a data directory.
	UsersDirName = "users"

	// TasksDirName is the name of the tasks directory within a user directory.
	TasksDirName = "tasks"

	// HomeEnv overrides the global directory location.
	HomeEnv = "ONTRACK_HOME"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	SessionFileName  = "session.yaml"
	UsersFileName    = "users.yaml"
	SQLiteFileName   = "ontrack.db"
)

// GlobalDir returns the path to the global ontrack directory (~/.ontrack/).
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	return globalFile(DaemonFileName)
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	return globalFile(SettingsFileName)
}

// GlobalSessionFile returns the path to the CLI session.yaml file.
func GlobalSessionFile() (string, error) {
	return globalFile(SessionFileName)
}

// DefaultDataDir returns the file store location used when none is configured.
func DefaultDataDir() (string, error) {
	return globalFile(DataDirName)
}

// DefaultSQLitePath returns the SQLite database used when none is configured.
func DefaultSQLitePath() (string, error) {
	return globalFile(SQLiteFileName)
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// UsersFile returns the path to the account index of a data directory.
func UsersFile(dataDir string) string {
	return filepath.Join(dataDir, UsersFileName)
}

// UsersDir returns the directory holding every user's data.
func UsersDir(dataDir string) string {
	return filepath.Join(dataDir, UsersDirName)
}

// UserTasksDir returns the path to a user's tasks directory.
func UserTasksDir(dataDir, userID string) string {
	return filepath.Join(UsersDir(dataDir), userID, TasksDirName)
}

// TaskFile returns the path to a specific task file.
func TaskFile(dataDir, userID, taskID string) string {
	return filepath.Join(UserTasksDir(dataDir, userID), TaskFileName(taskID))
}

// TaskFileName returns the filename for a task ID (e.g., "<uuid>.yaml").
func TaskFileName(taskID string) string {
	return taskID + ".yaml"
}

// EnsureGlobalDir creates the global ontrack directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureUserDir creates a user's tasks directory structure.
func EnsureUserDir(dataDir, userID string) error {
	return os.MkdirAll(UserTasksDir(dataDir, userID), 0755)
}
