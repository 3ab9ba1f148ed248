package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ontrack-io/ontrack/internal/models"
)

// Environment variables recognised by LoadSettings.
const (
	EnvListen      = "ONTRACK_LISTEN"
	EnvCORSOrigins = "CORS_ORIGINS"
	EnvStore       = "ONTRACK_STORE"
	EnvDataDir     = "ONTRACK_DATA_DIR"
	EnvDatabaseURL = "DATABASE_URL"
	EnvSQLitePath  = "ONTRACK_SQLITE_PATH"
	EnvTimezone    = "ONTRACK_TIMEZONE"
	EnvPostHogKey  = "POSTHOG_API_KEY"
)

// LoadSettings loads the global settings from ~/.ontrack/settings.yaml,
// then applies .env and environment overrides.
// If the file doesn't exist, default settings are used as the base.
func LoadSettings() (*models.Settings, error) {
	settings, err := LoadFileSettings()
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	ApplyEnv(settings, os.Getenv)
	if err := ResolveStorePaths(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// LoadFileSettings loads settings.yaml without any environment overrides.
func LoadFileSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, models.NewSettings)
}

// SaveSettings saves the global settings to ~/.ontrack/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// LoadDotEnv loads variables from path into the process environment.
// A missing file is not an error; variables already set are not overwritten.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through getenv.
func ApplyEnv(s *models.Settings, getenv func(string) string) {
	if v := getenv(EnvListen); v != "" {
		s.Server.Listen = v
	}
	if v := getenv(EnvCORSOrigins); v != "" {
		s.Server.CORSOrigins = splitOrigins(v)
	}
	if v := getenv(EnvStore); v != "" {
		s.Store.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvDataDir); v != "" {
		s.Store.DataDir = v
	}
	if v := getenv(EnvSQLitePath); v != "" {
		s.Store.SQLitePath = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		s.Store.DatabaseURL = v
	} else if dsn := postgresURLFromEnv(getenv); dsn != "" {
		s.Store.DatabaseURL = dsn
	}
	if v := getenv(EnvTimezone); v != "" {
		s.Server.Timezone = v
	}
	if v := getenv(EnvPostHogKey); v != "" {
		s.Telemetry.APIKey = v
		s.Telemetry.Enabled = true
	}
}

// ResolveStorePaths fills in default locations for the file and SQLite backends.
func ResolveStorePaths(s *models.Settings) error {
	if s.Store.Backend == "" {
		s.Store.Backend = models.BackendFile
	}
	if s.Store.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		s.Store.DataDir = dir
	}
	if s.Store.SQLitePath == "" {
		path, err := DefaultSQLitePath()
		if err != nil {
			return err
		}
		s.Store.SQLitePath = path
	}
	return nil
}

func splitOrigins(v string) []string {
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// postgresURLFromEnv builds a connection URL from the libpq PG* variables.
// It returns "" when PGHOST is unset.
func postgresURLFromEnv(getenv func(string) string) string {
	host := getenv("PGHOST")
	if host == "" {
		return ""
	}
	port := getenv("PGPORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + getenv("PGDATABASE"),
	}
	if user := getenv("PGUSER"); user != "" {
		if pw := getenv("PGPASSWORD"); pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}
