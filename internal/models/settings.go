package models

import "time"

// ServerConfig holds settings for the HTTP and gRPC listeners.
type ServerConfig struct {
	Listen      string        `yaml:"listen"`
	GRPCListen  string        `yaml:"grpc_listen"`
	CORSOrigins []string      `yaml:"cors_origins"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	Timezone    string        `yaml:"timezone"` // IANA name; empty means the host's local zone
}

// StoreConfig selects and configures the task store backend.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // "file" | "postgres" | "sqlite"
	DataDir     string `yaml:"data_dir,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
}

// TelemetryConfig holds product analytics settings.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// ClientConfig holds settings used by the CLI.
type ClientConfig struct {
	ServerURL string `yaml:"server_url,omitempty"` // empty means use daemon.yaml
}

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Settings represents global application settings.
// This corresponds to ~/.ontrack/settings.yaml.
type Settings struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Client    ClientConfig    `yaml:"client"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Server: ServerConfig{
			Listen:     "127.0.0.1:5000",
			GRPCListen: "127.0.0.1:0",
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
			SessionTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "https://us.i.posthog.com",
		},
	}
}

// Location resolves the configured timezone, falling back to time.Local.
func (s *Settings) Location() (*time.Location, error) {
	if s.Server.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Server.Timezone)
}
