package cli

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"configure", "config"},
	Short:   "Configure global settings",
	Long: `Configure ~/.ontrack/settings.yaml interactively.

This allows you to modify:
  - Server listen address, CORS origins and timezone
  - Store backend and its location
  - Telemetry
  - The server URL used by the CLI

Press Enter to keep the current value for any setting.
Changes to server or store settings apply the next time the daemon starts.`,
	RunE: runSettings,
}

var settingsShow bool

func init() {
	settingsCmd.Flags().BoolVar(&settingsShow, "show", false, "print the current settings and exit")
}

func runSettings(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadFileSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if settingsShow {
		printSettings(settings)
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	changed, err := promptSettings(reader, settings)
	if err != nil {
		return err
	}

	if !changed {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println("\n" + styleSuccess.Render("Settings updated."))
	if running, _, _ := config.IsDaemonRunning(); running {
		fmt.Println(styleHint.Render("Restart the daemon to apply server changes: ontrack daemon stop && ontrack daemon start"))
	}
	return nil
}

// promptSettings walks through every editable setting and reports whether
// anything changed.
func promptSettings(reader *bufio.Reader, s *models.Settings) (bool, error) {
	changed := false

	fmt.Println("Server:")

	if listen := promptString(reader, "Listen address", s.Server.Listen); listen != s.Server.Listen {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return false, fmt.Errorf("invalid listen address %q (expected host:port)", listen)
		}
		s.Server.Listen = listen
		changed = true
	}

	origins := strings.Join(s.Server.CORSOrigins, ",")
	if v := promptString(reader, "CORS origins (comma-separated)", origins); v != origins {
		s.Server.CORSOrigins = splitList(v)
		changed = true
	}

	tz := s.Server.Timezone
	if tz == "" {
		tz = "local"
	}
	if v := promptString(reader, "Timezone (IANA name or 'local')", tz); v != tz {
		if v == "local" {
			v = ""
		} else if _, err := time.LoadLocation(v); err != nil {
			return false, fmt.Errorf("unknown timezone %q", v)
		}
		s.Server.Timezone = v
		changed = true
	}

	fmt.Println("\nStore:")

	if v := promptString(reader, "Backend (file, sqlite, postgres)", s.Store.Backend); v != s.Store.Backend {
		v = strings.ToLower(v)
		switch v {
		case models.BackendFile, models.BackendSQLite, models.BackendPostgres:
		default:
			return false, fmt.Errorf("unknown store backend %q", v)
		}
		s.Store.Backend = v
		changed = true
	}

	switch s.Store.Backend {
	case models.BackendFile:
		if v := promptString(reader, "Data directory (empty for default)", s.Store.DataDir); v != s.Store.DataDir {
			s.Store.DataDir = v
			changed = true
		}
	case models.BackendSQLite:
		if v := promptString(reader, "SQLite file (empty for default)", s.Store.SQLitePath); v != s.Store.SQLitePath {
			s.Store.SQLitePath = v
			changed = true
		}
	case models.BackendPostgres:
		if v := promptString(reader, "Database URL", s.Store.DatabaseURL); v != s.Store.DatabaseURL {
			s.Store.DatabaseURL = v
			changed = true
		}
	}

	fmt.Println("\nTelemetry:")

	if enabled := promptYesNoWithCurrent(reader, "Send anonymous usage events?", s.Telemetry.Enabled); enabled != s.Telemetry.Enabled {
		s.Telemetry.Enabled = enabled
		changed = true
	}

	fmt.Println("\nClient:")

	serverURL := s.Client.ServerURL
	if serverURL == "" {
		serverURL = "auto"
	}
	if v := promptString(reader, "Server URL ('auto' for the local daemon)", serverURL); v != serverURL {
		if v == "auto" {
			v = ""
		}
		s.Client.ServerURL = strings.TrimRight(v, "/")
		changed = true
	}

	return changed, nil
}

func printSettings(s *models.Settings) {
	row := func(label, value string) {
		fmt.Printf("  %s %s\n", styleLabel.Render(fmt.Sprintf("%-14s", label)), styleValue.Render(value))
	}
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}

	fmt.Println("Server:")
	row("Listen", s.Server.Listen)
	row("CORS origins", orDefault(strings.Join(s.Server.CORSOrigins, ", "), "none"))
	row("Timezone", orDefault(s.Server.Timezone, "local"))
	row("Session TTL", s.Server.SessionTTL.String())

	fmt.Println("\nStore:")
	row("Backend", s.Store.Backend)
	switch s.Store.Backend {
	case models.BackendFile:
		row("Data dir", orDefault(s.Store.DataDir, "default"))
	case models.BackendSQLite:
		row("SQLite file", orDefault(s.Store.SQLitePath, "default"))
	case models.BackendPostgres:
		row("Database URL", orDefault(redactURL(s.Store.DatabaseURL), "from environment"))
	}

	fmt.Println("\nTelemetry:")
	row("Enabled", yesNo(s.Telemetry.Enabled))

	fmt.Println("\nClient:")
	row("Server URL", orDefault(s.Client.ServerURL, "auto"))
}

// promptString prompts for a value showing the current one. An empty answer keeps it.
func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("  %s [%s]: ", label, current)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(response)
	if response == "" {
		return current
	}
	return response
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, prompt string, current bool) bool {
	fmt.Printf("  %s [%s]: ", prompt, yesNo(current))
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 {
		return raw
	}
	creds := raw[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return raw[:scheme+3] + creds[:i] + ":****" + raw[at:]
	}
	return raw
}
