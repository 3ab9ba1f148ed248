package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/models"
)

func TestResolveTask(t *testing.T) {
	tasks := []*models.Task{
		{ID: "a1b2c3d4-0000"},
		{ID: "a1b2ffff-0000"},
		{ID: "9f00aa11-0000"},
	}

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{"9f", "9f00aa11-0000", ""},
		{"A1B2C3", "a1b2c3d4-0000", ""},
		{"a1b2ffff-0000", "a1b2ffff-0000", ""},
		{"a1b2", "", "ambiguous"},
		{"zz", "", "no task matches"},
		{"  ", "", "required"},
	}

	for _, tt := range tests {
		got, err := resolveTask(tasks, tt.ref)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("resolveTask(%q) error = %v, want containing %q", tt.ref, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveTask(%q) unexpected error: %v", tt.ref, err)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("resolveTask(%q) = %q, want %q", tt.ref, got.ID, tt.want)
		}
	}
}

func TestDueLabel(t *testing.T) {
	today := models.NewDate(2024, 6, 15)

	tests := []struct {
		due  models.Date
		want string
	}{
		{today, "due today"},
		{today.AddDays(1), "due tomorrow"},
		{today.AddDays(9), "due in 9d"},
		{today.AddDays(-1), "overdue 1d"},
		{today.AddDays(-20), "overdue 20d"},
	}

	for _, tt := range tests {
		if got := dueLabel(tt.due, today); got != tt.want {
			t.Errorf("dueLabel(%s) = %q, want %q", tt.due, got, tt.want)
		}
	}
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"write tests", []string{"write tests"}},
		{"a; b ;;c ", []string{"a", "b", "c"}},
		{" ; ", nil},
	}

	for _, tt := range tests {
		got := splitItems(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitItems(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortIDAndTruncate(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q, want %q", got, "01234567")
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(short) = %q, want %q", got, "abc")
	}
	if got := truncate("hello world", 8); got != "hello..." {
		t.Errorf("truncate() = %q, want %q", got, "hello...")
	}
	if got := truncate("hi", 8); got != "hi" {
		t.Errorf("truncate(short) = %q, want %q", got, "hi")
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://bob:secret@db:5432/ontrack", "postgres://bob:****@db:5432/ontrack"},
		{"postgres://bob@db/ontrack", "postgres://bob@db/ontrack"},
		{"postgres://db/ontrack", "postgres://db/ontrack"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServerURLPrecedence(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	settings := models.NewSettings()
	settings.Client.ServerURL = "http://settings:5000"
	if err := config.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings() error: %v", err)
	}

	saved := &models.ClientSession{ServerURL: "http://saved:5000"}

	serverFlag = "http://flag:5000"
	t.Cleanup(func() { serverFlag = "" })

	if got, err := serverURL(saved); err != nil || got != "http://flag:5000" {
		t.Errorf("serverURL() with flag = %q, %v; want flag URL", got, err)
	}

	serverFlag = ""
	if got, err := serverURL(saved); err != nil || got != "http://saved:5000" {
		t.Errorf("serverURL() with saved session = %q, %v; want saved URL", got, err)
	}
	if got, err := serverURL(nil); err != nil || got != "http://settings:5000" {
		t.Errorf("serverURL() from settings = %q, %v; want settings URL", got, err)
	}
}

func TestLoggedInClientRequiresSession(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	serverFlag = "http://127.0.0.1:1"
	t.Cleanup(func() { serverFlag = "" })

	if _, err := loggedInClient(); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("loggedInClient() error = %v, want not logged in", err)
	}
}

func TestLoggedInClientIgnoresCookieForOtherServer(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	if err := config.SaveClientSession(&models.ClientSession{
		ServerURL: "http://saved:5000",
		Cookie:    "abc",
	}); err != nil {
		t.Fatalf("SaveClientSession() error: %v", err)
	}

	serverFlag = "http://other:5000"
	t.Cleanup(func() { serverFlag = "" })
	if _, err := loggedInClient(); err == nil {
		t.Error("loggedInClient() should not reuse a cookie from a different server")
	}

	serverFlag = "http://saved:5000"
	c, err := loggedInClient()
	if err != nil {
		t.Fatalf("loggedInClient() error: %v", err)
	}
	if c.Cookie() != "abc" {
		t.Errorf("Cookie() = %q, want %q", c.Cookie(), "abc")
	}
}

func TestPromptSettings(t *testing.T) {
	t.Run("empty answers keep everything", func(t *testing.T) {
		s := models.NewSettings()
		reader := bufio.NewReader(strings.NewReader(strings.Repeat("\n", 10)))
		changed, err := promptSettings(reader, s)
		if err != nil {
			t.Fatalf("promptSettings() error: %v", err)
		}
		if changed {
			t.Error("promptSettings() reported a change for empty answers")
		}
	})

	t.Run("updates values", func(t *testing.T) {
		s := models.NewSettings()
		input := strings.Join([]string{
			"0.0.0.0:8080",
			"http://a.test, http://b.test",
			"UTC",
			"sqlite",
			"/tmp/ontrack.db",
			"y",
			"http://remote:5000/",
		}, "\n") + "\n"
		changed, err := promptSettings(bufio.NewReader(strings.NewReader(input)), s)
		if err != nil {
			t.Fatalf("promptSettings() error: %v", err)
		}
		if !changed {
			t.Fatal("promptSettings() reported no change")
		}
		if s.Server.Listen != "0.0.0.0:8080" {
			t.Errorf("Listen = %q", s.Server.Listen)
		}
		if len(s.Server.CORSOrigins) != 2 || s.Server.CORSOrigins[1] != "http://b.test" {
			t.Errorf("CORSOrigins = %v", s.Server.CORSOrigins)
		}
		if s.Server.Timezone != "UTC" {
			t.Errorf("Timezone = %q", s.Server.Timezone)
		}
		if s.Store.Backend != models.BackendSQLite || s.Store.SQLitePath != "/tmp/ontrack.db" {
			t.Errorf("Store = %+v", s.Store)
		}
		if !s.Telemetry.Enabled {
			t.Error("Telemetry.Enabled = false, want true")
		}
		if s.Client.ServerURL != "http://remote:5000" {
			t.Errorf("Client.ServerURL = %q", s.Client.ServerURL)
		}
	})

	t.Run("rejects bad values", func(t *testing.T) {
		inputs := map[string]string{
			"listen":   "nonsense\n",
			"timezone": "\n\nMars/Olympus\n",
			"backend":  "\n\n\nmongo\n",
		}
		for name, input := range inputs {
			s := models.NewSettings()
			if _, err := promptSettings(bufio.NewReader(strings.NewReader(input)), s); err == nil {
				t.Errorf("%s: promptSettings() should fail", name)
			}
		}
	})
}
