package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseSemver(t *testing.T) {
	tests := []struct {
		in      string
		want    Semver
		wantErr bool
	}{
		{"1.2.3", Semver{1, 2, 3}, false},
		{"v0.10.0", Semver{0, 10, 0}, false},
		{"2.0.1-rc.1+abc", Semver{2, 0, 1}, false},
		{"dev", Semver{}, true},
		{"1.2", Semver{}, true},
		{"1.x.3", Semver{}, true},
	}

	for _, tt := range tests {
		got, err := ParseSemver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSemver(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSemver(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLessThan(t *testing.T) {
	tests := []struct {
		a, b Semver
		want bool
	}{
		{Semver{1, 0, 0}, Semver{1, 0, 1}, true},
		{Semver{1, 2, 0}, Semver{1, 10, 0}, true},
		{Semver{2, 0, 0}, Semver{1, 9, 9}, false},
		{Semver{1, 2, 3}, Semver{1, 2, 3}, false},
	}

	for _, tt := range tests {
		if got := tt.a.LessThan(tt.b); got != tt.want {
			t.Errorf("%v.LessThan(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v1.3.0","html_url":"https://example.test/r/1.3.0"}`))
	}))
	defer srv.Close()

	tests := []struct {
		name      string
		path      string
		current   string
		available bool
		latest    string
	}{
		{"newer release", "/latest", "1.2.9", true, "1.3.0"},
		{"up to date", "/latest", "1.3.0", false, "1.3.0"},
		{"dev build", "/latest", "dev", true, "1.3.0"},
		{"no releases", "/missing", "1.0.0", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checker{URL: srv.URL + tt.path, Current: tt.current, Client: srv.Client()}
			got, err := c.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error: %v", err)
			}
			if got.Available != tt.available {
				t.Errorf("Available = %v, want %v", got.Available, tt.available)
			}
			if got.LatestVersion != tt.latest {
				t.Errorf("LatestVersion = %q, want %q", got.LatestVersion, tt.latest)
			}
		})
	}
}
