// Package updater checks GitHub Releases for a newer ontrack version.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ontrack-io/ontrack/internal/buildinfo"
)

// ReleasesURL is the GitHub API endpoint for the latest release.
const ReleasesURL = "https://api.github.com/repos/ontrack-io/ontrack/releases/latest"

// ReleaseInfo contains information about a GitHub release.
type ReleaseInfo struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// UpdateResult contains the result of an update check.
type UpdateResult struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
}

// Checker queries a releases endpoint.
type Checker struct {
	URL     string
	Current string
	Client  *http.Client
}

// NewChecker returns a checker for the official releases of this build.
func NewChecker() *Checker {
	return &Checker{
		URL:     ReleasesURL,
		Current: buildinfo.Version,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Check queries the releases endpoint for a version newer than Current.
func (c *Checker) Check(ctx context.Context) (*UpdateResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "ontrack/"+c.Current)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No releases yet
		return &UpdateResult{CurrentVersion: c.Current}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	result := &UpdateResult{
		CurrentVersion: c.Current,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		ReleaseURL:     release.HTMLURL,
	}

	latest, err := ParseSemver(result.LatestVersion)
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", result.LatestVersion, err)
	}
	current, err := ParseSemver(c.Current)
	if err != nil {
		// "dev" and other unparseable builds are treated as older
		result.Available = true
		return result, nil
	}
	result.Available = current.LessThan(latest)
	return result, nil
}
