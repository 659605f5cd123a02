// Package release looks up the latest published hostctl release.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the GitHub API URL for the latest hostctl release.
const DefaultEndpoint = "https://api.github.com/repos/lukaszraczylo/hostctl/releases/latest"

const requestTimeout = 5 * time.Second

// Release describes a published release.
type Release struct {
	Tag  string `json:"tag_name"`
	URL  string `json:"html_url"`
	Name string `json:"name"`
}

// Version returns the tag without its "v" prefix.
func (r Release) Version() string {
	return normalize(r.Tag)
}

// Checker compares the running version with the latest release. It logs
// through the default slog logger.
type Checker struct {
	endpoint string
	current  string
	client   *http.Client
}

// NewChecker creates a checker. An empty endpoint means DefaultEndpoint.
func NewChecker(endpoint, current string) *Checker {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Checker{
		endpoint: endpoint,
		current:  normalize(current),
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// Latest fetches the latest release. It returns the release and whether it
// is newer than the running version. Development builds are never current.
func (c *Checker) Latest(ctx context.Context) (Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Release{}, false, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "hostctl/"+c.current)

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, false, fmt.Errorf("failed to query releases: %w", err)
	}
	defer resp.Body.Close()

	slog.Debug("release lookup",
		"endpoint", c.endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(started))

	if resp.StatusCode != http.StatusOK {
		return Release{}, false, fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return Release{}, false, fmt.Errorf("failed to decode release: %w", err)
	}

	isNewer := c.current == "dev" || newer(rel.Version(), c.current)
	slog.Debug("latest release", "tag", rel.Tag, "current", c.current, "newer", isNewer)
	return rel, isNewer, nil
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
}

// newer reports whether latest sorts after current. Pre-release and build
// suffixes are ignored.
func newer(latest, current string) bool {
	a, b := numbers(latest), numbers(current)
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return len(a) > len(b)
}

func numbers(v string) []int {
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, _ := strconv.Atoi(p)
		out = append(out, n)
	}
	return out
}
