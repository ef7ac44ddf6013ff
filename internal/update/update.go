package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ReleaseURL is the GitHub endpoint for the latest quill release.
const ReleaseURL = "https://api.github.com/repos/matheuskafuri/quill/releases/latest"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
}

// Checker looks up the latest release. The zero value queries GitHub with
// the default HTTP client.
type Checker struct {
	Client *http.Client
	URL    string
}

// Check queries the release endpoint and reports a newer version, if any.
// It returns nil on any error; a failed check is never fatal.
func (c Checker) Check(ctx context.Context, currentVersion string) *Result {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	endpoint := c.URL
	if endpoint == "" {
		endpoint = ReleaseURL
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" || !Newer(latest, currentVersion) {
		return nil
	}
	return &Result{LatestVersion: latest}
}

// Check runs a check against GitHub.
func Check(ctx context.Context, currentVersion string) *Result {
	return Checker{}.Check(ctx, currentVersion)
}

// Newer reports whether latest is a higher dotted version than current.
// Development builds ("dev" or any unparsable version) never see updates.
func Newer(latest, current string) bool {
	l, ok := parseVersion(latest)
	if !ok {
		return false
	}
	c, ok := parseVersion(current)
	if !ok {
		return false
	}
	for i := range max(len(l), len(c)) {
		var a, b int
		if i < len(l) {
			a = l[i]
		}
		if i < len(c) {
			b = c[i]
		}
		if a != b {
			return a > b
		}
	}
	return false
}

func parseVersion(v string) ([]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	// Drop pre-release and build metadata.
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return nil, false
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
