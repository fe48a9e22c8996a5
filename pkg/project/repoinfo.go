package project

import (
	"net/url"
	"strings"
	"time"
)

// Platform identifies a code-hosting platform.
type Platform string

// Supported platforms.
const (
	PlatformGitHub    Platform = "github"
	PlatformGitLab    Platform = "gitlab"
	PlatformBitbucket Platform = "bitbucket"
)

// hostPlatforms maps recognized hostnames to platforms. Hosts outside this
// map yield no repository identity.
var hostPlatforms = map[string]Platform{
	"github.com":    PlatformGitHub,
	"gitlab.com":    PlatformGitLab,
	"bitbucket.org": PlatformBitbucket,
}

// RepoInfo is the repository identity derived from a project link.
// APIPath ("owner/name") is the join key between a project and its fetched
// metadata.
type RepoInfo struct {
	Platform Platform
	Owner    string
	Name     string
	APIPath  string
	URL      string
}

// RepoData is fetched repository metadata keyed by apiPath. Fields are
// optional and accumulative: different fetch passes populate different
// subsets, and later passes merge into existing entries without discarding
// earlier fields.
type RepoData struct {
	Stars       *int       `json:"stars,omitempty"`
	Version     string     `json:"version,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Merge fills d's unset fields from other. Existing fields win.
func (d *RepoData) Merge(other RepoData) {
	if d.Stars == nil {
		d.Stars = other.Stars
	}
	if d.Version == "" {
		d.Version = other.Version
	}
	if d.LastUpdated == nil {
		d.LastUpdated = other.LastUpdated
	}
}

// MergeRepoData merges src into dst additively, entry by entry.
func MergeRepoData(dst, src map[string]RepoData) {
	for path, data := range src {
		entry := dst[path]
		entry.Merge(data)
		dst[path] = entry
	}
}

// RepoInfoFromProject derives the repository identity from a project's
// primary link. It recognizes exactly github.com, gitlab.com, and
// bitbucket.org and requires at least owner and name path segments.
// Returns nil for malformed URLs and unsupported hosts; callers treat that
// as "no repository data available", never as a fatal error.
func RepoInfoFromProject(p Project) *RepoInfo {
	parsed, err := url.Parse(p.Link)
	if err != nil {
		return nil
	}

	platform, ok := hostPlatforms[parsed.Hostname()]
	if !ok {
		return nil
	}

	var parts []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) < 2 {
		return nil
	}

	return &RepoInfo{
		Platform: platform,
		Owner:    parts[0],
		Name:     parts[1],
		APIPath:  parts[0] + "/" + parts[1],
		URL:      p.Link,
	}
}

// StripVersionPrefix removes a leading "v" or "V" from a version tag.
func StripVersionPrefix(tag string) string {
	if len(tag) > 0 && (tag[0] == 'v' || tag[0] == 'V') {
		return tag[1:]
	}
	return tag
}
