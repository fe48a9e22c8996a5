package integrations

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/projmd/projmd/pkg/batch"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// gitlabConcurrency caps in-flight requests against the GitLab API.
const gitlabConcurrency = 3

// GitLabFetcher fetches repository metadata from the GitLab API. One call
// per repository yields both star count and last-activity timestamp.
type GitLabFetcher struct {
	client *httputil.Client
	logf   Logf

	// baseURL overrides the production endpoint, for tests.
	baseURL string
}

func (f *GitLabFetcher) base() string {
	if f.baseURL != "" {
		return f.baseURL
	}
	return GitLabAPI
}

// Platform returns the platform this fetcher serves.
func (f *GitLabFetcher) Platform() project.Platform { return project.PlatformGitLab }

// Fetch retrieves project metadata for each repo, conditioned on which
// fields the options request.
func (f *GitLabFetcher) Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	result := make(map[string]project.RepoData)
	if len(repos) == 0 {
		return result
	}

	wantStars := opts.Stars || opts.SortBy == project.SortByStars
	wantUpdated := opts.needsRelease() || opts.SortBy == project.SortByUpdated
	if !wantStars && !wantUpdated {
		return result
	}

	type meta struct {
		path  string
		stars *int
		at    *time.Time
	}

	metas, _ := batch.Process(ctx, "gitlab repos", repos, gitlabConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (meta, error) {
			// The GitLab API takes the project identifier URL-encoded,
			// slash included.
			encoded := url.PathEscape(repo.APIPath)

			var data struct {
				StarCount      *int       `json:"star_count"`
				LastActivityAt *time.Time `json:"last_activity_at"`
			}
			cfg := opts.Request
			cfg.CacheKey = "gitlab_" + encoded
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/projects/%s", f.base(), encoded), cfg, &data)
			if err != nil {
				f.logf("failed to fetch GitLab data for %s: %v", repo.APIPath, err)
				return meta{}, err
			}
			return meta{path: repo.APIPath, stars: data.StarCount, at: data.LastActivityAt}, nil
		}, progress(f.logf, "fetching GitLab repos"))

	for _, m := range metas {
		if m.path == "" {
			continue
		}
		entry := result[m.path]
		if wantStars && m.stars != nil {
			entry.Stars = m.stars
		}
		if wantUpdated && m.at != nil {
			entry.LastUpdated = m.at
		}
		result[m.path] = entry
	}
	return result
}
