package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projmd/projmd/pkg/batch"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// githubConcurrency caps in-flight requests against the primary GitHub API,
// which has strict unauthenticated rate limits.
const githubConcurrency = 3

// GitHubFetcher fetches repository metadata from the primary GitHub API,
// one repository per request. Selected when the UNGH aggregator is disabled.
type GitHubFetcher struct {
	client *httputil.Client
	logf   Logf

	// baseURL overrides the production endpoint, for tests.
	baseURL string
}

func (f *GitHubFetcher) base() string {
	if f.baseURL != "" {
		return f.baseURL
	}
	return GitHubAPI
}

// Platform returns the platform this fetcher serves.
func (f *GitHubFetcher) Platform() project.Platform { return project.PlatformGitHub }

// Fetch retrieves latest-release info and repository details as requested.
// "Not found" responses are soft failures: a repo without releases is
// normal and is simply skipped.
func (f *GitHubFetcher) Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	result := make(map[string]project.RepoData)
	if len(repos) == 0 {
		return result
	}

	if opts.needsRelease() {
		f.fetchReleases(ctx, repos, opts, result)
	}

	if opts.Stars || opts.SortBy == project.SortByStars || opts.SortBy == project.SortByUpdated {
		f.fetchRepos(ctx, repos, opts, result)
	}

	return result
}

func (f *GitHubFetcher) fetchReleases(ctx context.Context, repos []project.RepoInfo, opts Options, result map[string]project.RepoData) {
	type release struct {
		path string
		tag  string
		at   *time.Time
	}

	releases, _ := batch.Process(ctx, "github releases", repos, githubConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (release, error) {
			var data struct {
				TagName     string     `json:"tag_name"`
				PublishedAt *time.Time `json:"published_at"`
			}
			cfg := opts.Request
			cfg.CacheKey = "github_release_" + repo.APIPath
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", f.base(), repo.APIPath), cfg, &data)
			if err != nil {
				if !errors.Is(err, httputil.ErrNotFound) {
					f.logf("failed to fetch GitHub version for %s: %v", repo.APIPath, err)
				}
				return release{}, err
			}
			return release{path: repo.APIPath, tag: data.TagName, at: data.PublishedAt}, nil
		}, progress(f.logf, "fetching GitHub releases"))

	for _, rel := range releases {
		if rel.tag == "" {
			continue
		}
		entry := result[rel.path]
		entry.Version = project.StripVersionPrefix(rel.tag)
		if rel.at != nil {
			entry.LastUpdated = rel.at
		}
		result[rel.path] = entry
	}
}

func (f *GitHubFetcher) fetchRepos(ctx context.Context, repos []project.RepoInfo, opts Options, result map[string]project.RepoData) {
	type meta struct {
		path  string
		stars *int
		at    *time.Time
	}

	metas, _ := batch.Process(ctx, "github repos", repos, githubConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (meta, error) {
			var data struct {
				Stars     *int       `json:"stargazers_count"`
				UpdatedAt *time.Time `json:"updated_at"`
			}
			cfg := opts.Request
			cfg.CacheKey = "github_repo_" + repo.APIPath
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/repos/%s", f.base(), repo.APIPath), cfg, &data)
			if err != nil {
				f.logf("failed to fetch GitHub repo data for %s: %v", repo.APIPath, err)
				return meta{}, err
			}
			return meta{path: repo.APIPath, stars: data.Stars, at: data.UpdatedAt}, nil
		}, progress(f.logf, "fetching GitHub repos"))

	for _, m := range metas {
		if m.path == "" {
			continue
		}
		entry := result[m.path]
		if opts.Stars && m.stars != nil {
			entry.Stars = m.stars
		}
		if opts.SortBy == project.SortByUpdated && entry.LastUpdated == nil && m.at != nil {
			entry.LastUpdated = m.at
		}
		result[m.path] = entry
	}
}
