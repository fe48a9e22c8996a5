package integrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projmd/projmd/pkg/batch"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// UNGH batching limits. Star lookups join up to 10 apiPaths per request to
// bound URL length; per-repo lookups run 5 at a time.
const (
	unghStarBatchSize = 10
	unghConcurrency   = 5
)

// UNGHFetcher fetches GitHub repository metadata through the UNGH
// aggregator, which supports batched star lookups and has no rate limits
// worth speaking of. This is the default GitHub strategy.
type UNGHFetcher struct {
	client *httputil.Client
	logf   Logf

	// baseURL overrides the production endpoint, for tests.
	baseURL string
}

func (f *UNGHFetcher) base() string {
	if f.baseURL != "" {
		return f.baseURL
	}
	return UNGHAPI
}

// Platform returns the platform this fetcher serves.
func (f *UNGHFetcher) Platform() project.Platform { return project.PlatformGitHub }

// Fetch retrieves metadata in up to three passes: batched star lookups,
// per-repo latest releases, and a generic per-repo backfill for repos still
// missing fields a requested sort needs.
func (f *UNGHFetcher) Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	result := make(map[string]project.RepoData)
	if len(repos) == 0 {
		return result
	}

	if opts.Stars {
		f.fetchStarBatches(ctx, repos, opts, result)
	}

	if opts.needsRelease() {
		f.fetchReleases(ctx, repos, opts, result)
	}

	if toFetch := f.reposMissingData(repos, opts, result); len(toFetch) > 0 {
		f.fetchRepoBackfill(ctx, toFetch, opts, result)
	}

	return result
}

func (f *UNGHFetcher) fetchStarBatches(ctx context.Context, repos []project.RepoInfo, opts Options, result map[string]project.RepoData) {
	for begin := 0; begin < len(repos); begin += unghStarBatchSize {
		end := min(begin+unghStarBatchSize, len(repos))

		paths := make([]string, 0, end-begin)
		for _, repo := range repos[begin:end] {
			paths = append(paths, repo.APIPath)
		}
		joined := strings.Join(paths, "+")

		var data struct {
			Stars map[string]int `json:"stars"`
		}
		cfg := opts.Request
		cfg.CacheKey = "ungh_stars_" + joined
		_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/stars/%s", f.base(), joined), cfg, &data)
		if err != nil {
			// One failed batch loses only its own stars; later batches and
			// the per-repo backfill still run.
			f.logf("failed to fetch GitHub stars with UNGH: %v", err)
			continue
		}

		for path, count := range data.Stars {
			entry := result[path]
			entry.Stars = intPtr(count)
			result[path] = entry
		}
	}
}

func (f *UNGHFetcher) fetchReleases(ctx context.Context, repos []project.RepoInfo, opts Options, result map[string]project.RepoData) {
	type release struct {
		path string
		tag  string
		at   *time.Time
	}

	releases, _ := batch.Process(ctx, "ungh releases", repos, unghConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (release, error) {
			var data struct {
				Release struct {
					Tag         string     `json:"tag"`
					PublishedAt *time.Time `json:"publishedAt"`
				} `json:"release"`
			}
			cfg := opts.Request
			cfg.CacheKey = "ungh_release_" + repo.APIPath
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", f.base(), repo.APIPath), cfg, &data)
			if err != nil {
				// Repos without releases 404 here; that is expected.
				if !errors.Is(err, httputil.ErrNotFound) {
					f.logf("failed to fetch release info for %s with UNGH: %v", repo.APIPath, err)
				}
				return release{}, err
			}
			return release{path: repo.APIPath, tag: data.Release.Tag, at: data.Release.PublishedAt}, nil
		}, progress(f.logf, "fetching releases"))

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

// reposMissingData returns repos that still lack a field the requested sort
// needs after the earlier passes.
func (f *UNGHFetcher) reposMissingData(repos []project.RepoInfo, opts Options, result map[string]project.RepoData) []project.RepoInfo {
	wantUpdated := opts.SortBy == project.SortByUpdated
	wantStars := opts.SortBy == project.SortByStars && !opts.Stars
	if !wantUpdated && !wantStars {
		return nil
	}

	var missing []project.RepoInfo
	for _, repo := range repos {
		entry := result[repo.APIPath]
		if (wantUpdated && entry.LastUpdated == nil) || (wantStars && entry.Stars == nil) {
			missing = append(missing, repo)
		}
	}
	return missing
}

func (f *UNGHFetcher) fetchRepoBackfill(ctx context.Context, repos []project.RepoInfo, opts Options, result map[string]project.RepoData) {
	type meta struct {
		path  string
		stars *int
		at    *time.Time
	}

	metas, _ := batch.Process(ctx, "ungh repos", repos, unghConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (meta, error) {
			var data struct {
				Repo *struct {
					Stars     int        `json:"stars"`
					UpdatedAt *time.Time `json:"updatedAt"`
				} `json:"repo"`
			}
			cfg := opts.Request
			cfg.CacheKey = "ungh_repo_" + repo.APIPath
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/repos/%s", f.base(), repo.APIPath), cfg, &data)
			if err != nil {
				f.logf("failed to fetch repo data for %s with UNGH: %v", repo.APIPath, err)
				return meta{}, err
			}
			if data.Repo == nil {
				return meta{}, nil
			}
			return meta{path: repo.APIPath, stars: intPtr(data.Repo.Stars), at: data.Repo.UpdatedAt}, nil
		}, progress(f.logf, "fetching repo data"))

	for _, m := range metas {
		if m.path == "" {
			continue
		}
		entry := result[m.path]
		if entry.Stars == nil && m.stars != nil && *m.stars > 0 {
			entry.Stars = m.stars
		}
		if entry.LastUpdated == nil && m.at != nil {
			entry.LastUpdated = m.at
		}
		result[m.path] = entry
	}
}
