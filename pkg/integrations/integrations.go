// Package integrations fetches repository metadata (stars, latest version,
// last update) from the code-hosting platform APIs.
//
// Each platform has one fetch strategy implementing [Fetcher]; GitHub has
// two (the UNGH aggregator, which batches star lookups and dodges GitHub
// rate limits, and the primary GitHub API). The [Service] partitions a
// heterogeneous repo list by platform, runs the platform pipelines
// concurrently, and merges their results into one map keyed by apiPath.
//
// A single repository's fetch failure never aborts a batch: failures are
// logged and the repository's fields simply stay absent.
package integrations

import (
	"context"
	"sync"
	"time"

	"github.com/projmd/projmd/pkg/batch"
	"github.com/projmd/projmd/pkg/cache"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// API endpoints for the supported services.
const (
	GitHubAPI    = "https://api.github.com"
	GitLabAPI    = "https://gitlab.com/api/v4"
	BitbucketAPI = "https://api.bitbucket.org/2.0"
	UNGHAPI      = "https://ungh.cc"
)

// Options selects which metadata fields the fetchers request and how the
// underlying HTTP calls behave.
type Options struct {
	// Stars requests star counts.
	Stars bool

	// Versions indicates manual version display is enabled; combined with
	// AutoVersion it decides whether release lookups are worth making.
	Versions bool

	// AutoVersion requests latest-release tags for projects without a
	// manual version.
	AutoVersion bool

	// SortBy widens the requested fields: sorting by stars or update time
	// needs that data even when it is not displayed.
	SortBy project.SortKey

	// UseUNGH selects the aggregator strategy for GitHub repos.
	UseUNGH bool

	// Request carries the resolved timeout/retry/cache settings.
	Request httputil.RequestConfig
}

func (o Options) needsRelease() bool {
	return o.Versions || o.AutoVersion
}

// Logf receives warning and progress messages from the fetch pipelines.
type Logf func(format string, args ...any)

// progress builds a batch observer that reports completion counts
// through logf.
func progress(logf Logf, label string) batch.Observer {
	return func(completed, total int) {
		logf("%s: %d/%d", label, completed, total)
	}
}

// Fetcher retrieves metadata for a batch of same-platform repositories.
// Implementations merge additively into the returned map and log (rather
// than propagate) per-repository failures.
type Fetcher interface {
	// Platform returns the platform this fetcher serves.
	Platform() project.Platform

	// Fetch retrieves metadata for repos, keyed by apiPath. Repos must all
	// belong to Platform(). An empty input yields an empty map.
	Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData
}

// Service dispatches repository metadata fetching across platforms.
type Service struct {
	fetchers map[project.Platform]Fetcher
	ungh     Fetcher
	logf     Logf
}

// NewService creates a Service whose HTTP calls share the given cache
// backend. The logf function receives fetch warnings; pass nil to discard.
func NewService(backend cache.Cache, logf Logf) *Service {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	client := httputil.NewClient(backend, map[string]string{"Accept": "application/json"}, logf)

	return &Service{
		fetchers: map[project.Platform]Fetcher{
			project.PlatformGitHub:    &GitHubFetcher{client: client, logf: logf},
			project.PlatformGitLab:    &GitLabFetcher{client: client, logf: logf},
			project.PlatformBitbucket: &BitbucketFetcher{client: client, logf: logf},
		},
		ungh: &UNGHFetcher{client: client, logf: logf},
		logf: logf,
	}
}

// FetchAll retrieves metadata for a mixed-platform repo list. The platform
// pipelines run concurrently; within each pipeline, batching caps the
// in-flight requests. Results merge additively so no pipeline can discard
// another's fields.
func (s *Service) FetchAll(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	byPlatform := make(map[project.Platform][]project.RepoInfo)
	for _, repo := range repos {
		byPlatform[repo.Platform] = append(byPlatform[repo.Platform], repo)
	}

	s.logf("fetching data for %d GitHub, %d GitLab, %d Bitbucket repos",
		len(byPlatform[project.PlatformGitHub]),
		len(byPlatform[project.PlatformGitLab]),
		len(byPlatform[project.PlatformBitbucket]))
	start := time.Now()

	merged := make(map[string]project.RepoData)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for platform, group := range byPlatform {
		fetcher := s.fetcherFor(platform, opts)
		if fetcher == nil || len(group) == 0 {
			continue
		}
		wg.Add(1)
		go func(f Fetcher, group []project.RepoInfo) {
			defer wg.Done()
			result := f.Fetch(ctx, group, opts)
			mu.Lock()
			project.MergeRepoData(merged, result)
			mu.Unlock()
		}(fetcher, group)
	}
	wg.Wait()

	s.logf("repository data fetching complete in %s", time.Since(start).Round(time.Millisecond))
	return merged
}

func (s *Service) fetcherFor(platform project.Platform, opts Options) Fetcher {
	if platform == project.PlatformGitHub && opts.UseUNGH {
		return s.ungh
	}
	return s.fetchers[platform]
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }
