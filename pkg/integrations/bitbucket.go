package integrations

import (
	"context"
	"fmt"
	"time"

	"github.com/projmd/projmd/pkg/batch"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// bitbucketConcurrency caps in-flight requests against the Bitbucket API.
const bitbucketConcurrency = 3

// BitbucketFetcher fetches repository metadata from the Bitbucket API.
// Bitbucket exposes no star counts, so only the last-updated timestamp is
// extracted.
type BitbucketFetcher struct {
	client *httputil.Client
	logf   Logf

	// baseURL overrides the production endpoint, for tests.
	baseURL string
}

func (f *BitbucketFetcher) base() string {
	if f.baseURL != "" {
		return f.baseURL
	}
	return BitbucketAPI
}

// Platform returns the platform this fetcher serves.
func (f *BitbucketFetcher) Platform() project.Platform { return project.PlatformBitbucket }

// Fetch retrieves the last-updated timestamp for each repo when any
// requested field needs it.
func (f *BitbucketFetcher) Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	result := make(map[string]project.RepoData)
	if len(repos) == 0 {
		return result
	}

	if !opts.needsRelease() && opts.SortBy != project.SortByUpdated {
		return result
	}

	type meta struct {
		path string
		at   *time.Time
	}

	metas, _ := batch.Process(ctx, "bitbucket repos", repos, bitbucketConcurrency,
		func(ctx context.Context, repo project.RepoInfo) (meta, error) {
			var data struct {
				UpdatedOn *time.Time `json:"updated_on"`
			}
			cfg := opts.Request
			cfg.CacheKey = "bitbucket_" + repo.APIPath
			_, err := f.client.FetchJSON(ctx, fmt.Sprintf("%s/repositories/%s", f.base(), repo.APIPath), cfg, &data)
			if err != nil {
				f.logf("failed to fetch Bitbucket data for %s: %v", repo.APIPath, err)
				return meta{}, err
			}
			return meta{path: repo.APIPath, at: data.UpdatedOn}, nil
		}, progress(f.logf, "fetching Bitbucket repos"))

	for _, m := range metas {
		if m.path == "" {
			continue
		}
		entry := result[m.path]
		if m.at != nil {
			entry.LastUpdated = m.at
		}
		result[m.path] = entry
	}
	return result
}
