package integrations

import (
	"context"
	"time"

	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

// QueryOptions returns the fetch options used by the date-range queries:
// release info with a generous timeout, caching on. Star counts are not
// needed to answer date questions.
func QueryOptions() Options {
	return Options{
		AutoVersion: true,
		UseUNGH:     true,
		Request: httputil.RequestConfig{
			Timeout:     10 * time.Second,
			Retries:     httputil.DefaultRetries,
			EnableCache: true,
			CacheTTL:    time.Hour,
		},
	}
}

// FetchForProjects fetches metadata for every project with a recognized
// repository link, returning the subset of projects that have one along
// with the merged metadata map. Date-range queries run over this pair.
func (s *Service) FetchForProjects(ctx context.Context, projects []project.Project) ([]project.Project, map[string]project.RepoData) {
	var withRepos []project.Project
	var repos []project.RepoInfo

	for _, p := range projects {
		if info := project.RepoInfoFromProject(p); info != nil {
			withRepos = append(withRepos, p)
			repos = append(repos, *info)
		}
	}

	if len(repos) == 0 {
		return withRepos, map[string]project.RepoData{}
	}
	return withRepos, s.FetchAll(ctx, repos, QueryOptions())
}
