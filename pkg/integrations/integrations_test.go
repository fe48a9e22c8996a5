package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/projmd/projmd/pkg/cache"
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/project"
)

func testClient() *httputil.Client {
	return httputil.NewClient(cache.NewNullCache(), nil, nil)
}

func discard(string, ...any) {}

func repoList(n int) []project.RepoInfo {
	repos := make([]project.RepoInfo, n)
	for i := range repos {
		path := fmt.Sprintf("acme/repo%d", i)
		repos[i] = project.RepoInfo{
			Platform: project.PlatformGitHub,
			Owner:    "acme",
			Name:     fmt.Sprintf("repo%d", i),
			APIPath:  path,
			URL:      "https://github.com/" + path,
		}
	}
	return repos
}

func TestUNGHStarBatching(t *testing.T) {
	var starCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/stars/") {
			http.NotFound(w, r)
			return
		}
		starCalls.Add(1)

		joined := strings.TrimPrefix(r.URL.Path, "/stars/")
		stars := make(map[string]int)
		for i, path := range strings.Split(joined, "+") {
			stars[path] = 100 + i
		}
		fmt.Fprintf(w, `{"stars":%s}`, mustJSON(stars))
	}))
	defer srv.Close()

	f := &UNGHFetcher{client: testClient(), logf: discard, baseURL: srv.URL}

	// 12 repos split into a batch of 10 and a batch of 2.
	result := f.Fetch(context.Background(), repoList(12), Options{Stars: true})

	if n := starCalls.Load(); n != 2 {
		t.Errorf("star endpoint called %d times for 12 repos, want 2", n)
	}
	if len(result) != 12 {
		t.Fatalf("got stars for %d repos, want 12", len(result))
	}
	for path, entry := range result {
		if entry.Stars == nil {
			t.Errorf("repo %s has no star count", path)
		}
	}
}

func TestUNGHFailedBatchSkipsOnlyItself(t *testing.T) {
	var batchNum atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First star batch fails outright; the second succeeds.
		if batchNum.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		joined := strings.TrimPrefix(r.URL.Path, "/stars/")
		stars := make(map[string]int)
		for _, path := range strings.Split(joined, "+") {
			stars[path] = 1
		}
		fmt.Fprintf(w, `{"stars":%s}`, mustJSON(stars))
	}))
	defer srv.Close()

	var warnings atomic.Int32
	logf := func(string, ...any) { warnings.Add(1) }
	f := &UNGHFetcher{client: testClient(), logf: logf, baseURL: srv.URL}

	result := f.Fetch(context.Background(), repoList(12), Options{Stars: true, Request: httputil.RequestConfig{Retries: 0}})

	// Only the second batch's repos carry stars.
	withStars := 0
	for _, entry := range result {
		if entry.Stars != nil {
			withStars++
		}
	}
	if withStars != 2 {
		t.Errorf("%d repos have stars, want 2 from the surviving batch", withStars)
	}
	if warnings.Load() == 0 {
		t.Error("failed batch should be logged")
	}
}

func TestUNGHReleases(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/repo0/releases/latest"):
			fmt.Fprintf(w, `{"release":{"tag":"v2.1.0","publishedAt":%q}}`, published.Format(time.RFC3339))
		case strings.HasSuffix(r.URL.Path, "/releases/latest"):
			// Repos without releases 404; that must stay silent.
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var warnings atomic.Int32
	logf := func(string, ...any) { warnings.Add(1) }
	f := &UNGHFetcher{client: testClient(), logf: logf, baseURL: srv.URL}

	result := f.Fetch(context.Background(), repoList(2), Options{AutoVersion: true})

	entry := result["acme/repo0"]
	if entry.Version != "2.1.0" {
		t.Errorf("version = %q, want %q with the v prefix stripped", entry.Version, "2.1.0")
	}
	if entry.LastUpdated == nil || !entry.LastUpdated.Equal(published) {
		t.Error("publishedAt should populate LastUpdated")
	}
	if _, ok := result["acme/repo1"]; ok {
		t.Error("repo without a release should have no entry")
	}
	if warnings.Load() != 0 {
		t.Error("a 404 release lookup should not be logged")
	}
}

func TestUNGHBackfillForUpdatedSort(t *testing.T) {
	updated := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/releases/latest"):
			http.NotFound(w, r)
		case strings.HasPrefix(r.URL.Path, "/repos/"):
			fmt.Fprintf(w, `{"repo":{"stars":9,"updatedAt":%q}}`, updated.Format(time.RFC3339))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &UNGHFetcher{client: testClient(), logf: discard, baseURL: srv.URL}

	opts := Options{AutoVersion: true, SortBy: project.SortByUpdated}
	result := f.Fetch(context.Background(), repoList(1), opts)

	entry := result["acme/repo0"]
	if entry.LastUpdated == nil || !entry.LastUpdated.Equal(updated) {
		t.Error("backfill should fill LastUpdated when the sort needs it")
	}
}

func TestGitHubFetcher(t *testing.T) {
	published := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/releases/latest"):
			fmt.Fprintf(w, `{"tag_name":"v3.0.0","published_at":%q}`, published.Format(time.RFC3339))
		default:
			fmt.Fprint(w, `{"stargazers_count":1234,"updated_at":"2024-05-05T00:00:00Z"}`)
		}
	}))
	defer srv.Close()

	f := &GitHubFetcher{client: testClient(), logf: discard, baseURL: srv.URL}

	result := f.Fetch(context.Background(), repoList(1), Options{Stars: true, AutoVersion: true})

	entry := result["acme/repo0"]
	if entry.Version != "3.0.0" {
		t.Errorf("version = %q, want 3.0.0", entry.Version)
	}
	if entry.Stars == nil || *entry.Stars != 1234 {
		t.Error("stars should come from stargazers_count")
	}
	// Release date wins over the repo's updated_at when both are present.
	if entry.LastUpdated == nil || !entry.LastUpdated.Equal(published) {
		t.Errorf("LastUpdated = %v, want the release date", entry.LastUpdated)
	}
}

func TestGitLabFetcher(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"star_count":55,"last_activity_at":"2024-06-06T00:00:00Z"}`)
	}))
	defer srv.Close()

	f := &GitLabFetcher{client: testClient(), logf: discard, baseURL: srv.URL}

	repos := []project.RepoInfo{{Platform: project.PlatformGitLab, Owner: "group", Name: "proj", APIPath: "group/proj"}}
	result := f.Fetch(context.Background(), repos, Options{Stars: true, AutoVersion: true})

	// The project identifier goes over the wire URL-encoded, slash included.
	if !strings.Contains(gotPath, "group%2Fproj") {
		t.Errorf("request path = %q, want encoded identifier", gotPath)
	}

	entry := result["group/proj"]
	if entry.Stars == nil || *entry.Stars != 55 {
		t.Error("stars should come from star_count")
	}
	if entry.LastUpdated == nil {
		t.Error("last_activity_at should populate LastUpdated")
	}
}

func TestBitbucketFetcher(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"updated_on":"2024-01-20T00:00:00Z"}`)
	}))
	defer srv.Close()

	f := &BitbucketFetcher{client: testClient(), logf: discard, baseURL: srv.URL}
	repos := []project.RepoInfo{{Platform: project.PlatformBitbucket, Owner: "team", Name: "repo", APIPath: "team/repo"}}

	// Stars-only options skip Bitbucket entirely: it has no star counts.
	result := f.Fetch(context.Background(), repos, Options{Stars: true})
	if len(result) != 0 || calls.Load() != 0 {
		t.Error("Bitbucket should not be queried when only stars are requested")
	}

	result = f.Fetch(context.Background(), repos, Options{AutoVersion: true})
	entry := result["team/repo"]
	if entry.LastUpdated == nil {
		t.Error("updated_on should populate LastUpdated")
	}
}

// stubFetcher records what it was asked for and returns canned data.
type stubFetcher struct {
	platform project.Platform
	calls    atomic.Int32
	data     map[string]project.RepoData
}

func (s *stubFetcher) Platform() project.Platform { return s.platform }

func (s *stubFetcher) Fetch(ctx context.Context, repos []project.RepoInfo, opts Options) map[string]project.RepoData {
	s.calls.Add(1)
	return s.data
}

func TestServicePartitionsAndMerges(t *testing.T) {
	stars := 3
	github := &stubFetcher{platform: project.PlatformGitHub, data: map[string]project.RepoData{"g/h": {Stars: &stars}}}
	gitlab := &stubFetcher{platform: project.PlatformGitLab, data: map[string]project.RepoData{"g/l": {Version: "1.0"}}}
	ungh := &stubFetcher{platform: project.PlatformGitHub}

	svc := &Service{
		fetchers: map[project.Platform]Fetcher{
			project.PlatformGitHub: github,
			project.PlatformGitLab: gitlab,
		},
		ungh: ungh,
		logf: func(string, ...any) {},
	}

	repos := []project.RepoInfo{
		{Platform: project.PlatformGitHub, APIPath: "g/h"},
		{Platform: project.PlatformGitLab, APIPath: "g/l"},
	}

	merged := svc.FetchAll(context.Background(), repos, Options{})

	if github.calls.Load() != 1 || gitlab.calls.Load() != 1 {
		t.Error("each platform fetcher should run exactly once")
	}
	if ungh.calls.Load() != 0 {
		t.Error("the aggregator should not run when UseUNGH is off")
	}
	if merged["g/h"].Stars == nil || merged["g/l"].Version != "1.0" {
		t.Errorf("merged = %v, want both platforms' data", merged)
	}
}

func TestServicePrefersAggregatorForGitHub(t *testing.T) {
	github := &stubFetcher{platform: project.PlatformGitHub}
	ungh := &stubFetcher{platform: project.PlatformGitHub}

	svc := &Service{
		fetchers: map[project.Platform]Fetcher{project.PlatformGitHub: github},
		ungh:     ungh,
		logf:     func(string, ...any) {},
	}

	repos := []project.RepoInfo{{Platform: project.PlatformGitHub, APIPath: "g/h"}}
	svc.FetchAll(context.Background(), repos, Options{UseUNGH: true})

	if ungh.calls.Load() != 1 || github.calls.Load() != 0 {
		t.Error("UseUNGH should route GitHub repos through the aggregator")
	}
}

func TestFetchForProjects(t *testing.T) {
	ungh := &stubFetcher{platform: project.PlatformGitHub, data: map[string]project.RepoData{}}
	svc := &Service{
		fetchers: map[project.Platform]Fetcher{},
		ungh:     ungh,
		logf:     func(string, ...any) {},
	}

	projects := []project.Project{
		{ID: "linked", Link: "https://github.com/acme/linked"},
		{ID: "unlinked", Link: "https://example.com/elsewhere"},
	}

	valid, repoData := svc.FetchForProjects(context.Background(), projects)

	if len(valid) != 1 || valid[0].ID != "linked" {
		t.Errorf("valid projects = %v, want only the linked one", valid)
	}
	if repoData == nil {
		t.Error("repoData must never be nil")
	}
}

func TestFetchReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stargazers_count": 7}`)
	}))
	defer srv.Close()

	var mu sync.Mutex
	var messages []string
	logf := func(format string, args ...any) {
		mu.Lock()
		messages = append(messages, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	f := &GitHubFetcher{client: testClient(), logf: logf, baseURL: srv.URL}
	f.Fetch(context.Background(), repoList(7), Options{Stars: true})

	mu.Lock()
	defer mu.Unlock()
	for _, want := range []string{
		"fetching GitHub repos: 5/7",
		"fetching GitHub repos: 7/7",
	} {
		found := false
		for _, msg := range messages {
			if msg == want {
				found = true
			}
		}
		if !found {
			t.Errorf("progress message %q not logged, got %v", want, messages)
		}
	}
}

func mustJSON(v map[string]int) string {
	parts := make([]string, 0, len(v))
	for k, n := range v {
		parts = append(parts, fmt.Sprintf("%q:%d", k, n))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
