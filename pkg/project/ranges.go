package project

import (
	"time"

	"github.com/projmd/projmd/pkg/errors"
)

// FetchOptions filters and orders the results of the date-range queries.
type FetchOptions struct {
	OSSOnly       bool
	SortBy        SortKey
	SortDirection SortDirection
}

func (o FetchOptions) direction() SortDirection {
	if o.SortDirection == "" {
		return SortDesc
	}
	return o.SortDirection
}

// ReleasedBefore returns projects whose last-known update is at or before
// the given date, plus projects with no update information at all: "unknown"
// cannot be proven recent, so it stays eligible. Dated matches keep their
// relative order and undated projects are appended after them.
//
// Only projects with a recognized repository link participate.
func ReleasedBefore(projects []Project, repoData map[string]RepoData, date time.Time, opts FetchOptions) []Project {
	var dated, undated []Project

	for _, p := range withValidRepos(projects, opts) {
		updated := lastUpdated(p, repoData)
		switch {
		case updated == nil:
			undated = append(undated, p)
		case !updated.After(date):
			dated = append(dated, p)
		}
	}

	results := append(dated, undated...)
	return sortIfRequested(results, repoData, opts)
}

// ReleasedBetween returns projects with a known last update inside the
// inclusive [start, end] range. Projects without update data are excluded: a
// bounded window needs a provable timestamp.
//
// If start and end fall on the same calendar day, end is extended to
// 23:59:59.999 of that day. Otherwise start must not be after end.
func ReleasedBetween(projects []Project, repoData map[string]RepoData, start, end time.Time, opts FetchOptions) ([]Project, error) {
	if sameDay(start, end) {
		end = endOfDay(end)
	} else if start.After(end) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "start date must be before end date")
	}

	var results []Project
	for _, p := range withValidRepos(projects, opts) {
		updated := lastUpdated(p, repoData)
		if updated == nil {
			continue
		}
		if !updated.Before(start) && !updated.After(end) {
			results = append(results, p)
		}
	}

	return sortIfRequested(results, repoData, opts), nil
}

// NoReleases returns projects with a recognized repository link for which no
// last-updated value could be obtained.
func NoReleases(projects []Project, repoData map[string]RepoData, opts FetchOptions) []Project {
	var results []Project
	for _, p := range withValidRepos(projects, opts) {
		if lastUpdated(p, repoData) == nil {
			results = append(results, p)
		}
	}
	return sortIfRequested(results, repoData, opts)
}

func withValidRepos(projects []Project, opts FetchOptions) []Project {
	var out []Project
	for _, p := range projects {
		if opts.OSSOnly && !p.OSS {
			continue
		}
		if RepoInfoFromProject(p) != nil {
			out = append(out, p)
		}
	}
	return out
}

func lastUpdated(p Project, repoData map[string]RepoData) *time.Time {
	if entry, ok := lookup(p, repoData); ok {
		return entry.LastUpdated
	}
	return nil
}

func sortIfRequested(projects []Project, repoData map[string]RepoData, opts FetchOptions) []Project {
	if opts.SortBy == "" {
		return projects
	}
	return Sort(projects, opts.SortBy, opts.direction(), repoData)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}
