package project

import (
	"testing"
	"time"

	"github.com/projmd/projmd/pkg/errors"
)

func rangeFixture() ([]Project, map[string]RepoData) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 20, 12, 30, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	projects := []Project{
		starProject("jan", CategoryLibrary),
		starProject("mar", CategoryLibrary),
		starProject("jun", CategoryLibrary),
		starProject("undated", CategoryLibrary),
		{ID: "nolink", Category: CategoryLibrary, OSS: true}, // no repo link at all
	}
	repoData := map[string]RepoData{
		"acme/jan": {LastUpdated: &jan},
		"acme/mar": {LastUpdated: &mar},
		"acme/jun": {LastUpdated: &jun},
	}
	return projects, repoData
}

func TestReleasedBeforeIncludesUndated(t *testing.T) {
	projects, repoData := rangeFixture()
	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	got := ReleasedBefore(projects, repoData, cutoff, FetchOptions{})

	// jan and mar qualify by date; undated is appended after them. Projects
	// without a repo link never participate.
	if want := []string{"jan", "mar", "undated"}; !equalIDs(ids(got), want) {
		t.Errorf("ReleasedBefore() = %v, want %v", ids(got), want)
	}
}

func TestReleasedBeforeCutoffIsInclusive(t *testing.T) {
	projects, repoData := rangeFixture()
	cutoff := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := ReleasedBefore(projects, repoData, cutoff, FetchOptions{})
	if want := []string{"jan", "undated"}; !equalIDs(ids(got), want) {
		t.Errorf("ReleasedBefore() = %v, want %v", ids(got), want)
	}
}

func TestReleasedBetweenExcludesUndated(t *testing.T) {
	projects, repoData := rangeFixture()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	got, err := ReleasedBetween(projects, repoData, start, end, FetchOptions{})
	if err != nil {
		t.Fatalf("ReleasedBetween() error: %v", err)
	}
	// A bounded window needs a provable timestamp: undated is out.
	if want := []string{"jan", "mar"}; !equalIDs(ids(got), want) {
		t.Errorf("ReleasedBetween() = %v, want %v", ids(got), want)
	}
}

func TestReleasedBetweenSameDayCoversWholeDay(t *testing.T) {
	projects, repoData := rangeFixture()

	// mar's update is at 12:30; a same-day query at midnight must still
	// catch it because end extends to 23:59:59.999.
	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	got, err := ReleasedBetween(projects, repoData, day, day, FetchOptions{})
	if err != nil {
		t.Fatalf("ReleasedBetween() error: %v", err)
	}
	if want := []string{"mar"}; !equalIDs(ids(got), want) {
		t.Errorf("ReleasedBetween(same day) = %v, want %v", ids(got), want)
	}
}

func TestReleasedBetweenRejectsReversedRange(t *testing.T) {
	projects, repoData := rangeFixture()
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := ReleasedBetween(projects, repoData, start, end, FetchOptions{})
	if err == nil {
		t.Fatal("ReleasedBetween() should reject start after end")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error code = %q, want INVALID_INPUT", errors.GetCode(err))
	}
}

func TestNoReleases(t *testing.T) {
	projects, repoData := rangeFixture()

	got := NoReleases(projects, repoData, FetchOptions{})
	if want := []string{"undated"}; !equalIDs(ids(got), want) {
		t.Errorf("NoReleases() = %v, want %v", ids(got), want)
	}
}

func TestRangeQueriesOSSOnly(t *testing.T) {
	projects, repoData := rangeFixture()
	projects[0].OSS = false // jan

	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	got := ReleasedBefore(projects, repoData, cutoff, FetchOptions{OSSOnly: true})
	if want := []string{"mar", "undated"}; !equalIDs(ids(got), want) {
		t.Errorf("ReleasedBefore(OSSOnly) = %v, want %v", ids(got), want)
	}
}

func TestRangeQueriesSorted(t *testing.T) {
	projects, repoData := rangeFixture()
	cutoff := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	opts := FetchOptions{SortBy: SortByUpdated, SortDirection: SortAsc}
	got := ReleasedBefore(projects, repoData, cutoff, opts)

	// Ascending by update time: undated sorts as the epoch, so it leads.
	if want := []string{"undated", "jan", "mar", "jun"}; !equalIDs(ids(got), want) {
		t.Errorf("sorted ReleasedBefore() = %v, want %v", ids(got), want)
	}
}
