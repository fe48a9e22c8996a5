package project

import (
	"sort"
	"strings"
	"time"
)

// SortKey selects the primary sort property.
type SortKey string

// Supported sort keys.
const (
	SortByID       SortKey = "id"
	SortByStars    SortKey = "stars"
	SortByUpdated  SortKey = "updated"
	SortByName     SortKey = "name"
	SortByCategory SortKey = "category"
)

// SortDirection selects ascending or descending order.
type SortDirection string

// Supported sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort returns a sorted copy of projects. The input is not modified.
//
// Projects flagged Soon always sort to the end regardless of direction.
// Within the remaining projects, the requested key is applied with the given
// direction; equal primary keys are tie-broken by ascending id so the order
// is deterministic. Missing star counts compare as 0 and missing update
// times as the epoch.
func Sort(projects []Project, key SortKey, dir SortDirection, repoData map[string]RepoData) []Project {
	sorted := make([]Project, len(projects))
	copy(sorted, projects)
	if key == "" {
		return sorted
	}

	desc := dir == SortDesc

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		if a.Soon != b.Soon {
			return !a.Soon
		}
		if a.Soon && b.Soon {
			return false
		}

		cmp := compareBy(a, b, key, repoData)
		if cmp == 0 {
			// Tie-break by ascending id so sorts are deterministic.
			return strings.Compare(a.ID, b.ID) < 0
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	return sorted
}

func compareBy(a, b Project, key SortKey, repoData map[string]RepoData) int {
	switch key {
	case SortByID:
		return strings.Compare(a.ID, b.ID)
	case SortByName:
		return strings.Compare(a.Title, b.Title)
	case SortByCategory:
		return strings.Compare(string(a.Category), string(b.Category))
	case SortByStars:
		sa, sb := starsOf(a, repoData), starsOf(b, repoData)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	case SortByUpdated:
		return updatedOf(a, repoData).Compare(updatedOf(b, repoData))
	}
	return 0
}

func starsOf(p Project, repoData map[string]RepoData) int {
	if entry, ok := lookup(p, repoData); ok && entry.Stars != nil {
		return *entry.Stars
	}
	return 0
}

func updatedOf(p Project, repoData map[string]RepoData) time.Time {
	if entry, ok := lookup(p, repoData); ok && entry.LastUpdated != nil {
		return *entry.LastUpdated
	}
	return time.Time{}
}

func lookup(p Project, repoData map[string]RepoData) (RepoData, bool) {
	if repoData == nil {
		return RepoData{}, false
	}
	info := RepoInfoFromProject(p)
	if info == nil {
		return RepoData{}, false
	}
	entry, ok := repoData[info.APIPath]
	return entry, ok
}
