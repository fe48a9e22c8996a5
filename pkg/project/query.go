package project

import "slices"

// OpenSource returns the open-source projects, preserving order.
func OpenSource(projects []Project) []Project {
	return filter(projects, func(p Project) bool { return p.OSS })
}

// ByCategory returns projects in the given category.
func ByCategory(projects []Project, category Category) []Project {
	return filter(projects, func(p Project) bool { return p.Category == category })
}

// ByStatus returns projects with the given status.
func ByStatus(projects []Project, status Status) []Project {
	return filter(projects, func(p Project) bool { return p.Status == status })
}

// ByTag returns projects carrying the given tag. Matching is exact and
// case-sensitive.
func ByTag(projects []Project, tag string) []Project {
	return filter(projects, func(p Project) bool { return slices.Contains(p.Tags, tag) })
}

// ByTech returns projects using the given technology. Matching is exact and
// case-sensitive.
func ByTech(projects []Project, tech string) []Project {
	return filter(projects, func(p Project) bool { return slices.Contains(p.Technologies, tech) })
}

func filter(projects []Project, keep func(Project) bool) []Project {
	var out []Project
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Related resolves up to count related projects for the project with the
// given id, using a three-tier fallback:
//
//  1. explicitly declared relations that resolve to real projects, in
//     declared order
//  2. other projects in the same category, in collection order
//  3. any remaining projects, in collection order
//
// The subject project is never included, nor is any project twice.
// Returns nil if the id is unknown.
func Related(projects []Project, id string, count int) []Project {
	subject := ByID(projects, id)
	if subject == nil || count <= 0 {
		return nil
	}

	seen := map[string]bool{subject.ID: true}
	var related []Project

	add := func(p Project) bool {
		if seen[p.ID] {
			return false
		}
		seen[p.ID] = true
		related = append(related, p)
		return len(related) >= count
	}

	for _, relatedID := range subject.RelatedProjects {
		if p := ByID(projects, relatedID); p != nil {
			if add(*p) {
				return related
			}
		}
	}

	for _, p := range projects {
		if p.Category == subject.Category {
			if add(p) {
				return related
			}
		}
	}

	for _, p := range projects {
		if add(p) {
			return related
		}
	}

	return related
}
