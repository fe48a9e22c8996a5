// Package table renders a project collection as a markdown table, one
// column per category, with optional version, star, and status badges
// sourced from fetched repository metadata.
package table

import (
	"context"
	"strconv"
	"strings"

	"github.com/projmd/projmd/pkg/errors"
	"github.com/projmd/projmd/pkg/integrations"
	"github.com/projmd/projmd/pkg/project"
)

// Placeholder comments emitted instead of a malformed or empty table.
const (
	placeholderNoCategories = "<!-- No valid categories selected for table generation. -->"
	placeholderNoProjects   = "<!-- No projects found for the selected categories. -->"
)

const tableSeparator = "---------------------------------"

// MetadataFetcher retrieves repository metadata for the repos a table
// needs. *integrations.Service satisfies this; tests substitute fakes.
type MetadataFetcher interface {
	FetchAll(ctx context.Context, repos []project.RepoInfo, opts integrations.Options) map[string]project.RepoData
}

// column is one rendered table column: a category and its sorted projects.
type column struct {
	title    string
	projects []project.Project
}

// Generate produces a markdown table of projects grouped by the requested
// categories.
//
// The project collection is validated first; invalid data fails generation
// before any fetch. Repository metadata is fetched only when an option
// requires it, and fetch failures degrade to cells without badges rather
// than failing the table. Categories with no projects are dropped; if none
// remain the result is an explanatory placeholder comment.
func Generate(ctx context.Context, projects []project.Project, params Params, fetcher MetadataFetcher) (string, error) {
	if result := project.ValidateAll(projects); !result.Valid {
		return "", errors.New(errors.ErrCodeInvalidProject,
			"project data validation failed: %s", strings.Join(result.Errors, "; "))
	}

	if len(params.Categories) == 0 {
		return "", errors.New(errors.ErrCodeInvalidCategory, "no categories provided for markdown table generation")
	}

	var known []project.Category
	for _, cat := range params.Categories {
		if cat.Known() {
			known = append(known, cat)
		}
	}
	if len(known) == 0 {
		return placeholderNoCategories, nil
	}

	groups := make(map[project.Category][]project.Project, len(known))
	for _, cat := range known {
		groups[cat] = project.ByCategory(projects, cat)
	}

	repoData := map[string]project.RepoData{}
	if params.needsRepoData() && fetcher != nil {
		if repos := reposToFetch(known, groups); len(repos) > 0 {
			repoData = fetcher.FetchAll(ctx, repos, params.fetchOptions())
		}
	}

	var columns []column
	for _, cat := range known {
		sorted := project.Sort(groups[cat], params.SortBy, params.SortDirection, repoData)
		if len(sorted) == 0 {
			continue
		}
		columns = append(columns, column{title: project.CategoryTitles[cat], projects: sorted})
	}
	if len(columns) == 0 {
		return placeholderNoProjects, nil
	}

	return renderTable(columns, params.Options, repoData), nil
}

// reposToFetch collects the unique repositories behind the grouped
// projects. Soon and closed-source projects are skipped: there is nothing
// to fetch or nothing to show.
func reposToFetch(categories []project.Category, groups map[project.Category][]project.Project) []project.RepoInfo {
	seen := make(map[string]bool)
	var repos []project.RepoInfo

	for _, cat := range categories {
		for _, p := range groups[cat] {
			if p.Soon || !p.OSS {
				continue
			}
			info := project.RepoInfoFromProject(p)
			if info == nil {
				continue
			}
			key := string(info.Platform) + ":" + info.APIPath
			if !seen[key] {
				seen[key] = true
				repos = append(repos, *info)
			}
		}
	}
	return repos
}

func renderTable(columns []column, opts Options, repoData map[string]project.RepoData) string {
	headers := make([]string, len(columns))
	separators := make([]string, len(columns))
	maxRows := 0
	for i, col := range columns {
		headers[i] = col.title
		separators[i] = tableSeparator
		maxRows = max(maxRows, len(col.projects))
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("| " + strings.Join(separators, " | ") + " |")

	for row := 0; row < maxRows; row++ {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if row < len(col.projects) {
				cells[i] = renderCell(col.projects[row], opts, repoData)
			}
		}
		b.WriteString("\n| " + strings.Join(cells, " | ") + " |")
	}

	return b.String()
}

// renderCell formats one project as a markdown table cell.
func renderCell(p project.Project, opts Options, repoData map[string]project.RepoData) string {
	if p.Soon {
		return "*" + IconComingSoon + " " + p.ID + "*<br />" + p.Description
	}

	icon := opts.privateIcon()
	if p.OSS {
		icon = opts.ossIcon()
	}

	var entry project.RepoData
	if info := project.RepoInfoFromProject(p); info != nil {
		entry = repoData[info.APIPath]
	}

	var badges strings.Builder
	if opts.Versions {
		// A manually pinned version always wins over the fetched one.
		switch {
		case p.Ver != "":
			badges.WriteString(" <sub>" + IconVersion + " " + p.Ver + "</sub>")
		case opts.AutoVersion && p.OSS && entry.Version != "":
			badges.WriteString(" <sub>" + IconVersion + " " + entry.Version + "</sub>")
		}
	}
	if opts.Stars && p.OSS && entry.Stars != nil {
		badges.WriteString(" <sub>" + IconStar + " " + formatStars(*entry.Stars) + "</sub>")
	}
	if opts.ShowStatus {
		if statusIcon := opts.statusIcon(p.Status); statusIcon != "" {
			badges.WriteString(" <sub>" + statusIcon + "</sub>")
		}
	}

	name := strings.TrimSpace(p.ID)
	description := strings.TrimSpace(p.Description)
	return "[" + icon + " " + name + "](" + p.Link + ")" + badges.String() + "<br />" + description
}

// formatStars renders a star count with thousands separators (12345 ->
// "12,345").
func formatStars(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
