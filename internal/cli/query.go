package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/project"
)

// queryOpts holds the shared flags for the date-range query commands.
type queryOpts struct {
	ossOnly       bool   // restrict to open-source projects
	sortBy        string // sort key, empty keeps collection order
	sortDirection string // sort direction
}

func (o *queryOpts) fetchOptions() project.FetchOptions {
	return project.FetchOptions{
		OSSOnly:       o.ossOnly,
		SortBy:        project.SortKey(o.sortBy),
		SortDirection: project.SortDirection(o.sortDirection),
	}
}

// queryCommand creates the query command group for date-based slicing.
func (c *CLI) queryCommand() *cobra.Command {
	var opts queryOpts

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query projects by repository release activity",
	}

	cmd.PersistentFlags().BoolVar(&opts.ossOnly, "oss", false, "only open-source projects")
	cmd.PersistentFlags().StringVar(&opts.sortBy, "sort", "", "sort key: id, name, stars, updated, category")
	cmd.PersistentFlags().StringVar(&opts.sortDirection, "direction", "", "sort direction: asc, desc")

	cmd.AddCommand(c.queryBeforeCommand(&opts))
	cmd.AddCommand(c.queryBetweenCommand(&opts))
	cmd.AddCommand(c.queryNoReleasesCommand(&opts))

	return cmd
}

// queryBeforeCommand creates the "query before" subcommand. Dates accept
// numeric forms (15/01/2024, 2024-01-15) and relative phrases ("last month",
// "3 weeks ago").
func (c *CLI) queryBeforeCommand(opts *queryOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "before <date>",
		Short: "List projects not updated since the given date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := project.ParseFlexibleDate(args[0], time.Now())
			if err != nil {
				return err
			}

			projects, repoData, err := c.fetchQueryData(cmd)
			if err != nil {
				return err
			}

			results := project.ReleasedBefore(projects, repoData, date, opts.fetchOptions())
			printInfo("%d projects last updated on or before %s (or with unknown activity)", len(results), date.Format("2006-01-02"))
			printProjects(results, repoData)
			return nil
		},
	}
}

// queryBetweenCommand creates the "query between" subcommand.
func (c *CLI) queryBetweenCommand(opts *queryOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "between <start> <end>",
		Short: "List projects updated within a date range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			start, err := project.ParseFlexibleDate(args[0], now)
			if err != nil {
				return err
			}
			end, err := project.ParseFlexibleDate(args[1], now)
			if err != nil {
				return err
			}

			projects, repoData, err := c.fetchQueryData(cmd)
			if err != nil {
				return err
			}

			results, err := project.ReleasedBetween(projects, repoData, start, end, opts.fetchOptions())
			if err != nil {
				return err
			}
			printInfo("%d projects updated between %s and %s", len(results), start.Format("2006-01-02"), end.Format("2006-01-02"))
			printProjects(results, repoData)
			return nil
		},
	}
}

// queryNoReleasesCommand creates the "query no-releases" subcommand.
func (c *CLI) queryNoReleasesCommand(opts *queryOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "no-releases",
		Short: "List projects with no detectable release activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, repoData, err := c.fetchQueryData(cmd)
			if err != nil {
				return err
			}

			results := project.NoReleases(projects, repoData, opts.fetchOptions())
			printInfo("%d projects with no release activity", len(results))
			printProjects(results, repoData)
			return nil
		},
	}
}

// fetchQueryData loads the collection and fetches repository metadata for
// every project with a recognized repository link.
func (c *CLI) fetchQueryData(cmd *cobra.Command) ([]project.Project, map[string]project.RepoData, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	projects, err := c.loadProjects(cfg)
	if err != nil {
		return nil, nil, err
	}

	svc, cleanup, err := c.newService(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	prog := newProgress(c.Logger)
	valid, repoData := svc.FetchForProjects(cmd.Context(), projects)
	prog.done(fmt.Sprintf("Fetched metadata for %d repositories", len(valid)))

	return valid, repoData, nil
}

// printProjects lists query results one per line with the known update time.
func printProjects(projects []project.Project, repoData map[string]project.RepoData) {
	for _, p := range projects {
		updated := "unknown"
		if info := project.RepoInfoFromProject(p); info != nil {
			if entry, ok := repoData[info.APIPath]; ok && entry.LastUpdated != nil {
				updated = entry.LastUpdated.Format("2006-01-02")
			}
		}
		printDetail("%s %s %s", p.ID, iconArrow, updated)
	}
}
