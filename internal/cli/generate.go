package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/project"
	"github.com/projmd/projmd/pkg/table"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output        string   // output file path; empty prints to stdout
	categories    []string // category filter; empty means all
	stars         bool     // show star-count badges
	autoVersion   bool     // resolve latest release tags for versions
	showStatus    bool     // show status icon badges
	sortBy        string   // sort key within each category
	sortDirection string   // sort direction
}

// generateCommand creates the generate command for rendering the markdown table.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the project collection as a markdown table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write markdown to file instead of stdout")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "categories to include (repeatable; default: all)")
	cmd.Flags().BoolVar(&opts.stars, "stars", false, "show star counts for open-source projects")
	cmd.Flags().BoolVar(&opts.autoVersion, "auto-version", false, "resolve latest release versions")
	cmd.Flags().BoolVar(&opts.showStatus, "status", false, "show project status icons")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "sort key: id, name, stars, updated, category")
	cmd.Flags().StringVar(&opts.sortDirection, "direction", "", "sort direction: asc, desc")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, opts *generateOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	projects, err := c.loadProjects(cfg)
	if err != nil {
		return err
	}

	params, err := buildParams(cfg, cmd, opts)
	if err != nil {
		return err
	}

	svc, cleanup, err := c.newService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	prog := newProgress(c.Logger)
	markdown, err := table.Generate(cmd.Context(), projects, params, svc)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d categories", len(params.Categories)))

	if opts.output == "" {
		fmt.Print(markdown)
		return nil
	}

	if err := os.WriteFile(opts.output, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	printSuccess("Generated markdown table")
	printFile(opts.output)
	return nil
}

// buildParams layers the generate flags over the config file defaults.
// A flag only overrides the config value when it was set on the command line,
// so "stars = true" in the config survives an invocation without --stars.
func buildParams(cfg Config, cmd *cobra.Command, opts *generateOpts) (table.Params, error) {
	categories, err := cfg.tableCategories(opts.categories)
	if err != nil {
		return table.Params{}, err
	}

	params := table.Params{Categories: categories, Options: cfg.tableOptions()}
	if cmd.Flags().Changed("stars") {
		params.Stars = opts.stars
	}
	if cmd.Flags().Changed("auto-version") {
		params.AutoVersion = opts.autoVersion
	}
	if cmd.Flags().Changed("status") {
		params.ShowStatus = opts.showStatus
	}
	if opts.sortBy != "" {
		params.SortBy = project.SortKey(opts.sortBy)
	}
	if opts.sortDirection != "" {
		params.SortDirection = project.SortDirection(opts.sortDirection)
	}
	return params, nil
}
