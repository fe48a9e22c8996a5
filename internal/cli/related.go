package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/project"
)

// relatedCommand creates the related command for project recommendations.
func (c *CLI) relatedCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "related <project-id>",
		Short: "Suggest projects related to the given project",
		Long:  `Suggests related projects by explicit relatedProjects references first, then shared category, then any remaining projects.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			projects, err := c.loadProjects(cfg)
			if err != nil {
				return err
			}

			id := args[0]
			if project.ByID(projects, id) == nil {
				return fmt.Errorf("unknown project: %s", id)
			}

			related := project.Related(projects, id, count)
			if len(related) == 0 {
				printInfo("No related projects found for %s", id)
				return nil
			}

			printInfo("%d related projects for %s", len(related), id)
			for _, p := range related {
				printDetail("%s %s %s", p.ID, iconArrow, p.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 3, "maximum number of suggestions")

	return cmd
}
