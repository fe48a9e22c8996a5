package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/project"
)

// validateCommand creates the validate command for collection sanity checks.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the projects file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			projects, err := c.loadProjects(cfg)
			if err != nil {
				return err
			}

			result := project.ValidateAll(projects)
			if result.Valid {
				printSuccess("%d projects are valid", len(projects))
				return nil
			}

			printError("Validation failed with %d errors", len(result.Errors))
			for _, msg := range result.Errors {
				printDetail("%s", msg)
			}
			return fmt.Errorf("%d validation errors", len(result.Errors))
		},
	}
}
