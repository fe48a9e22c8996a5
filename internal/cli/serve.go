package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/internal/server"
	"github.com/projmd/projmd/pkg/project"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project collection over HTTP",
		Long:  `Runs an HTTP server exposing the project collection as JSON endpoints and the rendered markdown table at /api/table.`,
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

			// A broken collection should fail at startup, not per request.
			if result := project.ValidateAll(projects); !result.Valid {
				return fmt.Errorf("projects file is invalid: %d errors (run validate for details)", len(result.Errors))
			}

			svc, cleanup, err := c.newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = cfg.Serve.Addr
			}

			srv := server.New(projects, svc, c.Logger, cfg.tableOptions())
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")

	return cmd
}
