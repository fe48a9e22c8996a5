// Package cli implements the projmd command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/buildinfo"
	"github.com/projmd/projmd/pkg/cache"
	"github.com/projmd/projmd/pkg/integrations"
	"github.com/projmd/projmd/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for config lookup and display.
const appName = "projmd"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath   string
	projectsPath string
	noCache      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Projmd renders project collections as markdown tables",
		Long:         `Projmd aggregates repository metadata (stars, releases, last activity) from GitHub, GitLab and Bitbucket and renders curated project collections as markdown tables, with query commands for slicing the collection by release date.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./projmd.toml if present)")
	root.PersistentFlags().StringVarP(&c.projectsPath, "projects", "p", "", "projects file (default: ./projects.yml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response cache")

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.relatedCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Service Factory
// =============================================================================

// newService builds the metadata fetch service over the configured cache
// backend. The returned cleanup func releases the backend and must be called
// when the command finishes.
func (c *CLI) newService(ctx context.Context, cfg Config) (*integrations.Service, func(), error) {
	backend, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := integrations.NewService(backend, c.Logger.Warnf)
	return svc, func() { _ = backend.Close() }, nil
}

func (c *CLI) newCache(ctx context.Context, cfg Config) (cache.Cache, error) {
	if c.noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Redis != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.Redis, cfg.Cache.RedisPrefix)
	}

	var opts []cache.MemoryOption
	if cfg.Cache.MaxItems > 0 {
		opts = append(opts, cache.WithMaxItems(cfg.Cache.MaxItems))
	}
	mem := cache.NewMemoryCache(opts...)
	mem.Start()
	return mem, nil
}

// =============================================================================
// Projects Loading
// =============================================================================

// loadProjects reads the project collection from the --projects flag, the
// PROJMD_PROJECTS environment variable, the config file, or ./projects.yml
// in that order.
func (c *CLI) loadProjects(cfg Config) ([]project.Project, error) {
	path := c.projectsPath
	if path == "" {
		path = os.Getenv("PROJMD_PROJECTS")
	}
	if path == "" {
		path = cfg.Projects
	}
	if path == "" {
		path = "projects.yml"
	}

	projects, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debugf("Loaded %d projects from %s", len(projects), path)
	return projects, nil
}
