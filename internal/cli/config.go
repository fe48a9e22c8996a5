package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/projmd/projmd/pkg/project"
	"github.com/projmd/projmd/pkg/table"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given.
const defaultConfigFile = appName + ".toml"

// Config is the optional TOML configuration file. Every field has a working
// default; the file only needs to exist when the defaults are not enough.
type Config struct {
	// Projects is the path to the projects YAML file.
	Projects string `toml:"projects"`

	Cache CacheConfig `toml:"cache"`
	Table TableConfig `toml:"table"`
	Fetch FetchConfig `toml:"fetch"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects and tunes the response cache backend.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`

	// Redis is a redis address (host:port). When set, responses are cached
	// in redis instead of process memory.
	Redis string `toml:"redis"`

	// RedisPrefix namespaces the redis keys. Defaults to the app name.
	RedisPrefix string `toml:"redis_prefix"`

	// MaxItems caps the in-memory cache size.
	MaxItems int `toml:"max_items"`
}

// TableConfig sets the default table rendering options.
type TableConfig struct {
	Categories    []string `toml:"categories"`
	Stars         bool     `toml:"stars"`
	AutoVersion   bool     `toml:"auto_version"`
	ShowStatus    bool     `toml:"show_status"`
	SortBy        string   `toml:"sort_by"`
	SortDirection string   `toml:"sort_direction"`
}

// FetchConfig tunes the upstream HTTP calls.
type FetchConfig struct {
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// Retries is the number of retry attempts after the first try.
	// Negative means the built-in default.
	Retries int `toml:"retries"`

	// DirectGitHub bypasses the ungh aggregator and queries the GitHub API
	// directly.
	DirectGitHub bool `toml:"direct_github"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{RedisPrefix: appName},
		Fetch: FetchConfig{Retries: -1},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// loadConfig reads the config file named by --config, or projmd.toml in the
// working directory if it exists. A missing default file is not an error.
func (c *CLI) loadConfig() (Config, error) {
	cfg := DefaultConfig()

	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return cfg, nil
		}
		path = defaultConfigFile
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if cfg.Cache.RedisPrefix == "" {
		cfg.Cache.RedisPrefix = appName
	}
	c.Logger.Debugf("Loaded config from %s", path)
	return cfg, nil
}

// tableOptions builds the table options from the config file defaults.
func (cfg Config) tableOptions() table.Options {
	opts := table.DefaultOptions()
	opts.Stars = cfg.Table.Stars
	opts.AutoVersion = cfg.Table.AutoVersion
	opts.ShowStatus = cfg.Table.ShowStatus
	opts.SortBy = project.SortKey(cfg.Table.SortBy)
	opts.SortDirection = project.SortDirection(cfg.Table.SortDirection)
	opts.UseUNGH = !cfg.Fetch.DirectGitHub
	if cfg.Fetch.TimeoutSeconds > 0 {
		opts.Request.Timeout = time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	}
	opts.Request.Retries = cfg.Fetch.Retries
	return opts
}

// tableCategories resolves the category list from flag values, then the
// config file, then all known categories.
func (cfg Config) tableCategories(flagValues []string) ([]project.Category, error) {
	raw := flagValues
	if len(raw) == 0 {
		raw = cfg.Table.Categories
	}
	if len(raw) == 0 {
		return project.Categories, nil
	}

	categories := make([]project.Category, 0, len(raw))
	for _, v := range raw {
		cat := project.Category(v)
		if !cat.Known() {
			return nil, fmt.Errorf("unknown category: %s", v)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}
