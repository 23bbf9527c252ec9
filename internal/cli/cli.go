package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/cache"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "singleline"

	// configFile is the name of the config file under the config directory.
	configFile = "config.toml"

	// defaultAddr is the listen address of the serve command.
	defaultAddr = ":8080"
)

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

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// Config is the content of the config file.
//
//	[cache]
//	backend = "redis"
//
//	[cache.redis]
//	addr = "localhost:6379"
type Config struct {
	Cache cache.Config `toml:"cache"`
	Addr  string       `toml:"addr"`

	// Namespace prefixes every cache key, for deployments sharing a backend.
	Namespace string `toml:"namespace"`
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file. A missing default config file is not an
// error; a missing explicit one is.
func (c *CLI) loadConfig() (Config, error) {
	var cfg Config
	path := c.ConfigPath
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, configFile)
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown key %q", path, undecoded[0].String())
	}
	c.Logger.Debug("loaded config", "path", path, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	cc, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	var keyer cache.Keyer
	if cfg.Namespace != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Namespace+":")
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

// newCache opens the configured backend. Without a configured backend the
// file cache under the XDG cache directory is used.
func newCache(ctx context.Context, cfg cache.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		cfg.Backend = cache.BackendFile
		cfg.Dir = dir
	}
	return cache.Open(ctx, cfg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/singleline/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/singleline/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults applies CLI-specific defaults on top of pipeline defaults.
func setCLIDefaults(opts *pipeline.Options) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	opts.Labels = true
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// checkOutput validates an output flag. Empty means the default location.
func checkOutput(path string) error {
	if path == "" {
		return nil
	}
	return errors.ValidatePath(path)
}

// basePath strips the extension of input, and a trailing ".layout" left by
// the layout command.
func basePath(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}

// outputPath returns the file written for format next to base.
func outputPath(base, format string) string {
	switch format {
	case pipeline.FormatJSON:
		return base + ".layout.json"
	case pipeline.FormatDOTSVG:
		return base + ".dot.svg"
	}
	return base + "." + format
}
