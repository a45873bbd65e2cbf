// Package config assembles cjls's own runtime settings: cache root, watch
// intervals, and log level. Built from defaults overlaid by an optional
// `cjls.toml` (decoded from TOML rather than JSON, since this is
// project-local server configuration rather than a user credentials
// file); no command-line flag layer is applied on top.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

const (
	// FileName is the name of the optional project-local config file.
	FileName = "cjls.toml"

	defaultCacheDir      = ".cache"
	defaultWatchInterval = 100 * time.Millisecond
	defaultLogLevel      = "info"

	errReadConfig  = "failed to read " + FileName
	errParseConfig = "failed to parse " + FileName
)

// Config is cjls's server-wide runtime configuration.
type Config struct {
	// CacheDir is the project-relative directory holding .cache/astdata
	// and .cache/index (spec §6).
	CacheDir string `toml:"cache_dir"`
	// WatchInterval is how often the cache-directory watcher polls for
	// externally written shards (spec §4.A).
	WatchInterval   time.Duration `toml:"-"`
	WatchIntervalMS int64         `toml:"watch_interval_ms"`
	// LogLevel is one of "debug" or "info".
	LogLevel string `toml:"log_level"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		CacheDir:      defaultCacheDir,
		WatchInterval: defaultWatchInterval,
		LogLevel:      defaultLogLevel,
	}
}

// Load reads `<root>/cjls.toml` if present, overlaying it onto the
// defaults. A missing file is not an error: most projects never need one.
func Load(fs afero.Fs, root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, errReadConfig)
	}

	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return cfg, errors.Wrap(err, errParseConfig)
	}
	if cfg.WatchIntervalMS > 0 {
		cfg.WatchInterval = time.Duration(cfg.WatchIntervalMS) * time.Millisecond
	}
	return cfg, nil
}

// AstDir returns the absolute path to the AST shard directory.
func (c Config) AstDir(root string) string {
	return filepath.Join(root, c.CacheDir, "astdata")
}

// IndexDir returns the absolute path to the index shard directory.
func (c Config) IndexDir(root string) string {
	return filepath.Join(root, c.CacheDir, "index")
}
