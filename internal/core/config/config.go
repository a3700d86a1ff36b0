// Package config loads kite.toml.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	kerrors "kite/internal/core/errors"
)

// FileName is the configuration file looked for in the project root.
const FileName = "kite.toml"

type Config struct {
	Version       int           `toml:"version"`
	Project       Project       `toml:"project"`
	Analysis      Analysis      `toml:"analysis"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
}

// Project holds the import resolution roots. Relative paths are taken from
// the directory holding the config file.
type Project struct {
	Root              string `toml:"root"`
	ProviderDir       string `toml:"provider_dir"`
	GlobalProviderDir string `toml:"global_provider_dir"`
}

type Analysis struct {
	// Scoping is "flat" (one namespace per file) or "lexical".
	Scoping          string   `toml:"scoping"`
	BuiltinFunctions []string `toml:"builtin_functions"`
	CacheSize        int      `toml:"cache_size"`
	// MaxHeapMB prunes the unit cache during large checks; 0 disables.
	MaxHeapMB int `toml:"max_heap_mb"`
}

type Watch struct {
	Paths        []string      `toml:"paths"`
	Debounce     time.Duration `toml:"debounce"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
	// Rate caps re-analysis passes per second; 0 disables the cap.
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	// Retain is how many runs history keeps; 0 keeps all.
	Retain int `toml:"retain"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Default is the configuration used when no kite.toml exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads, defaults and validates a config file. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		ApplyEnvOverrides(cfg)
		return cfg, validate(cfg)
	}
	if err != nil {
		return nil, kerrors.WithPath(kerrors.Wrap(err, kerrors.CodeIO, "read config"), path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text, then applies defaults, environment overrides and
// validation.
func Parse(text string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, kerrors.Wrap(err, kerrors.CodeValidationError, "decode config")
	}
	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Project.ProviderDir == "" {
		cfg.Project.ProviderDir = "providers"
	}
	if cfg.Project.GlobalProviderDir == "" {
		cfg.Project.GlobalProviderDir = "~/.kite/providers"
	}
	if cfg.Analysis.Scoping == "" {
		cfg.Analysis.Scoping = "flat"
	}
	if cfg.Analysis.CacheSize <= 0 {
		cfg.Analysis.CacheSize = 512
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git", ".kite", "node_modules"}
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = ".kite/history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "kite"
	}
}
