package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Dependency    Dependency    `toml:"dependency"`
	Validation    Validation    `toml:"validation"`
	Watch         Watch         `toml:"watch"`
	Limits        Limits        `toml:"limits"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

// Dependency controls which manifest declarations mark a workspace scope
// as chakra-enabled.
type Dependency struct {
	ManifestName string   `toml:"manifest_name"`
	Packages     []string `toml:"packages"`
}

type Validation struct {
	MaxNumberOfProblems int `toml:"max_number_of_problems"`
}

// Watch configures the optional server-side file watcher, used when the
// client does not push workspace/didChangeWatchedFiles batches.
type Watch struct {
	Enabled      bool          `toml:"enabled"`
	Debounce     time.Duration `toml:"debounce"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
}

type Limits struct {
	ReadsPerSecond float64 `toml:"reads_per_second"`
	ReadBurst      int     `toml:"read_burst"`
	MaxFileSize    int64   `toml:"max_file_size"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Dependency.ManifestName) == "" {
		cfg.Dependency.ManifestName = "package.json"
	}
	if len(cfg.Dependency.Packages) == 0 {
		cfg.Dependency.Packages = []string{"@chakra-ui/react", "@chakra-ui/core"}
	}

	if cfg.Validation.MaxNumberOfProblems == 0 {
		cfg.Validation.MaxNumberOfProblems = 1000
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{"node_modules", ".git", "dist", "build", "coverage"}
	}

	if cfg.Limits.ReadsPerSecond == 0 {
		cfg.Limits.ReadsPerSecond = 200
	}
	if cfg.Limits.ReadBurst == 0 {
		cfg.Limits.ReadBurst = 50
	}
	if cfg.Limits.MaxFileSize == 0 {
		cfg.Limits.MaxFileSize = 2 * 1024 * 1024
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/state/history.db"
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", cfg.Version)
	}
	if cfg.Validation.MaxNumberOfProblems < 0 {
		return fmt.Errorf("validation.max_number_of_problems must not be negative")
	}
	if cfg.Watch.Enabled && cfg.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive when watch is enabled")
	}
	if cfg.Limits.ReadsPerSecond <= 0 {
		return fmt.Errorf("limits.reads_per_second must be positive")
	}
	if cfg.Limits.ReadBurst <= 0 {
		return fmt.Errorf("limits.read_burst must be positive")
	}
	if cfg.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("limits.max_file_size must be positive")
	}
	for _, pkg := range cfg.Dependency.Packages {
		if strings.TrimSpace(pkg) == "" {
			return fmt.Errorf("dependency.packages must not contain empty names")
		}
	}
	return nil
}
