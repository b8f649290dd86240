package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version   int       `toml:"version"`
	Paths     Paths     `toml:"paths"`
	Analysis  Analysis  `toml:"analysis"`
	Cache     Cache     `toml:"cache"`
	Exclude   Exclude   `toml:"exclude"`
	Watch     Watch     `toml:"watch"`
	History   History   `toml:"history"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	SourceRoot  string `toml:"source_root"` // relative to project root, default "lib"
	CacheDir    string `toml:"cache_dir"`
}

type Analysis struct {
	MaxParallelism int  `toml:"max_parallelism"`
	IncludeTests   bool `toml:"include_tests"`
}

type Cache struct {
	Enabled    bool `toml:"enabled"`
	MemEntries int  `toml:"mem_entries"`
}

type Exclude struct {
	Dirs         []string `toml:"dirs"`
	Files        []string `toml:"files"`
	UseGitignore bool     `toml:"use_gitignore"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Project string `toml:"project"`
}

type Telemetry struct {
	OTLPEndpoint    string  `toml:"otlp_endpoint"`
	MetricsAddr     string  `toml:"metrics_addr"`
	EventsPerSecond float64 `toml:"events_per_second"`
}

func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Paths: Paths{
			SourceRoot: "lib",
			CacheDir:   ".dartbridge/cache",
		},
		Analysis: Analysis{
			MaxParallelism: runtime.NumCPU(),
		},
		Cache: Cache{
			Enabled:    true,
			MemEntries: 1024,
		},
		Exclude: Exclude{
			Dirs:         []string{".git", ".dart_tool", "build", ".dartbridge"},
			UseGitignore: true,
		},
		Watch: Watch{
			Debounce: 300 * time.Millisecond,
		},
		History: History{
			Path:    ".dartbridge/history.db",
			Project: "default",
		},
		Telemetry: Telemetry{
			EventsPerSecond: 20,
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Analysis.MaxParallelism < 1 {
		c.Analysis.MaxParallelism = 1
	}
	if c.Cache.MemEntries < 1 {
		c.Cache.MemEntries = 1
	}
	if strings.TrimSpace(c.Paths.SourceRoot) == "" {
		c.Paths.SourceRoot = "lib"
	}
	return nil
}

// ResolveRoot normalizes the project root against cwd and verifies it
// exists. An absent root is the pipeline's fatal initialization error.
func (c *Config) ResolveRoot(cwd string) (string, error) {
	root := strings.TrimSpace(c.Paths.ProjectRoot)
	if root == "" {
		root = cwd
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("project root %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %q is not a directory", root)
	}
	return root, nil
}

// CachePath resolves the cache directory under root.
func (c *Config) CachePath(root string) string {
	dir := c.Paths.CacheDir
	if dir == "" {
		dir = ".dartbridge/cache"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir)
}

// HistoryPath resolves the history database path under root.
func (c *Config) HistoryPath(root string) string {
	path := c.History.Path
	if path == "" {
		path = ".dartbridge/history.db"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return filepath.Clean(path)
}
