package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for refcheck.
type Config struct {
	// Check toggles individual diagnostics.
	Check CheckConfig `koanf:"check"`

	// Externs marks ambient-declaration files that never warn.
	Externs ExternsConfig `koanf:"externs"`

	// Exclude holds file exclusion patterns.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings.
	Cache CacheConfig `koanf:"cache"`

	// Output settings.
	Output OutputConfig `koanf:"output"`
}

// CheckConfig toggles optional diagnostics.
type CheckConfig struct {
	// UnusedLocalAssignment enables the dead-store warning.
	UnusedLocalAssignment bool `koanf:"unused_local_assignment"`
	// WarnUnusedImports is reserved: unused imports are currently never
	// warned; flipping this records intent for when they are.
	WarnUnusedImports bool `koanf:"warn_unused_imports"`
	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64 `koanf:"max_file_size"`
}

// ExternsConfig identifies externs files by glob pattern.
type ExternsConfig struct {
	Patterns []string `koanf:"patterns"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
	Gitignore  bool     `koanf:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Check: CheckConfig{
			UnusedLocalAssignment: false,
			WarnUnusedImports:     false,
			MaxFileSize:           0,
		},
		Externs: ExternsConfig{
			Patterns: []string{"*.externs.js", "externs/*.js"},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.bundle.js",
			},
			Extensions: []string{
				".json",
				".map",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".refcheck",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".refcheck/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"refcheck.toml",
		"refcheck.yaml",
		"refcheck.yml",
		"refcheck.json",
		".refcheck.toml",
		".refcheck.yaml",
		".refcheck.yml",
		".refcheck.json",
	}
	searchDirs := []string{".", ".refcheck"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// Fingerprint summarizes the options that change analysis results, for
// use in cache keys.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("unused=%t;imports=%t;externs=%s",
		c.Check.UnusedLocalAssignment,
		c.Check.WarnUnusedImports,
		strings.Join(c.Externs.Patterns, ","))
}
