// Package config loads the CLI configuration. Values are applied in
// order of increasing precedence: hardcoded defaults, the project
// config file, then FERRET_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete ferret configuration.
type Config struct {
	Version int          `yaml:"version"`
	Index   IndexConfig  `yaml:"index"`
	Search  SearchConfig `yaml:"search"`
	Logging LogConfig    `yaml:"logging"`
}

// IndexConfig locates the index and sets indexing parameters.
type IndexConfig struct {
	// Path is the index directory.
	Path string `yaml:"path"`
	// KeyField names a key field. It is loaded and merged like the other
	// settings, but adding a document never replaces an existing one:
	// the store always appends.
	KeyField string `yaml:"key_field"`
}

// SearchConfig sets query evaluation parameters.
type SearchConfig struct {
	// DefaultField is the field unqualified query terms apply to.
	DefaultField string `yaml:"default_field"`
	// MaxResults is how many hits a search returns when no limit is given.
	MaxResults int `yaml:"max_results"`
	// MaxRewriteTerms is validated and merged, but query rewrites do not
	// read it: they cap term enumeration at a fixed 512 terms.
	MaxRewriteTerms int `yaml:"max_rewrite_terms"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Path: ".ferret",
		},
		Search: SearchConfig{
			DefaultField:    "field",
			MaxResults:      10,
			MaxRewriteTerms: 512,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration for a project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile reads .ferret.yaml or .ferret.yml from dir. A missing
// file leaves the defaults in place.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".ferret.yaml", ".ferret.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Index.Path != "" {
		c.Index.Path = other.Index.Path
	}
	if other.Index.KeyField != "" {
		c.Index.KeyField = other.Index.KeyField
	}
	if other.Search.DefaultField != "" {
		c.Search.DefaultField = other.Search.DefaultField
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.MaxRewriteTerms != 0 {
		c.Search.MaxRewriteTerms = other.Search.MaxRewriteTerms
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies FERRET_* environment variables, the
// highest-precedence source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FERRET_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("FERRET_DEFAULT_FIELD"); v != "" {
		c.Search.DefaultField = v
	}
	if v := os.Getenv("FERRET_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("FERRET_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Index.Path == "" {
		return fmt.Errorf("index.path must not be empty")
	}
	if c.Search.DefaultField == "" {
		return fmt.Errorf("search.default_field must not be empty")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.MaxRewriteTerms <= 0 {
		return fmt.Errorf("search.max_rewrite_terms must be positive, got %d", c.Search.MaxRewriteTerms)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
