package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/janjanpower/text-alignment-tool/internal/state"
)

// Duration accepts human readable values like "2s" or "500ms" in the
// config file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// tool configuration, loaded from a YAML file
type Config struct {
	// path to the SQLite project database
	DatabasePath string `yaml:"database_path"`

	// bound on the undo history depth
	MaxHistory int `yaml:"max_history"`

	// merge window for successive edits of the same entry; zero
	// disables coalescing across commits
	CoalesceWindow Duration `yaml:"coalesce_window"`

	// wait between retries after a failed flush
	FlushRetryInterval Duration `yaml:"flush_retry_interval"`

	// username owning projects created by this tool
	Username string `yaml:"username"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:       "text_alignment.db",
		MaxHistory:         state.DefaultMaxHistory,
		CoalesceWindow:     Duration(state.DefaultCoalesceWindow),
		FlushRetryInterval: Duration(5 * time.Second),
		Username:           "local",
	}
}

// Load reads the config file; a missing file yields the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = "aligntool.yaml"
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DatabasePath = filepath.Clean(c.DatabasePath)
	if c.MaxHistory <= 0 {
		c.MaxHistory = state.DefaultMaxHistory
	}
	if c.FlushRetryInterval <= 0 {
		c.FlushRetryInterval = Duration(5 * time.Second)
	}
	if c.Username == "" {
		c.Username = "local"
	}
}

func (c *Config) validate() error {
	if c.CoalesceWindow < 0 {
		return fmt.Errorf("coalesce_window must not be negative, got %s", c.CoalesceWindow.Std())
	}
	return nil
}
