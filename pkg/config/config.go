// Package config loads optional profiler defaults from a YAML file. Values
// here sit under CLI flags: a flag set explicitly always wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML parsing of Go duration strings
// (e.g. "500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("cannot parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds file-based defaults for the CLI.
type Config struct {
	Interval    Duration `yaml:"interval"`
	Dense       bool     `yaml:"dense"`
	Format      string   `yaml:"format"`
	SourceRoot  string   `yaml:"source_root"`
	BaselineDir string   `yaml:"baseline_dir"`
	LogLevel    string   `yaml:"log_level"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".profwatch.yaml"
	}
	return filepath.Join(home, ".profwatch.yaml")
}

// Load reads a config file. A missing file is not an error; it yields the
// zero config.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %q: %w", path, err)
	}
	return cfg, nil
}
