package queries

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists in the directory
// or any of its parents.
var ErrConfigNotFound = errors.New("config file not found")

// Config represents the .queries.yaml configuration file.
type Config struct {
	// Output is the default encoder name for parse output (e.g. "json").
	Output string `yaml:"output,omitempty"`

	// Format controls the canonical formatter.
	Format FormatConfig `yaml:"format,omitempty"`

	// Log controls diagnostic logging of the command line tools.
	Log LogConfig `yaml:"log,omitempty"`
}

// FormatConfig holds settings for the fmt command and the language server.
type FormatConfig struct {
	// Expanded breaks multi-item tuples across lines.
	Expanded bool `yaml:"expanded,omitempty"`

	// Indent is the indentation string for expanded tuples.
	Indent string `yaml:"indent,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".queries.yaml", ".queries.yml", "queries.yaml", "queries.yml"}

// DefaultConfig returns the settings used when no config file is found.
func DefaultConfig() *Config {
	return &Config{
		Output: EncoderJSON,
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Unset fields take
// their DefaultConfig values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// FormatOptions converts the format section into formatter options.
func (c *Config) FormatOptions() FormatOptions {
	return FormatOptions{
		Expanded: c.Format.Expanded,
		Indent:   c.Format.Indent,
	}
}
