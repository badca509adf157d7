// Package config loads the auditor's YAML configuration.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Config holds application configuration.
type Config struct {
	DBPath            string        `yaml:"db_path"`
	CatalogDir        string        `yaml:"catalog_dir"`
	ExcludeExtensions []string      `yaml:"exclude_extensions"`
	Logging           LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Logging:           LoggingConfig{Format: "text", Level: "info"},
		ExcludeExtensions: []string{"m3u", "dat", "txt", "nfo", "cue"},
	}
}

func configPaths() []string {
	paths := []string{".romaudit.yaml", ".romaudit.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "romaudit", "config.yaml"),
			filepath.Join(home, ".config", "romaudit", "config.yml"),
			filepath.Join(home, ".romaudit.yaml"),
		)
	}
	return paths
}

// Load loads configuration from file or returns defaults.
// Priority: env ROMAUDIT_CONFIG > search paths > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if envPath := os.Getenv("ROMAUDIT_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvOverrides() {
	if db := os.Getenv("ROMAUDIT_DB"); db != "" {
		c.DBPath = db
	}
	if dir := os.Getenv("ROMAUDIT_CATALOG_DIR"); dir != "" {
		c.CatalogDir = dir
	}
}
