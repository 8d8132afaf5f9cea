// Package config holds user preferences for hiveterm, stored as JSON in a
// project-local .hiveterm directory with a home-level fallback.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Delimiters configures the block markers the scanner looks for. Both ends
// of a session must agree on them.
type Delimiters struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Config holds user preferences
type Config struct {
	Theme      string     `json:"theme"` // "dark" or "light"
	Headless   bool       `json:"headless"`
	Debug      bool       `json:"debug"`
	ChunkSize  int        `json:"chunk_size"` // replay read size in bytes
	Delimiters Delimiters `json:"delimiters"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Theme:     "dark",
		ChunkSize: 256,
		Delimiters: Delimiters{
			Open:  "<<<ARTIFACT",
			Close: "ARTIFACT>>>",
		},
	}
}

// Dir returns the directory where config is stored
func Dir() (string, error) {
	// Prefer project-local .hiveterm directory if present or creatable
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".hiveterm")
		if stat, err := os.Stat(localDir); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return localDir, nil
		}
	}

	// Fallback to home-level config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hiveterm"), nil
}

// File returns the full path to the config file
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk. A missing file yields defaults.
func Load() (Config, error) {
	path, err := File()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.Delimiters.Open == "" || cfg.Delimiters.Close == "" {
		cfg.Delimiters = DefaultConfig().Delimiters
	}
	return cfg, nil
}

// Save writes the configuration to disk
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path, err := File()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
