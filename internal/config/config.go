package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.attikb/attikb.yaml.
type Config struct {
	// BasePath is the knowledge base root holding the manifest, package
	// files and staging directories.
	BasePath string `yaml:"base_path"`
	// SkipIntegrity disables hash verification when loading packages.
	SkipIntegrity bool `yaml:"skip_integrity,omitempty"`
	// LogLevel selects diagnostic verbosity: debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`
	// BackupsToKeep bounds how many sandbox backups prune retains.
	BackupsToKeep int `yaml:"backups_to_keep,omitempty"`
}

// AppDir returns the absolute path to ~/.attikb/.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".attikb"), nil
}

// ConfigPath returns the absolute path to ~/.attikb/attikb.yaml.
func ConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "attikb.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config written on first run.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		BasePath:      filepath.Join(home, ".attikb", "knowledge"),
		LogLevel:      "warn",
		BackupsToKeep: 5,
	}, nil
}

// Load reads and parses ~/.attikb/attikb.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in BasePath at load time.
	cfg.BasePath, err = ExpandPath(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.attikb/attikb.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
