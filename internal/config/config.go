// Package config loads and saves the shell's on-disk settings: seed
// aliases, extra PATH entries, history size, and display theme.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Aliases     map[string]string `yaml:"aliases,omitempty"`
	PathExtra   []string          `yaml:"path_extra,omitempty"`
	Theme       string            `yaml:"theme"`
	HistorySize int               `yaml:"history_size"`
}

func Default() *Config {
	return &Config{
		Theme:       "auto",
		HistorySize: 1000,
		Aliases:     make(map[string]string),
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".opsh"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if extra := os.Getenv("OPSH_PATH_EXTRA"); extra != "" {
		cfg.PathExtra = append(cfg.PathExtra, filepath.SplitList(extra)...)
	}

	return cfg, nil
}

// Save writes the config to ~/.opsh/config.yaml.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
