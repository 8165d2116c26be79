// Package config provides functions for loading and saving check-waiter defaults files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alan/check-waiter/cmd"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from the specified file
func LoadConfig(filename string) (*cmd.Config, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // Config filename is from command-line flag
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config cmd.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadOptionalConfig loads the configuration like LoadConfig, but a missing
// file yields an empty configuration. Inside a workflow the file is usually absent.
func LoadOptionalConfig(filename string) (*cmd.Config, error) {
	if filename == "" {
		return &cmd.Config{}, nil
	}

	config, err := LoadConfig(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return &cmd.Config{}, nil
	}
	return config, err
}

// SaveConfig saves the configuration to the specified file
func SaveConfig(filename string, config *cmd.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
