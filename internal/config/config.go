// Package config loads wmux's two configuration surfaces: an optional
// startup YAML file (default session options) and a tmux.conf-style
// command file sourced line by line through the command registry.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wmux/internal/command"
)

// Config is the startup configuration read from ~/.wmux.yaml (or a
// path given via -f).
type Config struct {
	Prefix         string            `yaml:"prefix"`
	Status         *bool             `yaml:"status"`
	StatusInterval int               `yaml:"status_interval"`
	BaseIndex      int               `yaml:"base_index"`
	HistoryLimit   int               `yaml:"history_limit"`
	DefaultShell   string            `yaml:"default_shell"`
	Options        map[string]string `yaml:"options"`
}

// ConfigDir returns wmux's configuration directory (~/.wmux/).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wmux")
	}
	return filepath.Join(home, ".wmux")
}

// Load reads the default config from ~/.wmux.yaml. A missing file is
// not an error: it returns a zero-value Config.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return LoadFrom(filepath.Join(home, ".wmux.yaml"))
}

// LoadFrom reads a startup config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyTo pushes every set field onto a command.Backend as the
// equivalent set-option calls, so one code path (Backend.SetOption)
// governs validation whether an option came from YAML or from a
// sourced command file.
func (c *Config) ApplyTo(b command.Backend, clientID string) error {
	if c == nil {
		return nil
	}
	if c.Prefix != "" {
		if err := b.SetOption(clientID, "prefix", c.Prefix, false); err != nil {
			return err
		}
	}
	if c.Status != nil {
		v := "off"
		if *c.Status {
			v = "on"
		}
		if err := b.SetOption(clientID, "status", v, false); err != nil {
			return err
		}
	}
	if c.StatusInterval > 0 {
		if err := b.SetOption(clientID, "status-interval", fmt.Sprint(c.StatusInterval), false); err != nil {
			return err
		}
	}
	if c.BaseIndex > 0 {
		if err := b.SetOption(clientID, "base-index", fmt.Sprint(c.BaseIndex), false); err != nil {
			return err
		}
	}
	if c.HistoryLimit > 0 {
		if err := b.SetOption(clientID, "history-limit", fmt.Sprint(c.HistoryLimit), false); err != nil {
			return err
		}
	}
	if c.DefaultShell != "" {
		if err := b.SetOption(clientID, "default-shell", c.DefaultShell, false); err != nil {
			return err
		}
	}
	for name, value := range c.Options {
		if err := b.SetOption(clientID, name, value, false); err != nil {
			return err
		}
	}
	return nil
}

// SourceFile reads a tmux.conf-style command file and dispatches each
// non-blank, non-comment line through registry against b. It stops and
// returns the first dispatch error, wrapped with its line number.
func SourceFile(path string, registry *command.Registry, b command.Backend, clientID string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := registry.Dispatch(b, clientID, scanner.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}
