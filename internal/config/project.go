// Package config provides project configuration management.
//
// This package handles reading and writing .hatch/config.yaml files, which
// record the project identity, conversation aliases, and default settings
// for the current app.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents the .hatch/config.yaml file.
type ProjectConfig struct {
	// Project contains project identification.
	Project Project `yaml:"project"`

	// Conversations maps human-friendly aliases to conversation IDs,
	// so `hatch chat --conversation landing-page` works without UUIDs.
	Conversations map[string]string `yaml:"conversations,omitempty"`

	// Defaults contains default settings.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// LastTurnAt records when the last turn completed (RFC3339).
	LastTurnAt string `yaml:"last_turn_at,omitempty"`
}

// Project contains project identification.
type Project struct {
	// ID is the Hatch project ID (optional until the first turn resolves it).
	ID string `yaml:"id,omitempty"`

	// Name is the project name.
	Name string `yaml:"name"`
}

// Defaults contains default settings.
type Defaults struct {
	// OpenBrowser controls whether to open the preview after a turn completes.
	OpenBrowser bool `yaml:"open_browser"`

	// Timeout is the default turn timeout in seconds. Zero means no timeout.
	Timeout int `yaml:"timeout"`

	// ExportDir is where `hatch export` writes generated files.
	ExportDir string `yaml:"export_dir,omitempty"`
}

// MarkTurnCompleted sets the LastTurnAt timestamp to now (UTC, RFC3339).
func (c *ProjectConfig) MarkTurnCompleted() {
	c.LastTurnAt = time.Now().UTC().Format(time.RFC3339)
}

// ResolveConversation maps an alias to a conversation ID. Unknown aliases
// are returned unchanged so raw IDs pass through.
func (c *ProjectConfig) ResolveConversation(nameOrID string) string {
	if c.Conversations != nil {
		if id, ok := c.Conversations[nameOrID]; ok {
			return id
		}
	}
	return nameOrID
}

// SetConversationAlias records an alias for a conversation ID.
func (c *ProjectConfig) SetConversationAlias(alias, id string) {
	if c.Conversations == nil {
		c.Conversations = make(map[string]string)
	}
	c.Conversations[alias] = id
}

// LoadProjectConfig loads a project configuration from a file.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Guarantee maps are never nil so callers don't need defensive checks
	if cfg.Conversations == nil {
		cfg.Conversations = make(map[string]string)
	}

	return &cfg, nil
}

// WriteProjectConfig writes a project configuration to a file.
func WriteProjectConfig(path string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Add header comment
	header := "# Hatch CLI Configuration\n# Generated by: hatch init\n\n"
	content := header + string(data)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot walks up from the given directory looking for a .hatch/
// directory.
//
// Returns the first ancestor (or the directory itself) that contains a
// .hatch/ subdirectory.
func FindProjectRoot(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	current := absDir
	for {
		hatchDir := filepath.Join(current, ".hatch")
		if info, err := os.Stat(hatchDir); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no .hatch/ directory found (searched from %s to /)", absDir)
		}
		current = parent
	}
}

// LoadFromDir loads the project config from dir/.hatch/config.yaml, searching
// upward for the project root first.
func LoadFromDir(dir string) (*ProjectConfig, string, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(root, ".hatch", "config.yaml")
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
