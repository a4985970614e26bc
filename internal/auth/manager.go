// Package auth provides authentication management for the Hatch CLI.
//
// This package handles storing and retrieving API credentials from
// the user's home directory (~/.hatch/credentials.json).
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials represents stored authentication credentials.
type Credentials struct {
	// APIKey is the Hatch API key for authentication.
	APIKey string `json:"api_key"`

	// Email is the user's email address (optional, for display).
	Email string `json:"email,omitempty"`

	// UserID is the user's ID (optional).
	UserID string `json:"user_id,omitempty"`
}

// Manager handles credential storage and retrieval.
type Manager struct {
	// configDir is the directory where credentials are stored.
	configDir string
}

// NewManager creates a new credential manager using ~/.hatch as the config
// directory.
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Manager{
		configDir: filepath.Join(homeDir, ".hatch"),
	}
}

// NewManagerWithDir creates a new credential manager with a custom directory.
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir: configDir,
	}
}

// credentialsPath returns the path to the credentials file.
func (m *Manager) credentialsPath() string {
	return filepath.Join(m.configDir, "credentials.json")
}

// GetCredentials retrieves stored credentials.
//
// First checks for HATCH_API_KEY environment variable, then falls back
// to the stored credentials file. Returns nil when neither exists.
func (m *Manager) GetCredentials() (*Credentials, error) {
	// Check environment variable first (for CI/CD)
	if apiKey := os.Getenv("HATCH_API_KEY"); apiKey != "" {
		return &Credentials{APIKey: apiKey}, nil
	}

	data, err := os.ReadFile(m.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

// SaveCredentials stores credentials to disk.
func (m *Manager) SaveCredentials(creds *Credentials) error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(m.credentialsPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// ClearCredentials removes stored credentials.
func (m *Manager) ClearCredentials() error {
	err := os.Remove(m.credentialsPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// IsAuthenticated checks if valid credentials exist.
func (m *Manager) IsAuthenticated() bool {
	creds, err := m.GetCredentials()
	if err != nil {
		return false
	}
	return creds != nil && creds.APIKey != ""
}
