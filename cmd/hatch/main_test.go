// Package main provides sanity tests for the Hatch CLI command initialization.
package main

import (
	"testing"

	"github.com/hatch-dev/cli/internal/config"
)

// TestRootCommandInitialization verifies that the root command exists and has
// all expected subcommands registered.
func TestRootCommandInitialization(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}

	expectedCommands := []string{
		"version", "auth", "chat", "export", "open", "config", "init", "docs",
	}

	for _, name := range expectedCommands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %q not found", name)
		}
	}
}

// TestGlobalFlagsExist verifies that all expected global flags are registered
// on the root command.
func TestGlobalFlagsExist(t *testing.T) {
	flags := []string{"debug", "dev", "json", "quiet"}

	for _, name := range flags {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected global flag %q not found", name)
		}
	}
}

// TestRootCommandHasUse verifies the root command has the correct Use field.
func TestRootCommandHasUse(t *testing.T) {
	if rootCmd.Use != "hatch" {
		t.Errorf("expected root command Use to be 'hatch', got %q", rootCmd.Use)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "normal key", key: "hk_live_abcdefgh1234", want: "hk_live_...1234"},
		{name: "short key fully masked", key: "hk_short", want: "..."},
		{name: "empty", key: "", want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskAPIKey(tt.key); got != tt.want {
				t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestPickConversation(t *testing.T) {
	cfg := &config.ProjectConfig{
		Conversations: map[string]string{"my-app": "conv-1a2b3c"},
	}

	t.Run("argument resolves alias", func(t *testing.T) {
		got, err := pickConversation([]string{"my-app"}, cfg, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "conv-1a2b3c" {
			t.Errorf("got %q, want conv-1a2b3c", got)
		}
	})

	t.Run("raw id passes through", func(t *testing.T) {
		got, err := pickConversation([]string{"conv-9z8y"}, cfg, t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "conv-9z8y" {
			t.Errorf("got %q, want conv-9z8y", got)
		}
	})

	t.Run("no argument and no saved turns fails", func(t *testing.T) {
		if _, err := pickConversation(nil, cfg, t.TempDir()); err == nil {
			t.Error("expected error for empty results dir")
		}
	})
}
