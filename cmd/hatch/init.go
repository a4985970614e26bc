// The init command scaffolds project configuration.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/ui"
)

// initCmd initializes a Hatch project in the current directory.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Hatch project configuration",
	Long: `Initialize a Hatch project in the current directory.

Creates .hatch/config.yaml, which stores conversation aliases and per-project
defaults (export directory, timeout, browser behavior).

EXAMPLES:
  hatch init
  hatch init --name my-app
  hatch init --force          # overwrite existing configuration`,
	RunE: runInit,
}

var (
	initName  string
	initForce bool
)

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (default: directory name)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ui.PrintBanner(version)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(cwd, ".hatch", "config.yaml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("project already initialized (%s) — use --force to overwrite", configPath)
	}

	name := strings.TrimSpace(initName)
	if name == "" {
		name = filepath.Base(cwd)
	}

	cfg := &config.ProjectConfig{
		Project: config.Project{
			ID:   uuid.NewString(),
			Name: name,
		},
		Conversations: map[string]string{},
		Defaults: config.Defaults{
			OpenBrowser: true,
			Timeout:     600,
			ExportDir:   ".",
		},
	}

	if err := config.WriteProjectConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ui.PrintSuccess("Initialized project %q", name)
	ui.PrintDim("Config: %s", configPath)
	ui.Println()
	ui.PrintInfo("Next: hatch chat \"describe the app you want\"")
	return nil
}
