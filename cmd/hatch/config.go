// Project settings commands for .hatch/config.yaml.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit project settings",
	Long: `View and edit local project settings in .hatch/config.yaml.

EXAMPLES:
  hatch config path
  hatch config show
  hatch config set open-browser false
  hatch config set timeout 900
  hatch config set export-dir ./src
  hatch config alias my-app conv-1a2b3c`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show project config path",
	RunE:  runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a project setting",
	Long: `Set a project setting.

Supported keys:
  open-browser   true|false
  timeout        positive integer seconds
  export-dir     directory for 'hatch export'`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configAliasCmd = &cobra.Command{
	Use:   "alias <name> <conversation-id>",
	Short: "Name a conversation for use with -c",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigAlias,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configAliasCmd)
}

func projectConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	root := cwd
	if projRoot, findErr := config.FindProjectRoot(cwd); findErr == nil {
		root = projRoot
	}

	return filepath.Join(root, ".hatch", "config.yaml"), nil
}

func loadProjectConfigForCommand() (string, *config.ProjectConfig, error) {
	configPath, err := projectConfigPath()
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load %s: %w\nrun 'hatch init' first", configPath, err)
	}
	return configPath, cfg, nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := projectConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, cfg, err := loadProjectConfigForCommand()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")

	if jsonOutput {
		out := map[string]interface{}{
			"path": configPath,
			"project": map[string]interface{}{
				"id":   cfg.Project.ID,
				"name": cfg.Project.Name,
			},
			"defaults": map[string]interface{}{
				"open_browser": cfg.Defaults.OpenBrowser,
				"timeout":      cfg.Defaults.Timeout,
				"export_dir":   cfg.Defaults.ExportDir,
			},
			"conversations": cfg.Conversations,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	ui.PrintInfo("Project config: %s", configPath)
	if cfg.Project.Name != "" {
		ui.PrintInfo("Project: %s", cfg.Project.Name)
	}
	ui.Println()
	ui.PrintInfo("Defaults")
	ui.PrintDim("  open_browser: %t", cfg.Defaults.OpenBrowser)
	ui.PrintDim("  timeout: %d", cfg.Defaults.Timeout)
	ui.PrintDim("  export_dir: %s", cfg.Defaults.ExportDir)

	if len(cfg.Conversations) > 0 {
		ui.Println()
		ui.PrintInfo("Conversations")
		for alias, id := range cfg.Conversations {
			ui.PrintDim("  %s: %s", alias, id)
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(strings.ToLower(args[0]))
	value := strings.TrimSpace(args[1])

	configPath, cfg, err := loadProjectConfigForCommand()
	if err != nil {
		return err
	}

	switch key {
	case "open-browser":
		lower := strings.ToLower(value)
		if lower != "true" && lower != "false" {
			return fmt.Errorf("invalid open-browser value %q (expected true or false)", value)
		}
		cfg.Defaults.OpenBrowser = lower == "true"

	case "timeout":
		secs, parseErr := strconv.Atoi(value)
		if parseErr != nil || secs <= 0 {
			return fmt.Errorf("invalid timeout value %q (expected positive integer seconds)", value)
		}
		cfg.Defaults.Timeout = secs

	case "export-dir":
		if value == "" {
			return fmt.Errorf("export-dir cannot be empty")
		}
		cfg.Defaults.ExportDir = value

	default:
		return fmt.Errorf("unsupported key %q (supported: open-browser, timeout, export-dir)", key)
	}

	if err := config.WriteProjectConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ui.PrintSuccess("Updated %s", key)
	return nil
}

func runConfigAlias(cmd *cobra.Command, args []string) error {
	alias, id := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	if alias == "" || id == "" {
		return fmt.Errorf("alias and conversation id must be non-empty")
	}

	configPath, cfg, err := loadProjectConfigForCommand()
	if err != nil {
		return err
	}

	cfg.SetConversationAlias(alias, id)
	if err := config.WriteProjectConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ui.PrintSuccess("Aliased %s → %s", alias, id)
	return nil
}
