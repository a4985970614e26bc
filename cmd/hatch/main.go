// Package main provides the entry point for the Hatch CLI.
//
// The Hatch CLI is an AI app builder client: describe the app you want in
// plain language and Hatch generates, builds, and previews it, streaming
// progress into your terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hatch-dev/cli/internal/ui"
)

// Version information set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errCommandFailed signals a nonzero exit after a command has already
// reported its failure to the user. Returning it instead of calling os.Exit
// lets deferred cleanup (telemetry shutdown, connection closes) run.
var errCommandFailed = errors.New("command failed")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "hatch",
	Short:         "Describe it. Build it. Ship it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, args []string) {
		// Bare `hatch` prints the condensed cheat-sheet instead of the
		// Cobra command wall.
		fmt.Print(ui.GetCondensedHelp())
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if boolFlag(cmd.Flags(), "debug") {
			log.SetLevel(log.DebugLevel)
			log.Debug("Debug logging enabled")
		}

		// Set quiet mode from global flag
		ui.SetQuietMode(boolFlag(cmd.Flags(), "quiet"))
	},
}

// boolFlag reads a bool flag, treating unregistered names as false.
func boolFlag(fs *pflag.FlagSet, name string) bool {
	v, err := fs.GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			ui.PrintError("%v", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("dev", false, "Use a local development backend (reads PORT from .env files)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON (where supported)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintBanner(version)
		ui.PrintInfo("Version: %s", version)
		ui.PrintInfo("Commit: %s", commit)
		ui.PrintInfo("Built: %s", date)
	},
}

// docsCmd opens the documentation in the browser.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Open Hatch documentation in browser",
	Run: func(cmd *cobra.Command, args []string) {
		docsURL := "https://docs.hatch.dev"
		ui.PrintInfo("Opening documentation: %s", docsURL)
		if err := ui.OpenBrowser(docsURL); err != nil {
			ui.PrintError("Failed to open browser: %v", err)
		}
	},
}

func main() {
	Execute()
}
