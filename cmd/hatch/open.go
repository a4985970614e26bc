package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/ui"
	"github.com/hatch-dev/cli/internal/workspace"
)

// openCmd opens a turn's preview URL in the browser.
var openCmd = &cobra.Command{
	Use:   "open [conversation]",
	Short: "Open the app preview in your browser",
	Long: `Open the preview URL of a completed build turn in your browser.

Without an argument, opens the preview from the most recent turn. The URL
is also copied to the clipboard.

EXAMPLES:
  hatch open
  hatch open my-app
  hatch open --print     # just print the URL`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().Bool("print", false, "Print the preview URL instead of opening the browser")
}

func runOpen(cmd *cobra.Command, args []string) error {
	printOnly, _ := cmd.Flags().GetBool("print")

	projCfg, _ := loadProjectConfig()

	resultsDir, err := workspace.DefaultResultsDir()
	if err != nil {
		return fmt.Errorf("failed to locate saved turns: %w", err)
	}

	conversationID, err := pickConversation(args, projCfg, resultsDir)
	if err != nil {
		return err
	}

	res, err := workspace.LoadResult(resultsDir, conversationID)
	if err != nil {
		return fmt.Errorf("no saved turn for conversation %s: %w", conversationID, err)
	}
	if res.PreviewURL == "" {
		return fmt.Errorf("turn has no preview URL — the build may not have finished")
	}

	if printOnly {
		fmt.Println(res.PreviewURL)
		return nil
	}

	if err := clipboard.WriteAll(res.PreviewURL); err != nil {
		log.Debug("Failed to copy preview URL to clipboard", "error", err)
	} else {
		ui.PrintDim("Copied to clipboard")
	}

	ui.PrintLink("Preview", res.PreviewURL)
	if err := ui.OpenBrowser(res.PreviewURL); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
