package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/ui"
	"github.com/hatch-dev/cli/internal/workspace"
)

// exportCmd writes generated files from a completed turn to disk.
var exportCmd = &cobra.Command{
	Use:   "export [conversation]",
	Short: "Write generated files to your working directory",
	Long: `Write the files generated by a build turn into a local directory.

Without an argument, exports the most recent turn. Files you have edited
locally since the last export are skipped unless --force is given.

EXAMPLES:
  hatch export                      # latest turn, current directory
  hatch export my-app --dir ./app
  hatch export --force              # overwrite local edits
  hatch export --watch              # re-export as new turns complete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("dir", "", "Target directory (default: project export dir or current directory)")
	exportCmd.Flags().Bool("force", false, "Overwrite files with local edits")
	exportCmd.Flags().Bool("watch", false, "Keep running and re-export when new turns complete")
}

func runExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	force, _ := cmd.Flags().GetBool("force")
	watch, _ := cmd.Flags().GetBool("watch")

	projCfg, _ := loadProjectConfig()

	if dir == "" {
		if projCfg != nil && projCfg.Defaults.ExportDir != "" {
			dir = projCfg.Defaults.ExportDir
		} else {
			dir = "."
		}
	}

	resultsDir, err := workspace.DefaultResultsDir()
	if err != nil {
		return fmt.Errorf("failed to locate saved turns: %w", err)
	}

	conversationID, err := pickConversation(args, projCfg, resultsDir)
	if err != nil {
		return err
	}

	if err := exportOnce(resultsDir, conversationID, dir, force, nil); err != nil {
		return err
	}

	if !watch {
		return nil
	}
	return watchAndExport(resultsDir, conversationID, dir, force)
}

// pickConversation resolves the conversation to export: the argument (via
// project aliases) or the most recently saved turn.
func pickConversation(args []string, projCfg *config.ProjectConfig, resultsDir string) (string, error) {
	if len(args) > 0 {
		if projCfg != nil {
			return projCfg.ResolveConversation(args[0]), nil
		}
		return args[0], nil
	}
	id, err := workspace.LatestConversationID(resultsDir)
	if err != nil {
		return "", fmt.Errorf("no saved turns — run: hatch chat \"...\" first")
	}
	return id, nil
}

func exportOnce(resultsDir, conversationID, dir string, force bool, dirty map[string]bool) error {
	res, err := workspace.LoadResult(resultsDir, conversationID)
	if err != nil {
		return fmt.Errorf("no saved turn for conversation %s: %w", conversationID, err)
	}
	if len(res.CompletedFiles) == 0 {
		ui.PrintInfo("Turn produced no files")
		return nil
	}

	summary, err := workspace.Export(res.CompletedFiles, workspace.ExportOptions{
		Dir:   dir,
		Force: force,
		Dirty: dirty,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	ui.PrintSuccess("Exported %d file(s) to %s", len(summary.Written), dir)
	for _, path := range summary.Written {
		ui.PrintDim("  %s", path)
	}
	if len(summary.Skipped) > 0 {
		ui.PrintWarning("Skipped %d file(s) with local edits (use --force to overwrite)", len(summary.Skipped))
		for _, path := range summary.Skipped {
			ui.PrintDim("  %s", path)
		}
	}
	return nil
}

// watchAndExport re-exports whenever the saved turn for the conversation
// changes, skipping files the user has edited locally in the meantime.
func watchAndExport(resultsDir, conversationID, dir string, force bool) error {
	localWatcher, err := workspace.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer localWatcher.Close()

	resultsWatcher, err := workspace.NewWatcher(resultsDir)
	if err != nil {
		return fmt.Errorf("failed to watch saved turns: %w", err)
	}
	defer resultsWatcher.Close()

	ui.PrintInfo("Watching for new turns (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			ui.Println()
			return nil
		case <-ticker.C:
			if len(resultsWatcher.Dirty()) == 0 {
				continue
			}
			resultsWatcher.Reset()

			dirty := localWatcher.Dirty()
			if err := exportOnce(resultsDir, conversationID, dir, force, dirty); err != nil {
				log.Warn("Re-export failed", "error", err)
				continue
			}
			// Files we just wrote show up as filesystem events; clear them
			// so only genuine user edits count as dirty next round.
			localWatcher.Reset()
		}
	}
}
