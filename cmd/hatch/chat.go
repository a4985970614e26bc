package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/auth"
	"github.com/hatch-dev/cli/internal/buildstatus"
	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/dispatch"
	"github.com/hatch-dev/cli/internal/orchestrator"
	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/stream"
	"github.com/hatch-dev/cli/internal/telemetry"
	"github.com/hatch-dev/cli/internal/transport"
	"github.com/hatch-dev/cli/internal/tui"
	"github.com/hatch-dev/cli/internal/ui"
	"github.com/hatch-dev/cli/internal/workspace"
)

// chatCmd runs a build turn. With a prompt argument it streams one turn and
// exits; without one it opens the interactive session.
var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Describe what to build and stream the result",
	Long: `Send a prompt to Hatch and stream the build turn into your terminal.

With a prompt argument, runs a single turn and exits (suitable for scripts
and CI). Without one, opens an interactive session where each message is a
new turn in the same conversation.

EXAMPLES:
  hatch chat "a todo app with drag-and-drop"
  hatch chat "add dark mode" -c my-app
  hatch chat                            # interactive
  hatch chat "fix the login bug" --json # machine-readable result`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringP("conversation", "c", "", "Conversation id or alias to continue")
	chatCmd.Flags().Int("timeout", 0, "Turn timeout in seconds (0 = no timeout)")
	chatCmd.Flags().Bool("wait-build", false, "After the turn, wait for the sandbox build to finish")
	chatCmd.Flags().Bool("no-save", false, "Do not persist the turn result under ~/.hatch/turns")
}

func runChat(cmd *cobra.Command, args []string) error {
	devMode, _ := cmd.Flags().GetBool("dev")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	convFlag, _ := cmd.Flags().GetString("conversation")
	timeout, _ := cmd.Flags().GetInt("timeout")
	waitBuild, _ := cmd.Flags().GetBool("wait-build")
	noSave, _ := cmd.Flags().GetBool("no-save")

	creds, err := requireAuth()
	if err != nil {
		return err
	}

	shutdown := telemetry.Init()
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Debug("Telemetry shutdown failed", "error", err)
		}
	}()

	client := transport.NewClientWithBaseURL(creds.APIKey, config.GetBackendURL(devMode))
	store := state.NewStore()
	orch := orchestrator.New(client, store, dispatch.NewTimerScheduler())

	// Project config is optional; aliases and per-project defaults only
	// apply inside an initialized project.
	projCfg, projPath := loadProjectConfig()

	conversationID := resolveConversationID(orch, projCfg, convFlag)

	if len(args) == 0 {
		if !tui.ShouldRunTUI(jsonOutput, quiet) {
			return fmt.Errorf("interactive mode needs a terminal — pass a prompt instead: hatch chat \"...\"")
		}
		finalID, err := tui.RunChat(tui.Session{Orchestrator: orch, Version: version}, conversationID)
		if err != nil {
			return err
		}
		// Persist the last completed turn so export/open work after exit.
		if res, ok := orch.Result(finalID); ok {
			finishTurn(projCfg, projPath, convFlag, finalID, res, noSave)
		}
		return nil
	}

	prompt := args[0]
	ctx := cmd.Context()
	if timeout == 0 && projCfg != nil && projCfg.Defaults.Timeout > 0 {
		timeout = projCfg.Defaults.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	res, finalID, err := runOneShotTurn(ctx, orch, store, conversationID, prompt, jsonOutput)
	if err != nil {
		return err
	}

	finishTurn(projCfg, projPath, convFlag, finalID, res, noSave)
	if err := orch.Finalize(cmd.Context(), finalID); err != nil {
		log.Debug("Failed to finalize turn", "error", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(out))
	} else {
		ui.PrintTurnResult(res)
	}

	if waitBuild && res.Error == "" {
		if err := waitForBuild(ctx, client, finalID, jsonOutput); err != nil {
			return err
		}
	}

	if res.Error != "" {
		return errCommandFailed
	}
	return nil
}

// requireAuth loads stored credentials or fails with a login hint.
func requireAuth() (*auth.Credentials, error) {
	creds, err := auth.NewManager().GetCredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds == nil {
		return nil, fmt.Errorf("not signed in — run: hatch auth login")
	}
	return creds, nil
}

// loadProjectConfig walks up from the working directory looking for a .hatch
// project. Both returns are zero when no project is found.
func loadProjectConfig() (*config.ProjectConfig, string) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, ""
	}
	cfg, path, err := config.LoadFromDir(cwd)
	if err != nil {
		log.Debug("No project config", "error", err)
		return nil, ""
	}
	return cfg, path
}

// resolveConversationID maps the --conversation flag to a backend id,
// following project aliases, or mints a temporary id for a new conversation.
func resolveConversationID(orch *orchestrator.Orchestrator, projCfg *config.ProjectConfig, convFlag string) string {
	if convFlag == "" {
		return orch.NewConversationID()
	}
	if projCfg != nil {
		return projCfg.ResolveConversation(convFlag)
	}
	return convFlag
}

// runOneShotTurn streams one turn, rendering plain-text progress unless JSON
// output was requested.
func runOneShotTurn(ctx context.Context, orch *orchestrator.Orchestrator, store *state.Store, conversationID, prompt string, jsonOutput bool) (stream.Result, string, error) {
	var tracker *ui.StreamTracker
	var unsubscribe func()

	if !jsonOutput && !ui.IsQuiet() {
		tracker = ui.NewStreamTracker()

		// The id can be rekeyed mid-turn once the backend assigns a real
		// one; follow the rename so snapshots keep resolving.
		currentID := conversationID
		orch.OnResolve = func(oldID, newID string) {
			if oldID == currentID {
				currentID = newID
			}
		}
		defer func() { orch.OnResolve = nil }()

		unsubscribe = store.Subscribe(func(m state.Map) {
			tracker.Update(m.Get(currentID))
		})
	}

	res, finalID, err := orch.RunTurn(ctx, conversationID, prompt)

	if unsubscribe != nil {
		unsubscribe()
	}
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return stream.Result{}, "", fmt.Errorf("turn failed: %w", err)
	}
	return res, finalID, nil
}

// waitForBuild follows the sandbox build channel until it reaches a terminal
// status and reports the outcome.
func waitForBuild(ctx context.Context, client *transport.Client, conversationID string, jsonOutput bool) error {
	monitor := buildstatus.NewMonitor(conversationID)
	if err := monitor.Connect(ctx, client.BuildStreamURL(conversationID)); err != nil {
		return fmt.Errorf("failed to connect to build channel: %w", err)
	}
	defer monitor.Close()

	if !jsonOutput {
		ui.PrintInfo("Waiting for build to finish...")
	}

	terminal, err := monitor.WaitForTerminal(ctx, func(msg buildstatus.Message) {
		if jsonOutput {
			return
		}
		if msg.Detail != "" {
			ui.PrintDim("%s: %s", msg.Status, msg.Detail)
		} else {
			ui.PrintDim("%s", msg.Status)
		}
	})
	if err != nil {
		return fmt.Errorf("build wait failed: %w", err)
	}

	if terminal.Status == buildstatus.StatusFailed {
		if !jsonOutput {
			ui.PrintError("Build failed: %s", terminal.Detail)
		}
		return errCommandFailed
	}
	if !jsonOutput {
		ui.PrintSuccess("Build ready")
		if terminal.PreviewURL != "" {
			ui.PrintLink("Preview", terminal.PreviewURL)
		}
	}
	return nil
}

// finishTurn does post-turn housekeeping: persists the result for later
// export/open and records the conversation in the project config.
func finishTurn(projCfg *config.ProjectConfig, projPath, convFlag, finalID string, res stream.Result, noSave bool) {
	if !noSave {
		if dir, err := workspace.DefaultResultsDir(); err == nil {
			if err := workspace.SaveResult(dir, finalID, res); err != nil {
				log.Debug("Failed to save turn result", "error", err)
			}
		}
	}

	if projCfg == nil || projPath == "" {
		return
	}
	if convFlag != "" && !orchestrator.IsTemporaryID(finalID) {
		projCfg.SetConversationAlias(convFlag, finalID)
	}
	projCfg.MarkTurnCompleted()
	if err := config.WriteProjectConfig(projPath, projCfg); err != nil {
		log.Debug("Failed to update project config", "error", err)
	}
}
