package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hatch-dev/cli/internal/auth"
	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/transport"
	"github.com/hatch-dev/cli/internal/ui"
)

// authCmd represents the auth command group.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long: `Authenticate the Hatch CLI with your Hatch account.

COMMANDS:
  login    Sign in via browser or API key
  status   Show current authentication status
  logout   Remove stored credentials

PREREQUISITES:
  A Hatch account. Create one at https://app.hatch.dev

EXAMPLES:
  hatch auth login              # browser sign-in (recommended)
  hatch auth login --api-key    # paste an API key instead
  hatch auth status
  hatch auth logout`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Hatch",
	Long: `Sign in to Hatch.

By default this opens your browser to complete sign-in; the resulting API
key is stored in ~/.hatch/credentials.json. Use --api-key to paste a key
from the dashboard instead (useful on headless machines).

The HATCH_API_KEY environment variable overrides stored credentials.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runAuthLogout,
}

func init() {
	authLoginCmd.Flags().Bool("api-key", false, "Paste an API key instead of using the browser")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	manual, _ := cmd.Flags().GetBool("api-key")
	devMode, _ := cmd.Flags().GetBool("dev")

	manager := auth.NewManager()

	if existing, err := manager.GetCredentials(); err == nil && existing != nil {
		ok, err := ui.PromptConfirm("You are already signed in. Sign in again?", false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	var creds *auth.Credentials
	var err error
	if manual {
		creds, err = loginWithAPIKey(cmd.Context(), devMode)
	} else {
		creds, err = loginWithBrowser(cmd.Context(), devMode)
	}
	if err != nil {
		return err
	}

	if err := manager.SaveCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if creds.Email != "" {
		ui.PrintSuccess("Signed in as %s", creds.Email)
	} else {
		ui.PrintSuccess("Signed in")
	}
	ui.PrintDim("Credentials stored in ~/.hatch")
	return nil
}

// loginWithBrowser runs the local-callback browser flow.
func loginWithBrowser(ctx context.Context, devMode bool) (*auth.Credentials, error) {
	browserAuth := auth.NewBrowserAuth(auth.BrowserAuthConfig{
		AppURL: config.GetAppURL(devMode),
	})

	ui.PrintInfo("Opening your browser to sign in...")
	ui.PrintDim("Waiting for sign-in to complete (Ctrl+C to cancel)")

	result, err := browserAuth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser sign-in failed: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("browser sign-in failed: %s", result.Error)
	}

	creds := &auth.Credentials{
		APIKey: result.Token,
		Email:  result.Email,
		UserID: result.UserID,
	}

	// The callback may omit profile fields; fill them in from the API.
	if creds.Email == "" {
		if info, err := validateKey(ctx, creds.APIKey, devMode); err == nil {
			creds.Email = info.Email
			creds.UserID = info.UserID
		} else {
			log.Debug("Could not fetch account info after browser login", "error", err)
		}
	}

	return creds, nil
}

// loginWithAPIKey prompts for a key and validates it against the backend.
func loginWithAPIKey(ctx context.Context, devMode bool) (*auth.Credentials, error) {
	ui.PrintInfo("Get an API key from %s/settings/api-keys", config.GetAppURL(devMode))

	apiKey, err := ui.Prompt("API key: ")
	if err != nil {
		return nil, err
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key provided")
	}

	info, err := validateKey(ctx, apiKey, devMode)
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			return nil, fmt.Errorf("invalid API key")
		}
		return nil, fmt.Errorf("failed to validate API key: %w", err)
	}

	return &auth.Credentials{
		APIKey: apiKey,
		Email:  info.Email,
		UserID: info.UserID,
	}, nil
}

func validateKey(ctx context.Context, apiKey string, devMode bool) (*transport.UserInfo, error) {
	client := transport.NewClientWithBaseURL(apiKey, config.GetBackendURL(devMode))
	return client.ValidateAPIKey(ctx)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()

	creds, err := manager.GetCredentials()
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds == nil {
		ui.PrintWarning("Not signed in")
		ui.PrintDim("Run: hatch auth login")
		return nil
	}

	ui.PrintSuccess("Signed in")
	if creds.Email != "" {
		ui.PrintInfo("Email: %s", creds.Email)
	}
	ui.PrintInfo("API key: %s", maskAPIKey(creds.APIKey))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()

	if !manager.IsAuthenticated() {
		ui.PrintInfo("Not signed in")
		return nil
	}

	if err := manager.ClearCredentials(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	ui.PrintSuccess("Signed out")
	return nil
}

// maskAPIKey shows only the first and last few characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 12 {
		return "..."
	}
	return key[:8] + "..." + key[len(key)-4:]
}
