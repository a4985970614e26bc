// Package hatch provides a public API for the Hatch CLI.
//
// This package exposes the core functionality of the CLI as a Go library,
// making it easy to drive builds from other tools.
//
// Example usage:
//
//	client, err := hatch.NewClient(hatch.WithAPIKey("your-api-key"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.RunTurn(ctx, "a todo app with drag-and-drop", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Generated %d files\n", len(result.Files))
package hatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hatch-dev/cli/internal/auth"
	"github.com/hatch-dev/cli/internal/buildstatus"
	"github.com/hatch-dev/cli/internal/config"
	"github.com/hatch-dev/cli/internal/dispatch"
	"github.com/hatch-dev/cli/internal/orchestrator"
	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/transport"
	"github.com/hatch-dev/cli/internal/workspace"
)

// Client is the main entry point for the Hatch public API.
type Client struct {
	apiClient *transport.Client
	config    *config.ProjectConfig
	workDir   string
	baseURL   string
	apiKey    string
}

// Option configures a Client.
type Option func(*Client) error

// WithAPIKey sets the API key for authentication.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) error {
		c.apiKey = apiKey
		return nil
	}
}

// WithBaseURL sets a custom base URL for the backend.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.baseURL = baseURL
		return nil
	}
}

// WithWorkDir sets the working directory for project operations.
func WithWorkDir(dir string) Option {
	return func(c *Client) error {
		c.workDir = dir
		return nil
	}
}

// WithConfig sets the project configuration directly.
func WithConfig(cfg *config.ProjectConfig) Option {
	return func(c *Client) error {
		c.config = cfg
		return nil
	}
}

// NewClient creates a new Hatch client.
//
// Without WithAPIKey, credentials are loaded from ~/.hatch (or the
// HATCH_API_KEY environment variable). Without WithConfig, the project
// config is loaded from <workdir>/.hatch/config.yaml when present.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.apiKey == "" {
		creds, err := auth.NewManager().GetCredentials()
		if err != nil || creds == nil || creds.APIKey == "" {
			return nil, fmt.Errorf("no API key provided and not authenticated")
		}
		c.apiKey = creds.APIKey
	}

	if c.baseURL == "" {
		c.baseURL = config.ProdBackendURL
	}
	c.apiClient = transport.NewClientWithBaseURL(c.apiKey, c.baseURL)

	if c.workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		c.workDir = cwd
	}

	if c.config == nil {
		configPath := filepath.Join(c.workDir, ".hatch", "config.yaml")
		if cfg, err := config.LoadProjectConfig(configPath); err == nil {
			c.config = cfg
		}
	}

	return c, nil
}

// TurnResult contains the result of one build turn.
type TurnResult struct {
	// ConversationID is the backend conversation id, usable for follow-up turns.
	ConversationID string
	// Text is the assistant's prose response.
	Text string
	// Files are the generated files.
	Files []state.File
	// PreviewURL is the sandbox preview URL, if a build ran.
	PreviewURL string
	// TokensIn and TokensOut are usage counts, when reported.
	TokensIn  int
	TokensOut int
	// ErrorMessage is the turn-level error, if the turn failed mid-stream.
	ErrorMessage string
}

// RunTurnOptions contains options for running a turn.
type RunTurnOptions struct {
	// ConversationID continues an existing conversation. Empty starts a new one.
	ConversationID string
	// Timeout is the turn timeout. Zero means no timeout.
	Timeout time.Duration
	// OnProgress is called with state snapshots as the turn streams.
	OnProgress func(state.StreamState)
}

// RunTurn sends a prompt and streams the turn to completion.
func (c *Client) RunTurn(ctx context.Context, prompt string, opts *RunTurnOptions) (*TurnResult, error) {
	if opts == nil {
		opts = &RunTurnOptions{}
	}

	store := state.NewStore()
	orch := orchestrator.New(c.apiClient, store, dispatch.NewTimerScheduler())

	conversationID := opts.ConversationID
	if conversationID == "" {
		conversationID = orch.NewConversationID()
	} else if c.config != nil {
		conversationID = c.config.ResolveConversation(conversationID)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if opts.OnProgress != nil {
		currentID := conversationID
		orch.OnResolve = func(oldID, newID string) {
			if oldID == currentID {
				currentID = newID
			}
		}
		unsubscribe := store.Subscribe(func(m state.Map) {
			opts.OnProgress(m.Get(currentID))
		})
		defer unsubscribe()
	}

	res, finalID, err := orch.RunTurn(ctx, conversationID, prompt)
	if err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}

	result := &TurnResult{
		ConversationID: finalID,
		Text:           res.Text,
		Files:          res.CompletedFiles,
		PreviewURL:     res.PreviewURL,
		ErrorMessage:   res.Error,
	}
	if res.Metrics != nil {
		result.TokensIn = res.Metrics.InputTokens
		result.TokensOut = res.Metrics.OutputTokens
	}
	return result, nil
}

// BuildStatus contains the terminal status of a sandbox build.
type BuildStatus struct {
	// Status is the terminal status ("ready" or "failed").
	Status string
	// PreviewURL is the preview URL when the build is ready.
	PreviewURL string
	// Detail carries the failure reason when the build failed.
	Detail string
}

// WaitForBuild follows the sandbox build channel for a conversation until it
// reaches a terminal status.
func (c *Client) WaitForBuild(ctx context.Context, conversationID string) (*BuildStatus, error) {
	monitor := buildstatus.NewMonitor(conversationID)
	if err := monitor.Connect(ctx, c.apiClient.BuildStreamURL(conversationID)); err != nil {
		return nil, fmt.Errorf("failed to connect to build channel: %w", err)
	}
	defer monitor.Close()

	terminal, err := monitor.WaitForTerminal(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &BuildStatus{
		Status:     terminal.Status,
		PreviewURL: terminal.PreviewURL,
		Detail:     terminal.Detail,
	}, nil
}

// ExportFiles writes generated files into dir, creating it if needed.
func (c *Client) ExportFiles(files []state.File, dir string, overwrite bool) ([]string, error) {
	summary, err := workspace.Export(files, workspace.ExportOptions{
		Dir:   dir,
		Force: overwrite,
	})
	if err != nil {
		return nil, err
	}
	return summary.Written, nil
}
