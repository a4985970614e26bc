// Package tui provides the Bubble Tea chat interface for the Hatch CLI.
//
// The TUI launches when a human runs `hatch chat` in an interactive terminal.
// It is never activated for agents, CI/CD, or piped output -- three independent
// gates (--json, --quiet, isatty) prevent it.
package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/stream"
)

// --- TTY gate ---

// ShouldRunTUI returns true if the TUI should be launched.
// Returns false when stdout is not a terminal, or --json/--quiet flags are set.
func ShouldRunTUI(jsonOutput, quiet bool) bool {
	if jsonOutput || quiet {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// --- Brand colors (mirrors internal/ui/styles.go) ---

var (
	amber   = lipgloss.Color("#F59E0B")
	teal    = lipgloss.Color("#14B8A6")
	red     = lipgloss.Color("#EF4444")
	green   = lipgloss.Color("#22C55E")
	gray    = lipgloss.Color("#6B7280")
	dimGray = lipgloss.Color("#9CA3AF")
	white   = lipgloss.Color("#E5E7EB")
)

// --- Shared TUI styles ---

var (
	// titleStyle renders the HATCH header.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber)

	// sectionStyle renders section headers (e.g. "Files", "Activity").
	sectionStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			Bold(true).
			MarginTop(1)

	// normalStyle renders plain content lines.
	normalStyle = lipgloss.NewStyle().
			Foreground(white)

	// dimStyle renders low-priority text.
	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	// thinkingStyle renders model reasoning output.
	thinkingStyle = lipgloss.NewStyle().
			Foreground(gray).
			Italic(true)

	// successStyle renders completed indicators.
	successStyle = lipgloss.NewStyle().
			Foreground(green)

	// errorStyle renders failure indicators.
	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	// runningStyle renders active indicators.
	runningStyle = lipgloss.NewStyle().
			Foreground(teal)

	// linkStyle renders clickable URLs.
	linkStyle = lipgloss.NewStyle().
			Foreground(amber).
			Underline(true)

	// helpStyle renders the bottom key hint bar.
	helpStyle = lipgloss.NewStyle().
			Foreground(gray)

	// separatorStyle renders horizontal rules.
	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))

	// promptStyle renders the input prompt marker.
	promptStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)
)

// separator returns a horizontal line of the given width.
func separator(width int) string {
	s := ""
	for i := 0; i < width; i++ {
		s += "─"
	}
	return separatorStyle.Render(s)
}

// helpKeyRender formats a key hint like "enter send".
func helpKeyRender(key, desc string) string {
	return lipgloss.NewStyle().Foreground(amber).Bold(true).Render(key) +
		" " + helpStyle.Render(desc)
}

// min returns the smaller of two ints.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --- Shared message types ---

// TurnProgressMsg carries a state snapshot for the active conversation.
// NextCmd must be issued by the Update handler to continue the streaming chain.
type TurnProgressMsg struct {
	State   state.StreamState
	NextCmd tea.Cmd
}

// TurnDoneMsg signals that the turn has completed (or failed).
type TurnDoneMsg struct {
	Result  stream.Result
	FinalID string
	Err     error
}

// --- Shared spinner factory ---

// newSpinner creates a consistently styled braille spinner.
func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(teal)
	return s
}
