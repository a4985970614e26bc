// Package tui provides the interactive chat session model.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/hatch-dev/cli/internal/orchestrator"
	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/stream"
)

// Session bundles the wiring the chat TUI needs to run turns.
type Session struct {
	// Orchestrator runs turns and owns cancellation.
	Orchestrator *orchestrator.Orchestrator

	// Version is the CLI version string for the header.
	Version string
}

// transcriptEntry is one completed prompt/response exchange.
type transcriptEntry struct {
	Prompt string
	Result stream.Result
	Err    error
}

// chatModel manages an interactive conversation: a prompt input, the live
// streaming view of the active turn, and a transcript of completed turns.
type chatModel struct {
	session        Session
	conversationID string

	// input captures the next prompt.
	input textinput.Model

	// streaming is true while a turn is in flight.
	streaming bool

	// snapshot is the latest stream state for the active turn.
	snapshot state.StreamState

	// transcript holds completed exchanges in order.
	transcript []transcriptEntry

	// activePrompt is the prompt of the in-flight turn.
	activePrompt string

	// startTime is when the active turn started, for elapsed display.
	startTime time.Time

	spinner spinner.Model

	width  int
	height int

	quitting bool
}

// newChatModel creates a chat model for one conversation.
func newChatModel(session Session, conversationID string) chatModel {
	input := textinput.New()
	input.Placeholder = "Describe what to build or change..."
	input.Prompt = promptStyle.Render("› ")
	input.CharLimit = 4000
	input.Focus()

	return chatModel{
		session:        session,
		conversationID: conversationID,
		input:          input,
		spinner:        newSpinner(),
	}
}

// --- Tea commands ---

// turnEvent multiplexes the two things the background turn produces: state
// snapshots while streaming, and the final result when done.
type turnEvent struct {
	snapshot *state.StreamState
	done     *TurnDoneMsg
}

// startTurnCmd launches the turn in a background goroutine and returns the
// first read command of the streaming chain. State snapshots flow through a
// channel with drop-oldest backpressure so a slow terminal never stalls the
// dispatcher.
func startTurnCmd(session Session, conversationID, prompt string) tea.Cmd {
	ch := make(chan turnEvent, 16)

	go func() {
		defer close(ch)

		orch := session.Orchestrator

		// The id the store keys this conversation under can change once
		// mid-turn (temporary id -> backend id). Track it under a lock so
		// the subscriber reads the right entry.
		var idMu sync.Mutex
		currentID := conversationID
		orch.OnResolve = func(oldID, newID string) {
			idMu.Lock()
			if currentID == oldID {
				currentID = newID
			}
			idMu.Unlock()
		}

		unsubscribe := orch.Store().Subscribe(func(m state.Map) {
			idMu.Lock()
			id := currentID
			idMu.Unlock()
			snap := m.Get(id)

			ev := turnEvent{snapshot: &snap}
			// Non-blocking send; if the TUI falls behind we drop the oldest.
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- ev:
				default:
				}
			}
		})

		result, finalID, err := orch.RunTurn(context.Background(), conversationID, prompt)
		unsubscribe()
		orch.OnResolve = nil

		// The result is in hand and the subscriber is gone, so the turn's
		// stream entry can be dropped from the state map.
		if ferr := orch.Finalize(context.Background(), finalID); ferr != nil {
			log.Debug("Failed to finalize turn", "conversation", finalID, "error", ferr)
		}

		ch <- turnEvent{done: &TurnDoneMsg{Result: result, FinalID: finalID, Err: err}}
	}()

	return waitForTurnCmd(ch)
}

// waitForTurnCmd reads the next event from the turn channel. Progress events
// re-issue the command to continue the chain; the done event terminates it.
func waitForTurnCmd(ch <-chan turnEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		if ev.done != nil {
			return *ev.done
		}
		return TurnProgressMsg{
			State:   *ev.snapshot,
			NextCmd: waitForTurnCmd(ch),
		}
	}
}

// tickMsg drives the elapsed-time display.
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// --- Bubble Tea interface ---

// Init starts the input cursor blink and the spinner.
func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages for the chat session.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.streaming {
			return m, tickCmd()
		}
		return m, nil

	case TurnProgressMsg:
		m.snapshot = msg.State
		// Continue the streaming chain -- NextCmd reads the next event.
		return m, msg.NextCmd

	case TurnDoneMsg:
		m.streaming = false
		m.conversationID = msg.FinalID
		m.transcript = append(m.transcript, transcriptEntry{
			Prompt: m.activePrompt,
			Result: msg.Result,
			Err:    msg.Err,
		})
		m.snapshot = state.StreamState{}
		m.activePrompt = ""
		m.input.Focus()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes key events.
func (m chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.streaming {
			m.session.Orchestrator.Cancel(m.conversationID)
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if !m.streaming {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "enter":
		if m.streaming {
			return m, nil
		}
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		m.streaming = true
		m.activePrompt = prompt
		m.startTime = time.Now()
		m.input.SetValue("")
		m.input.Blur()
		return m, tea.Batch(
			m.spinner.Tick,
			tickCmd(),
			startTurnCmd(m.session, m.conversationID, prompt),
		)
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// --- View rendering ---

// View renders the chat session.
func (m chatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	w := m.width
	if w == 0 {
		w = 80
	}

	header := titleStyle.Render(" HATCH") + "  " +
		dimStyle.Render(m.conversationLabel()) + "  " +
		dimStyle.Render(m.session.Version)
	b.WriteString(header + "\n")
	b.WriteString(separator(min(w, 60)) + "\n")

	for _, entry := range m.transcript {
		b.WriteString(m.renderExchange(entry))
	}

	if m.streaming {
		b.WriteString(m.renderActiveTurn(w))
	} else {
		b.WriteString("\n" + m.input.View() + "\n")
	}

	b.WriteString("\n" + m.renderHelp() + "\n")
	return b.String()
}

// conversationLabel shortens temporary ids for the header.
func (m chatModel) conversationLabel() string {
	if orchestrator.IsTemporaryID(m.conversationID) {
		return "new conversation"
	}
	return m.conversationID
}

// renderExchange renders one completed prompt/response pair.
func (m chatModel) renderExchange(entry transcriptEntry) string {
	var b strings.Builder

	b.WriteString("\n" + promptStyle.Render("› ") + normalStyle.Render(entry.Prompt) + "\n")

	if entry.Err != nil {
		b.WriteString(errorStyle.Render("  ✗ "+entry.Err.Error()) + "\n")
	}
	if entry.Result.Text != "" {
		b.WriteString(normalStyle.Render(entry.Result.Text) + "\n")
	}
	for _, f := range entry.Result.CompletedFiles {
		b.WriteString(successStyle.Render("  ✓ "+f.Path) + "\n")
	}
	if entry.Result.PreviewURL != "" {
		b.WriteString("  " + dimStyle.Render("Preview:") + " " + linkStyle.Render(entry.Result.PreviewURL) + "\n")
	}
	if entry.Result.Metrics != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d in / %d out tokens",
			entry.Result.Metrics.InputTokens, entry.Result.Metrics.OutputTokens)) + "\n")
	}

	return b.String()
}

// renderActiveTurn renders the live view of the in-flight turn.
func (m chatModel) renderActiveTurn(w int) string {
	var b strings.Builder
	s := m.snapshot

	elapsed := time.Since(m.startTime).Truncate(time.Second)
	b.WriteString("\n" + promptStyle.Render("› ") + normalStyle.Render(m.activePrompt) + "\n")
	b.WriteString("  " + m.spinner.View() + " " + runningStyle.Render(m.activityLabel()) +
		"  " + dimStyle.Render(elapsed.String()) + "\n")

	if s.ThinkingText != "" {
		b.WriteString(thinkingStyle.Render(truncateTail(s.ThinkingText, 3)) + "\n")
	}

	if s.StreamingText != "" {
		b.WriteString(normalStyle.Render(s.StreamingText) + "\n")
	}

	if len(s.CompletedFiles) > 0 || len(s.ActiveFiles) > 0 {
		b.WriteString(sectionStyle.Render("  Files") + "\n")
		for _, f := range s.CompletedFiles {
			b.WriteString(successStyle.Render("   ✓ "+f.Path) + "\n")
		}
		for _, f := range s.ActiveFiles {
			b.WriteString("   " + m.spinner.View() + " " + runningStyle.Render(f.Path) + "\n")
		}
	}

	if len(s.InstallingDeps) > 0 {
		b.WriteString(dimStyle.Render("   ▸ installing "+strings.Join(s.InstallingDeps, ", ")) + "\n")
	}
	if s.Command != nil {
		line := "   $ " + s.Command.Program
		if len(s.Command.Args) > 0 {
			line += " " + strings.Join(s.Command.Args, " ")
		}
		b.WriteString(dimStyle.Render(line) + "\n")
	}
	for _, ws := range s.WebSearches {
		b.WriteString(dimStyle.Render("   ⌕ "+ws.Query) + "\n")
	}
	if s.PreviewURL != "" {
		b.WriteString("   " + dimStyle.Render("Preview:") + " " + linkStyle.Render(s.PreviewURL) + "\n")
	}
	if s.Error != "" {
		b.WriteString(errorStyle.Render("   ✗ "+s.Error) + "\n")
	}

	return b.String()
}

// activityLabel summarizes what the turn is doing right now.
func (m chatModel) activityLabel() string {
	s := m.snapshot
	switch {
	case s.IsThinking:
		return "thinking"
	case len(s.ActiveFiles) > 0:
		return "writing " + s.ActiveFiles[len(s.ActiveFiles)-1].Path
	case len(s.InstallingDeps) > 0 && s.IsStreaming && s.StreamingText == "":
		return "installing dependencies"
	case s.IsSandboxing:
		return "starting sandbox"
	default:
		return "building"
	}
}

// renderHelp renders the bottom key hint bar.
func (m chatModel) renderHelp() string {
	if m.streaming {
		return " " + helpKeyRender("ctrl+c", "cancel turn")
	}
	return " " + strings.Join([]string{
		helpKeyRender("enter", "send"),
		helpKeyRender("esc", "quit"),
	}, "  ")
}

// truncateTail keeps only the last n lines of a block of text.
func truncateTail(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// RunChat launches the interactive chat TUI. This is the main entry point
// called from cmd/hatch/chat.go.
func RunChat(session Session, conversationID string) (string, error) {
	m := newChatModel(session, conversationID)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return conversationID, err
	}
	if fm, ok := final.(chatModel); ok {
		return fm.conversationID, nil
	}
	return conversationID, nil
}
