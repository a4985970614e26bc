// Package ui provides terminal UI components using Charm libraries.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hatch-dev/cli/internal/state"
)

// StreamTracker renders streaming turn progress as plain line-oriented
// output. It is fed state snapshots and prints only what changed since the
// previous update: new assistant text, newly completed files, dependency
// installs, sandbox and command activity.
//
// This is the non-interactive renderer used when stdout is not a TTY or the
// user passed --plain; the bubbletea UI covers the interactive case.
type StreamTracker struct {
	mu sync.Mutex

	// printedText tracks how much of StreamingText has been written.
	printedText int

	thinkingOpen  bool
	seenFiles     map[string]bool
	activeFile    string
	depsAnnounced bool
	sandboxOpen   bool
	commandSeen   bool
	searchesSeen  int
	scrapeSeen    bool
	previewSeen   bool
}

// NewStreamTracker creates a tracker with no prior output.
func NewStreamTracker() *StreamTracker {
	return &StreamTracker{
		seenFiles: make(map[string]bool),
	}
}

// Update renders everything that changed in the new snapshot.
func (t *StreamTracker) Update(s state.StreamState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Thinking indicator brackets the reasoning phase.
	if s.IsThinking && !t.thinkingOpen {
		t.thinkingOpen = true
		fmt.Println(ThinkingStyle.Render("⋯ thinking"))
	}
	if !s.IsThinking && t.thinkingOpen {
		t.thinkingOpen = false
		if s.ThinkingDurationSeconds != nil {
			fmt.Println(ThinkingStyle.Render(fmt.Sprintf("⋯ thought for %ds", *s.ThinkingDurationSeconds)))
		}
	}

	// Assistant text streams incrementally.
	if len(s.StreamingText) > t.printedText {
		fmt.Print(s.StreamingText[t.printedText:])
		t.printedText = len(s.StreamingText)
	}

	// Files print on open and on completion.
	for _, f := range s.ActiveFiles {
		if t.activeFile != f.Path {
			t.activeFile = f.Path
			t.breakTextLine(s)
			fmt.Println(DimStyle.Render("  ▸ writing " + f.Path))
		}
	}
	for _, f := range s.CompletedFiles {
		if !t.seenFiles[f.Path] {
			t.seenFiles[f.Path] = true
			t.breakTextLine(s)
			fmt.Println(SuccessStyle.Render("  ✓ " + f.Path))
		}
	}

	if len(s.InstallingDeps) > 0 && !t.depsAnnounced {
		t.depsAnnounced = true
		t.breakTextLine(s)
		fmt.Println(DimStyle.Render("  ▸ installing " + strings.Join(s.InstallingDeps, ", ")))
	}

	if s.IsSandboxing && !t.sandboxOpen {
		t.sandboxOpen = true
		t.breakTextLine(s)
		fmt.Println(DimStyle.Render("  ▸ starting sandbox"))
	}

	if s.Command != nil && !t.commandSeen {
		t.commandSeen = true
		t.breakTextLine(s)
		line := "  $ " + s.Command.Program
		if len(s.Command.Args) > 0 {
			line += " " + strings.Join(s.Command.Args, " ")
		}
		fmt.Println(CodeStyle.Render(line))
	}

	for i := t.searchesSeen; i < len(s.WebSearches); i++ {
		t.breakTextLine(s)
		fmt.Println(DimStyle.Render("  ⌕ searched: " + s.WebSearches[i].Query))
	}
	t.searchesSeen = len(s.WebSearches)

	if s.URLScrape != nil && !t.scrapeSeen {
		t.scrapeSeen = true
		t.breakTextLine(s)
		fmt.Println(DimStyle.Render("  ⌕ read: " + s.URLScrape.URL))
	}

	if s.PreviewURL != "" && !t.previewSeen {
		t.previewSeen = true
		t.breakTextLine(s)
		fmt.Printf("  %s %s\n", DimStyle.Render("Preview:"), LinkStyle.Render(s.PreviewURL))
	}
}

// breakTextLine ends the streaming-text line before printing a status line,
// so progress markers never glue onto partial sentences.
func (t *StreamTracker) breakTextLine(s state.StreamState) {
	if t.printedText > 0 && !strings.HasSuffix(s.StreamingText[:t.printedText], "\n") {
		fmt.Println()
	}
}

// Finish terminates any open text line.
func (t *StreamTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printedText > 0 {
		fmt.Println()
	}
}
