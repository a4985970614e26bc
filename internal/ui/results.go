// Package ui provides result rendering components.
package ui

import (
	"fmt"
	"strings"

	"github.com/hatch-dev/cli/internal/stream"
)

// PrintTurnResult prints a summary of a completed turn: files generated,
// dependencies installed, preview URL, and token usage.
func PrintTurnResult(res stream.Result) {
	if quietMode {
		return
	}

	if res.Error != "" {
		content := fmt.Sprintf("✗ Turn failed\nError: %s", res.Error)
		fmt.Println(ResultBoxErrorStyle.Render(content))
		return
	}

	var lines []string
	lines = append(lines, "✓ Turn complete")

	if n := len(res.CompletedFiles); n > 0 {
		noun := "files"
		if n == 1 {
			noun = "file"
		}
		lines = append(lines, fmt.Sprintf("%d %s generated", n, noun))
	}
	if len(res.InstallingDeps) > 0 {
		lines = append(lines, fmt.Sprintf("Dependencies: %s", strings.Join(res.InstallingDeps, ", ")))
	}
	if res.PreviewURL != "" {
		lines = append(lines, fmt.Sprintf("Preview: %s", res.PreviewURL))
	}
	if res.Metrics != nil {
		lines = append(lines, fmt.Sprintf("Tokens: %d in / %d out ($%.4f)",
			res.Metrics.InputTokens, res.Metrics.OutputTokens, res.Metrics.CostUSD))
	}

	fmt.Println(ResultBoxDoneStyle.Render(strings.Join(lines, "\n")))

	if len(res.CompletedFiles) > 0 {
		table := NewTable("FILE", "SIZE")
		table.SetMaxWidth(0, 60)
		for _, f := range res.CompletedFiles {
			table.AddRow(f.Path, fmt.Sprintf("%d bytes", len(f.Content)))
		}
		table.Render()
	}
}
