// Package ui provides the ASCII banner for the Hatch CLI.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// banner is the ASCII art logo for Hatch CLI.
const banner = `
  ██╗  ██╗ █████╗ ████████╗ ██████╗██╗  ██╗
  ██║  ██║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
  ███████║███████║   ██║   ██║     ███████║
  ██╔══██║██╔══██║   ██║   ██║     ██╔══██║
  ██║  ██║██║  ██║   ██║   ╚██████╗██║  ██║
  ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝`

// tagline is the product tagline.
const tagline = "Describe It. Build It. Ship It."

// PrintBanner prints the Hatch banner with version info.
func PrintBanner(version string) {
	if quietMode {
		return
	}

	styledBanner := lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true).
		Render(banner)

	fmt.Println(styledBanner)
	fmt.Println()

	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		PaddingLeft(2)
	fmt.Println(taglineStyle.Render(tagline))
	fmt.Println()

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		PaddingLeft(2)

	fmt.Println(infoStyle.Render(fmt.Sprintf("Version: %s", version)))
	fmt.Println(infoStyle.Render("Docs:    https://docs.hatch.dev"))
	fmt.Println()
}

// GetCondensedHelp returns a compact cheat-sheet for the common user journey.
// Shown when the user runs `hatch` with no arguments. No ASCII banner,
// no Cobra auto-generated command list -- just the essentials.
func GetCondensedHelp() string {
	accent := lipgloss.NewStyle().Foreground(Amber).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	return fmt.Sprintf(`%s

%s
  %s              Authenticate with your Hatch account
  %s     Describe the app you want built
  %s                  Continue building interactively

%s
  %s                Write generated files to disk
  %s                  Open the app preview in your browser
  %s                List and manage conversations

%s  https://docs.hatch.dev
%s  support@hatch.dev

%s
`,
		accent.Render("Hatch")+" - "+dim.Render(tagline),
		accent.Render("Getting Started:"),
		accent.Render("hatch auth login"),
		accent.Render(`hatch chat "prompt"`),
		accent.Render("hatch chat"),
		accent.Render("Work with results:"),
		accent.Render("hatch export"),
		accent.Render("hatch open"),
		accent.Render("hatch config"),
		accent.Render("Docs: "),
		accent.Render("Help: "),
		hint.Render(`Use "hatch --help" for a full list of commands.`),
	)
}
