// Package ui provides terminal UI components using Charm libraries.
//
// This package contains all the styling, rendering, and interactive
// components for the Hatch CLI's terminal interface.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Brand colors for Hatch.
var (
	// Primary brand color - Hatch amber
	Amber = lipgloss.Color("#F59E0B")

	// Secondary colors
	Teal    = lipgloss.Color("#14B8A6")
	Red     = lipgloss.Color("#EF4444")
	Green   = lipgloss.Color("#22C55E")
	Gray    = lipgloss.Color("#6B7280")
	DimGray = lipgloss.Color("#9CA3AF")
)

// Text styles.
var (
	// TitleStyle for main headings
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber)

	// SubtitleStyle for secondary headings
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	// AccentStyle for highlighted inline elements
	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// SuccessStyle for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// WarningStyle for warning messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// InfoStyle for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	// DimStyle for less important text
	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	// LinkStyle for URLs
	LinkStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Underline(true)

	// CodeStyle for inline code
	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F3F4F6")).
			Background(lipgloss.Color("#374151")).
			Padding(0, 1)

	// ThinkingStyle for model reasoning output
	ThinkingStyle = lipgloss.NewStyle().
			Foreground(Gray).
			Italic(true)
)

// Box styles.
var (
	// BoxStyle for content boxes
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(0, 1)

	// BoxTitleStyle for box titles
	BoxTitleStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	// ResultBoxDoneStyle for completed turn summaries
	ResultBoxDoneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Green).
				Padding(0, 1)

	// ResultBoxErrorStyle for failed turn summaries
	ResultBoxErrorStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Red).
				Padding(0, 1)
)

// Table styles.
var (
	// TableHeaderStyle for table headers
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(DimGray).
				Bold(true)

	// TableCellStyle for table cells
	TableCellStyle = lipgloss.NewStyle()
)

// Status indicator styles.
var (
	// StatusDoneStyle for completed status
	StatusDoneStyle = lipgloss.NewStyle().
			Foreground(Green)

	// StatusFailedStyle for failed status
	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(Red)

	// StatusRunningStyle for running status
	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(Teal)

	// StatusQueuedStyle for queued status
	StatusQueuedStyle = lipgloss.NewStyle().
				Foreground(Amber)
)
