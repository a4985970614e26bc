// Package ui provides message printing utilities.
package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// quietMode suppresses decorative output (banner, info, dim) when true.
// Error and warning messages are always printed.
var quietMode bool

// SetQuietMode enables or disables quiet output.
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is active.
func IsQuiet() bool {
	return quietMode
}

// clearLine clears the current terminal line for in-place updates.
func clearLine() {
	fmt.Print("\r\033[K")
}

// Println prints an empty line.
func Println() {
	if quietMode {
		return
	}
	fmt.Println()
}

// PrintSuccess prints a success message.
func PrintSuccess(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(SuccessStyle.Render("✓ " + msg))
}

// PrintError prints an error message. Always printed, even in quiet mode.
func PrintError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(ErrorStyle.Render("✗ " + msg))
}

// PrintWarning prints a warning message. Always printed, even in quiet mode.
func PrintWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(WarningStyle.Render("⚠ " + msg))
}

// PrintInfo prints an informational message.
func PrintInfo(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(InfoStyle.Render(msg))
}

// PrintDim prints a dimmed message.
func PrintDim(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(DimStyle.Render(msg))
}

// PrintLink prints a labeled link.
func PrintLink(label, url string) {
	if quietMode {
		return
	}
	fmt.Printf("%s %s\n", DimStyle.Render(label+":"), LinkStyle.Render(url))
}

// PrintBox prints content in a styled box.
func PrintBox(title, content string) {
	if quietMode {
		return
	}
	titleStyled := BoxTitleStyle.Render(title)
	box := BoxStyle.Render(titleStyled + "\n" + content)
	fmt.Println(box)
}

// OpenBrowser opens a URL in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// Table represents a table with dynamic column widths for formatted output.
type Table struct {
	// Headers contains the column header names.
	Headers []string

	// Rows contains all data rows.
	Rows [][]string

	// MaxWidths specifies maximum width per column index (truncates with ellipsis).
	MaxWidths map[int]int
}

// NewTable creates a new table with the specified headers.
func NewTable(headers ...string) *Table {
	return &Table{
		Headers:   headers,
		Rows:      make([][]string, 0),
		MaxWidths: make(map[int]int),
	}
}

// AddRow adds a data row to the table.
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, values)
}

// SetMaxWidth sets the maximum width for a column.
// Values exceeding this width will be truncated with ellipsis.
func (t *Table) SetMaxWidth(col, width int) {
	t.MaxWidths[col] = width
}

// calculateColumnWidths computes the optimal width for each column.
func (t *Table) calculateColumnWidths() []int {
	numCols := len(t.Headers)
	widths := make([]int, numCols)

	for i, header := range t.Headers {
		widths[i] = len(header)
	}

	for _, row := range t.Rows {
		for i, val := range row {
			if i < numCols && len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	for i := range widths {
		if max, ok := t.MaxWidths[i]; ok && widths[i] > max {
			widths[i] = max
		}
	}

	return widths
}

// truncateWithEllipsis truncates a string to the specified width with ellipsis.
func truncateWithEllipsis(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// padRight pads a string to the specified width with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Render prints the table with calculated column widths.
func (t *Table) Render() {
	if len(t.Headers) == 0 || quietMode {
		return
	}

	widths := t.calculateColumnWidths()
	colGap := "  "

	var headerCells []string
	for i, header := range t.Headers {
		cell := padRight(header, widths[i])
		headerCells = append(headerCells, TableHeaderStyle.Render(cell))
	}
	fmt.Println(strings.Join(headerCells, colGap))

	totalWidth := 0
	for _, w := range widths {
		totalWidth += w
	}
	totalWidth += len(colGap) * (len(widths) - 1)
	fmt.Println(DimStyle.Render(strings.Repeat("─", totalWidth)))

	for _, row := range t.Rows {
		var cells []string
		for i := 0; i < len(t.Headers); i++ {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if max, ok := t.MaxWidths[i]; ok {
				val = truncateWithEllipsis(val, max)
			}
			cells = append(cells, TableCellStyle.Render(padRight(val, widths[i])))
		}
		fmt.Println(strings.Join(cells, colGap))
	}
}
