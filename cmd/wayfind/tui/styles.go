// Package tui provides the interactive wayfind picker: a live query
// input over a ranked result list, built on Bubble Tea and Lip Gloss.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	// Primary colors
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	// Status colors
	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")

	// Neutral colors
	mutedColor     = lipgloss.Color("#666666")
	subtleColor    = lipgloss.Color("#444444")
	borderColor    = lipgloss.Color("#333333")
	highlightColor = lipgloss.Color("#1A1A2E")
)

// Box styles for containers.
var (
	// outerBoxStyle is the main container style.
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// dividerStyle creates horizontal dividers.
	dividerStyle = lipgloss.NewStyle().
			Foreground(borderColor)
)

// Text styles.
var (
	// titleStyle for main titles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// mutedTextStyle for less important text.
	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// errorTextStyle for error messages.
	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// warningTextStyle for warning messages.
	warningTextStyle = lipgloss.NewStyle().
				Foreground(warningColor)
)

// Result list styles.
var (
	// selectedItemStyle for the currently highlighted row.
	selectedItemStyle = lipgloss.NewStyle().
				Background(highlightColor).
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	// normalItemStyle for non-highlighted rows.
	normalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	// scoreStyle for match scores.
	scoreStyle = lipgloss.NewStyle().
			Width(6).
			Align(lipgloss.Right).
			Foreground(accentColor)

	// dirMarkStyle for the trailing slash on directories.
	dirMarkStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// cursorStyle for the cursor indicator.
	cursorStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

// Key help styles.
var (
	// keyStyle for key names in the help bar.
	keyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// keyDescStyle for key descriptions.
	keyDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// Log viewer styles.
var (
	logLevelStyles = map[string]lipgloss.Style{
		"DEBUG": lipgloss.NewStyle().Foreground(subtleColor),
		"INFO":  lipgloss.NewStyle().Foreground(accentColor),
		"WARN":  lipgloss.NewStyle().Foreground(warningColor),
		"ERROR": lipgloss.NewStyle().Foreground(dangerColor),
	}

	logComponentStyle = lipgloss.NewStyle().Foreground(primaryColor)
)

// renderDivider renders a horizontal divider of the given width.
func renderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	line := make([]rune, width)
	for i := range line {
		line[i] = '─'
	}
	return dividerStyle.Render(string(line))
}

// truncatePath shortens a path to fit a width, keeping the tail, which
// carries the discriminating components.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-(maxLen-3):]
}
