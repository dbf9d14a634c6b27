package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Search == nil {
		return fmt.Errorf("pretty formatter requires a search result")
	}

	// Build header
	header := f.formatHeader(r)
	w.WriteString(header)
	w.WriteString("\n")

	// Build match table
	table := f.formatTable(r)
	w.WriteString(table)

	// Build footer
	footer := f.formatFooter(r)
	w.WriteString(footer)

	// Add warnings if any
	if len(r.Warnings) > 0 {
		warnings := f.formatWarnings(r.Warnings)
		w.WriteString("\n")
		w.WriteString(warnings)
	}

	return nil
}

// formatHeader builds the header box with search metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string
	s := r.Search

	// Root line
	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(types.AbbreviateHome(s.Root))
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	// Query line
	queryLabel := LabelStyle.Render("Query:")
	queryValue := ValueStyle.Render(strings.Join(s.Query, " "))
	scopeValue := MutedStyle.Render("(" + s.Scope.Name() + ")")
	lines = append(lines, fmt.Sprintf("%s %s %s", queryLabel, queryValue, scopeValue))

	// Candidate source and timing line
	var infoParts []string

	if r.IndexAge > 0 {
		indexAgeLabel := LabelStyle.Render("Index:")
		indexAgeValue := MutedStyle.Render(formatDuration(r.IndexAge) + " old")
		infoParts = append(infoParts, fmt.Sprintf("%s %s", indexAgeLabel, indexAgeValue))
	}

	searchedLabel := LabelStyle.Render("Searched:")
	searchedValue := ValueStyle.Render(fmt.Sprintf("%d candidates in %s",
		s.Candidates, formatDuration(s.Elapsed)))
	infoParts = append(infoParts, fmt.Sprintf("%s %s", searchedLabel, searchedValue))

	// Daemon status
	daemonStatus := f.formatDaemonStatus(r.DaemonUp, r.WatchActive)
	infoParts = append(infoParts, daemonStatus)

	lines = append(lines, strings.Join(infoParts, "  "))

	// Notices
	if s.Reason != "" {
		lines = append(lines, WarningStyle.Render("No search ran: "+s.Reason))
	}
	if r.Interrupted {
		interruptedStyle := WarningStyle.Bold(true)
		lines = append(lines, interruptedStyle.Render("Search interrupted by user"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatDaemonStatus returns a styled string indicating daemon status.
func (f *PrettyFormatter) formatDaemonStatus(daemonUp, watchActive bool) string {
	if !daemonUp {
		return MutedStyle.Render("daemon: off")
	}

	if watchActive {
		return SuccessStyle.Render("daemon: watching")
	}

	return LabelStyle.Render("daemon: ") + ValueStyle.Render("up")
}

// formatTable builds the match table with SCORE, TYPE and PATH columns.
func (f *PrettyFormatter) formatTable(r *Result) string {
	matches := r.Matches()
	if len(matches) == 0 {
		return MutedStyle.Render("  No matches found\n")
	}

	var sb strings.Builder

	// Column headers
	scoreHeader := TableHeaderStyle.Render("SCORE")
	pathHeader := TableHeaderStyle.Render("PATH")
	sb.WriteString(fmt.Sprintf("  %s  %s\n", scoreHeader, pathHeader))

	// Calculate max score width for alignment
	maxScoreWidth := 5
	for _, m := range matches {
		if w := len(formatScore(m.Score)); w > maxScoreWidth {
			maxScoreWidth = w
		}
	}

	// Match rows
	for _, m := range matches {
		scoreStr := ScoreStyle.Render(padLeft(formatScore(m.Score), maxScoreWidth))
		pathStr := f.stylePath(m)
		sb.WriteString(fmt.Sprintf("  %s  %s\n", scoreStr, pathStr))
	}

	return sb.String()
}

// stylePath renders a path with directories colored and a trailing slash.
func (f *PrettyFormatter) stylePath(m types.Match) string {
	display := types.AbbreviateHome(m.Path)
	if m.IsDir {
		return DirStyle.Render(display + "/")
	}
	return PathStyle.Render(display)
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	// Match count
	matchCountLabel := LabelStyle.Render("Matches:")
	matchCountValue := ValueStyle.Render(fmt.Sprintf("%d", len(r.Matches())))
	parts = append(parts, fmt.Sprintf("%s %s", matchCountLabel, matchCountValue))

	// Best score
	if best := r.BestScore(); best > 0 {
		bestLabel := LabelStyle.Render("Best:")
		bestValue := ScoreStyle.Render(formatScore(best))
		parts = append(parts, fmt.Sprintf("%s %s", bestLabel, bestValue))
	}

	// Hints
	hint := MutedStyle.Render("Use -o paths for pipeable output")
	parts = append(parts, hint)

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
