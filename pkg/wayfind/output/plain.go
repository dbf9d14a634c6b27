package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	// Write header
	if _, err := tw.Write([]byte("SCORE\tTYPE\tPATH\n")); err != nil {
		return err
	}

	// Write data rows
	for _, m := range r.Matches() {
		row := fmt.Sprintf("%s\t%s\t%s\n", formatScore(m.Score), entryKind(m.IsDir), m.Path)
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}

	// Flush tabwriter to buffer
	return tw.Flush()
}

// formatScore renders a score without trailing decimal noise.
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%.0f", score)
	}
	return fmt.Sprintf("%.1f", score)
}

// entryKind returns the short type column value.
func entryKind(isDir bool) string {
	if isDir {
		return "dir"
	}
	return "file"
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
