package tui

import (
	"fmt"
	"strings"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

// LogModel is the log viewer overlay, fed by the logging ring buffer.
type LogModel struct {
	width  int
	height int
}

// NewLogModel creates the log viewer.
func NewLogModel() LogModel {
	return LogModel{width: 80, height: 24}
}

// SetDimensions updates the render area.
func (m *LogModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

func (m *LogModel) visibleRows() int {
	rows := m.height - 6
	if rows < 3 {
		rows = 3
	}
	return rows
}

// View renders the most recent buffered log entries.
func (m *LogModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  Log"))
	b.WriteString("\n")
	b.WriteString(renderDivider(m.width - 4))
	b.WriteString("\n")

	buffer := logging.TUIBuffer()
	if buffer == nil || buffer.Len() == 0 {
		b.WriteString(mutedTextStyle.Render("  no log entries"))
		b.WriteString("\n")
	} else {
		for _, entry := range buffer.Last(m.visibleRows()) {
			b.WriteString("  ")
			b.WriteString(renderLogEntry(entry, m.width-6))
			b.WriteString("\n")
		}
	}

	b.WriteString(renderDivider(m.width - 4))
	b.WriteString("\n")
	b.WriteString("  " + keyStyle.Render("[l]") + " " + keyDescStyle.Render("close"))
	b.WriteString("\n")

	return b.String()
}

// renderLogEntry formats one log line: time, level, component, message.
func renderLogEntry(entry logging.Entry, maxWidth int) string {
	levelName := strings.ToUpper(entry.Level.String())
	style, ok := logLevelStyles[levelName]
	if !ok {
		style = mutedTextStyle
	}

	line := fmt.Sprintf("%s %s %s %s",
		mutedTextStyle.Render(entry.Time.Format("15:04:05")),
		style.Render(fmt.Sprintf("%-5s", levelName)),
		logComponentStyle.Render(entry.Component),
		entry.Message,
	)
	if maxWidth > 0 && len(entry.Message) > maxWidth {
		line = line[:len(line)-(len(entry.Message)-maxWidth)]
	}
	return line
}
