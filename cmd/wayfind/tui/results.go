package tui

import (
	"fmt"
	"strings"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ResultModel is the scrollable ranked result list.
type ResultModel struct {
	matches []types.Match
	cursor  int
	offset  int
	width   int
	height  int
}

// NewResultModel creates an empty result list.
func NewResultModel() ResultModel {
	return ResultModel{width: 80, height: 24}
}

// SetMatches replaces the list contents, clamping the cursor.
func (m *ResultModel) SetMatches(matches []types.Match) {
	m.matches = matches
	if m.cursor >= len(matches) {
		m.cursor = len(matches) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

// SetDimensions updates the render area.
func (m *ResultModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// Len returns the number of matches listed.
func (m *ResultModel) Len() int {
	return len(m.matches)
}

// Current returns the match under the cursor.
func (m *ResultModel) Current() (types.Match, bool) {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return types.Match{}, false
	}
	return m.matches[m.cursor], true
}

// HandleKey handles list navigation keys.
func (m *ResultModel) HandleKey(key string) {
	switch key {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}

	case "down", "ctrl+n":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
			m.ensureVisible()
		}

	case "home":
		m.cursor = 0
		m.offset = 0

	case "end":
		if len(m.matches) > 0 {
			m.cursor = len(m.matches) - 1
			m.ensureVisible()
		}

	case "pgup":
		m.cursor -= m.visibleRows()
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.ensureVisible()

	case "pgdown":
		m.cursor += m.visibleRows()
		if m.cursor >= len(m.matches) {
			m.cursor = len(m.matches) - 1
		}
		m.ensureVisible()
	}
}

// visibleRows returns how many result rows fit in the current height,
// leaving room for the input, divider, and footer.
func (m *ResultModel) visibleRows() int {
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	return rows
}

// ensureVisible scrolls the list so the cursor is on screen.
func (m *ResultModel) ensureVisible() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the result list rows.
func (m *ResultModel) View() string {
	if len(m.matches) == 0 {
		return mutedTextStyle.Render("  no results")
	}

	var b strings.Builder
	rows := m.visibleRows()
	end := m.offset + rows
	if end > len(m.matches) {
		end = len(m.matches)
	}

	pathWidth := m.width - 14
	if pathWidth < 20 {
		pathWidth = 20
	}

	for i := m.offset; i < end; i++ {
		match := m.matches[i]

		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("▸ ")
		}

		score := scoreStyle.Render(formatScore(match.Score))
		path := truncatePath(types.AbbreviateHome(match.Path), pathWidth)

		line := fmt.Sprintf("%s %s", score, path)
		if match.IsDir {
			line += dirMarkStyle.Render("/")
		}

		if i == m.cursor {
			b.WriteString(cursor + selectedItemStyle.Render(line))
		} else {
			b.WriteString(cursor + normalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if end < len(m.matches) {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  … %d more", len(m.matches)-end)))
		b.WriteString("\n")
	}

	return b.String()
}

// formatScore renders a score without decimal noise.
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}
