package tui

import (
	"fmt"
	"strings"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/tree"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// TreeModel shows matches grouped under their ancestor directories, with
// collapsible branches.
type TreeModel struct {
	root   *tree.Node
	flat   []*tree.Node
	cursor int
	offset int
	width  int
	height int
}

// NewTreeModel creates an empty tree view.
func NewTreeModel() TreeModel {
	return TreeModel{width: 80, height: 24}
}

// SetMatches rebuilds the tree from a result set.
func (m *TreeModel) SetMatches(root string, matches []types.Match) {
	if len(matches) == 0 {
		m.root = nil
		m.flat = nil
		m.cursor = 0
		m.offset = 0
		return
	}
	m.root = tree.Build(root, matches)
	m.root.ExpandAll()
	m.refresh()
	m.cursor = 0
	m.offset = 0
}

// refresh recomputes the visible-row slice after an expand or collapse.
func (m *TreeModel) refresh() {
	if m.root == nil {
		m.flat = nil
		return
	}
	// The root itself is implicit; children are the top-level rows.
	flat := m.root.Flatten()
	if len(flat) > 0 && flat[0] == m.root {
		flat = flat[1:]
	}
	m.flat = flat
	if m.cursor >= len(m.flat) {
		m.cursor = len(m.flat) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Len returns the number of visible rows.
func (m *TreeModel) Len() int {
	return len(m.flat)
}

// Current returns the node under the cursor.
func (m *TreeModel) Current() (*tree.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.flat) {
		return nil, false
	}
	return m.flat[m.cursor], true
}

// HandleKey handles tree navigation keys.
func (m *TreeModel) HandleKey(key string) {
	switch key {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}

	case "down", "ctrl+n":
		if m.cursor < len(m.flat)-1 {
			m.cursor++
			m.ensureVisible()
		}

	case " ":
		if node, ok := m.Current(); ok && node.IsDir {
			node.Toggle()
			m.refresh()
		}

	case "right":
		if node, ok := m.Current(); ok && node.IsDir && !node.Expanded {
			node.Toggle()
			m.refresh()
		}

	case "left":
		if node, ok := m.Current(); ok && node.IsDir && node.Expanded {
			node.Toggle()
			m.refresh()
		}

	case "home":
		m.cursor = 0
		m.offset = 0

	case "end":
		if len(m.flat) > 0 {
			m.cursor = len(m.flat) - 1
			m.ensureVisible()
		}
	}
}

// SetDimensions updates the render area.
func (m *TreeModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

func (m *TreeModel) visibleRows() int {
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m *TreeModel) ensureVisible() {
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

// View renders the visible tree rows.
func (m *TreeModel) View() string {
	if len(m.flat) == 0 {
		return mutedTextStyle.Render("  no results")
	}

	var b strings.Builder
	rows := m.visibleRows()
	end := m.offset + rows
	if end > len(m.flat) {
		end = len(m.flat)
	}

	for i := m.offset; i < end; i++ {
		node := m.flat[i]

		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("▸ ")
		}

		indent := strings.Repeat("  ", node.Depth()-1)

		marker := "  "
		if node.IsDir && len(node.Children) > 0 {
			if node.Expanded {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		name := node.Name
		if node.IsDir {
			name += "/"
		}

		line := indent + marker + name
		if node.IsMatch {
			line += mutedTextStyle.Render(fmt.Sprintf("  %s", formatScore(node.Score)))
		} else if node.IsDir && node.MatchCount > 0 && !node.Expanded {
			line += mutedTextStyle.Render(fmt.Sprintf("  (%d)", node.MatchCount))
		}

		if i == m.cursor {
			b.WriteString(cursor + selectedItemStyle.Render(line))
		} else {
			b.WriteString(cursor + normalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if end < len(m.flat) {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  … %d more", len(m.flat)-end)))
		b.WriteString("\n")
	}

	return b.String()
}
