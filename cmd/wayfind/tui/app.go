package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/cache"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/match"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/search"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// debounceDelay is how long typing must pause before a search runs.
const debounceDelay = 150 * time.Millisecond

// viewMode selects the main panel content.
type viewMode int

const (
	// ViewList shows the flat ranked result list.
	ViewList viewMode = iota
	// ViewTree groups results under their ancestor directories.
	ViewTree
	// ViewLog shows the log viewer overlay.
	ViewLog
)

// Options configures the picker.
type Options struct {
	Root         string
	InitialQuery string
	Min          int
	Scope        types.Scope
	Excludes     []string
	Fuzzy        bool
	Limit        int
	Workers      int
	MaxDepth     int
	Cache        *cache.Cache
	Source       search.CandidateSource
}

// searchDoneMsg carries a finished search back into the update loop.
type searchDoneMsg struct {
	gen    int
	result *types.SearchResult
	err    error
}

// debounceMsg fires after the typing pause.
type debounceMsg struct {
	gen int
}

// Model is the main Bubble Tea model for the wayfind picker.
type Model struct {
	options Options

	input       textinput.Model
	spinner     spinner.Model
	resultModel ResultModel
	treeModel   TreeModel
	logModel    LogModel
	mode        viewMode
	lastMode    viewMode // restored when the log overlay closes

	ctx    context.Context
	cancel context.CancelFunc

	gen       int // bumped per keystroke; stale results are dropped
	searching bool
	result    *types.SearchResult
	searchErr error

	// selection is the chosen absolute path, set on enter.
	selection string

	width  int
	height int
}

// NewModel creates a picker model.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "type to search..."
	ti.Prompt = "❯ "
	ti.PromptStyle = cursorStyle
	ti.SetValue(opts.InitialQuery)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	return Model{
		options:     opts,
		input:       ti,
		spinner:     s,
		resultModel: NewResultModel(),
		treeModel:   NewTreeModel(),
		logModel:    NewLogModel(),
		ctx:         ctx,
		cancel:      cancel,
		width:       80,
		height:      24,
	}
}

// Init starts the spinner and, when an initial query was given, the
// first search.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if strings.TrimSpace(m.input.Value()) != "" {
		cmds = append(cmds, m.startSearch())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resultModel.SetDimensions(msg.Width, msg.Height)
		m.treeModel.SetDimensions(msg.Width, msg.Height)
		m.logModel.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceMsg:
		// Only the latest keystroke's timer triggers a search.
		if msg.gen == m.gen {
			return m, m.startSearch()
		}
		return m, nil

	case searchDoneMsg:
		if msg.gen != m.gen {
			return m, nil // stale result from an older query
		}
		m.searching = false
		m.searchErr = msg.err
		if msg.err == nil {
			m.result = msg.result
			m.resultModel.SetMatches(msg.result.Matches)
			m.treeModel.SetMatches(msg.result.Root, msg.result.Matches)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "esc":
		if m.mode == ViewLog {
			m.mode = m.lastMode
			return m, nil
		}
		m.cancel()
		return m, tea.Quit

	case "enter":
		if path, ok := m.currentPath(); ok {
			m.selection = path
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case "ctrl+t":
		if m.mode == ViewList {
			m.mode = ViewTree
		} else if m.mode == ViewTree {
			m.mode = ViewList
		}
		return m, nil

	case "ctrl+l":
		if m.mode == ViewLog {
			m.mode = m.lastMode
		} else {
			m.lastMode = m.mode
			m.mode = ViewLog
		}
		return m, nil
	}

	// Log overlay swallows everything else.
	if m.mode == ViewLog {
		if key == "l" {
			m.mode = m.lastMode
		}
		return m, nil
	}

	// Navigation keys go to the active panel.
	switch key {
	case "up", "down", "pgup", "pgdown", "home", "end", "ctrl+p", "ctrl+n":
		if m.mode == ViewTree {
			m.treeModel.HandleKey(key)
		} else {
			m.resultModel.HandleKey(key)
		}
		return m, nil
	case "left", "right", " ":
		if m.mode == ViewTree {
			m.treeModel.HandleKey(key)
			return m, nil
		}
	}

	// Everything else edits the query.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before {
		m.gen++
		gen := m.gen
		debounce := tea.Tick(debounceDelay, func(time.Time) tea.Msg {
			return debounceMsg{gen: gen}
		})
		return m, tea.Batch(cmd, debounce)
	}
	return m, cmd
}

// currentPath returns the absolute path under the cursor in the active
// panel.
func (m *Model) currentPath() (string, bool) {
	if m.mode == ViewTree {
		node, ok := m.treeModel.Current()
		if !ok {
			return "", false
		}
		return node.Path, true
	}
	current, ok := m.resultModel.Current()
	if !ok {
		return "", false
	}
	return current.Path, true
}

// startSearch launches the query in the background.
func (m *Model) startSearch() tea.Cmd {
	m.searching = true
	m.searchErr = nil

	gen := m.gen
	ctx := m.ctx
	opts := search.Options{
		Root:      m.options.Root,
		Words:     match.ParseQuery(m.input.Value()),
		MinLength: m.options.Min,
		Scope:     m.options.Scope,
		Excludes:  m.options.Excludes,
		Fuzzy:     m.options.Fuzzy,
		Limit:     m.options.Limit,
		Workers:   m.options.Workers,
		MaxDepth:  m.options.MaxDepth,
		Cache:     m.options.Cache,
		Source:    m.options.Source,
	}

	return func() tea.Msg {
		result, err := search.New(opts).Search(ctx)
		return searchDoneMsg{gen: gen, result: result, err: err}
	}
}

// View renders the picker.
func (m Model) View() string {
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var b strings.Builder

	// Query input
	b.WriteString(titleStyle.Render("  wayfind"))
	b.WriteString(mutedTextStyle.Render("  " + types.AbbreviateHome(m.options.Root)))
	b.WriteString("\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	// Main panel
	switch m.mode {
	case ViewLog:
		b.WriteString(m.logModel.View())
	case ViewTree:
		b.WriteString(m.treeModel.View())
	default:
		b.WriteString(m.resultModel.View())
	}

	// Footer
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderFooter renders the status and key help line.
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.searching:
		status = m.spinner.View() + " searching..."
	case m.searchErr != nil:
		status = errorTextStyle.Render(fmt.Sprintf("error: %v", m.searchErr))
	case m.result != nil && m.result.Reason != "":
		status = warningTextStyle.Render(fmt.Sprintf("query too short (minimum length %d)", m.options.Min))
	case m.result != nil:
		status = mutedTextStyle.Render(fmt.Sprintf("%d matches · %d candidates · %s",
			len(m.result.Matches), m.result.Candidates, m.result.Elapsed.Round(time.Millisecond)))
		if m.result.FromIndex {
			status += mutedTextStyle.Render(" · index")
		}
	default:
		status = mutedTextStyle.Render("type to search")
	}

	help := strings.Join([]string{
		keyStyle.Render("enter") + keyDescStyle.Render(" select"),
		keyStyle.Render("ctrl+t") + keyDescStyle.Render(" tree"),
		keyStyle.Render("ctrl+l") + keyDescStyle.Render(" log"),
		keyStyle.Render("esc") + keyDescStyle.Render(" quit"),
	}, "  ")

	return "  " + status + "\n  " + help + "\n"
}

// Run starts the picker and returns the selected absolute path, or the
// empty string when the user quit without choosing.
func Run(opts Options) (string, error) {
	model := NewModel(opts)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	if m, ok := finalModel.(Model); ok {
		return m.selection, nil
	}
	return "", nil
}
