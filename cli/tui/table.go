package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/types"
)

// keyMap defines key bindings.
type keyMap struct {
	Quit  key.Binding
	Prev  key.Binding
	Next  key.Binding
	Up    key.Binding
	Down  key.Binding
	Inert key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "shift+tab"),
		key.WithHelp("←", "prev state"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l", "tab"),
		key.WithHelp("→", "next state"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "down"),
	),
	Inert: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle inert cells"),
	),
}

// TableModel browses the transition table one state at a time.
type TableModel struct {
	rows      []fsm.TransitionRow
	states    []types.State
	tab       int
	cursor    int
	showInert bool
	quitting  bool
}

// NewTableModel creates a browser over []fsm.TransitionRow.
func NewTableModel(data any) (TableModel, error) {
	rows, ok := data.([]fsm.TransitionRow)
	if !ok {
		return TableModel{}, fmt.Errorf("table view needs []fsm.TransitionRow, got %T", data)
	}
	m := TableModel{rows: rows}
	seen := make(map[types.State]bool)
	for _, r := range rows {
		if !seen[r.State] {
			seen[r.State] = true
			m.states = append(m.states, r.State)
		}
	}
	return m, nil
}

// Init implements tea.Model.
func (m TableModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(km, keys.Next) && len(m.states) > 0:
		m.tab = (m.tab + 1) % len(m.states)
		m.cursor = 0
	case key.Matches(km, keys.Prev) && len(m.states) > 0:
		m.tab = (m.tab + len(m.states) - 1) % len(m.states)
		m.cursor = 0
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Inert):
		m.showInert = !m.showInert
		m.cursor = 0
	}
	return m, nil
}

// State returns the state of the selected tab.
func (m TableModel) State() (types.State, bool) {
	if len(m.states) == 0 {
		return 0, false
	}
	return m.states[m.tab], true
}

func (m TableModel) visible() []fsm.TransitionRow {
	state, ok := m.State()
	if !ok {
		return nil
	}
	var out []fsm.TransitionRow
	for _, r := range m.rows {
		if r.State != state {
			continue
		}
		if !m.showInert && inert(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inert(r fsm.TransitionRow) bool {
	return r.Next == r.State && r.Action == fsm.ActionNone
}

// View implements tea.Model.
func (m TableModel) View() string {
	if m.quitting {
		return ""
	}
	if len(m.states) == 0 {
		return "(no results)\n"
	}

	tabs := make([]string, len(m.states))
	for i, s := range m.states {
		if i == m.tab {
			tabs[i] = ActiveTabStyle.Render(s.String())
		} else {
			tabs[i] = TabStyle.Render(s.String())
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Transition Table"))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	rows := m.visible()
	if len(rows) == 0 {
		b.WriteString(MutedStyle.Render("every event is ignored in this state"))
	}
	for i, r := range rows {
		line := fmt.Sprintf("%-20s %-28s → %s  %s",
			r.Event, r.Address, StateStyle(r.Next).Render(fmt.Sprintf("%-12s", r.Next)), r.Action)
		switch {
		case i == m.cursor:
			line = SelectedStyle.Render("> " + line)
		case inert(r):
			line = MutedStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	help := []string{}
	for _, k := range []key.Binding{keys.Prev, keys.Next, keys.Up, keys.Down, keys.Inert, keys.Quit} {
		help = append(help, k.Help().Key+" "+k.Help().Desc)
	}
	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render(strings.Join(help, " • "))
}
