package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// Views that support --tui.
const (
	ViewTable  = "table"
	ViewDecode = "decode"
)

// Run starts the TUI for view. Returns an error if the view has none.
func Run(view string, data any) error {
	var model tea.Model
	switch view {
	case ViewTable:
		m, err := NewTableModel(data)
		if err != nil {
			return err
		}
		model = m
	case ViewDecode:
		m, err := NewMessageModel(data)
		if err != nil {
			return err
		}
		model = m
	default:
		return fmt.Errorf("TUI mode is not supported for %s", view)
	}

	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// IsTUISupported returns true if the view supports TUI mode.
func IsTUISupported(view string) bool {
	return slices.Contains(SupportedTUIViews(), view)
}

// SupportedTUIViews returns the views that support TUI mode.
func SupportedTUIViews() []string {
	return []string{ViewTable, ViewDecode}
}
