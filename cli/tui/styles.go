// Package tui provides Bubble Tea views for the pws CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI is read-only
//   - TUI uses the same payloads as json/table/yaml rendering
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/pws/types"
)

// Color palette. Red, green and amber follow the front-panel LEDs.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// MutedStyle for cells that do nothing.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// SelectedStyle marks the cursor row.
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// TabStyle and ActiveTabStyle render the state tabs.
	TabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)
)

// StateStyle returns the style for a controller state, colored like the
// LED pattern the appliance shows in it.
func StateStyle(s types.State) lipgloss.Style {
	switch s {
	case types.StateIdle:
		return lipgloss.NewStyle().Foreground(successColor)
	case types.StateRecording:
		return lipgloss.NewStyle().Foreground(errorColor)
	case types.StatePlaying, types.StateTuning:
		return lipgloss.NewStyle().Foreground(warningColor)
	case types.StateApSet, types.StateApSetWait:
		return lipgloss.NewStyle().Foreground(highlightColor)
	default:
		return ValueStyle
	}
}
