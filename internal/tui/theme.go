package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles used by the picker.
type Theme struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cursor   lipgloss.Style
	Marked   lipgloss.Style
	Done     lipgloss.Style
	Failed   lipgloss.Style
	Progress lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
}

// DefaultTheme uses ANSI colors only so it degrades sanely on
// 16-color terminals.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Marked:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Done:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Status:   lipgloss.NewStyle().Faint(true),
		Help:     lipgloss.NewStyle().Reverse(true),
	}
}
