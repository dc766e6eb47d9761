package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))

	focusedHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("39"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// alignment maps a display class to a horizontal position.
func alignment(class string) lipgloss.Position {
	switch class {
	case "left":
		return lipgloss.Left
	case "right":
		return lipgloss.Right
	default:
		return lipgloss.Center
	}
}
