package cli

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("35")  // Green
	dimColor     = lipgloss.Color("241") // Gray
	accentColor  = lipgloss.Color("39")  // Blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	labelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(16)
)

func kv(key, value string) string {
	return labelStyle.Render(key) + " " + value
}
