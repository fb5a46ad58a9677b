package prompt

import "github.com/charmbracelet/lipgloss"

var (
	warningColor = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#666666")
	accentColor  = lipgloss.Color("#7D56F4")

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	itemStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingLeft(2)

	hintStyle = lipgloss.NewStyle().
			Foreground(accentColor)
)
