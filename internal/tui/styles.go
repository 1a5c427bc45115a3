package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#4B5BE8", Dark: "#5F6FFF"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "246", Dark: "243"}
	dangerColor  = lipgloss.Color("#E5484D")
	warnColor    = lipgloss.Color("#F5A524")
	okColor      = lipgloss.Color("#30A46C")
)

var (
	tabStyle = lipgloss.NewStyle().Padding(0, 2)

	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Bold(true)

	inactiveTabStyle = tabStyle.Foreground(mutedColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginLeft(2)

	dangerStyle  = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warnColor)
	successStyle = lipgloss.NewStyle().Foreground(okColor)
	infoStyle    = lipgloss.NewStyle().Foreground(primaryColor)

	docStyle = lipgloss.NewStyle().Padding(1, 2)
)
