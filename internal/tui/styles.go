package tui

import "github.com/charmbracelet/lipgloss"

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 2)
	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Bold(true)
	inactiveTabStyle = tabStyle.Foreground(lipgloss.Color("245"))

	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true).Margin(0, 2)
)
