package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#1B2A49")
	ColorWhite  = lipgloss.Color("#F5F5F5")
	ColorGray   = lipgloss.Color("#8A8F98")
	ColorAccent = lipgloss.Color("#4FA3FF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Bold(true).
			Padding(0, 1)

	headerStyle   = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	ruleStyle     = lipgloss.NewStyle().Foreground(ColorGray)
	cellStyle     = lipgloss.NewStyle().Foreground(ColorWhite)
	selectedStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorWhite).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(ColorGray)
	accentStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	tooltipStyle = lipgloss.NewStyle().
			Foreground(ColorNavy).
			Background(ColorAccent).
			Padding(0, 1)
)
