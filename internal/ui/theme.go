package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Option   lipgloss.Style
	Selected lipgloss.Style
	Panel    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")),
		Subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("#94e2d5")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")),
		Option:   lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Padding(0, 1),
	}
}
