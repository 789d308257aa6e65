package utils

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	GoodColor  = lipgloss.Color("#228B22") // Forest green
	InfoColor  = lipgloss.Color("#4682B4") // Steel blue
	MutedColor = lipgloss.Color("#888888") // Medium gray
)

var (
	GoodStyle  = lipgloss.NewStyle().Foreground(GoodColor).Bold(true)
	InfoStyle  = lipgloss.NewStyle().Foreground(InfoColor)
	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)
