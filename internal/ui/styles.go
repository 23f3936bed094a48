package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/ringscope/internal/audio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"})

	artistStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#AAAAAA"})

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// bandStyles match the colours the visualizer draws each band in.
var bandStyles = [audio.NumBands]lipgloss.Style{
	audio.Bass:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4DD0FF")),
	audio.Mid:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9B7BFF")),
	audio.Treble: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8BD1")),
}
