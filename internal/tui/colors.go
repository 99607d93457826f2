package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func accent() lipgloss.Color {
	return lipgloss.Color("#FF6F61")
}

func muted() lipgloss.Color {
	return lipgloss.Color("#B22222")
}
