package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var menuLabels = []string{"Videos", "Digests", "Search"}

func pageLayout(content string) string {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(content)
}

func renderMenu(active viewMode, width int) string {
	divider := strings.Repeat("─", max(0, width))

	styled := make([]string, 0, len(menuLabels))
	for i, label := range menuLabels {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		if viewMode(i) == active {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Underline(true)
		}
		item := style.Render(label + " [" + strconv.Itoa(i+1) + "]")
		if i != len(menuLabels)-1 {
			item += " | "
		}
		styled = append(styled, item)
	}

	menu := lipgloss.JoinHorizontal(lipgloss.Left, styled...)
	return lipgloss.JoinVertical(lipgloss.Left, menu, divider)
}

// tabKey maps the menu number keys to their view.
func tabKey(key string) (viewMode, bool) {
	switch key {
	case "1":
		return videosView, true
	case "2":
		return digestsView, true
	case "3":
		return searchView, true
	}
	return 0, false
}
