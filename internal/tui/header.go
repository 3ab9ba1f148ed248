package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderHeader(username string, tab, days int, spinner string, width int) string {
	dot := lipgloss.NewStyle().Foreground(colorOrange).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render("OnTrack")
	if username != "" {
		name += hintStyle.Render(" · " + username)
	}

	tabs := renderTabs(tabNames, tab)
	window := hintStyle.Render(fmt.Sprintf("last %dd", days))
	if spinner != "" {
		window = spinner + " " + window
	}

	left := fmt.Sprintf(" %s %s", dot, name)
	right := fmt.Sprintf("%s  %s ", tabs, window)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderTabs(tabs []string, active int) string {
	var parts []string
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tab)
		if i == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, tabSepStyle.Render(" | "))
}
