package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmMode values.
const (
	confirmNone   = 0
	confirmDelete = 1
)

func renderStatusBar(m *Model, width int) string {
	if m.confirmMode == confirmDelete && m.confirmTask != nil {
		return renderConfirmBar(
			fmt.Sprintf("Delete %q? (y/n)", m.confirmTask.Name),
			width,
		)
	}

	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}

	if m.showSaved {
		return renderSavedBar(width)
	}

	left := " " + getKeyHints(m)

	right := ""
	if !m.lastRefresh.IsZero() {
		right = hintStyle.Render("updated "+relativeAge(m.lastRefresh, m.now())) + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	if m.showHelp {
		return keyHint("Esc", "close help")
	}

	base := keyHint("q", "quit") + "  " + keyHint("?", "help") + "  " + keyHint("Tab", "switch") +
		"  " + keyHint("r", "refresh") + "  " + keyHint("w", "window")

	if m.focusedPanel == 0 {
		return base + "  " + keyHint("d", "done") + "  " + keyHint("x", "delete") + "  " + keyHint("a", "completed")
	}
	return base + "  " + keyHint("1-4", "tabs") + "  " + keyHint("j/k", "scroll")
}

func keyHint(k, desc string) string {
	if k == "" {
		return hintStyle.Render(desc)
	}
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderConfirmBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorYellow).
		Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "0"}).
		Width(width).
		Render(" " + msg)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}

func renderSavedBar(width int) string {
	return statusBarStyle.
		Width(width).
		Render(" " + lipgloss.NewStyle().Foreground(colorGreen).Render("Saved"))
}
