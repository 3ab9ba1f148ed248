package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderOverlay dims base and draws box centered over it.
func renderOverlay(base, box string, width, height int) string {
	rows := strings.Split(base, "\n")
	for i, row := range rows {
		rows[i] = overlayDimStyle.Render(ansi.Strip(row))
	}

	boxRows := strings.Split(box, "\n")
	top := max(1, (height-len(boxRows))/2)
	left := max(1, (width-lipgloss.Width(box))/2)

	for i, line := range boxRows {
		if row := top + i; row < len(rows) {
			rows[row] = spliceLine(rows[row], line, left)
		}
	}
	return strings.Join(rows, "\n")
}

// spliceLine writes fg over bg starting at column col, keeping whatever of
// bg shows on either side. Both may contain ANSI sequences.
func spliceLine(bg, fg string, col int) string {
	bgWidth := lipgloss.Width(bg)
	head := ansi.Truncate(bg, col, "")
	if pad := col - lipgloss.Width(head); pad > 0 {
		head += strings.Repeat(" ", pad)
	}
	tail := ""
	if end := col + lipgloss.Width(fg); end < bgWidth {
		tail = ansi.Cut(bg, end, bgWidth)
	}
	return head + ansi.ResetStyle + fg + ansi.ResetStyle + tail
}
