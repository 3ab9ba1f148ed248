package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ontrack-io/ontrack/internal/models"
)

// Adaptive colors matching the TUI palette.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

// Priority and state badge styles.
var (
	badgeP1   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	badgeP2   = lipgloss.NewStyle().Foreground(colorOrange)
	badgeP3   = lipgloss.NewStyle().Foreground(colorCyan)
	badgeDone = lipgloss.NewStyle().Foreground(colorGreen)
	badgeLate = lipgloss.NewStyle().Foreground(colorYellow)
)

func priorityBadge(p models.Priority) string {
	switch p {
	case models.PriorityP1:
		return badgeP1.Render(string(p))
	case models.PriorityP2:
		return badgeP2.Render(string(p))
	default:
		return badgeP3.Render(string(p))
	}
}
