package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	focusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorWhite)

	unfocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)
)

// Tab styles.
var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(colorWhite)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Task list styles.
var (
	taskOpenStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	taskOverdueStyle = lipgloss.NewStyle().Foreground(colorRed)
	taskDoneStyle    = lipgloss.NewStyle().Foreground(colorGreen)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite)

	selectedItemStyle = lipgloss.NewStyle().
				Background(lipgloss.AdaptiveColor{Light: "254", Dark: "237"})
)

// Analytics styles.
var (
	labelStyle     = lipgloss.NewStyle().Width(16).Foreground(colorDim)
	valueStyle     = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	labelDateStyle = lipgloss.NewStyle().Foreground(colorDim)
	onTimeStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	lateStyle      = lipgloss.NewStyle().Foreground(colorRed)
	progressStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	backlogStyle   = lipgloss.NewStyle().Foreground(colorDim)
	streakStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
)

// Priority badge styles.
var (
	priorityP1Style = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	priorityP2Style = lipgloss.NewStyle().Foreground(colorOrange)
	priorityP3Style = lipgloss.NewStyle().Foreground(colorCyan)
)

func priorityStyle(p string) lipgloss.Style {
	switch p {
	case "P1":
		return priorityP1Style
	case "P2":
		return priorityP2Style
	default:
		return priorityP3Style
	}
}

// Overlay styles.
var (
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWhite).
			Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite).
				MarginBottom(1)

	overlayDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Key hint styles for status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)
