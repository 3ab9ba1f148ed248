package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Analytics tabs.
const (
	tabSummary = iota
	tabStreak
	tabFlow
	tabHistory
	tabCount
)

var tabNames = []string{"Summary", "Streak", "Flow", "History"}

// StatsView shows one analytics tab in a scrollable viewport.
type StatsView struct {
	viewport viewport.Model
	spinner  spinner.Model
	tab      int
	stats    *StatsLoadedMsg
	loading  bool
	width    int
}

// NewStatsView creates an empty stats view.
func NewStatsView() *StatsView {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = hintStyle
	return &StatsView{
		viewport: viewport.New(80, 24),
		spinner:  sp,
	}
}

// SetSize sets the viewport dimensions.
func (s *StatsView) SetSize(width, height int) {
	s.width = width
	s.viewport.Width = width
	s.viewport.Height = height
	s.refresh()
}

// SetTab switches tab and scrolls to the top.
func (s *StatsView) SetTab(tab int) {
	s.tab = (tab%tabCount + tabCount) % tabCount
	s.refresh()
	s.viewport.GotoTop()
}

// Tab returns the active tab.
func (s *StatsView) Tab() int {
	return s.tab
}

// SetStats replaces the data and re-renders the active tab.
func (s *StatsView) SetStats(msg StatsLoadedMsg) {
	s.stats = &msg
	s.loading = false
	s.refresh()
}

// StartLoading shows the spinner until SetStats or StopLoading.
func (s *StatsView) StartLoading() tea.Cmd {
	if s.loading {
		return nil
	}
	s.loading = true
	return s.spinner.Tick
}

// StopLoading hides the spinner.
func (s *StatsView) StopLoading() {
	s.loading = false
}

// Loading reports whether a fetch is in flight.
func (s *StatsView) Loading() bool {
	return s.loading
}

// UpdateSpinner advances the spinner while loading.
func (s *StatsView) UpdateSpinner(msg spinner.TickMsg) tea.Cmd {
	if !s.loading {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// ScrollUp scrolls the viewport up.
func (s *StatsView) ScrollUp() {
	s.viewport.ScrollUp(1)
}

// ScrollDown scrolls the viewport down.
func (s *StatsView) ScrollDown() {
	s.viewport.ScrollDown(1)
}

// PageUp scrolls half a page up.
func (s *StatsView) PageUp() {
	s.viewport.HalfViewUp()
}

// PageDown scrolls half a page down.
func (s *StatsView) PageDown() {
	s.viewport.HalfViewDown()
}

func (s *StatsView) refresh() {
	s.viewport.SetContent(s.content())
}

func (s *StatsView) content() string {
	if s.stats == nil {
		return hintStyle.Render("Loading...")
	}
	switch s.tab {
	case tabStreak:
		return RenderStreak(s.stats.Streak)
	case tabFlow:
		return RenderCFD(s.stats.CFD, s.width)
	case tabHistory:
		return RenderHistory(s.stats.Completed, s.width)
	default:
		return RenderSummary(s.stats.Summary)
	}
}

// View renders the stats view.
func (s *StatsView) View() string {
	if s.loading && s.stats == nil {
		return s.spinner.View() + " " + hintStyle.Render("Loading...")
	}
	return s.viewport.View()
}

// SpinnerView returns the spinner frame while loading, or "".
func (s *StatsView) SpinnerView() string {
	if !s.loading {
		return ""
	}
	return s.spinner.View()
}
