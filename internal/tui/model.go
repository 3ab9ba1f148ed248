package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/models"
)

// windowChoices are the rolling windows cycled with the window key.
var windowChoices = []int{7, analytics.DefaultSummaryDays, 90, analytics.DefaultCompletedDays}

// Model is the root Bubbletea model for the dashboard.
type Model struct {
	client   Client
	username string
	now      func() time.Time

	// UI state
	focusedPanel int // 0=tasks, 1=analytics
	days         int
	splitRatio   float64
	width        int
	height       int
	showHelp     bool

	// Confirm mode
	confirmMode int
	confirmTask *models.Task

	// Status display
	err         error
	showSaved   bool
	lastRefresh time.Time
	quitting    bool
	loggedOut   bool

	// Child components
	taskList  *TaskList
	statsView *StatsView
}

// NewModel creates the initial dashboard model.
func NewModel(client Client, username string, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		client:       client,
		username:     username,
		now:          now,
		focusedPanel: 1,
		days:         analytics.DefaultSummaryDays,
		splitRatio:   0.4,
		taskList:     NewTaskList(),
		statsView:    NewStatsView(),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadTasksCmd(m.client),
		loadStatsCmd(m.client, m.days),
		m.statsView.StartLoading(),
		refreshTick(),
	)
}

// LoggedOut reports whether the dashboard exited because the session expired.
func (m Model) LoggedOut() bool {
	return m.loggedOut
}

func (m *Model) today() models.Date {
	return models.DateOf(m.now())
}

func (m *Model) refresh() tea.Cmd {
	return tea.Batch(
		loadTasksCmd(m.client),
		loadStatsCmd(m.client, m.days),
		m.statsView.StartLoading(),
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		return m, m.statsView.UpdateSpinner(msg)

	case TasksLoadedMsg:
		m.taskList.SetTasks(msg.Tasks, m.today())
		return m, nil

	case StatsLoadedMsg:
		if msg.Days != m.days {
			// A response for a window the user already moved away from.
			return m, nil
		}
		m.statsView.SetStats(msg)
		m.lastRefresh = m.now()
		return m, nil

	case TaskSavedMsg:
		m.showSaved = true
		return m, tea.Batch(m.refresh(), clearSavedAfter(2*time.Second))

	case TaskDeletedMsg:
		m.confirmMode = confirmNone
		m.confirmTask = nil
		return m, m.refresh()

	case TickMsg:
		return m, tea.Batch(m.refresh(), refreshTick())

	case UnauthorizedMsg:
		m.loggedOut = true
		m.quitting = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.statsView.StopLoading()
		return m, clearErrorAfter(5 * time.Second)

	case ClearErrorMsg:
		m.err = nil
		return m, nil

	case ClearSavedMsg:
		m.showSaved = false
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmMode == confirmDelete {
		switch {
		case key.Matches(msg, confirmKeys.Yes):
			t := m.confirmTask
			m.confirmMode = confirmNone
			m.confirmTask = nil
			if t != nil {
				return deleteTaskCmd(m.client, t.ID)
			}
		case key.Matches(msg, confirmKeys.No), key.Matches(msg, confirmKeys.Cancel):
			m.confirmMode = confirmNone
			m.confirmTask = nil
		}
		return nil
	}

	if m.showHelp {
		if key.Matches(msg, globalKeys.Help) || msg.String() == "esc" {
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, globalKeys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, globalKeys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, globalKeys.Tab):
		m.focusedPanel = 1 - m.focusedPanel
		return nil
	case key.Matches(msg, globalKeys.Refresh):
		return m.refresh()
	case key.Matches(msg, globalKeys.Window):
		m.days = nextWindow(m.days)
		return tea.Batch(loadStatsCmd(m.client, m.days), m.statsView.StartLoading())
	case key.Matches(msg, tabSwitchKeys.Tab1):
		m.statsView.SetTab(tabSummary)
		return nil
	case key.Matches(msg, tabSwitchKeys.Tab2):
		m.statsView.SetTab(tabStreak)
		return nil
	case key.Matches(msg, tabSwitchKeys.Tab3):
		m.statsView.SetTab(tabFlow)
		return nil
	case key.Matches(msg, tabSwitchKeys.Tab4):
		m.statsView.SetTab(tabHistory)
		return nil
	}

	if m.focusedPanel == 0 {
		return m.handleTaskListKey(msg)
	}
	return m.handleStatsKey(msg)
}

func (m *Model) handleTaskListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, taskListKeys.Up):
		m.taskList.MoveUp()
	case key.Matches(msg, taskListKeys.Down):
		m.taskList.MoveDown()
	case key.Matches(msg, taskListKeys.All):
		m.taskList.ToggleCompleted()
	case key.Matches(msg, taskListKeys.Done):
		if t := m.taskList.SelectedTask(); t != nil {
			return setCompletedCmd(m.client, t.ID, !t.Completed)
		}
	case key.Matches(msg, taskListKeys.Delete):
		if t := m.taskList.SelectedTask(); t != nil {
			m.confirmMode = confirmDelete
			m.confirmTask = t
		}
	}
	return nil
}

func (m *Model) handleStatsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, tabSwitchKeys.Left):
		m.statsView.SetTab(m.statsView.Tab() - 1)
	case key.Matches(msg, tabSwitchKeys.Right):
		m.statsView.SetTab(m.statsView.Tab() + 1)
	case key.Matches(msg, statsKeys.Up):
		m.statsView.ScrollUp()
	case key.Matches(msg, statsKeys.Down):
		m.statsView.ScrollDown()
	case key.Matches(msg, statsKeys.PageUp):
		m.statsView.PageUp()
	case key.Matches(msg, statsKeys.PageDown):
		m.statsView.PageDown()
	}
	return nil
}

// nextWindow returns the window after days in windowChoices.
func nextWindow(days int) int {
	for i, d := range windowChoices {
		if d == days {
			return windowChoices[(i+1)%len(windowChoices)]
		}
	}
	return windowChoices[0]
}

func (m *Model) updateDimensions() {
	layout := computeLayout(m.width, m.height, m.splitRatio)
	_, h := layout.innerSize(layout.leftWidth)
	m.taskList.SetHeight(h - 2) // room for scroll indicators
	m.statsView.SetSize(layout.innerSize(layout.rightWidth))
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	layout := computeLayout(m.width, m.height, m.splitRatio)
	leftWidth, _ := layout.innerSize(layout.leftWidth)

	view := lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.username, m.statsView.Tab(), m.days, m.statsView.SpinnerView(), m.width),
		renderPanels(m.taskList.View(leftWidth), m.statsView.View(), layout, m.focusedPanel),
		renderStatusBar(&m, m.width),
	)

	if m.showHelp {
		return renderOverlay(view, renderHelp(m.width), m.width, m.height)
	}
	return view
}
