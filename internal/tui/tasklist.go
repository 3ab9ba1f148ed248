package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ontrack-io/ontrack/internal/models"
)

// TaskList is the task list component for the left panel.
type TaskList struct {
	tasks         []*models.Task
	flatItems     []taskItem // Flattened list for cursor navigation
	cursor        int
	scrollOffset  int
	height        int
	today         models.Date
	showCompleted bool
}

type taskItem struct {
	task      *models.Task
	isHeader  bool
	headerStr string
}

// NewTaskList creates a new task list.
func NewTaskList() *TaskList {
	return &TaskList{}
}

// SetTasks updates the task list data and rebuilds the flat item list.
// today decides which open tasks are overdue.
func (tl *TaskList) SetTasks(tasks []*models.Task, today models.Date) {
	var selectedID string
	if t := tl.SelectedTask(); t != nil {
		selectedID = t.ID
	}

	tl.tasks = tasks
	tl.today = today
	tl.rebuild()
	tl.reselect(selectedID)
}

// ToggleCompleted shows or hides completed tasks.
func (tl *TaskList) ToggleCompleted() {
	var selectedID string
	if t := tl.SelectedTask(); t != nil {
		selectedID = t.ID
	}
	tl.showCompleted = !tl.showCompleted
	tl.rebuild()
	tl.reselect(selectedID)
}

// ShowingCompleted reports whether completed tasks are listed.
func (tl *TaskList) ShowingCompleted() bool {
	return tl.showCompleted
}

func (tl *TaskList) reselect(id string) {
	if id != "" {
		for i, item := range tl.flatItems {
			if !item.isHeader && item.task.ID == id {
				tl.cursor = i
				tl.ensureVisible()
				return
			}
		}
	}
	if tl.cursor >= len(tl.flatItems) {
		tl.cursor = len(tl.flatItems) - 1
	}
	if tl.cursor < 0 {
		tl.cursor = 0
	}
	tl.skipHeaders(1)
	tl.ensureVisible()
}

// SetHeight sets the visible height.
func (tl *TaskList) SetHeight(h int) {
	tl.height = h
}

// SelectedTask returns the currently selected task, or nil.
func (tl *TaskList) SelectedTask() *models.Task {
	if tl.cursor < 0 || tl.cursor >= len(tl.flatItems) {
		return nil
	}
	item := tl.flatItems[tl.cursor]
	if item.isHeader {
		return nil
	}
	return item.task
}

// MoveUp moves the cursor up, skipping headers.
func (tl *TaskList) MoveUp() {
	if len(tl.flatItems) == 0 {
		return
	}
	tl.cursor--
	if tl.cursor < 0 {
		tl.cursor = 0
	}
	tl.skipHeaders(-1)
	tl.ensureVisible()
}

// MoveDown moves the cursor down, skipping headers.
func (tl *TaskList) MoveDown() {
	if len(tl.flatItems) == 0 {
		return
	}
	tl.cursor++
	if tl.cursor >= len(tl.flatItems) {
		tl.cursor = len(tl.flatItems) - 1
	}
	tl.skipHeaders(1)
	tl.ensureVisible()
}

func (tl *TaskList) skipHeaders(direction int) {
	for tl.cursor >= 0 && tl.cursor < len(tl.flatItems) && tl.flatItems[tl.cursor].isHeader {
		tl.cursor += direction
	}
	if tl.cursor < 0 {
		tl.cursor = 0
		for tl.cursor < len(tl.flatItems) && tl.flatItems[tl.cursor].isHeader {
			tl.cursor++
		}
	}
	if tl.cursor >= len(tl.flatItems) {
		tl.cursor = len(tl.flatItems) - 1
		for tl.cursor >= 0 && tl.flatItems[tl.cursor].isHeader {
			tl.cursor--
		}
	}
}

func (tl *TaskList) ensureVisible() {
	if tl.height <= 0 {
		return
	}
	if tl.cursor < tl.scrollOffset {
		tl.scrollOffset = tl.cursor
	}
	if tl.cursor >= tl.scrollOffset+tl.height {
		tl.scrollOffset = tl.cursor - tl.height + 1
	}
}

func (tl *TaskList) rebuild() {
	var overdue, open, done []*models.Task
	for _, t := range tl.tasks {
		switch {
		case t.Completed:
			done = append(done, t)
		case t.DueDate.Before(tl.today):
			overdue = append(overdue, t)
		default:
			open = append(open, t)
		}
	}

	type section struct {
		name  string
		tasks []*models.Task
	}
	sections := []section{
		{"Overdue", overdue},
		{"Open", open},
	}
	if tl.showCompleted {
		sections = append(sections, section{"Completed", done})
	}

	var items []taskItem
	for _, sec := range sections {
		if len(sec.tasks) == 0 {
			continue
		}
		items = append(items, taskItem{
			isHeader:  true,
			headerStr: fmt.Sprintf("%s (%d)", sec.name, len(sec.tasks)),
		})
		for _, t := range sec.tasks {
			items = append(items, taskItem{task: t})
		}
	}

	tl.flatItems = items
}

// View renders the task list.
func (tl *TaskList) View(width int) string {
	if len(tl.flatItems) == 0 {
		return lipgloss.NewStyle().Foreground(colorDim).Render("No open tasks. Add one with 'ontrack task add'.")
	}

	var lines []string
	end := len(tl.flatItems)
	if tl.height > 0 && tl.scrollOffset+tl.height < end {
		end = tl.scrollOffset + tl.height
	}

	for i := tl.scrollOffset; i < end; i++ {
		item := tl.flatItems[i]

		if item.isHeader {
			line := sectionHeaderStyle.Render(item.headerStr)
			if i > 0 {
				line = "\n" + line
			}
			lines = append(lines, line)
			continue
		}

		t := item.task
		title := fmt.Sprintf("%s %s %s", tl.taskBadge(t), priorityStyle(string(t.Priority)).Render(string(t.Priority)), t.Name)
		if !t.Completed {
			title += hintStyle.Render(fmt.Sprintf("  %s", t.DueDate))
			if t.CompletionPercent > 0 {
				title += hintStyle.Render(fmt.Sprintf(" %d%%", t.CompletionPercent))
			}
		}

		// Truncate to fit panel width (2 for indent prefix)
		maxWidth := width - 2
		if maxWidth > 0 {
			title = ansi.Truncate(title, maxWidth, "…")
		}

		line := title
		if i == tl.cursor {
			line = selectedItemStyle.Width(width - 2).Render(title)
		}
		lines = append(lines, "  "+line)
	}

	// Scroll indicators
	if tl.scrollOffset > 0 {
		lines = append([]string{lipgloss.NewStyle().Foreground(colorDim).Render("  ▲ more")}, lines...)
	}
	if end < len(tl.flatItems) {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorDim).Render("  ▼ more"))
	}

	return strings.Join(lines, "\n")
}

func (tl *TaskList) taskBadge(t *models.Task) string {
	switch {
	case t.Completed:
		return taskDoneStyle.Render("[✓]")
	case t.DueDate.Before(tl.today):
		return taskOverdueStyle.Render("[!]")
	default:
		return taskOpenStyle.Render("[ ]")
	}
}
