package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ontrack-io/ontrack/internal/analytics"
)

// RenderSummary formats a completion summary as a label/value block.
func RenderSummary(s *analytics.Summary) string {
	if s == nil {
		return hintStyle.Render("No data.")
	}
	rows := [][2]string{
		{"Window", fmt.Sprintf("last %d days", s.TimeWindowDays)},
		{"Completed", fmt.Sprintf("%d", s.TotalCompleted)},
		{"On time", fmt.Sprintf("%d (%s)", s.CompletedOnTime, percent(s.OnTimeRate))},
		{"Avg completion", FormatDuration(s.AvgCompletionDays)},
		{"This week", fmt.Sprintf("%d", s.TasksCompletedThisWeek)},
	}

	lines := make([]string, 0, len(rows)+2)
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
	if s.TotalCompleted > 0 {
		lines = append(lines, "", rateBar(s.OnTimeRate, 30))
	}
	return strings.Join(lines, "\n")
}

// FormatDuration renders a day count as "2d 3h", "5h 10m" or "12m".
func FormatDuration(days float64) string {
	minutes := int(math.Round(days * 24 * 60))
	d, h, m := minutes/(24*60), (minutes/60)%24, minutes%60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func rateBar(rate float64, width int) string {
	filled := int(math.Round(rate * float64(width)))
	if filled > width {
		filled = width
	}
	return onTimeStyle.Render(strings.Repeat("█", filled)) +
		lateStyle.Render(strings.Repeat("░", width-filled)) +
		" " + percent(rate) + " on time"
}

// RenderStreak formats the on-time streak.
func RenderStreak(s *analytics.StreakResult) string {
	if s == nil {
		return hintStyle.Render("No data.")
	}
	unit := "days"
	if s.StreakDays == 1 {
		unit = "day"
	}
	count := streakStyle.Render(fmt.Sprintf("%d %s", s.StreakDays, unit))
	if !s.HasActiveStreak {
		return count + "\n" + hintStyle.Render("No active streak. Finish a task on time to start one.")
	}
	return count + "\n" + onTimeStyle.Render("Streak is active.")
}

// RenderCFD draws one stacked bar per day: done, in progress, backlog.
func RenderCFD(buckets []analytics.Bucket, width int) string {
	if len(buckets) == 0 {
		return hintStyle.Render("No data.")
	}

	maxTotal := 0
	for _, b := range buckets {
		if t := b.Total(); t > maxTotal {
			maxTotal = t
		}
	}

	// date (10) + space + bar + space + counts
	countsWidth := len(fmt.Sprintf(" %d/%d/%d", maxTotal, maxTotal, maxTotal))
	barWidth := width - 11 - countsWidth
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(buckets)+2)
	lines = append(lines, legend())
	for _, b := range buckets {
		done, prog, back := scale(b, maxTotal, barWidth)
		bar := onTimeStyle.Render(strings.Repeat("█", done)) +
			progressStyle.Render(strings.Repeat("▓", prog)) +
			backlogStyle.Render(strings.Repeat("░", back))
		pad := strings.Repeat(" ", barWidth-done-prog-back)
		counts := hintStyle.Render(fmt.Sprintf(" %d/%d/%d", b.Done, b.InProgress, b.Backlog))
		lines = append(lines, labelDateStyle.Render(b.Date.String())+" "+bar+pad+counts)
	}
	return strings.Join(lines, "\n")
}

func legend() string {
	return onTimeStyle.Render("█ done") + "  " +
		progressStyle.Render("▓ in progress") + "  " +
		backlogStyle.Render("░ backlog")
}

// scale maps a bucket's counts onto width cells, keeping non-zero
// segments visible.
func scale(b analytics.Bucket, maxTotal, width int) (done, prog, back int) {
	if maxTotal == 0 {
		return 0, 0, 0
	}
	cells := func(n int) int {
		if n == 0 {
			return 0
		}
		c := n * width / maxTotal
		if c == 0 {
			c = 1
		}
		return c
	}
	done, prog, back = cells(b.Done), cells(b.InProgress), cells(b.Backlog)
	for done+prog+back > width {
		switch {
		case back > 1:
			back--
		case prog > 1:
			prog--
		default:
			done--
		}
	}
	return done, prog, back
}

// RenderHistory lists completed tasks, most recent first.
func RenderHistory(tasks []analytics.CompletedTask, width int) string {
	if len(tasks) == 0 {
		return hintStyle.Render("No completed tasks in this window.")
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		mark := onTimeStyle.Render("✓")
		if !t.OnTime {
			mark = lateStyle.Render("✗")
		}
		when := labelDateStyle.Render(t.CompletedAt.Format("2006-01-02 15:04"))
		due := hintStyle.Render("due " + t.DueDate.String())
		name := t.Name
		room := width - lipgloss.Width(when) - lipgloss.Width(due) - 10
		if room > 3 && len([]rune(name)) > room {
			name = string([]rune(name)[:room-1]) + "…"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s  %s", when, mark, priorityStyle(string(t.Priority)).Render(string(t.Priority)), name, due))
	}
	return strings.Join(lines, "\n")
}

// relativeAge renders how long ago t was, for the status bar.
func relativeAge(t, now time.Time) string {
	d := now.Sub(t).Truncate(time.Second)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
