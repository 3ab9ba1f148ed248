package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/apiclient"
	"github.com/ontrack-io/ontrack/internal/models"
)

const shortIDLen = 8

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Manage the logged-in user's tasks. Tasks can be referenced by an ID prefix.`,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE:    runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setCompleted(args[0], true) },
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo [task-id]",
	Short: "Mark a task not completed",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setCompleted(args[0], false) },
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

var taskFlags struct {
	name     string
	due      string
	priority string
	items    []string
	percent  int
	all      bool
}

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringVar(&taskFlags.name, "name", "", "task name")
		c.Flags().StringVar(&taskFlags.due, "due", "", "due date (YYYY-MM-DD)")
		c.Flags().StringVarP(&taskFlags.priority, "priority", "p", "", "priority: P1, P2 or P3")
		c.Flags().StringArrayVarP(&taskFlags.items, "item", "i", nil, "actionable item (repeatable)")
		c.Flags().IntVar(&taskFlags.percent, "percent", 0, "completion percent (0-100)")
	}
	taskListCmd.Flags().BoolVarP(&taskFlags.all, "all", "a", false, "include completed tasks")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskUndoCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return wrapAuth(err)
	}

	open, done := splitByCompletion(tasks)
	if len(open) == 0 && (!taskFlags.all || len(done) == 0) {
		fmt.Println("No open tasks. Run 'ontrack task add' to create one.")
		return nil
	}

	today := models.DateOf(time.Now())
	printTaskGroup("Open", open, today)
	if taskFlags.all {
		printTaskGroup("Completed", done, today)
	}
	return nil
}

func splitByCompletion(tasks []*models.Task) (open, done []*models.Task) {
	for _, t := range tasks {
		if t.Completed {
			done = append(done, t)
		} else {
			open = append(open, t)
		}
	}
	return open, done
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	name := taskFlags.name
	if name == "" {
		name = prompt(reader, "Name: ")
	}
	due := taskFlags.due
	if due == "" {
		due = prompt(reader, "Due date (YYYY-MM-DD): ")
	}
	priority := strings.ToUpper(taskFlags.priority)
	if priority == "" {
		priority = strings.ToUpper(prompt(reader, "Priority [P1/P2/P3] (default: P2): "))
		if priority == "" {
			priority = string(models.PriorityP2)
		}
	}
	items := taskFlags.items
	if len(items) == 0 {
		items = splitItems(prompt(reader, "Actionable items (separate with ';'): "))
	}

	ctx, cancel := requestContext()
	defer cancel()
	t, err := c.CreateTask(ctx, apiclient.CreateTaskRequest{
		Name:              name,
		DueDate:           due,
		Priority:          priority,
		ActionableItems:   items,
		CompletionPercent: taskFlags.percent,
	})
	if err != nil {
		return wrapAuth(err)
	}

	fmt.Printf("\nTask %s created.\n", styleCommand.Render(shortID(t.ID)))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	t, err := findTask(ctx, c, args[0])
	if err != nil {
		return err
	}

	var patch apiclient.TaskPatch
	flags := cmd.Flags()
	if !anyChanged(cmd, "name", "due", "priority", "item", "percent") {
		patch = promptPatch(bufio.NewReader(os.Stdin), t)
	} else {
		if flags.Changed("name") {
			patch.Name = &taskFlags.name
		}
		if flags.Changed("due") {
			patch.DueDate = &taskFlags.due
		}
		if flags.Changed("priority") {
			p := strings.ToUpper(taskFlags.priority)
			patch.Priority = &p
		}
		if flags.Changed("item") {
			patch.ActionableItems = &taskFlags.items
		}
		if flags.Changed("percent") {
			patch.CompletionPercent = &taskFlags.percent
		}
	}

	if _, err := c.UpdateTask(ctx, t.ID, patch); err != nil {
		return wrapAuth(err)
	}
	fmt.Printf("Task %s updated.\n", shortID(t.ID))
	return nil
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// promptPatch asks for each field, keeping the current value on Enter.
func promptPatch(reader *bufio.Reader, t *models.Task) apiclient.TaskPatch {
	var patch apiclient.TaskPatch

	if name := prompt(reader, fmt.Sprintf("Name [%s]: ", truncate(t.Name, 50))); name != "" {
		patch.Name = &name
	}
	if due := prompt(reader, fmt.Sprintf("Due date [%s]: ", t.DueDate)); due != "" {
		patch.DueDate = &due
	}
	if p := strings.ToUpper(prompt(reader, fmt.Sprintf("Priority [%s]: ", t.Priority))); p != "" {
		patch.Priority = &p
	}
	current := strings.Join(t.ActionableItems, "; ")
	if raw := prompt(reader, fmt.Sprintf("Actionable items [%s]: ", truncate(current, 50))); raw != "" {
		items := splitItems(raw)
		patch.ActionableItems = &items
	}
	if raw := prompt(reader, fmt.Sprintf("Completion percent [%d]: ", t.CompletionPercent)); raw != "" {
		var pct int
		if _, err := fmt.Sscanf(raw, "%d", &pct); err == nil {
			patch.CompletionPercent = &pct
		}
	}
	return patch
}

func setCompleted(ref string, done bool) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	t, err := findTask(ctx, c, ref)
	if err != nil {
		return err
	}
	updated, err := c.UpdateTask(ctx, t.ID, apiclient.TaskPatch{Completed: &done})
	if err != nil {
		return wrapAuth(err)
	}

	if !done {
		fmt.Printf("Task %s reopened.\n", shortID(t.ID))
		return nil
	}
	label := badgeDone.Render("on time")
	if at := updated.CompletedAt; at != nil && models.DateOf(at.In(time.Local)).After(updated.DueDate) {
		label = badgeLate.Render("late")
	}
	fmt.Printf("Task %s completed (%s).\n", shortID(t.ID), label)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	t, err := findTask(ctx, c, args[0])
	if err != nil {
		return err
	}
	if err := c.DeleteTask(ctx, t.ID); err != nil {
		return wrapAuth(err)
	}
	fmt.Printf("Task %s deleted.\n", shortID(t.ID))
	return nil
}

func findTask(ctx context.Context, c *apiclient.Client, ref string) (*models.Task, error) {
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return nil, wrapAuth(err)
	}
	return resolveTask(tasks, ref)
}

// resolveTask finds the single task whose ID starts with ref.
func resolveTask(tasks []*models.Task, ref string) (*models.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("task id is required")
	}

	var match *models.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no task matches %q", ref)
	}
	return match, nil
}

func printTaskGroup(name string, tasks []*models.Task, today models.Date) {
	if len(tasks) == 0 {
		return
	}

	fmt.Printf("\n%s (%d):\n", name, len(tasks))
	for _, t := range tasks {
		status := styleHint.Render(dueLabel(t.DueDate, today))
		if t.Completed {
			status = badgeDone.Render("✓")
		} else if t.CompletionPercent > 0 {
			status += styleHint.Render(fmt.Sprintf(" · %d%%", t.CompletionPercent))
		}
		fmt.Printf("  %s  %s  %s  %s\n", styleLabel.Render(shortID(t.ID)), priorityBadge(t.Priority), t.Name, status)
	}
}

// dueLabel describes a due date relative to today.
func dueLabel(due, today models.Date) string {
	switch n := due.DaysSince(today); {
	case n == 0:
		return "due today"
	case n == 1:
		return "due tomorrow"
	case n > 1:
		return fmt.Sprintf("due in %dd", n)
	case n == -1:
		return "overdue 1d"
	default:
		return fmt.Sprintf("overdue %dd", -n)
	}
}

// splitItems splits a ';' separated list, dropping blanks.
func splitItems(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
