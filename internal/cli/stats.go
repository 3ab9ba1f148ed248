package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ontrack-io/ontrack/internal/apiclient"
	"github.com/ontrack-io/ontrack/internal/tui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Completed tasks, on-time rate and average completion time",
	RunE:  runStats(showSummary),
}

var statsStreakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Consecutive days with an on-time completion",
	RunE:  runStats(showStreak),
}

var statsCFDCmd = &cobra.Command{
	Use:     "cfd",
	Aliases: []string{"flow"},
	Short:   "Daily backlog, in-progress and done counts",
	RunE:    runStats(showCFD),
}

var statsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Completed tasks, most recent first",
	RunE:  runStats(showHistory),
}

var statsFlags struct {
	days int
	json bool
}

func init() {
	for _, c := range []*cobra.Command{statsSummaryCmd, statsCFDCmd, statsHistoryCmd} {
		c.Flags().IntVarP(&statsFlags.days, "days", "d", 0, "window in days (default: server default)")
	}
	statsCmd.PersistentFlags().BoolVar(&statsFlags.json, "json", false, "print the raw JSON response")

	statsCmd.AddCommand(statsCFDCmd)
	statsCmd.AddCommand(statsHistoryCmd)
	statsCmd.AddCommand(statsStreakCmd)
	statsCmd.AddCommand(statsSummaryCmd)
}

type statsFunc func(c *apiclient.Client) (any, func(width int) string, error)

func runStats(fn statsFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("days") && statsFlags.days <= 0 {
			return fmt.Errorf("--days must be a positive number of days")
		}
		c, err := loggedInClient()
		if err != nil {
			return err
		}

		data, render, err := fn(c)
		if err != nil {
			return wrapAuth(err)
		}
		if statsFlags.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}
		fmt.Println(render(terminalWidth()))
		return nil
	}
}

func showSummary(c *apiclient.Client) (any, func(int) string, error) {
	ctx, cancel := requestContext()
	defer cancel()
	s, err := c.Summary(ctx, statsFlags.days)
	return s, func(int) string { return tui.RenderSummary(s) }, err
}

func showStreak(c *apiclient.Client) (any, func(int) string, error) {
	ctx, cancel := requestContext()
	defer cancel()
	s, err := c.Streak(ctx)
	return s, func(int) string { return tui.RenderStreak(s) }, err
}

func showCFD(c *apiclient.Client) (any, func(int) string, error) {
	ctx, cancel := requestContext()
	defer cancel()
	buckets, err := c.CFD(ctx, statsFlags.days)
	return buckets, func(w int) string { return tui.RenderCFD(buckets, w) }, err
}

func showHistory(c *apiclient.Client) (any, func(int) string, error) {
	ctx, cancel := requestContext()
	defer cancel()
	tasks, err := c.CompletedTasks(ctx, statsFlags.days)
	return tasks, func(w int) string { return tui.RenderHistory(tasks, w) }, err
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
