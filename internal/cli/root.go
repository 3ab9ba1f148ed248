// Package cli implements the ontrack CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var serverFlag string

var rootCmd = &cobra.Command{
	Use:   "ontrack",
	Short: "Track personal tasks and how reliably you finish them",
	Long: `OnTrack keeps a personal task list with due dates and priorities and
reports completion statistics: on-time rate, streaks, cumulative flow and
completion history.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "daemon URL (defaults to the saved login or the local daemon)")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(whoamiCmd)
}
