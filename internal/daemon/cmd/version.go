package cmd

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/buildinfo"
)

// Styles for daemon version output (matching CLI styles).
var (
	dStyleBrand   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "24", Dark: "39"})
	dStyleVersion = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "40"})
	dStyleLabel   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	dStyleValue   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
)

var daemonVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("  %s %s %s\n",
			dStyleBrand.Render("ontrackd"),
			dStyleVersion.Render(buildinfo.Version),
			dStyleLabel.Render("("+buildinfo.Codename+")"),
		)
		row := func(label, value string) {
			fmt.Printf("    %s %s\n", dStyleLabel.Render(fmt.Sprintf("%-8s", label)), dStyleValue.Render(value))
		}
		row("Commit", buildinfo.CommitHash)
		row("Built", buildinfo.BuildDate)
		row("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
		row("Go", runtime.Version())
		row("Stores", "file, sqlite, postgres")
	},
}

func init() {
	rootCmd.AddCommand(daemonVersionCmd)
}
