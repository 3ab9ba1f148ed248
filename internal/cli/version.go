package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/buildinfo"
	"github.com/ontrack-io/ontrack/internal/updater"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%s %s (%s)\n", styleBrand.Render("OnTrack"), styleVersion.Render(buildinfo.Version), buildinfo.Codename)
		fmt.Printf("  %s %s\n", styleLabel.Render("Commit: "), buildinfo.CommitHash)
		fmt.Printf("  %s %s\n", styleLabel.Render("Built:  "), buildinfo.BuildDate)
		fmt.Printf("  %s %s/%s\n", styleLabel.Render("OS/Arch:"), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  %s %s\n", styleLabel.Render("Go:     "), runtime.Version())

		if !versionCheck {
			return nil
		}

		ctx, cancel := requestContext()
		defer cancel()
		result, err := updater.NewChecker().Check(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}
		fmt.Println()
		if result.Available {
			fmt.Printf("%s v%s → v%s\n", styleWarning.Render("Update available:"), result.CurrentVersion, result.LatestVersion)
			fmt.Printf("  %s\n", styleHint.Render(result.ReleaseURL))
		} else {
			fmt.Println(styleSuccess.Render("Up to date."))
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}
