package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	RunE:    runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	u, err := c.Me(ctx)
	cancel()
	if err != nil {
		return wrapAuth(err)
	}

	if err := tui.Run(c, u.Username); err != nil {
		if errors.Is(err, tui.ErrSessionExpired) {
			return fmt.Errorf("session expired. Run 'ontrack login' again")
		}
		return err
	}
	return nil
}
