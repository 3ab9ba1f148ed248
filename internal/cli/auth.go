package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ontrack-io/ontrack/internal/apiclient"
	"github.com/ontrack-io/ontrack/internal/config"
)

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account and log in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func runRegister(cmd *cobra.Command, args []string) error {
	return authenticate(args, func(c *apiclient.Client, username, password string) (*apiclient.User, error) {
		ctx, cancel := requestContext()
		defer cancel()
		return c.Register(ctx, username, password)
	}, "Account created")
}

func runLogin(cmd *cobra.Command, args []string) error {
	return authenticate(args, func(c *apiclient.Client, username, password string) (*apiclient.User, error) {
		ctx, cancel := requestContext()
		defer cancel()
		return c.Login(ctx, username, password)
	}, "Logged in")
}

func authenticate(args []string, do func(*apiclient.Client, string, string) (*apiclient.User, error), done string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		username, _ = reader.ReadString('\n')
	}
	username = strings.TrimSpace(username)

	password, err := readPassword(reader, "Password: ")
	if err != nil {
		return err
	}

	u, err := do(c, username, password)
	if err != nil {
		return err
	}
	if err := saveLogin(c, u); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("%s as %s.\n", styleSuccess.Render(done), styleValue.Render(u.Username))
	return nil
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	saved, err := config.LoadClientSession()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if saved == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	c := apiclient.New(saved.ServerURL, saved.Cookie)
	ctx, cancel := requestContext()
	defer cancel()
	if err := c.Logout(ctx); err != nil {
		fmt.Println(styleWarning.Render("Warning:"), "daemon did not confirm logout:", err)
	}

	if err := config.RemoveClientSession(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, err := loggedInClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	u, err := c.Me(ctx)
	if err != nil {
		return wrapAuth(err)
	}
	fmt.Printf("%s %s\n", styleLabel.Render("User:"), styleValue.Render(u.Username))
	fmt.Printf("%s %s\n", styleLabel.Render("ID:  "), u.ID)
	fmt.Printf("%s %s\n", styleLabel.Render("URL: "), c.BaseURL())
	return nil
}
