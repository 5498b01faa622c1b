package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCommand(newApp func() (*App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			user := app.Session.CurrentUser()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:  %s\n", user.FullName())
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			fmt.Fprintf(out, "Role:  %s\n", user.Role)
			return nil
		},
	}
}
