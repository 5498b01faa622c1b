package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func loginCommand(newApp func() (*App, error)) *cobra.Command {
	var (
		email    string
		password string
		tenant   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against a tenant and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.Session.Login(cmd.Context(), email, password, tenant); err != nil {
				return describeError(err)
			}
			user := app.Session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %q as %s (%s)\n", tenant, user.FullName(), user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Tenant subdomain, e.g. acme")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("tenant")
	return cmd
}
