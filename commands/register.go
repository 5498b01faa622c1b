package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/taskboard-client/api"
)

func registerCommand(newApp func() (*App, error)) *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new tenant with its admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			resp, err := app.Session.Register(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tenant %q created. Log in with 'taskboard login -t %s -e %s'\n",
				resp.Tenant.Name, resp.Tenant.Subdomain, req.AdminEmail)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Tenant display name")
	cmd.Flags().StringVar(&req.Subdomain, "subdomain", "", "Tenant subdomain, e.g. acme")
	cmd.Flags().StringVar(&req.AdminEmail, "email", "", "Admin email")
	cmd.Flags().StringVar(&req.AdminPassword, "password", "", "Admin password")
	cmd.Flags().StringVar(&req.AdminFirstName, "first-name", "", "Admin first name")
	cmd.Flags().StringVar(&req.AdminLastName, "last-name", "", "Admin last name")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("subdomain")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
