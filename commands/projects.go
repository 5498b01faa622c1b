package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/taskboard-client/api"
	"github.com/jrsteele09/taskboard-client/users"
)

func projectsCommand(newApp func() (*App, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectsListCommand(newApp), projectsCreateCommand(newApp))
	return cmd
}

func projectsListCommand(newApp func() (*App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects you own or belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			projects, err := app.API.Projects.List(cmd.Context())
			if err != nil {
				return describeError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.Description)
			}
			return w.Flush()
		},
	}
}

func projectsCreateCommand(newApp func() (*App, error)) *cobra.Command {
	var params api.CreateProjectParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project (managers and admins only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			if !app.Session.Authorize(users.RoleManager) {
				return fmt.Errorf("creating projects requires the %s role", users.RoleManager)
			}
			project, err := app.API.Projects.Create(cmd.Context(), params)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %q (id %d)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&params.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&params.Color, "color", "", "Board color")
	cmd.MarkFlagRequired("name")
	return cmd
}
