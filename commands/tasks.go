package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/taskboard-client/api"
	"github.com/jrsteele09/taskboard-client/internal/utils"
)

func tasksCommand(newApp func() (*App, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	cmd.AddCommand(tasksListCommand(newApp), tasksCreateCommand(newApp), tasksMoveCommand(newApp), tasksDoneCommand(newApp))
	return cmd
}

func tasksListCommand(newApp func() (*App, error)) *cobra.Command {
	var listID int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a board list",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			tasks, err := app.API.Tasks.ByList(cmd.Context(), listID)
			if err != nil {
				return describeError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tDONE")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", t.ID, t.Title, t.Priority, t.Completed)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&listID, "list", 0, "List ID")
	cmd.MarkFlagRequired("list")
	return cmd
}

func tasksCreateCommand(newApp func() (*App, error)) *cobra.Command {
	var (
		listID int
		params api.CreateTaskParams
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in a board list",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			task, err := app.API.Tasks.Create(cmd.Context(), listID, params)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %q (id %d)\n", task.Title, task.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&listID, "list", 0, "List ID")
	cmd.Flags().StringVar(&params.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&params.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&params.Priority, "priority", "", "Priority (low, medium, high, urgent)")
	cmd.MarkFlagRequired("list")
	cmd.MarkFlagRequired("title")
	return cmd
}

func tasksMoveCommand(newApp func() (*App, error)) *cobra.Command {
	var (
		listID   int
		position int
	)

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to a position within a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			task, err := app.API.Tasks.Move(cmd.Context(), taskID, listID, position)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %q to list %d position %d\n", task.Title, task.ListID, task.Position)
			return nil
		},
	}

	cmd.Flags().IntVar(&listID, "list", 0, "Destination list ID")
	cmd.Flags().IntVar(&position, "position", 0, "Destination position (0-based)")
	cmd.MarkFlagRequired("list")
	return cmd
}

func tasksDoneCommand(newApp func() (*App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			task, err := app.API.Tasks.Update(cmd.Context(), taskID, api.UpdateTaskParams{Completed: utils.Ptr(true)})
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed task %q\n", task.Title)
			return nil
		},
	}
}
