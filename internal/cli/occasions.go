package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"momento/internal/api"
	"momento/internal/service"
)

func newOccasionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occasions",
		Short: "List your occasions by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := app.occasions.List(cmd.Context(), client, user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, list, formatOccasions(list))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <person> <type> <YYYY-MM-DD>",
		Short: "Create an occasion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse("2006-01-02", args[2])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[2]))
			}
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := app.occasions.Create(cmd.Context(), client, user, args[0], args[1], date)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"occasion": id}, "Created "+mutedStyle.Render(id))
		},
	})

	cmd.AddCommand(newOccasionEditCmd(app))
	cmd.AddCommand(newOccasionExportCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:     "rm <occasion-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an occasion you own",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := app.occasions.Delete(cmd.Context(), client, user, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"occasion": args[0]}, "Occasion deleted.")
		},
	})

	return cmd
}

func newOccasionEditCmd(app *App) *cobra.Command {
	var person, kind, date string

	cmd := &cobra.Command{
		Use:   "edit <occasion-id>",
		Short: "Change person, type or date of an occasion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in api.OccasionUpdate
			if cmd.Flags().Changed("person") {
				in.Person = &person
			}
			if cmd.Flags().Changed("type") {
				in.OccasionType = &kind
			}
			if cmd.Flags().Changed("date") {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return writeErr(cmd, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date))
				}
				in.Date = &d
			}
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := app.occasions.Update(cmd.Context(), client, user, args[0], in); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"occasion": args[0]}, "Occasion updated.")
		},
	}

	cmd.Flags().StringVar(&person, "person", "", "Person the occasion is for")
	cmd.Flags().StringVar(&kind, "type", "", "Occasion type, e.g. birthday")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD")
	return cmd
}

func newOccasionExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write your occasions as an iCalendar (.ics) feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := app.occasions.List(cmd.Context(), client, user)
			if err != nil {
				return writeErr(cmd, err)
			}
			feed := service.Calendar(list, time.Now())
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), feed)
				return err
			}
			if err := os.WriteFile(out, []byte(feed), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d occasion(s) to %s\n", len(list), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newOccasionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occasion",
		Short: "Work with a single occasion",
	}

	var pending bool
	show := &cobra.Command{
		Use:   "show <occasion-id>",
		Short: "Show owner, collaborators and checklist of an occasion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.openView(cmd.Context(), args[0], pending)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, viewJSON(view), formatView(view))
		},
	}
	show.Flags().BoolVar(&pending, "pending", true, "Include invites you sent that are still pending")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-collaborator <occasion-id> <username>",
		Short: "Revoke a collaborator's access to an occasion you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := app.occasions.RemoveCollaborator(cmd.Context(), client, user, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"occasion": args[0], "removed": args[1]}, "Removed "+args[1]+".")
		},
	})

	return cmd
}

// viewPayload is the --json shape of an occasion view.
type viewPayload struct {
	OccasionID    string                 `json:"occasionId"`
	OwnerID       string                 `json:"ownerId,omitempty"`
	IsOwner       bool                   `json:"isOwner"`
	State         string                 `json:"state"`
	Source        string                 `json:"source,omitempty"`
	Occasion      any                    `json:"occasion,omitempty"`
	Collaborators []service.Collaborator `json:"collaborators"`
	Tasks         []service.TaskItem     `json:"tasks"`
}

func viewJSON(view *service.OccasionView) viewPayload {
	own := view.Ownership
	p := viewPayload{
		OccasionID:    own.OccasionID,
		OwnerID:       own.OwnerID,
		IsOwner:       own.IsCurrentUserOwner,
		State:         own.State.String(),
		Source:        string(own.Source),
		Collaborators: view.Collaborators,
		Tasks:         view.Workspace.Tasks(),
	}
	if view.Occasion != nil {
		p.Occasion = view.Occasion
	}
	return p
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks <occasion-id>",
		Short: "List the shared checklist of an occasion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.openView(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks := view.Workspace.Tasks()
			return writeOut(cmd, app, tasks, formatTasks(tasks))
		},
	}

	var priority string
	add := &cobra.Command{
		Use:   "add <occasion-id> <description>",
		Short: "Add a task to the owner's checklist",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.openView(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := view.Workspace.AddTask(cmd.Context(), service.TaskInput{Description: strings.Join(args[1:], " "), Priority: priority})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, item, "Added "+mutedStyle.Render(item.ID))
		},
	}
	add.Flags().StringVar(&priority, "priority", "", "high|medium|low (default medium)")
	cmd.AddCommand(add)

	cmd.AddCommand(newTaskActionCmd(app, "done <occasion-id> <n>", "Toggle completion of task n", 2,
		func(ctx context.Context, ws *service.Workspace, task service.TaskItem, _ []string) (string, error) {
			completed, err := ws.ToggleTask(ctx, task.ID)
			if err != nil {
				return "", err
			}
			if completed {
				return "Done: " + task.Description, nil
			}
			return "Reopened: " + task.Description, nil
		}))
	cmd.AddCommand(newTaskActionCmd(app, "rename <occasion-id> <n> <description>", "Rename task n", 3,
		func(ctx context.Context, ws *service.Workspace, task service.TaskItem, rest []string) (string, error) {
			if err := ws.RenameTask(ctx, task.ID, strings.Join(rest, " ")); err != nil {
				return "", err
			}
			return "Renamed.", nil
		}))
	cmd.AddCommand(newTaskActionCmd(app, "rm <occasion-id> <n>", "Delete task n", 2,
		func(ctx context.Context, ws *service.Workspace, task service.TaskItem, _ []string) (string, error) {
			if err := ws.RemoveTask(ctx, task.ID); err != nil {
				return "", err
			}
			return "Deleted: " + task.Description, nil
		}))
	cmd.AddCommand(newTaskActionCmd(app, "priority <occasion-id> <n> <high|medium|low>", "Set the local priority of task n", 3,
		func(ctx context.Context, ws *service.Workspace, task service.TaskItem, rest []string) (string, error) {
			if err := ws.SetPriority(ctx, task.ID, strings.ToLower(rest[0])); err != nil {
				return "", err
			}
			return "Priority set.", nil
		}))

	return cmd
}

type taskAction func(ctx context.Context, ws *service.Workspace, task service.TaskItem, rest []string) (string, error)

// newTaskActionCmd opens the occasion, picks task n and runs fn on it. The
// refreshed checklist is printed afterwards.
func newTaskActionCmd(app *App, use, short string, minArgs int, fn taskAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.openView(cmd.Context(), args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			task, err := taskAt(view.Workspace.Tasks(), args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := fn(cmd.Context(), view.Workspace, task, args[2:])
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks := view.Workspace.Tasks()
			return writeOut(cmd, app, tasks, msg+"\n\n"+formatTasks(tasks))
		},
	}
}

// taskAt returns the task at a 1-based position.
func taskAt(tasks []service.TaskItem, raw string) (service.TaskItem, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return service.TaskItem{}, fmt.Errorf("task number expected, got %q", raw)
	}
	if n < 1 || n > len(tasks) {
		return service.TaskItem{}, service.ErrTaskNotFound
	}
	return tasks[n-1], nil
}

// openView resolves ownership afresh and loads the occasion view.
func (a *App) openView(ctx context.Context, occasionID string, pending bool) (*service.OccasionView, error) {
	user, client, err := a.current(ctx)
	if err != nil {
		return nil, err
	}
	return a.occasions.Open(ctx, client, user, occasionID, service.BuildOptions{IncludePending: pending})
}
