package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"momento/internal/service"
)

func newPeopleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"pins"},
		Short:   "List your people, pinned first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			people, err := app.relationships.People(cmd.Context(), client, user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, people, formatPeople(people))
		},
	}

	cmd.AddCommand(newPeopleAddCmd(app))
	cmd.AddCommand(newPinCmd(app, true))
	cmd.AddCommand(newPinCmd(app, false))
	cmd.AddCommand(newPinMoveCmd(app))

	return cmd
}

func newPeopleAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [type]",
		Short: "Add a person (type defaults to friend)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			relType := ""
			if len(args) > 1 {
				relType = args[1]
			}
			id, err := app.relationships.Create(cmd.Context(), client, user, args[0], relType)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"relationship": id}, fmt.Sprintf("Added %s %s", titleStyle.Render(args[0]), mutedStyle.Render(id)))
		},
	}
}

func newPinCmd(app *App, pin bool) *cobra.Command {
	use, short := "pin <name-or-id>", "Pin a person to the top of the list"
	if !pin {
		use, short = "unpin <name-or-id>", "Remove a pin"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if pin {
				err = app.relationships.Pin(ctx, user, rel.ID)
			} else {
				err = app.relationships.Unpin(ctx, user, rel.ID)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			pins, err := app.relationships.Pins(ctx, user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, pins, fmt.Sprintf("%d pinned", len(pins)))
		},
	}
}

func newPinMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Reorder pins; positions are 1-based as listed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := positions(args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			pins, err := app.relationships.MovePin(cmd.Context(), client, user, from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, pins, "Pins reordered.")
		},
	}
}

// positions converts two 1-based positions to zero-based indexes.
func positions(from, to string) (int, int, error) {
	f, err := strconv.Atoi(from)
	if err != nil || f < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", from)
	}
	t, err := strconv.Atoi(to)
	if err != nil || t < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", to)
	}
	return f - 1, t - 1, nil
}

func newNotesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes <name-or-id>",
		Short: "List your notes about a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			notes, err := service.NewWorkspace(client, nil, nil, service.Self(user)).Notes(ctx, rel.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, notes, formatNotes(rel.Name, notes))
		},
	}

	cmd.AddCommand(newNoteAddCmd(app))
	cmd.AddCommand(newNoteEditCmd(app))
	cmd.AddCommand(newNoteDeleteCmd(app))

	return cmd
}

func newNoteAddCmd(app *App) *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "add <name-or-id> <title>",
		Short: "Write a note about a person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ws := service.NewWorkspace(client, nil, nil, service.Self(user))
			id, err := ws.AddNote(ctx, service.NoteInput{RelationshipID: rel.ID, Title: args[1], Content: content})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"note": id}, "Note saved "+mutedStyle.Render(id))
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Note text")
	return cmd
}

func newNoteEditCmd(app *App) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Change the title or text of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var titlePtr, contentPtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			if cmd.Flags().Changed("content") {
				contentPtr = &content
			}
			if titlePtr == nil && contentPtr == nil {
				return writeErr(cmd, fmt.Errorf("nothing to change, pass --title or --content"))
			}
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			ws := service.NewWorkspace(client, nil, nil, service.Self(user))
			if err := ws.EditNote(cmd.Context(), args[0], titlePtr, contentPtr); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"note": args[0]}, "Note updated.")
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New text")
	return cmd
}

func newNoteDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <note-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			ws := service.NewWorkspace(client, nil, nil, service.Self(user))
			if err := ws.DeleteNote(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"note": args[0]}, "Note deleted.")
		},
	}
}

func newIdeasCmd(app *App) *cobra.Command {
	var extra string

	cmd := &cobra.Command{
		Use:   "ideas [name-or-id]",
		Short: "Generate gift ideas for a person, or list past ideas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(args) == 0 {
				history, err := app.suggestions.History(ctx, client, user)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, history, formatSuggestions(history))
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := app.suggestions.SuggestFor(ctx, client, user, rel, extra)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, list, formatSuggestions(list))
		},
	}

	cmd.Flags().StringVar(&extra, "context", "", "Extra context for the suggestion engine")
	return cmd
}

func newGalleryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery <name-or-id>",
		Short: "List photos of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			images, err := app.gallery.Images(ctx, client, user, rel.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, images, formatImages(rel.Name, images))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <name-or-id> <file>",
		Short: "Upload a photo to a person's gallery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			rel, err := app.relationships.Find(ctx, client, user, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := os.Open(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()
			img, err := app.gallery.Upload(ctx, client, user, rel.ID, filepath.Base(args[1]), f)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, img, "Uploaded "+img.ImageURL)
		},
	})

	return cmd
}
