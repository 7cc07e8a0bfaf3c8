package cli

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"

	"momento/internal/service"
)

func newInvitesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List invitations waiting for your answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			pending, err := service.NewInviteDirectory(client, app.pending).Pending(cmd.Context(), user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, pending, formatInvites(pending, true))
		},
	}

	cmd.AddCommand(newInviteAnswerCmd(app, true))
	cmd.AddCommand(newInviteAnswerCmd(app, false))
	cmd.AddCommand(newInviteSendCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "sent",
		Short: "List invitations you sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			sent, err := service.NewInviteDirectory(client, app.pending).Sent(cmd.Context(), user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, sent, formatInvites(sent, false))
		},
	})

	return cmd
}

func newInviteAnswerCmd(app *App, accept bool) *cobra.Command {
	use, short, verb := "accept <invite-id>", "Accept an invitation", "accepted"
	if !accept {
		use, short, verb = "decline <invite-id>", "Decline an invitation", "declined"
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
			dir := service.NewInviteDirectory(client, app.pending)
			if accept {
				err = dir.Accept(ctx, user, args[0])
			} else {
				err = dir.Decline(ctx, user, args[0])
			}
			if err != nil {
				if left := len(dir.Working(user)); left > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d invitation(s) still pending\n", left)
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"invite": args[0], "status": verb}, "Invitation "+verb+".")
		},
	}
}

func newInviteSendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <occasion-id> <username>",
		Short: "Invite a user to collaborate on an occasion you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view, err := app.openView(ctx, args[0], false)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !view.Ownership.IsCurrentUserOwner {
				return writeErr(cmd, errors.New("only the owner of an occasion can invite collaborators"))
			}
			user, client, err := app.current(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			username := strings.TrimPrefix(args[1], "@")
			id, err := service.NewInviteDirectory(client, app.pending).Send(ctx, user, username, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"invite": id}, fmt.Sprintf("Invited %s %s", titleStyle.Render(username), mutedStyle.Render(id)))
		},
	}
}

func newDigestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Upcoming occasions, open checklist items and pending invites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now()
			if app.JSON {
				list, err := app.occasions.List(cmd.Context(), client, user)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, service.Upcoming(list, now, app.digest.HorizonDays()), "")
			}
			text, err := app.digest.Summary(cmd.Context(), client, user, now)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, nil, stripTags(text))
		},
	}
}

var plainText = bluemonday.StrictPolicy()

// stripTags turns the chat-flavoured digest into plain terminal text.
func stripTags(s string) string {
	return html.UnescapeString(plainText.Sanitize(s))
}
