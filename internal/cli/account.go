package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"momento/internal/service"
)

// CLI principals have no chat to deliver digests to.
const noChat = 0

func newLoginCmd(app *App) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session for this profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return writeErr(cmd, errors.New("missing --password (or MOMENTO_PASSWORD)"))
			}
			user, err := app.sessions.Login(cmd.Context(), app.principal(), noChat, service.Credentials{Username: args[0], Password: password})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, user, fmt.Sprintf("Logged in as %s (profile %s).", titleStyle.Render(user.Username), app.Profile))
		},
	}

	cmd.Flags().StringVar(&password, "password", envOr("MOMENTO_PASSWORD", ""), "Password")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var password string
	var name string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return writeErr(cmd, errors.New("missing --password (or MOMENTO_PASSWORD)"))
			}
			user, err := app.sessions.Register(cmd.Context(), app.principal(), noChat, service.Credentials{Username: args[0], Password: password}, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, user, fmt.Sprintf("Welcome, %s.", titleStyle.Render(user.Username)))
		},
	}

	cmd.Flags().StringVar(&password, "password", envOr("MOMENTO_PASSWORD", ""), "Password")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the username)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session of this profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessions.Logout(cmd.Context(), app.principal()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"profile": app.Profile}, "Logged out.")
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user logged in on this profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, user, fmt.Sprintf("%s %s", titleStyle.Render(user.Username), mutedStyle.Render(user.ID)))
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your backend profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.sessions.Profile(cmd.Context(), app.principal())
			if err != nil {
				return writeErr(cmd, err)
			}
			text := titleStyle.Render(p.Name) + " @" + p.Username
			if p.Email != "" {
				text += "\n" + mutedStyle.Render(p.Email)
			}
			return writeOut(cmd, app, p, text)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "name <display name>",
		Short: "Change your display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if err := app.sessions.SetName(cmd.Context(), app.principal(), name); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"name": name}, "Name changed to "+titleStyle.Render(name)+".")
		},
	})

	return cmd
}

func newNetworkCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "collaborators",
		Short: "Everyone you share an occasion with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, client, err := app.current(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := service.Network(cmd.Context(), client, user)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(list) == 0 {
				return writeOut(cmd, app, list, "No collaborators yet. Invite someone: momento invites send <occasion-id> <username>")
			}
			return writeOut(cmd, app, list, formatCollaborators(list))
		},
	}
}
