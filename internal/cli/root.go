package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"momento/internal/api"
	"momento/internal/config"
	"momento/internal/logger"
	"momento/internal/repository"
	"momento/internal/service"
)

const retryBackoff = 300 * time.Millisecond

// App carries global flags and the services commands dispatch to.
type App struct {
	Profile string
	JSON    bool

	cfg           config.Config
	sessions      *service.SessionService
	occasions     *service.OccasionService
	relationships *service.RelationshipService
	pending       *service.PendingSets
	digest        *service.DigestService
	suggestions   *service.SuggestionService
	gallery       *service.GalleryService
	closeDB       func() error
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "momento",
		Short:        "Momento: people, occasions and shared checklists",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Log in once per profile
  momento login olga --password secret

  # Upcoming occasions and open checklist items
  momento digest

  # Open an occasion you own or collaborate on
  momento occasion show 9f1c...
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Help and shell completion never touch the cache or the backend.
		if cmd.Name() == "help" || strings.HasPrefix(cmd.CommandPath(), "momento completion") {
			return nil
		}
		if err := app.open(); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.Profile, "profile", envOr("MOMENTO_PROFILE", "default"), "Local profile; each profile keeps its own session")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newProfileCmd(app))
	cmd.AddCommand(newNetworkCmd(app))
	cmd.AddCommand(newPeopleCmd(app))
	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newOccasionsCmd(app))
	cmd.AddCommand(newOccasionCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newInvitesCmd(app))
	cmd.AddCommand(newIdeasCmd(app))
	cmd.AddCommand(newGalleryCmd(app))
	cmd.AddCommand(newDigestCmd(app))

	return cmd
}

// open loads config and the local cache. Services that are already set are
// kept so tests can inject their own.
func (a *App) open() error {
	if a.sessions != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger.Init(logger.Option{Level: cfg.LogLevel, Writers: []io.Writer{os.Stderr}})

	db, err := repository.NewDB(cfg.DatabaseURL, repository.WithSilentLog())
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closeDB = sqlDB.Close
	}

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithRetries(cfg.HTTPRetries, retryBackoff),
	)
	priorities := repository.NewPriorityRepository(db)
	selections := repository.NewNoteSelectionRepository(db)

	a.sessions = service.NewSessionService(repository.NewAccountRepository(db), client)
	a.occasions = service.NewOccasionService(priorities, selections)
	a.relationships = service.NewRelationshipService(repository.NewPinRepository(db))
	a.pending = service.NewPendingSets()
	a.digest = service.NewDigestService(cfg.DigestHorizonDays)
	a.suggestions = service.NewSuggestionService()
	a.gallery = service.NewGalleryService()
	return nil
}

func (a *App) close() error {
	logger.Sync()
	if a.closeDB == nil {
		return nil
	}
	err := a.closeDB()
	a.closeDB = nil
	return err
}

func (a *App) principal() string {
	return principalFor(a.Profile)
}

func principalFor(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return "cli:" + profile
}

// current returns the logged-in user of the profile and a session client.
func (a *App) current(ctx context.Context) (api.User, *api.Client, error) {
	user, client, err := a.sessions.Current(ctx, a.principal())
	if err != nil {
		if errors.Is(err, service.ErrNotLoggedIn) {
			return api.User{}, nil, fmt.Errorf("profile %q is not logged in, run: momento login <username>", a.Profile)
		}
		return api.User{}, nil, err
	}
	return *user, client, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", api.Message(err))
	return err
}
