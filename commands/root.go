// Package commands implements the taskboard CLI. Every command drives the
// backend through the session controller and the request gateway, so header
// injection and token refresh apply uniformly.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/taskboard-client/api"
	"github.com/jrsteele09/taskboard-client/credentials"
	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/internal/apierrors"
	"github.com/jrsteele09/taskboard-client/internal/config"
	"github.com/jrsteele09/taskboard-client/session"
	"github.com/jrsteele09/taskboard-client/tenants"
)

// App bundles the wired client stack for command implementations.
type App struct {
	Config  *config.Config
	Store   credentials.Store
	Session *session.Controller
	API     *api.Client
	Logger  zerolog.Logger
}

// NewApp loads configuration and wires store, resolver, gateway, API clients
// and session controller.
func NewApp(logger zerolog.Logger) (*App, error) {
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, errors.Wrap(err, "[NewApp] load config")
	}

	storePath, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	store, err := credentials.NewFileStore(storePath)
	if err != nil {
		return nil, err
	}

	var controller *session.Controller
	gw, err := gateway.New(
		cfg.BaseURL,
		store,
		tenants.NewResolver(store),
		gateway.WithLogger(logger),
		gateway.WithSessionTerminatedHandler(func() {
			if controller != nil {
				controller.Terminate()
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	client := api.New(gw)
	controller, err = session.New(store, client.Auth, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Store:   store,
		Session: controller,
		API:     client,
		Logger:  logger,
	}, nil
}

// Root builds the taskboard command tree.
func Root() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Command-line client for the taskboard service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	newApp := func() (*App, error) {
		return NewApp(newLogger(logLevel))
	}

	cmd.AddCommand(
		loginCommand(newApp),
		registerCommand(newApp),
		logoutCommand(newApp),
		whoamiCommand(newApp),
		projectsCommand(newApp),
		tasksCommand(newApp),
	)
	return cmd
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsed).With().Timestamp().Logger()
}

// describeError rewrites gateway errors the user can act on.
func describeError(err error) error {
	if errors.Is(err, apierrors.ErrSessionTerminated) {
		return fmt.Errorf("your session has expired, run 'taskboard login'")
	}
	return err
}

// requireSession rehydrates the stored session and fails when none exists.
func requireSession(cmd *cobra.Command, app *App) error {
	app.Session.Rehydrate(cmd.Context())
	if !app.Session.IsAuthenticated() {
		return errors.New("not logged in, run 'taskboard login'")
	}
	return nil
}
