package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/kirinyoku/courtbook/docs"
	"github.com/kirinyoku/courtbook/internal/app"
	"github.com/kirinyoku/courtbook/internal/config"
	"github.com/kirinyoku/courtbook/internal/logging"
	"github.com/kirinyoku/courtbook/internal/service"
	"github.com/kirinyoku/courtbook/internal/service/catalog"
	"github.com/kirinyoku/courtbook/internal/service/session"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

// cli holds what the one-shot commands share.
type cli struct {
	cfg    *config.Config
	logger *zap.Logger
	svcs   *service.Services
	ctx    context.Context
}

var (
	logLevel string
	state    *cli
)

// @title        Courtbook API
// @version      1.0
// @description  Campus sports-court reservation sessions.
// @host         localhost:8080
// @BasePath     /
func main() {
	rootCmd := &cobra.Command{
		Use:          "courtbook",
		Short:        "Book campus sports courts",
		Long:         `Browse campuses, sports and free court slots, book them and manage your reservations.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state != nil && state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for one-shot commands (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(withClient(campusesCmd()))
	rootCmd.AddCommand(withClient(sportsCmd()))
	rootCmd.AddCommand(withClient(slotsCmd()))
	rootCmd.AddCommand(withClient(bookCmd()))
	rootCmd.AddCommand(withClient(historyCmd()))
	rootCmd.AddCommand(withClient(cancelCmd()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, err := logging.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("failed to create application", zap.Error(err))
				return err
			}

			if err := application.Run(cmd.Context()); err != nil {
				logger.Error("application finished with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

// withClient prepares the remote client and an in-memory session manager
// before cmd runs. Nothing is persisted.
func withClient(cmd *cobra.Command) *cobra.Command {
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return initClient(cmd.Context())
	}
	return cmd
}

func initClient(ctx context.Context) error {
	cfg, err := config.NewClient()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Env, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	calendar, err := workflow.NewCalendar(cfg.Booking.BookableDays, cfg.Booking.DaysShown)
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	svcs := service.NewServices(
		ctx,
		app.NewRemoteClient(cfg, logger),
		calendar,
		nil, nil, nil, nil,
		service.Config{
			Catalog: catalog.Config{TTL: cfg.Booking.CatalogTTL},
			Session: session.Config{
				TTL:           cfg.Booking.SessionTTL,
				FetchTimeout:  cfg.Booking.FetchTimeout,
				SubmitTimeout: cfg.Booking.SubmitTimeout,
			},
		},
		logger,
	)

	state = &cli{cfg: cfg, logger: logger, svcs: svcs, ctx: ctx}
	return nil
}
