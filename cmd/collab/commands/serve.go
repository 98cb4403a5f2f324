package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/internal/server"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/logging/observes"
	"github.com/ncobase/collab/messaging"
	"github.com/ncobase/collab/search"
	"github.com/ncobase/collab/storage"
	"github.com/ncobase/collab/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "github.com/ncobase/collab/data/postgres"
	_ "github.com/ncobase/collab/data/redis"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s", "start"},
		Args:    cobra.NoArgs,
		Short:   "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	cleanup, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer cleanup()
	log := logger.StdLogger()
	log.SetVersion(version.Get().Version)

	flush, err := observes.NewSentry(cfg.Observes.Sentry, cfg.AppName)
	if err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}
	defer flush()
	stopTracer, err := observes.NewTracer(cfg.Observes.Tracer)
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	defer func() {
		if err := stopTracer(context.Background()); err != nil {
			log.Warn(context.Background(), "Failed to flush traces", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, closeData, err := data.New(ctx, cfg.Data)
	if err != nil {
		return fmt.Errorf("failed to open data layer: %w", err)
	}
	defer closeData()

	if cfg.Data.Database.Migrate {
		applied, err := d.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		log.Info(ctx, "Migrations applied", "count", len(applied))
	}

	// Uploads are refused without a store; the rest of the API still runs.
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Warn(ctx, "Object storage unavailable", "provider", cfg.Storage.Provider, "error", err)
		store = nil
	}

	pub, err := messaging.New(cfg.Messaging)
	if err != nil {
		return fmt.Errorf("failed to open message publisher: %w", err)
	}

	// Listings fall back to title matching without an index.
	index, err := search.New(cfg.Search)
	if err != nil {
		log.Warn(ctx, "Search index unavailable", "provider", cfg.Search.Provider, "error", err)
		index = nil
	}

	srv, err := server.New(cfg, log, &server.Deps{Data: d, Store: store, Publisher: pub, Search: index})
	if err != nil {
		return err
	}

	cfg.Watch(func(c *config.Config) {
		if c.Logger != nil {
			log.SetLevel(logrus.Level(c.Logger.Level))
		}
		log.Info(context.Background(), "Configuration reloaded")
	})

	srv.Start(ctx)
	err = srv.ListenAndServe(ctx, shutdownTimeout)

	cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.Cleanup(cleanupCtx)
	log.Info(cleanupCtx, "Server exited")
	return err
}
