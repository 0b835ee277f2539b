package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"listingpulse/server/config"
	"listingpulse/server/internal/api"
	"listingpulse/server/internal/dashboard"
	"listingpulse/server/internal/database"
	"listingpulse/server/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "listingpulse",
		Short:         "Real-estate listings dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run database migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("Running database migrations...")
			if err := db.RunMigrations(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, db)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return err
			}
			logger.Info("Database migrations completed")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import listings and mortgages from a YAML fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			if file == "" {
				file = cfg.Seed.File
			}
			fixture, err := seed.LoadFixture(file)
			if err != nil {
				return err
			}
			if err := db.RunMigrations(); err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"file":      file,
				"listings":  len(fixture.Listings),
				"mortgages": len(fixture.Mortgages),
			}).Info("Seeding database")

			_, err = seed.NewSeeder(db, cfg, logger).Run(cmd.Context(), fixture)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML fixture (defaults to SEED_FILE)")
	return cmd
}

// setup loads the configuration and opens the database shared by every command
func setup() (*config.Config, *logrus.Logger, *database.Database, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.WithField("type", cfg.Database.Type).Info("Opening database")
	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize database")
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	switch cfg.Log.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger.SetLevel(level)
	return logger, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, db *database.Database) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)

	aggregator := dashboard.NewAggregator(db, dashboard.OptionsFromConfig(cfg), logger)
	handler := api.NewHandler(db, aggregator, logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server failed to start")
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
		return err
	}
	logger.Info("Server stopped")
	return nil
}
