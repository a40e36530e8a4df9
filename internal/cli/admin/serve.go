package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/descubra-ms/guata/internal/api/handlers"
	"github.com/descubra-ms/guata/internal/config"
	"github.com/descubra-ms/guata/internal/jobs"
	"github.com/descubra-ms/guata/internal/logging"
	"github.com/descubra-ms/guata/internal/metrics"
	"github.com/descubra-ms/guata/internal/server"
	"github.com/descubra-ms/guata/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the Guatá API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Debug, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Logger:           logger,
		})
		if err != nil {
			logger.Warn("telemetry init failed (continuing without tracing)", zap.Error(err))
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	app, err := BuildApp(ctx, cfg, logger, BuildOptions{Store: true, Migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer app.Close()

	var recordWorker *jobs.Worker
	if app.Recorder != nil {
		recordWorker = jobs.NewWorker(app.Recorder, cfg.RecordFlushInterval, logger)
		go recordWorker.Start(ctx)
		logger.Info("conversation recorder started", zap.Duration("flush_interval", cfg.RecordFlushInterval))
	} else {
		logger.Info("conversation store disabled (GUATA_DATABASE_URL not set)")
	}

	metrics.Register()
	router := server.NewRouter(server.RouterConfig{
		Logger:           logger,
		AskHandler:       handlers.NewAskHandler(app.Resolver),
		SessionHandler:   handlers.NewSessionHandler(app.TurnLister()),
		KnowledgeHandler: handlers.NewKnowledgeHandler(app.Index, app.Classifier),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if recordWorker != nil {
		recordWorker.Stop()
	}

	logger.Info("server exited")
	return nil
}
