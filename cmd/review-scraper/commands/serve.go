package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/api"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/events"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/jobs"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/metrics"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveStatic bool

func init() {
	serveCmd.Flags().BoolVar(&serveStatic, "static", false, "Fetch pages over plain HTTP instead of driving Chromium.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--static]",
	Short: "Runs the HTTP API, the scrape worker and the outbox relay.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		cfg, log, err := setup()
		if err != nil {
			return err
		}

		db, err := database.New(ctx, databaseConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		src, err := newOpener(serveStatic, browserOptions(cfg.Browser, cfg.Scraper))
		if err != nil {
			return fmt.Errorf("failed to initialize browser: %w", err)
		}
		defer src.Close()

		m := metrics.New()
		runs := database.NewRunRepository(db)
		outbox := database.NewOutboxRepository(db)

		if cfg.Relay.Enabled {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}

			relay := database.NewRelay(outbox, redisClient, log, m, database.RelayConfig{
				PollInterval: cfg.Relay.PollInterval,
				BatchSize:    cfg.Relay.BatchSize,
			})
			go func() {
				if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("relay stopped with error", "error", err)
				}
			}()
		}

		engine := scraper.NewEngine(src, scraperOptions(cfg.Scraper), log, m)
		publisher := events.NewPublisher(runs, cfg.Redis.Stream, log)
		manager := jobs.NewManager(runs, engine, publisher, jobOptions(cfg.Worker), log)

		workerDone := make(chan struct{})
		go func() {
			defer close(workerDone)
			manager.StartWorker(ctx)
		}()

		handlers := api.NewHandlers(manager, outbox, log)
		server := &http.Server{
			Addr: cfg.Server.Addr(),
			Handler: api.NewRouter(handlers, api.RouterConfig{
				AllowedOrigins: cfg.Server.AllowedOrigins,
				RequestTimeout: cfg.Server.WriteTimeout,
				Metrics:        m.Handler(),
			}),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("server starting", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case <-ctx.Done():
			log.Info("shutting down server...")
		case err := <-serveErr:
			if err != nil {
				cancel()
				<-workerDone
				return fmt.Errorf("server failed: %w", err)
			}
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		<-workerDone

		log.Info("server stopped")
		return nil
	},
}
