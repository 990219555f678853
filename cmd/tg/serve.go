package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/config"
	"github.com/alfredjeanlab/taskgrid/internal/events"
	"github.com/alfredjeanlab/taskgrid/internal/presence"
	"github.com/alfredjeanlab/taskgrid/internal/server"
	"github.com/alfredjeanlab/taskgrid/internal/store"
	"github.com/alfredjeanlab/taskgrid/internal/store/memory"
	"github.com/alfredjeanlab/taskgrid/internal/store/postgres"
	gridsync "github.com/alfredjeanlab/taskgrid/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the taskgrid HTTP and gRPC servers",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger()
		slog.SetDefault(logger)

		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (TASKGRID_NATS_URL not set)")
		}

		gridServer := server.NewGridServer(st, publisher, logger)
		gridServer.Presence().StartReaper(&presence.ReaperConfig{
			OnAway: func(actor, projectID string) {
				logger.Info("editor went idle", "actor", actor, "project", projectID)
			},
		})
		grpcServer := server.NewGRPCServer(gridServer, cfg.AuthToken)
		if cfg.AuthToken == "" {
			logger.Warn("authentication disabled (TASKGRID_AUTH_TOKEN not set)")
		}

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: gridServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start sync scheduler if any destinations are configured.
		var scheduler *gridsync.Scheduler
		if cfg.SyncInterval > 0 {
			if dests := syncDestinations(ctx, cfg, logger); len(dests) > 0 {
				scheduler = gridsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("taskgrid server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"in_memory", cfg.InMemory(),
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
		gridServer.Presence().Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore connects to Postgres, or returns an empty in-process store for
// TASKGRID_DATABASE_URL=memory://.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.InMemory() {
		return memory.New(), nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// syncDestinations builds the backup destinations enabled in cfg. A
// destination that cannot be set up is logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []gridsync.Destination {
	var dests []gridsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := gridsync.NewS3Destination(ctx,
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncFile != "" {
		dests = append(dests, gridsync.NewFileDestination(cfg.SyncFile))
		logger.Info("sync file destination enabled", "path", cfg.SyncFile)
	}

	return dests
}
