package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/app"
	"github.com/felixgeelhaar/ganttline/pkg/config"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// undoLogSweepInterval is how often expired undo logs are removed from the
// database. Redis expires them on its own.
const undoLogSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logConfig := observability.DefaultLogConfig()
	logConfig.Level = observability.LogLevel(cfg.LogLevel)
	logConfig.Format = observability.LogFormat(cfg.LogFormat)
	logConfig.Output = os.Stdout
	if cfg.IsDevelopment() {
		logConfig.Level = observability.LogLevelDebug
	}
	logger := observability.NewLogger(logConfig).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ganttline worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := container.StartEventRelay(); err != nil {
		logger.Error("failed to initialize event relay", "error", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.OutboxProcessorEnabled {
		g.Go(func() error {
			logger.Info("starting outbox processor",
				"poll_interval", cfg.OutboxPollInterval,
				"batch_size", cfg.OutboxBatchSize,
				"max_retries", cfg.OutboxMaxRetries,
			)
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			container.OutboxProcessor.Stop()
			return nil
		})
	} else {
		logger.Info("outbox processor disabled")
	}

	if container.ExpiringUndoLogs != nil {
		g.Go(func() error {
			ticker := time.NewTicker(undoLogSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					deleted, err := container.ExpiringUndoLogs.DeleteExpired(ctx)
					if err != nil {
						logger.Error("undo log cleanup failed", "error", err)
						continue
					}
					if deleted > 0 {
						logger.Info("undo log cleanup completed", "deleted", deleted)
					}
				}
			}
		})
	}

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func healthMux(container *app.Container) *http.ServeMux {
	readiness := observability.NewHealthRegistry()
	readiness.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, container.DBConn.Ping))
	if container.RedisClient != nil {
		readiness.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
			return container.RedisClient.Ping(ctx).Err()
		}))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := container.OutboxProcessor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"lag_seconds":       stats.LagSeconds,
			"last_processed_at": stats.LastProcessedAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("/readyz", readiness.Handler())
	mux.Handle("/metrics", container.Metrics.Handler())
	return mux
}
