package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/ganttline/internal/app"
	mcpinternal "github.com/felixgeelhaar/ganttline/internal/mcp"
	"github.com/felixgeelhaar/ganttline/pkg/config"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logConfig := observability.DefaultLogConfig()
	logConfig.Level = observability.LogLevel(cfg.LogLevel)
	logConfig.Format = observability.LogFormat(cfg.LogFormat)
	if cfg.IsDevelopment() {
		logConfig.Level = observability.LogLevelDebug
	}
	logger := observability.NewLogger(logConfig).With("component", "mcp")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cliApp := mcpinternal.NewCLIApp(container)
	cliApp.Actor = "mcp"

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
