package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/adapter/cli/mcp"
	"github.com/felixgeelhaar/ganttline/adapter/cli/record"
	"github.com/felixgeelhaar/ganttline/internal/app"
	mcpinternal "github.com/felixgeelhaar/ganttline/internal/mcp"
	"github.com/felixgeelhaar/ganttline/pkg/config"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logConfig := observability.DefaultLogConfig()
	logConfig.Level = observability.LogLevel(cfg.LogLevel)
	logConfig.Format = observability.LogFormat(cfg.LogFormat)
	if logConfig.Level == "" {
		logConfig.Level = observability.LogLevelWarn
	}
	logger := observability.NewLogger(logConfig)
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			return 1
		}
		// In development, allow the CLI to run without a database
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cliApp = mcpinternal.NewCLIApp(container)
	}

	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(record.Cmd)
	cli.AddCommand(mcp.Cmd)

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
