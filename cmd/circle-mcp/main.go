// Command circle-mcp serves the scoring and leaderboard tools over MCP stdio.
//
// Usage:
//
//	circle-mcp    # configuration is read the same way as the HTTP server
//
// Point store_driver at sqlite with the server's sqlite_path to share one
// leaderboard between both processes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/okian/perfectcircle/internal/adapters/mcptools"
	app "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/config"
	"github.com/okian/perfectcircle/pkg/logger"
)

const stopTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// stdout carries the MCP protocol; logs go to stderr.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc := app.New(append(app.FromConfig(cfg), app.WithLogger(logger.Named("mcp")))...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = svc.Stop(stopCtx)
	}()

	return server.ServeStdio(mcptools.NewServer(svc))
}
