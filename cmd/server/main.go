// Package main is the entry point for the report portal API.
//
// main only reads configuration, builds the logger and the object-store
// uploader, and hands them to internal/server. Everything else lives in
// internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/report-portal/internal/config"
	"github.com/sakif/report-portal/internal/server"
	"github.com/sakif/report-portal/internal/upload/s3"
)

func main() {
	// Config first: its APP_ENV decides the log format. Until then, a
	// plain text logger reports startup failures.
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).
			Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uploader, err := s3.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create object store client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(ctx, cfg, logger, uploader)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger uses human-readable Debug output in development and JSON at
// Info in production.
func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
