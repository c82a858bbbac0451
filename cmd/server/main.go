// Package main is the entry point for the tutor backend.
//
// main stays minimal by design: read configuration, build the logger, make
// sure the data directory exists, hand everything to internal/server. All
// actual logic lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/tutor-backend/internal/config"
	"github.com/sakif/tutor-backend/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The SQLite file's parent directory must exist before sql.Open.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	if cfg.AIServiceURL == "" {
		logger.Warn("AI_SERVICE_URL not set — /api/chat/message will return a configuration error")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
