package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/templatefill/internal/batch"
	"github.com/JonMunkholm/templatefill/internal/config"
	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/JonMunkholm/templatefill/internal/logging"
	"github.com/JonMunkholm/templatefill/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workspace_root", cfg.Workspace.Root,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	limiter := core.NewRequestLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := batch.NewService(batch.Config{
		WorkspaceRoot: cfg.Workspace.Root,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		Timeout:       cfg.Upload.Timeout,
	}, limiter)

	server := web.NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reclaim workspaces abandoned by a previous process
	if cfg.Workspace.SweepEnabled() {
		sweeper := batch.NewSweeper(batch.SweeperConfig{
			Root:     cfg.Workspace.Root,
			Schedule: cfg.Workspace.SweepSchedule,
			MaxAge:   cfg.Workspace.MaxAge,
		})
		if err := sweeper.Start(ctx); err != nil {
			slog.Error("failed to start workspace sweeper", "error", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active fills to complete (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for fills to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("fills did not complete in time", "error", err)
			} else {
				slog.Info("all fills completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server failed", "error", err)
		stop()
	}
	<-done
	slog.Info("server stopped")
}
