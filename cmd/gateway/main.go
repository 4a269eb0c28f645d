package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/proposalforge/proposal-gateway/internal/auth"
	"github.com/proposalforge/proposal-gateway/internal/backup"
	"github.com/proposalforge/proposal-gateway/internal/config"
	"github.com/proposalforge/proposal-gateway/internal/dispatch"
	"github.com/proposalforge/proposal-gateway/internal/frontdoor/proposal"
	"github.com/proposalforge/proposal-gateway/internal/interpret"
	"github.com/proposalforge/proposal-gateway/internal/ratelimit"
	"github.com/proposalforge/proposal-gateway/internal/server"
	"github.com/proposalforge/proposal-gateway/internal/storage/sqlite"
	"github.com/proposalforge/proposal-gateway/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("proposal-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	var history *sqlite.Store
	if cfg.Storage.SQLitePath != "" {
		history, err = sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open history store: %v", err)
		}
		defer history.Close()
	}

	gate := auth.NewGate(cfg.Auth.APIKey, cfg.Auth.SiteOrigin)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	backups := backup.NewWriter(cfg.Backup.Dir, cfg.Backup.Serverless, logger)
	dispatcher := dispatch.New(cfg.Webhooks.ProposalURL, cfg.Webhooks.EmailURL, logger,
		dispatch.WithTimeout(time.Duration(cfg.Webhooks.TimeoutSeconds)*time.Second))
	interpreter := interpret.New(logger)

	handler := proposal.NewHandler(gate, limiter, backups, dispatcher, interpreter, history, logger)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Post("/api/submit-proposal", handler.HandleSubmit)
	srv.Router.Get("/api/submissions", handler.HandleRecent)
	srv.Router.Get("/healthz", handler.HandleHealth)

	if cfg.Webhooks.ProposalURL == "" {
		logger.Warn("no proposal webhook configured, submissions will rely on local backup")
	}
	if cfg.Webhooks.EmailURL == "" {
		logger.Info("no email webhook configured, email previews will be synthesized")
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
