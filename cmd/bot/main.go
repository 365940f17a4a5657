// Telegram bot for filing bug reports into the internal tracker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/assisterr/bug-report-bot/internal/api"
	"github.com/assisterr/bug-report-bot/internal/auth"
	"github.com/assisterr/bug-report-bot/internal/backend"
	"github.com/assisterr/bug-report-bot/internal/bot"
	"github.com/assisterr/bug-report-bot/internal/config"
	"github.com/assisterr/bug-report-bot/internal/journal"
	"github.com/assisterr/bug-report-bot/internal/middleware"
	"github.com/assisterr/bug-report-bot/internal/session"
)

const sweepInterval = time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting bug report bot", "allowed_users", len(cfg.AllowedUserIDs), "health_port", cfg.HealthPort)

	// Initialize dependencies.
	repo, err := journal.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize journal database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close journal", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Journal health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Journal database connected")

	be := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.RequestTimeout, backend.RetryPolicy{
		MaxAttempts:       cfg.MaxRetries,
		InitialDelay:      cfg.RetryDelay,
		BackoffMultiplier: cfg.RetryBackoff,
	})

	tg, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to Telegram", "username", tg.Self.UserName)

	sessions := session.NewStore()
	dispatcher := bot.New(tg, be, auth.NewAllowlist(cfg.AllowedUserIDs), sessions, repo)

	// Setup health router.
	healthHandler := api.NewHealthHandler(repo, sessions, api.Identity{
		ID:       tg.Self.ID,
		Username: tg.Self.UserName,
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logger())
	r.Use(chiMiddleware.Recoverer)
	healthHandler.RegisterHealth(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HealthPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartSweeper(ctx, cfg.SessionTTL, sweepInterval)
	slog.Info("Session sweeper started", "session_ttl", cfg.SessionTTL)

	go func() {
		slog.Info("Health server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Start receiving updates.
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updateCfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := tg.GetUpdatesChan(updateCfg)

	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx, updates)
		close(done)
	}()
	slog.Info("Bot is running")

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	tg.StopReceivingUpdates()
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Health server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}
