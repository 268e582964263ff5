package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/cruisecheck/internal/config"
	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/engine"
	"github.com/JonMunkholm/cruisecheck/internal/history"
	"github.com/JonMunkholm/cruisecheck/internal/logging"
	"github.com/JonMunkholm/cruisecheck/internal/web"
	"github.com/joho/godotenv"
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
		"history_enabled", cfg.Database.Enabled(),
		"check_max_concurrent", cfg.Checker.MaxConcurrent,
		"check_max_rows", cfg.Checker.MaxRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	// The validation engine and its rule set
	rules, err := engine.LoadRules(cfg.Checker.RulesFile)
	if err != nil {
		slog.Error("failed to load checker rules", "error", err, "path", cfg.Checker.RulesFile)
		os.Exit(1)
	}
	eng, err := engine.New(rules)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	store, err := core.NewMessageStore(cfg.Storage.MessagesDir)
	if err != nil {
		slog.Error("failed to open message store", "error", err, "dir", cfg.Storage.MessagesDir)
		os.Exit(1)
	}

	opts := []core.CheckerOption{
		core.WithMaxRows(cfg.Checker.MaxRows),
		core.WithTimeout(cfg.Checker.Timeout),
	}
	deps := web.Deps{
		Limiter: core.NewCheckLimiter(cfg.Checker.MaxConcurrent, cfg.Checker.MaxWaitTime),
	}

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// Check history is optional
	if cfg.Database.Enabled() {
		pool, err := history.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := history.NewStore(pool)
		if err := runs.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create history schema", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithRecorder(runs))
		deps.History = runs

		go history.StartPurgeScheduler(jobCtx, runs, history.PurgeConfig{
			RetentionDays: cfg.History.RetentionDays,
			Schedule:      cfg.History.PurgeSchedule,
		})
	} else {
		slog.Info("no database configured, check history disabled")
	}

	deps.Checker = core.NewChecker(eng, store, opts...)
	slog.Info("checker ready",
		"column_types", deps.Checker.Catalog().Len(),
		"messages_dir", store.Root(),
	)

	server := web.NewServer(cfg, deps)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running checks to complete (with timeout)
		if status := deps.Limiter.Status(); status.Active > 0 {
			slog.Info("waiting for checks to complete", "active", status.Active)
			if err := deps.Limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("checks did not complete in time", "error", err)
			} else {
				slog.Info("all checks completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
