// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ronda/internal/api"
	"github.com/starford/ronda/internal/engine"
	"github.com/starford/ronda/internal/mcpserver"
	"github.com/starford/ronda/internal/notify"
	"github.com/starford/ronda/internal/reload"
	"github.com/starford/ronda/internal/schedule"
	"github.com/starford/ronda/internal/sse"
	"github.com/starford/ronda/internal/store"
	pkgconfig "github.com/starford/ronda/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if app.mcpStdio {
		// stdout belongs to the MCP transport in stdio mode.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize persistence.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Runtime settings: a persisted snapshot wins over static config so
	// settings changed through the API survive restarts.
	settings := cfg.Patrol.Settings(cfg.Notify.Enabled)
	if blob, loadErr := db.LoadSnapshot(store.SnapshotSettings); loadErr == nil {
		if jsonErr := json.Unmarshal(blob, &settings); jsonErr != nil {
			logger.Warn("settings snapshot unreadable, using config defaults",
				slog.String("error", jsonErr.Error()))
			settings = cfg.Patrol.Settings(cfg.Notify.Enabled)
		}
	}

	// Notification transports.
	var senders []notify.Sender
	if cfg.Notify.Enabled {
		if cfg.Notify.Telegram.Configured() {
			senders = append(senders, notify.NewTelegramSender(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
		}
		if cfg.Notify.Email.Configured() {
			s := cfg.Notify.Email.SMTP
			senders = append(senders, notify.NewEmailSender(s.Host, s.Port, s.Username, s.Password, s.From, cfg.Notify.Email.To))
		}
	}
	dispatcher := notify.NewDispatcher(logger, senders...)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Session engine. A leftover session snapshot means the previous
	// process died mid-patrol; it cannot be resumed because the original
	// deadlines have passed, so it is surfaced and discarded.
	eng := engine.New(db, db, dispatcher, broker, logger, settings)
	if blob, loadErr := db.LoadSnapshot(store.SnapshotActiveSession); loadErr == nil {
		var stale engine.SessionView
		if json.Unmarshal(blob, &stale) == nil {
			logger.Warn("previous patrol session was interrupted",
				slog.String("session_id", stale.ID),
				slog.Int("pending", stale.PendingCount))
		}
		if delErr := db.DeleteSnapshot(store.SnapshotActiveSession); delErr != nil {
			logger.Warn("discard stale session snapshot failed", slog.String("error", delErr.Error()))
		}
	}

	if app.mcpStdio {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(eng, db).ServeStdio()
	}

	// Build API router.
	apiRouter := api.NewRouter(eng, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Scheduled patrol starts.
	if cfg.Patrol.Schedule.Enabled {
		var times []schedule.Time
		for _, st := range cfg.Patrol.Schedule.Times {
			if st.Enabled {
				times = append(times, schedule.Time{Hour: st.Hour, Minute: st.Minute})
			}
		}
		if len(times) > 0 {
			runner := schedule.New(eng, db, logger, times)
			g.Go(func() error {
				if err := runner.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("schedule runner: %w", err)
				}
				return nil
			})
		}
	}

	// Hot reload of runtime patrol settings from the config file.
	if app.configPath != "" {
		path := app.configPath
		g.Go(func() error {
			err := reload.Watch(gCtx, path, logger, func(p string) {
				next := NewDefaultConfig()
				if loadErr := pkgconfig.Load(p, next); loadErr != nil {
					logger.Warn("reload: config invalid, keeping current settings",
						slog.String("error", loadErr.Error()))
					return
				}
				eng.UpdateSettings(next.Patrol.Settings(next.Notify.Enabled))
				logger.Info("reload: patrol settings applied")
			})
			if err != nil {
				logger.Warn("reload: watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
