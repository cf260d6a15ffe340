package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/database"
	"github.com/uigen-dev/uigen/server/internal/handler"
	"github.com/uigen-dev/uigen/server/internal/logger"
	"github.com/uigen-dev/uigen/server/internal/store"
	"github.com/uigen-dev/uigen/server/internal/version"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logr.Close() }()

	logr.Info("starting server", "version", version.Get())

	db, err := database.New(cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	logr.Info("running database migrations", "driver", db.Driver)
	if err := db.Migrate(); err != nil {
		logr.Fatal("failed to run migrations", "error", err)
	}

	s := store.New(db.DB)
	h := handler.New(s, cfg, logr)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		purgeExpired(sweepCtx, h, cfg.PurgeInterval, logr)
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")

	stopSweep()
	<-sweepDone

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", "error", err)
		return
	}

	logr.Info("server stopped")
}

// purgeExpired removes expired login sessions and anonymous work every
// interval until ctx is cancelled.
func purgeExpired(ctx context.Context, h *handler.Handler, interval time.Duration, logr *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := h.AuthService().PurgeExpiredSessions(ctx); err != nil {
			logr.Warn("failed to purge expired sessions", "error", err)
		} else if n > 0 {
			logr.Debug("purged expired sessions", "count", n)
		}

		if n, err := h.AnonWorkService().PurgeExpired(ctx); err != nil {
			logr.Warn("failed to purge expired anonymous work", "error", err)
		} else if n > 0 {
			logr.Debug("purged expired anonymous work", "count", n)
		}
	}
}
