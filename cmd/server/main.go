package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/app"
	"github.com/nekogravitycat/visa-cms-backend/internal/config"
	"github.com/nekogravitycat/visa-cms-backend/internal/db"
	"github.com/nekogravitycat/visa-cms-backend/internal/logger"
	"github.com/nekogravitycat/visa-cms-backend/internal/scheduler"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN,
		db.WithMaxConns(cfg.DBMaxConns),
		db.WithMaxConnIdleTime(cfg.DBMaxConnIdleTime),
	)
	if err != nil {
		l.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			l.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	container, err := app.NewContainer(ctx, cfg, pool, l)
	if err != nil {
		l.Fatal("failed to init application", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			l.Warn("close container", zap.Error(err))
		}
	}()

	container.Scheduler.Start()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		l.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	l.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(container.Scheduler, 5*time.Second)

	l.Info("server exited gracefully")
}
