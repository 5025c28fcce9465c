package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/erazemk/blagajna/internal/api"
	"github.com/erazemk/blagajna/internal/config"
	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/remote"
	"github.com/erazemk/blagajna/internal/retry"
	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/sync"
	"github.com/erazemk/blagajna/internal/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	// Migrations are idempotent.
	if err := db.Migrate(database); err != nil {
		return err
	}

	ctx := context.Background()
	deviceID, err := store.EnsureDeviceID(ctx, database)
	if err != nil {
		return err
	}
	logger.Info("terminal identity",
		zap.String("store_id", cfg.StoreID),
		zap.String("device_id", deviceID))

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Secret, cfg.StoreID, deviceID, cfg.Remote.Timeout, logger)
	policy := retry.Policy{
		MaxAttempts: cfg.Sync.MaxAttempts,
		BaseDelay:   cfg.Sync.BaseDelay,
		Transient:   remote.IsTransient,
	}
	engine := sync.NewEngine(database, client, policy, cfg.StoreID, logger)

	scheduler, err := sync.NewScheduler(engine, cfg.Sync.Schedule, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	transfers := transfer.NewManager(database, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(database, cfg.StoreID, transfers, engine, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
