package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linker-backend/pkg/auth"
	"linker-backend/pkg/config"
	"linker-backend/pkg/database"
	"linker-backend/pkg/handlers"
	"linker-backend/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := database.NewStore(startCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer store.Close()
	if cfg.MetricsEnabled {
		store = database.WithMetrics(store, database.DefaultStoreMetrics())
	}

	resolver, err := auth.NewResolverFromConfig(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(cfg, store, resolver, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			logger.String("addr", srv.Addr),
			logger.String("environment", cfg.Environment),
			logger.String("store", store.Name()),
			logger.String("auth_mode", resolver.Mode()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
