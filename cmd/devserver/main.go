// Command devserver runs the local Memoria backend: the full REST
// surface over an in-memory store, for development and integration
// testing against a realistic API without cloud credentials.
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
	"go.uber.org/zap"

	"memoria-client/internal/config"
	"memoria-client/internal/observability"
	"memoria-client/internal/server"
	"memoria-client/pkg/auth"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("devserver: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	// Hot reload in development for iterating on resolver and breaker
	// settings; server address and secret apply on restart only.
	if path := os.Getenv("MEMORIA_CONFIG"); path != "" {
		watcher, err := config.NewWatcher(cfg, path, logger)
		if err != nil {
			return fmt.Errorf("watching config: %w", err)
		}
		defer watcher.Stop()
		watcher.OnReload(func(config.Config) {
			logger.Info("configuration file changed; client-side settings apply to new clients, server settings on restart")
		})
	}

	validator, err := auth.NewJWTValidator(cfg.Server.JWTSecret, "memoria")
	if err != nil {
		return fmt.Errorf("building token validator: %w", err)
	}

	metrics := observability.NewCollector("memoria_server")
	router := server.NewRouter(server.NewStore(), validator, logger, metrics.Registry())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dev server listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
