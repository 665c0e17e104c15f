// Command records-api serves the records training API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"records-api/config"
	"records-api/internal/api"
	"records-api/internal/app"
	"records-api/observability"
	"records-api/repository"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))
	if envErr != nil {
		observability.Debug("no .env file found, using environment variables")
	}
	if cfg.Metrics.Enabled {
		observability.InitMetrics()
	}

	if err := run(cfg); err != nil {
		observability.Fatal("server error", "error", err)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	store := repository.NewSeededStore()
	application := app.New(cfg, store)
	if count, err := application.RecordCount(ctx); err == nil {
		observability.Info("record store seeded", "records", count)
	}

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	requestTimeout := time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Info("starting records API",
			"port", cfg.HTTP.Port,
			"url", fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port),
			"api_keys", len(cfg.Auth.APIKeys),
			"metrics", cfg.Metrics.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		observability.Info("shutting down records API", "signal", sig.String())
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	observability.Info("records API stopped")
	return nil
}
