// Package main is the entry point for the paramsecret server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blueberrycongee/paramsecret/internal/api"
	"github.com/blueberrycongee/paramsecret/internal/config"
	"github.com/blueberrycongee/paramsecret/internal/observability"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfgManager, err := config.NewManager(os.Getenv(config.EnvConfigPath), bootLogger)
	if err != nil {
		return err
	}
	defer cfgManager.Close()

	cfg := cfgManager.Get()

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.Slog())

	logger.RedactedInfo("starting paramsecret",
		"version", version,
		"store_backend", cfg.Store.Backend,
		"store_endpoint", storeEndpoint(cfg.Store),
	)
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		logger.Warn("secret configuration incomplete, requests will fail", "missing", missing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Protocol:    cfg.Tracing.Protocol,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	backend, err := buildBackend(ctx, cfg, logger.Slog(), tp.Tracer())
	if err != nil {
		return err
	}

	handler := api.NewHandler(backend, logger)
	defer handler.Close()

	cfgManager.OnChange(func(newCfg *config.Config) {
		next, err := buildBackend(ctx, newCfg, logger.Slog(), tp.Tracer())
		if err != nil {
			logger.RedactedError("failed to rebuild secret backend, keeping current", "error", err)
			return
		}
		handler.Swap(next)
		logger.RedactedInfo("secret backend reloaded",
			"store_backend", newCfg.Store.Backend,
			"store_endpoint", storeEndpoint(newCfg.Store),
		)
	})
	if err := cfgManager.Watch(ctx); err != nil && !errors.Is(err, config.ErrNoConfigFile) {
		logger.RedactedWarn("config hot-reload disabled", "error", err)
	}

	mux, err := buildMux(cfg, handler)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      buildMiddlewareStack(tp.Tracer())(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*observability.Logger, error) {
	level, err := observability.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:      level,
		Output:     os.Stdout,
		JSONFormat: cfg.Format != "text",
	}, observability.NewRedactor()), nil
}
