// Package main implements the entry point for the EmPOWER runtime, a
// host for lifecycle-managed services grouped into the default
// environment and per-tenant projects.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/5g-empower/empower-core/api"
	"github.com/5g-empower/empower-core/config"
	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/manager"
	"github.com/5g-empower/empower-core/metric"
	"github.com/5g-empower/empower-core/natsclient"
	"github.com/5g-empower/empower-core/scheduler"
	"github.com/5g-empower/empower-core/service"
	"github.com/5g-empower/empower-core/storage"
	"github.com/5g-empower/empower-core/storage/kvstore"
	"github.com/5g-empower/empower-core/storage/memstore"
	"github.com/5g-empower/empower-core/workers/heartbeat"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "empower"
)

const shutdownTimeout = 10 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("runtime failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the JSON configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting runtime",
		"version", Version, "storage", cfg.Storage.Mode, "addr", cfg.HTTP.Addr)

	ctx := context.Background()

	store, cleanup, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	metrics := metric.NewMetrics()
	deps := &service.Dependencies{
		Logger:    logger,
		Scheduler: scheduler.NewTicker(logger),
		Metrics:   metrics,
	}

	catalog := container.NewCatalog()
	if err := heartbeat.Register(catalog); err != nil {
		return fmt.Errorf("register worker types: %w", err)
	}

	env := manager.NewEnvManager(catalog, store, deps)
	if err := env.Start(ctx); err != nil {
		return fmt.Errorf("start environment: %w", err)
	}

	projects := manager.NewProjectsManager(catalog, store,
		manager.NewStaticAccounts(cfg.Accounts...), deps)
	if err := projects.Start(ctx); err != nil {
		return fmt.Errorf("start projects: %w", err)
	}

	srv := api.NewServer(env, projects, catalog,
		api.WithLogger(logger), api.WithMetrics(metrics))
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("REST listener up", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// stop apps first, then workers; each stop saves durable state
	projects.Stop(shutdownCtx)
	env.Stop(shutdownCtx)

	logger.Info("runtime stopped")
	return nil
}

// setupStorage builds the durable record backend selected by the config
func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Mode {
	case config.StorageModeNATS:
		client := natsclient.NewClient(cfg.NATS.URL,
			natsclient.WithLogger(logger),
			natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect NATS: %w", err)
		}

		bucket, err := client.KeyValueBucket(ctx, cfg.NATS.Bucket)
		if err != nil {
			_ = client.Close(ctx)
			return nil, nil, fmt.Errorf("open KV bucket: %w", err)
		}

		cleanup := func() { _ = client.Close(context.Background()) }
		return kvstore.New(bucket), cleanup, nil

	default:
		logger.Warn("using in-memory storage, durable records are lost on exit")
		return memstore.New(), func() {}, nil
	}
}
