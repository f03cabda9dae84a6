package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/api"
	"github.com/provdeck-ai/provdeck/internal/auth"
	"github.com/provdeck-ai/provdeck/internal/config"
	"github.com/provdeck-ai/provdeck/internal/eventbus"
	"github.com/provdeck-ai/provdeck/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func serveLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	logger := serveLogger(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := eventbus.New()
	defer bus.Close()

	st, closeStore, err := openStore(ctx, cfg, store.Options{Bus: bus, Logger: logger})
	if err != nil {
		return err
	}
	defer closeStore()

	// Only the file backend can change underneath us through external edits.
	if cfg.Storage.Driver == "file" {
		watcher, err := store.NewWatcher(st, cfg.Storage.Path, logger)
		if err != nil {
			logger.Warn("file watcher unavailable", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			logger.Warn("file watcher failed to start", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	authSvc := auth.NewService(cfg.Server)
	apiSrv := api.NewServer(st, authSvc, bus, cfg, logger)
	apiSrv.StartBackgroundTasks(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("provdeck api listening",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Driver,
			"config", configPath,
			"version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed, closing", "error", err)
		_ = srv.Close()
	}
	logger.Info("server stopped")
	return nil
}
