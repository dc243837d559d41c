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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/proforma/internal/cache"
	"github.com/iwvelando/proforma/internal/observability"
	"github.com/iwvelando/proforma/internal/server"
	"github.com/iwvelando/proforma/pkg/constants"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP projection API",
		RunE:  runServer,
	}
	cmd.Flags().String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().String("address", "", "listen address override")
	cmd.Flags().String("max-upload-size", "", "request size limit override (e.g. 512K, 1M)")
	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	const op = "main.runServer"

	configPath, _ := cmd.Flags().GetString("server-config")
	address, _ := cmd.Flags().GetString("address")
	maxUpload, _ := cmd.Flags().GetString("max-upload-size")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Address = address
	}
	if maxUpload != "" {
		size, err := server.ParseSize(maxUpload)
		if err != nil {
			return err
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		return fmt.Errorf("failed to initialize result cache: %w", err)
	}
	results := cache.NewResults(store, logger)
	defer func() {
		if err := results.Close(); err != nil {
			logger.Warn("failed to close result cache", zap.String("op", op), zap.Error(err))
		}
	}()

	handler := server.NewHandler(server.Options{
		Logger:        logger,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		Results:       results,
		Metrics:       observability.NewMetrics(),
		RateLimit:     cfg.RateLimit.Requests,
		RateWindow:    cfg.RateWindow(),
		Timeout:       cfg.Timeout(),
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Timeout() + 5*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			zap.String("op", op),
			zap.String("address", cfg.Address),
			zap.String("cache", cfg.Cache.Backend),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", zap.String("op", op), zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.String("op", op))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}
