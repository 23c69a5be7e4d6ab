package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkuznets/vanish"
	"github.com/rkuznets/vanish/blob"
	"github.com/rkuznets/vanish/config"
	"github.com/rkuznets/vanish/convert"
	"github.com/rkuznets/vanish/filesystem"
	vanishhttp "github.com/rkuznets/vanish/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Vanish HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5709, "HTTP server port")
	serveCmd.Flags().Int("done-ttl", 300, "seconds a converted file stays downloadable")
	serveCmd.Flags().Int("error-ttl", 10, "seconds a failed record stays visible")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	service, err := vanish.NewService(
		vanish.NewRegistry(),
		backend,
		convert.Default(),
		vanish.NewTimerScheduler(),
		vanish.ServiceConfig{
			DoneTTL:    cfg.Lifecycle.DoneDuration(),
			ErrorTTL:   cfg.Lifecycle.ErrorDuration(),
			StagingDir: cfg.Lifecycle.StagingDir,
		},
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer service.Close()

	handlerConfig := vanishhttp.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}
	handler := vanishhttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", cfg.Storage.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openBackend builds the storage backend the config selects. The choice is
// made once here and injected everywhere; nothing else branches on the mode.
func openBackend(ctx context.Context, cfg *config.Config) (vanish.Backend, func(), error) {
	switch cfg.Storage.Backend {
	case "s3":
		store, err := blob.NewStore(ctx, cfg.Storage.S3.BlobConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("connect object storage: %w", err)
		}
		slog.Info("connected to object storage",
			"endpoint", cfg.Storage.S3.Endpoint, "bucket", cfg.Storage.S3.Bucket)
		return store, func() {}, nil

	case "local":
		if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}
		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		return filesystem.NewStore(root), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
