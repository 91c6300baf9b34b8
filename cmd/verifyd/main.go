package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ticketguard/faceverify/internal/api"
	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/config"
	"github.com/ticketguard/faceverify/internal/provider"
	"github.com/ticketguard/faceverify/internal/provider/localface"
	"github.com/ticketguard/faceverify/internal/provider/mock"
	"github.com/ticketguard/faceverify/internal/refcache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting faceverify agent",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
	)

	faceProvider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	indicatorKey, err := cfg.IndicatorKeyBytes()
	if err != nil {
		return err
	}
	indicators, err := refcache.NewIndicatorStore(cfg.IndicatorDir, indicatorKey)
	if err != nil {
		return fmt.Errorf("failed to open indicator store: %w", err)
	}

	fetcher := refcache.NewEnrollmentClient(cfg.EnrollmentURL, 30*time.Second)
	refCache := refcache.NewService(fetcher, faceProvider, indicators, logger)

	device := camera.NewHTTPDevice(cfg.CameraURL, 10*time.Second)
	cam := camera.NewResource(device, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		FaceProvider: faceProvider,
		Camera:       cam,
		RefCache:     refCache,
	})
	router.Setup()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func buildProvider(cfg *config.Config) (provider.FaceProvider, error) {
	switch cfg.ProviderType {
	case "mock":
		return mock.New(), nil
	case "localface":
		providerCfg := localface.DefaultConfig()
		providerCfg.BaseURL = cfg.SidecarURL
		providerCfg.Model = cfg.RecognitionModel
		providerCfg.Detector = cfg.DetectorBackend
		return localface.NewProvider(providerCfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.ProviderType)
	}
}
