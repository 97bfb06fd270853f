package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"slidedeck/internal/config"
	"slidedeck/internal/handlers"
	"slidedeck/internal/logging"
	"slidedeck/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "slidedeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Open the snapshot slot
	slot, closeSlot, err := services.OpenSlot(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := closeSlot(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	// Initialize services
	wsService := services.NewWebSocketService(logger)
	go wsService.Run()
	defer wsService.Stop()

	store, err := services.NewSlideStore(slot,
		services.WithKey(cfg.Storage.Key),
		services.WithLogger(logger),
		services.WithPublisher(wsService),
		services.WithNotifier(wsService))
	if err != nil {
		return fmt.Errorf("failed to load slides: %w", err)
	}

	// Setup routes
	router := handlers.SetupRoutes(logger,
		handlers.NewSlideHandler(store, logger),
		handlers.NewPresentationHandler(store, logger),
		handlers.NewRecommendationHandler(store, logger),
		handlers.NewWebSocketHandler(wsService, logger))

	// Configure server
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}
			logger.Info("starting HTTPS server",
				zap.String("addr", server.Addr),
				zap.String("cert", cfg.TLS.CertFile),
				zap.String("key", cfg.TLS.KeyFile),
				zap.String("min_tls", cfg.TLS.MinVersion))
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			logger.Info("starting HTTP server", zap.String("addr", server.Addr))
			logger.Warn("HTTP mode is not recommended for production")
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
