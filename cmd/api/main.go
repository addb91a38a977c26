package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veriscan/internal/archive"
	"veriscan/internal/config"
	"veriscan/internal/database"
	"veriscan/internal/handler"
	"veriscan/internal/identifier"
	"veriscan/internal/ledger"
	"veriscan/internal/model"
	"veriscan/internal/registry"
	"veriscan/internal/router"
	"veriscan/internal/scan"
	"veriscan/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("ledger_backend", cfg.Ledger.Backend).Msg("starting veriscan API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStateStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	admin, err := model.ParseAddress(cfg.Ledger.AdminAddress)
	if err != nil {
		return fmt.Errorf("invalid ledger admin address: %w", err)
	}

	node := ledger.NewNode(store, ledger.NewRegistryContract(admin), ledger.NodeConfig{
		BlockTime: cfg.Ledger.BlockTime,
		QueueSize: cfg.Ledger.QueueSize,
	}, logger)
	defer node.Close()

	client := registry.NewClient(node, registry.Config{
		SubmitTimeout:    cfg.Ledger.SubmitTimeout,
		QueryTimeout:     cfg.Ledger.QueryTimeout,
		FetchConcurrency: registry.DefaultConfig().FetchConcurrency,
	}, logger)

	qrArchive := openArchive(ctx, cfg, logger)

	registration := service.NewRegistrationService(client, identifier.Default(), qrArchive, cfg.Archive.QRSize, logger)
	verification := service.NewVerificationService(client, scan.NewScanner(cfg.Scan.Window, logger), cfg.Scan.ScanCountTimeout, logger)
	manufacturers := service.NewManufacturerService(client, logger)

	mux := router.New(router.Handlers{
		Product:      handler.NewProductHandler(registration, logger),
		Manufacturer: handler.NewManufacturerHandler(manufacturers, logger),
		Verification: handler.NewVerificationHandler(verification, logger),
	}, cfg.Auth.APIKey, logger)

	// WriteTimeout leaves room for a full submit confirmation.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Ledger.SubmitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// Pending scan counts are submitted before the node stops.
		verification.Wait()

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func openStateStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ledger.StateStore, error) {
	if cfg.Ledger.Backend == config.LedgerMemory {
		logger.Warn().Msg("using in-memory ledger state, records are lost on restart")
		return ledger.NewMemoryStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := ledger.NewPostgresStore(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize ledger state store: %w", err)
	}
	return store, nil
}

func openArchive(ctx context.Context, cfg *config.Config, logger zerolog.Logger) archive.Archive {
	local := archive.NewFileArchive(cfg.Archive.Dir, logger)

	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.Archive.Dir).Msg("using local file system for QR images (S3 disabled)")
		return local
	}

	s3Archive, err := archive.NewS3Archive(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 archive, falling back to local file system only")
		return local
	}
	return archive.NewFallbackArchive(s3Archive, local, cfg.S3.Prefix, true, logger)
}
