package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"SidraStore/internal/adapters/cart"
	"SidraStore/internal/adapters/docstore"
	"SidraStore/internal/adapters/eventbus"
	"SidraStore/internal/adapters/localstore"
	"SidraStore/internal/adapters/postgres"
	"SidraStore/internal/adapters/security"
	"SidraStore/internal/adapters/telegram"
	"SidraStore/internal/api"
	"SidraStore/internal/checkout"
	"SidraStore/internal/shared/config"
	"SidraStore/internal/shared/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().Msg("Logger initialized")

	// 3. Print loaded config
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("http_addr", cfg.HTTPAddr).
		Str("bot_mode", cfg.Bot.Connection.Mode).
		Msg("Configuration loaded")

	// 4. Initialize the Security Service
	if cfg.EncryptionKey == "" {
		baseLogger.Fatal().Msg("ENCRYPTION_KEY is required to store customer data")
	}
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}

	// 5. Initialize Database
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// 6. Initialize Repositories
	productRepo := postgres.NewProductRepository(db, &baseLogger)
	orderRepo := postgres.NewOrderRepository(db, secSvc, &baseLogger)
	recordRepo := postgres.NewRecordRepository(db, &baseLogger)

	if err := postgres.SeedProducts(ctx, productRepo, &baseLogger); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to seed product catalog")
	}

	// 7. Initialize the Event Bus and Document Store
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	store := docstore.NewMemoryStore(recordRepo, &baseLogger)

	// 8. Initialize the Checkout Manager
	local, err := localstore.NewFileStore(cfg.LocalStorePath)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to open local store")
	}
	manager := checkout.NewManager(func(visitorID string) checkout.Deps {
		return checkout.Deps{
			Store:       store,
			Local:       local,
			Cart:        cart.NewStore(local, visitorID, &baseLogger),
			Bus:         bus,
			Logger:      &baseLogger,
			LocalPrefix: visitorID,
		}
	}, &baseLogger)
	defer manager.Close(context.Background())

	// 9. Build the HTTP API
	binClient := api.NewBinLookupClient(cfg.BinAPIKey, "", &baseLogger)
	handlers := api.NewHandlers(manager, productRepo, orderRepo, binClient, &baseLogger)
	router := api.NewRouter(handlers, &baseLogger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 10. Run the HTTP server and the moderation bot together
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		baseLogger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		orchestrator := telegram.NewOrchestrator(cfg, store, recordRepo, orderRepo, bus, &baseLogger)
		return orchestrator.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		baseLogger.Fatal().Err(err).Msg("Server exited with error")
	}
	baseLogger.Info().Msg("Server stopped gracefully")
}
