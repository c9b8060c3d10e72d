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

	"github.com/joho/godotenv"
	"github.com/tendant/org-mgmt/internal/config"
	httpserver "github.com/tendant/org-mgmt/internal/http"
	"github.com/tendant/org-mgmt/pkg/auth"
	"github.com/tendant/org-mgmt/pkg/org"
	"github.com/tendant/org-mgmt/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to the master store
	db, err := repository.NewDB(repository.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MasterDB,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(ctx)
	}()

	logger.Info("connected to store", "database", cfg.MasterDB)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	if err := repository.EnsureIndexes(startupCtx, db); err != nil {
		logger.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	orgsRepo := repository.NewOrganizationsRepository(db)
	adminsRepo := repository.NewAdminsRepository(db)
	collectionsRepo := repository.NewCollectionsRepository(db)
	markersRepo := repository.NewMigrationsRepository(db)

	// Initialize services
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.JWTSecret),
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.TokenTTL,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		logger.Error("failed to initialize token service", "error", err)
		os.Exit(1)
	}

	creds := org.NewCredentialStore(adminsRepo)
	lifecycle := org.NewCollectionManager(collectionsRepo, markersRepo, logger)
	registry := org.NewRegistry(orgsRepo, creds, lifecycle, org.NewCache(), logger)

	// Resolve migrations interrupted by a previous crash before serving
	if err := registry.Reconcile(startupCtx); err != nil {
		logger.Error("migration reconciliation incomplete", "error", err)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		Registry:           registry,
		Credentials:        creds,
		Tokens:             tokens,
		LoginRateLimit:     cfg.LoginRateLimit,
		LoginRateWindow:    cfg.LoginRateWindow,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		SecurityHeaders:    cfg.SecurityHeadersEnabled,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
