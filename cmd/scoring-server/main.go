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

	"github.com/rbeezley/myk9q-scoring/internal/api"
	"github.com/rbeezley/myk9q-scoring/internal/catalog"
	"github.com/rbeezley/myk9q-scoring/internal/cleanup"
	"github.com/rbeezley/myk9q-scoring/internal/config"
	"github.com/rbeezley/myk9q-scoring/internal/realtime"
	"github.com/rbeezley/myk9q-scoring/internal/scoring"
	"github.com/rbeezley/myk9q-scoring/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting myk9q scoring server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Database.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := openRepository(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	// Load class defaults
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load catalog from dir", "dir", cfg.Catalog.Dir, "error", err)
	}

	store, err := openSessionStore(initCtx, cfg)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub(realtime.HubConfig{
		SendBufferSize: cfg.Realtime.SendBufferSize,
		PingInterval:   cfg.Realtime.PingInterval,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	svc := scoring.NewService(repo, store, loader,
		scoring.WithPublisher(hub),
		scoring.WithWarningThreshold(cfg.Scoring.WarningThreshold),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relay entry changes written by other clients
	if cfg.Realtime.Enabled && cfg.Database.Driver == "postgres" {
		listener := realtime.NewListener(realtime.ListenerConfig{
			DSN:          cfg.Database.DSN,
			Channel:      cfg.Realtime.Channel,
			MinReconnect: cfg.Realtime.MinReconnect,
			MaxReconnect: cfg.Realtime.MaxReconnect,
		}, hub)
		go func() {
			if err := listener.Run(ctx); err != nil {
				slog.Error("entry listener stopped", "error", err)
			}
		}()
	}

	// Start idle session reaper
	reaper := cleanup.NewReaper(svc, cfg.Cleanup.Interval, cfg.Scoring.SessionIdleTTL)
	reaper.Start(ctx)

	// Setup HTTP server. No WriteTimeout: class websockets are long-lived
	// and handlers are bounded by the router timeout instead.
	server := api.NewServer(cfg.Server, repo, svc, loader, hub)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()
	reaper.Wait()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("session store close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("myk9q scoring server stopped")
}

func openRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.Driver == "memory" {
		repo := storage.NewMemoryRepository()
		if cfg.SeedFile != "" {
			if err := repo.SeedFromFile(cfg.SeedFile); err != nil {
				return nil, err
			}
			slog.Info("memory storage seeded", "file", cfg.SeedFile)
		}
		return repo, nil
	}

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database connected successfully")
	return repo, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config) (scoring.Store, error) {
	if cfg.Redis.Address == "" {
		slog.Info("using in-process session store")
		return scoring.NewMemoryStore(), nil
	}

	return scoring.NewRedisStore(ctx, scoring.RedisConfig{
		Address:   cfg.Redis.Address,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Scoring.SessionIdleTTL,
	})
}
