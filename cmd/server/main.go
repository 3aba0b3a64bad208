package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/palletflow/internal/config"
	"github.com/JonMunkholm/palletflow/internal/core"
	_ "github.com/JonMunkholm/palletflow/internal/core/imports" // Register all imports
	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/JonMunkholm/palletflow/internal/database/memstore"
	"github.com/JonMunkholm/palletflow/internal/logging"
	"github.com/JonMunkholm/palletflow/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(store, core.Options{
		MaxFileSize:       cfg.Import.MaxFileSize,
		MaxReportedErrors: cfg.Import.MaxReportedErrors,
		Timeout:           cfg.Import.Timeout,
		MergeAtomic:       cfg.Import.MergeAtomic,
		MaxConcurrent:     cfg.Import.MaxConcurrent,
		MaxWait:           cfg.Import.MaxWaitTime,
	})

	slog.Info("imports registered", "count", core.Count(), "groups", len(core.Groups()))
	for _, group := range core.Groups() {
		slog.Debug("import group", "group", group, "imports", len(core.ByGroup(group)))
	}

	server := web.NewServer(ctx, service, cfg)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects the configured driver and returns its closer.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (core.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		store := memstore.New()
		if cfg.SeedDemo {
			seedDemo(store)
			slog.Info("memory store seeded with demo data")
		}
		slog.Warn("using in-memory store; data is lost on restart")
		return store, func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store := database.NewStore(pool)
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("schema applied")
	}
	return store, pool.Close, nil
}

// seedDemo loads enough reference data to try every import by hand.
func seedDemo(s *memstore.Store) {
	s.SeedLocation("WH-01", "warehouse")
	s.SeedLocation("AMS", "destination")
	s.SeedLocation("RTM", "port")
	s.SeedCarrier("DHL", "DHL Freight")
	s.SeedCarrier("MAERSK", "Maersk Line")

	stocked := s.SeedOrderLine("SO-1001", "AMS", "AMBIENT", 40)
	s.SeedInventory(stocked, 40, 40)
	s.SeedOrderLine("SO-1001", "RTM", "CHILLED", 24)
	s.SeedOrderLine("SO-1002", "RTM", "AMBIENT", 60)
}
