package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/server"
	"github.com/chad-murphy-data/android-converter/internal/service/assess"
	"github.com/chad-murphy-data/android-converter/internal/service/call"
	"github.com/chad-murphy-data/android-converter/internal/service/completion"
	"github.com/chad-murphy-data/android-converter/internal/storage"
	"github.com/chad-murphy-data/android-converter/internal/telemetry"
	"github.com/chad-murphy-data/android-converter/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SIM_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("simulator starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Open storage: Postgres when DATABASE_URL is set, SQLite otherwise.
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	// Select completion provider.
	provider, err := completion.NewProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("completion: %w", err)
	}

	// Call orchestration stack.
	assessor := assess.NewClient(provider, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	runner := call.New(provider, assessor, store, cfg, rng, logger)

	broker := server.NewBroker(logger)

	srv := server.New(server.ServerConfig{
		Store:        store,
		Runner:       runner,
		Broker:       broker,
		Logger:       logger,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Version:      version,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting requests and drain in-flight calls.
	// Streamed calls observe their request context and abort with a fallback
	// summary once the client disconnects.
	slog.Info("simulator shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("simulator stopped")
	return nil
}

// newStore opens the configured storage backend and prepares its schema.
func newStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(ctx, migrations.FS); err != nil {
			_ = pg.Close(ctx)
			return nil, err
		}
		logger.Info("storage: postgres")
		return pg, nil
	}

	st, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("storage: sqlite", "path", cfg.SQLitePath)
	return st, nil
}
