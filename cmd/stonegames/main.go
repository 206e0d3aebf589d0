// Package main is the entry point for the game catalog server.
// It loads configuration, connects to the configured backends, sets up
// routing, and starts the HTTP server with graceful shutdown support.
//
// Usage:
//
//	stonegames            serve the JSON API
//	stonegames reconcile  run one count reconciliation pass and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stonegames/internal/cache"
	"stonegames/internal/catalog"
	"stonegames/internal/config"
	"stonegames/internal/database"
	"stonegames/internal/handlers"
	"stonegames/internal/markdown"
	"stonegames/internal/memstore"
	"stonegames/internal/middleware"
	"stonegames/internal/router"
	"stonegames/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "reconcile":
		err = reconcile(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q (want serve or reconcile)", cmd)
	}
	if err != nil {
		slog.Error("stonegames failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// openCatalog builds the catalog service over the configured backend. The
// returned cleanup releases the backend's connections.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Service, func(), error) {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"backend", cfg.StoreBackend,
	)

	if cfg.StoreBackend == config.BackendMemory {
		slog.Warn("using the in-memory backend; data is lost on exit and count updates are best-effort")
		svc := catalog.NewService(catalog.Deps{
			Repos:   memstore.New().Repositories(),
			Journal: memstore.NewJournal(0),
			Render:  markdown.ToHTML,
		})
		return svc, func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	pg := store.NewCatalog(db)
	svc := catalog.NewService(catalog.Deps{
		Repos:   pg.Repositories(),
		Tx:      pg,
		Journal: store.NewSyncLogStore(db),
		Render:  markdown.ToHTML,
	})
	return svc, func() { db.Close() }, nil
}

// newLimiter returns the Valkey-backed limiter when Valkey is configured,
// and the in-process sliding window otherwise.
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func(), error) {
	if !cfg.ValkeyEnabled() {
		sw := middleware.NewSlidingWindow(cfg.RateLimitRequests, cfg.RateLimitWindow)
		return sw, sw.Stop, nil
	}

	client, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect valkey: %w", err)
	}
	wc := cache.NewWindowCounter(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
	return wc, func() { client.Close() }, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	svc, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	// Seed development data (no-op if categories already exist).
	if cfg.SeedDevData {
		if err := database.Seed(ctx, svc); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(handlers.NewCatalog(svc), limiter, cfg.TrustProxy),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}

// reconcile runs a single reconciliation pass and prints the report.
func reconcile(ctx context.Context, cfg *config.Config) error {
	svc, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	report, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
