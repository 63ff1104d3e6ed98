package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/modreg/internal/adapter/fsm"
	handler "github.com/neomorfeo/modreg/internal/adapter/http"
	"github.com/neomorfeo/modreg/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/modreg/internal/adapter/river"
	"github.com/neomorfeo/modreg/internal/adapter/sqlite"
	"github.com/neomorfeo/modreg/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("modreg: %v", err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "modreg.db")
	keyPrefix := envOrDefault("MODREG_KEY_PREFIX", "apps.")
	coreModules := splitCSV(os.Getenv("MODREG_CORE_MODULES"))
	installed := splitCSV(os.Getenv("MODREG_INSTALLED"))

	ctx := context.Background()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	riverClient, err := riveradapter.Setup(ctx, db)
	if err != nil {
		return fmt.Errorf("river setup: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			slog.Error("river stop", "error", err)
		}
	}()

	publisher := otel.NewTracingPublisher(riveradapter.NewPublisher(riverClient))
	validator := fsm.New()

	// --- Application ---
	svc := app.NewModuleService(
		otel.NewTracingRepository(repo),
		publisher,
		validator,
		app.Config{KeyPrefix: keyPrefix, CoreModules: coreModules},
	)

	// Reconcile the catalog with the installed set before serving traffic.
	if len(installed) > 0 || len(coreModules) > 0 {
		report, err := svc.Sync(ctx, installed, coreModules, "system")
		if err != nil {
			return fmt.Errorf("startup sync: %w", err)
		}
		slog.Info("catalog reconciled",
			"created", len(report.Created),
			"promoted", len(report.Promoted),
		)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("modreg", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("modreg", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("modreg listening", "port", port)
		slog.Info("API docs", "url", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV parses a comma-separated env value into trimmed, non-empty keys.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
