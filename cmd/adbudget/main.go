package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	newsbreakadapter "github.com/ericfisherdev/adbudget/internal/adapter/driven/newsbreak"
	sqliteadapter "github.com/ericfisherdev/adbudget/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/adbudget/internal/adapter/driving/http"
	"github.com/ericfisherdev/adbudget/internal/application"
	"github.com/ericfisherdev/adbudget/internal/config"
	"github.com/ericfisherdev/adbudget/internal/crypto"
	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing or malformed encryption key).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"newsbreak_base_url", cfg.NewsBreakBaseURL,
		"http_timeout", cfg.HTTPTimeout,
		"owner_header", cfg.OwnerHeader,
	)

	// 2. Build the token cipher before touching any stored secret.
	cipher, err := crypto.New(cfg.TokenEncryptionKey)
	if err != nil {
		return err
	}

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	schemaVersion, err := sqliteadapter.SchemaVersion(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", schemaVersion)

	// 6. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db)
	platformStore := sqliteadapter.NewPlatformRepo(db)

	clients := application.NewBudgetClientProvider()
	clients.Replace(model.PlatformNewsBreak, newsbreakadapter.NewClient(newsbreakadapter.ClientConfig{
		BaseURL: cfg.NewsBreakBaseURL,
		Timeout: cfg.HTTPTimeout,
	}, slog.Default()))

	// 7. Create services.
	credentialSvc := application.NewCredentialService(credentialStore, platformStore, cipher, slog.Default())
	budgetSvc := application.NewBudgetService(credentialSvc, clients, slog.Default())
	healthSvc := application.NewHealthService(db, clients, slog.Default())

	// 8. Create HTTP handler with routes and middleware.
	apiHandler := httphandler.NewHandler(credentialSvc, budgetSvc, healthSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, cfg.OwnerHeader, slog.Default())

	// WriteTimeout leaves room for a recharge: two outbound calls plus store writes.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2*cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	// 9. Log startup complete.
	slog.Info("adbudget started",
		"listen_addr", cfg.ListenAddr,
		"platforms", clients.Platforms(),
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
