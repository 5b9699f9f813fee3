package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/app"
	"github.com/sangkips/atelier-api/internal/config"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/presentation/http/routes"
	"github.com/sangkips/atelier-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if cfg.ConfigFileUsed != "" {
		log.Info("configuration file loaded", "path", cfg.ConfigFileUsed)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	if err := database.SeedDefaultData(db, log); err != nil {
		log.Warn("failed to seed default data", "error", err)
	}

	container, err := app.New(ctx, db, cfg, log)
	if err != nil {
		log.Fatal("failed to build services", "error", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Warn("failed to close container", "error", err)
		}
	}()

	handlers := &routes.Handlers{
		Material:   handler.NewMaterialHandler(container.Materials, container.Ledger),
		Stock:      handler.NewStockHandler(container.Ledger),
		Production: handler.NewProductionHandler(container.Production),
		Payroll:    handler.NewPayrollHandler(container.Payroll),
	}

	router := routes.Setup(ctx, handlers, &routes.Deps{
		Cfg:             cfg,
		Log:             log,
		IdempotencyRepo: container.IdempotencyRepo,
		Locker:          container.Locker,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "name", cfg.App.Name, "port", port, "env", cfg.App.Env, "lock_backend", cfg.Ledger.LockBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		cleanupIdempotencyKeys(gctx, container.IdempotencyRepo, cfg.Idempotency.CleanupInterval, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// cleanupIdempotencyKeys drops expired keys until ctx is done
func cleanupIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Warn("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("expired idempotency keys removed", "count", n)
			}
		}
	}
}
