package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straintree/straintree-backend/internal/api"
	"github.com/straintree/straintree-backend/internal/auth"
	"github.com/straintree/straintree-backend/internal/config"
	"github.com/straintree/straintree-backend/internal/db"
	"github.com/straintree/straintree-backend/internal/logger"
	"github.com/straintree/straintree-backend/internal/metrics"
	"github.com/straintree/straintree-backend/internal/repository"
	"github.com/straintree/straintree-backend/internal/repository/postgres"
	"github.com/straintree/straintree-backend/internal/repository/sqlite"
	"github.com/straintree/straintree-backend/internal/services"
	"github.com/straintree/straintree-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, cleanup, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	wp := worker.NewPool(4)
	defer wp.Stop()

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	tokens := auth.NewTokenManager(cfg.ExportSecret, 24*time.Hour)

	authSvc := services.NewAuthService(repos.Users, repos.Sessions, sessionTTL)
	strainSvc := services.NewStrainService(repos.Strains)
	treeSvc := services.NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	exportSvc := services.NewExportService(repos.FamilyTrees, repos.Crosses, repos.Strains, wp, tokens, cfg.ExportDir)

	metrics.Init()
	r := api.NewRouter(cfg, authSvc, strainSvc, treeSvc, exportSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openRepositories picks the backend from the database URL: postgres for
// postgres:// URLs, sqlite (which migrates itself on open) for file paths.
func openRepositories(ctx context.Context, cfg config.Config) (repository.Repositories, func(), error) {
	if cfg.UsesPostgres() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repository.Repositories{}, nil, err
			}
		}
		return postgres.NewRepositories(pool), pool.Close, nil
	}

	conn, err := db.OpenSQLite(cfg.SQLitePath())
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	return sqlite.NewRepositories(conn), func() { _ = conn.Close() }, nil
}
