// Package main is the entry point for the master-data service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"masterdata/internal/catalog"
	"masterdata/internal/config"
	"masterdata/internal/core/tx"
	"masterdata/internal/engine"
	v1 "masterdata/internal/http/v1"
	"masterdata/internal/http/v1/handlers"
	"masterdata/internal/http/v1/middleware"
	"masterdata/internal/importexport"
	"masterdata/internal/storage/memory"
	"masterdata/internal/storage/postgres"
	"masterdata/pkg/logger"
)

func main() {
	// .env is optional, real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MASTERDATA_CONFIG"))
	if err != nil {
		logger.Default().Fatalw("failed to load config", "error", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger.Default().Fatalw("failed to init logger", "error", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	registry := catalog.Registry()
	caps := cfg.Capabilities()

	var (
		store     engine.RecordStore
		txManager tx.Manager
		auditor   engine.Auditor
		history   handlers.Historian
		db        handlers.Pinger
	)

	if cfg.Database.URL == "" {
		log.Warnw("no database URL configured, using in-memory store")
		store = memory.NewStore()
	} else {
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		txm := postgres.NewTxManager(pool)
		store = postgres.NewRecordRepo(txm)
		txManager = txm
		db = pool

		if cfg.Audit.Enabled {
			audit, err := postgres.NewAuditService(txm)
			if err != nil {
				log.Fatalw("failed to init audit service", "error", err)
			}
			auditor = audit
			history = audit
		}
	}

	eng := engine.NewService(store, txManager, auditor)

	// No addon is shipped with this binary; the resolver stays nil and the
	// delegate answers 503 whenever the capability flag is on.
	delegate := importexport.NewDelegate(caps, registry, nil)

	var validator middleware.TokenValidator
	if cfg.Auth.Enabled {
		validator = middleware.NewJWTValidator(cfg.Auth.JWTSecret)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Registry:       registry,
		Capabilities:   caps,
		Engine:         eng,
		History:        history,
		ImportExport:   delegate,
		DB:             db,
		Logger:         log,
		TokenValidator: validator,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("starting server",
			"port", cfg.Server.Port,
			"entities", len(registry.List()),
			"auth", cfg.Auth.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	log.Infow("server stopped")
}
