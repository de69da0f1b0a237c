package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pawpal/internal/adapters/auth/introspect"
	pg "pawpal/internal/adapters/storage/postgres"
	"pawpal/internal/platform/config"
	"pawpal/internal/platform/logger"
	"pawpal/internal/ports/auth"
	"pawpal/internal/router"
)

// @title PawPal API
// @version 1.0
// @description Planificador diario de cuidados para mascotas: households, tareas, plan del día y acceso compartido con cuidadores.
// @BasePath /
func main() {
	cfg, err := config.Load(os.Getenv("PAWPAL_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LoggerOptions())
	if s, ok := log.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DB.DSN != "" {
		db, err = pg.Open(ctx, cfg.DB.DSN, pg.PoolOptions{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
			PingTimeout:     cfg.DB.PingTimeout,
		})
		if err != nil {
			log.Error("postgres unavailable", map[string]any{"error": err})
			os.Exit(1)
		}
		defer db.Close()
		log.Info("using postgres storage", nil)
	} else {
		log.Info("using in-memory storage", nil)
	}

	var verifier auth.AuthVerifier // nil = modo dev (X-Debug-User-ID)
	if cfg.Auth.Enabled() {
		v, err := introspect.New(introspect.Config{
			BaseURL:      cfg.Auth.IntrospectURL,
			APIKey:       cfg.Auth.APIKey,
			APIKeyHeader: cfg.Auth.APIKeyHeader,
			Timeout:      cfg.Auth.Timeout,
			CacheTTL:     cfg.Auth.CacheTTL,
		}, log.With(map[string]any{"component": "auth"}))
		if err != nil {
			log.Error("auth verifier", map[string]any{"error": err})
			os.Exit(1)
		}
		verifier = v
	} else {
		log.Warn("auth disabled: accepting X-Debug-User-ID", nil)
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: router.NewRouter(router.Options{
			AuthVerifier:  verifier,
			DB:            db,
			Logger:        log,
			PlanCacheSize: cfg.Plan.CacheSize,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"error": err})
		os.Exit(1)
	}
	log.Info("server stopped", nil)
}
