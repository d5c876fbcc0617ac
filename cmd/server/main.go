// Command server runs the FixItNow portal backend: a snapshot-store API over
// SQLite with remote-first authentication and reverse-geocoded registration.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fixitnow/portal-backend/internal/auth"
	"github.com/fixitnow/portal-backend/internal/config"
	"github.com/fixitnow/portal-backend/internal/geo"
	httpapi "github.com/fixitnow/portal-backend/internal/http"
	"github.com/fixitnow/portal-backend/internal/identity"
	"github.com/fixitnow/portal-backend/internal/observability"
	"github.com/fixitnow/portal-backend/internal/repo"
	"github.com/fixitnow/portal-backend/internal/store"
	"github.com/fixitnow/portal-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Best-effort .env for local development; real deployments use the
	// process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", "portal-backend").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing is optional; a failed exporter setup should not keep the API
	// from serving.
	shutdownOTel := func(context.Context) error { return nil }
	if cfg.OTEL.Enabled {
		sd, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			logger.Warn().Err(err).Msg("otel setup failed; tracing disabled")
		} else {
			shutdownOTel = sd
		}
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	accounts := identity.NewStore(db, httpapi.AccountRepo{})

	providerAccounts, err := accounts.ProviderAccounts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("listing provider accounts; hydrating without them")
	}

	st, err := store.Open(ctx, &repo.SnapshotStore{DB: db, Key: cfg.SnapshotKey}, providerAccounts, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot store")
	}

	var remote *auth.Client
	if cfg.Auth.BaseURL != "" {
		remote = auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.Timeout)
	}
	authSvc := auth.NewService(remote, accounts, logger)
	geocoder := geo.NewClient(cfg.Geo.PrimaryURL, cfg.Geo.BackupURL, cfg.Geo.Timeout, logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, st, authSvc, geocoder, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("stopped")
}
