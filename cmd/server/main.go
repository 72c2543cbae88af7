package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/minwoo-dev/talklink/internal/adapters/http"
	wssignal "github.com/minwoo-dev/talklink/internal/adapters/signal"
	"github.com/minwoo-dev/talklink/internal/app"
	"github.com/minwoo-dev/talklink/internal/app/orch"
	"github.com/minwoo-dev/talklink/internal/config"
	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/metrics"
	"github.com/minwoo-dev/talklink/internal/repo"
	"github.com/minwoo-dev/talklink/migrations"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()
	if err := store.RunMigrations(ctx, migrations.Files); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	m := metrics.Registry(cfg.MetricsNamespace)
	registry := app.NewRegistry()
	rooms := app.NewDirectory()
	settler := app.NewSettler(store, m)
	go settler.Run(ctx)

	engine := orch.New(orch.Deps{
		Registry:        registry,
		Rooms:           rooms,
		Store:           store,
		Settler:         settler,
		Clock:           app.SystemClock(),
		Dispatch:        core.NopDispatcher{},
		Metrics:         m,
		ConferenceAppID: cfg.ConferenceAppID,
	})
	wsCtl := wssignal.NewWSController(engine, m)
	engine.SetDispatcher(wsCtl)

	r := router.SetupRouter(ctx, cfg, engine, wsCtl, registry, store)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("db", cfg.DB.Driver).Msg("TalkLink server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	switch cfg.DB.Driver {
	case "postgres":
		return repo.NewPostgres(ctx, cfg.DB.URL, cfg.DB.Schema, log.Logger)
	case "sqlite", "":
		return repo.NewSQLite(ctx, cfg.DB.Path, log.Logger)
	}
	return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
}
