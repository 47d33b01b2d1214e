package main

import (
	"context"
	"flag"
	_ "go-prod-dashboard/docs"
	"go-prod-dashboard/internal/api"
	"go-prod-dashboard/internal/api/handler"
	"go-prod-dashboard/internal/config"
	"go-prod-dashboard/internal/pipeline"
	"go-prod-dashboard/internal/store"
	"go-prod-dashboard/pkg/router"
	"go-prod-dashboard/pkg/utils"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default $DASHBOARD_CONFIG or config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}
	cfg.Log.SetupLogging()
	log.Info().Int("dashboards", len(cfg.Dashboards)).Msg("✅ Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	if err := store.InitDB(cfg.Server.DBPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("❌ Failed to open load history database")
	}
	defer store.Close()

	var backend pipeline.CacheBackend
	if cfg.Cache.EnableRedis {
		rc, err := pipeline.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Redis unavailable, using in-process cache")
		} else {
			defer rc.Close()
			backend = rc
			log.Info().Msg("✅ Redis cache connected")
		}
	}

	loader := pipeline.NewLoader(cfg.Sheets.BaseURL, cfg.Sheets.GetFetchTimeout())
	runner := pipeline.NewRunner(loader, pipeline.NewTableCache(backend), store.Recorder{}, cfg.Cache.GetTTL())
	h := handler.NewDashboardHandler(cfg.Dashboards, runner, utils.NewOutputManager(cfg.Server.OutputDir))

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r, h)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start(cfg.Server.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("❌ Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()
		if err := r.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("❌ Graceful shutdown failed")
		}
	}
}
