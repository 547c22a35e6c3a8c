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
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/api"
	"CrashSentinel/internal/cache"
	"CrashSentinel/internal/config"
	"CrashSentinel/internal/intel"
	"CrashSentinel/internal/oracle"
	"CrashSentinel/internal/recorder"
	"CrashSentinel/internal/refresher"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	log.Info().Msg("CrashSentinel starting...")

	// Init intel collaborators. Perplexity covers both lookups when a key
	// is configured; otherwise market data comes from Yahoo and no search
	// provider is wired.
	var data intel.DataProvider
	var searcher intel.Searcher
	if cfg.Perplexity.APIKey != "" {
		px := intel.NewPerplexity(cfg.Perplexity.APIKey, cfg.Perplexity.BaseURL, cfg.Perplexity.Model,
			time.Duration(cfg.Perplexity.TimeoutSeconds)*time.Second)
		data = px
		searcher = px
	} else {
		data = intel.NewYahoo(time.Duration(cfg.Perplexity.TimeoutSeconds) * time.Second)
	}
	log.Info().Str("provider", data.Name()).Msg("market data source")

	// Init oracle
	agent := oracle.NewAgent(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second, data, searcher)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init cache
	store := cache.NewStore(cfg.Cache.File)
	coord := cache.NewCoordinator(store, agent, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background refresher: warm-up pass plus the hourly sweep
	bg := refresher.New(coord,
		time.Duration(cfg.Cache.RefreshIntervalMinutes)*time.Minute,
		time.Duration(cfg.Cache.ErrorCooldownSeconds)*time.Second)
	go bg.Run(ctx)

	// Daily audit retention
	c := cron.New(cron.WithSeconds())
	if cfg.Database.RetentionDays > 0 {
		retention := time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour
		if _, err := c.AddFunc("0 0 3 * * *", func() {
			n, err := rec.PruneBefore(time.Now().Add(-retention))
			if err != nil {
				log.Error().Err(err).Msg("audit prune failed")
				return
			}
			log.Info().Int64("rows", n).Msg("audit rows pruned")
		}); err != nil {
			log.Fatal().Err(err).Msg("register retention task")
		}
		c.Start()
		defer c.Stop()
	}

	// HTTP server
	if lvl > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(coord, agent, rec).Handler(),
	}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("CrashSentinel stopped")
}
