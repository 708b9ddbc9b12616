package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/auth"
	"github.com/mkolb22/k8s-news-engine/internal/cleanup"
	"github.com/mkolb22/k8s-news-engine/internal/composer"
	"github.com/mkolb22/k8s-news-engine/internal/config"
	"github.com/mkolb22/k8s-news-engine/internal/ingest"
	"github.com/mkolb22/k8s-news-engine/internal/ner"
	"github.com/mkolb22/k8s-news-engine/internal/perfconfig"
	"github.com/mkolb22/k8s-news-engine/internal/reputation"
	"github.com/mkolb22/k8s-news-engine/internal/scheduler"
	"github.com/mkolb22/k8s-news-engine/internal/store"
	"github.com/mkolb22/k8s-news-engine/internal/validator"
	"github.com/mkolb22/k8s-news-engine/internal/webapi"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("opening store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("running migrations")
	}

	repSvc := reputation.NewService(st, log)
	nerExtractor := ner.NewExtractor()
	perfMgr := perfconfig.NewManager(st, log, cfg.ServiceInstance, cfg.AutoTuneApply)

	if _, err := perfMgr.LoadStartupConfiguration(ctx); err != nil {
		log.Error().Err(err).Msg("loading startup grouping configuration, using defaults")
	}

	if results, err := validator.Validate(ctx, st); err != nil {
		log.Error().Err(err).Msg("validating feed-to-agency mappings at startup")
	} else {
		summary := validator.Summarize(results)
		log.Info().Interface("summary", summary).Msg("startup feed validation complete")
	}

	ingestSvc := ingest.NewService(st, log)
	schedulerSvc := scheduler.NewService(st, ingestSvc, log, cfg.FetchInterval, cfg.SchedulerWorkers,
		cfg.PerHostMinInterval, cfg.ShutdownDrain)
	schedulerSvc.Start(ctx)
	defer schedulerSvc.Stop()

	composerSvc := composer.NewService(st, repSvc, nerExtractor, perfMgr, log, cfg.BatchSize, cfg.SleepInterval)
	go func() {
		if err := composerSvc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("composer loop exited")
		}
	}()

	cleanupJob := cleanup.NewJob(st, log, cleanup.Defaults{
		ArticleRetentionHours: cfg.ArticleRetentionHours,
		EventRetentionHours:   cfg.EventRetentionHours,
		MetricsRetentionHours: cfg.MetricsRetentionHours,
		BatchSize:             cfg.CleanupBatchSize,
	}, time.Hour)
	go cleanupJob.Run(ctx)

	var authSvc *auth.Service
	if cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("hashing configured admin password")
		}
		authSvc = auth.NewService(cfg.JWTSecret, hash)
	} else {
		log.Warn().Msg("ADMIN_PASSWORD not set, updateGroupingConfig mutation is unauthenticated")
	}

	router, err := webapi.NewRouter(st, perfMgr, authSvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("building web router")
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("web surface starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("web server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDrain)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("web server forced shutdown")
	}

	log.Info().Msg("shutdown complete")
}
