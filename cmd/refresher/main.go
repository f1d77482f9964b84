package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"angels_reviews/internal/adapters/observability"
	"angels_reviews/internal/app"
	"angels_reviews/internal/bootstrap"
	"angels_reviews/internal/scheduler"
	"angels_reviews/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("schedule", cfg.RefreshSchedule).
		Str("store", cfg.StoreBackend).
		Bool("notify_email", cfg.SMTPHost != "" && cfg.NotifyTo != "").
		Msg("refresher starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open review store failed")
	}
	defer closeStore()

	reviews := bootstrap.Reviews(cfg, bootstrap.Places(cfg), store)
	if !reviews.Configured() {
		log.Fatal().Msg("refresher needs GOOGLE_PLACES_API_KEY and GOOGLE_PLACE_ID")
	}
	job := app.NewRefreshService(reviews, bootstrap.Notifier(cfg))

	// warm the cache so the first tick has fingerprints to compare against
	if recs, err := job.Force(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed")
	} else {
		log.Info().Int("reviews", len(recs)).Msg("initial refresh ok")
	}

	sched := scheduler.New()
	if err := sched.Add(cfg.RefreshSchedule, "google_reviews", job.Run); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("invalid REFRESH_SCHEDULE")
	}

	reg := observability.InitRegistry()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	if cfg.MetricsAddr != "" {
		msrv := &http.Server{Addr: cfg.MetricsAddr, Handler: observability.MetricsHandler(reg), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return msrv.Shutdown(sctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("refresher stopped with error")
	}
	reviews.Wait()
	log.Info().Msg("refresher stopped")
}
