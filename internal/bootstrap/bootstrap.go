// Package bootstrap builds the review cache manager from configuration. It is
// shared by the api, refresher and reviewsctl binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"angels_reviews/internal/adapters/mailer"
	"angels_reviews/internal/adapters/places"
	redisad "angels_reviews/internal/adapters/redis"
	"angels_reviews/internal/app"
	"angels_reviews/internal/domain"
	"angels_reviews/internal/shared"
	"angels_reviews/internal/storage/memory"
	mysqlstore "angels_reviews/internal/storage/mysql"
)

// OpenStore connects the configured backend. The returned func releases it.
func OpenStore(ctx context.Context, cfg shared.Config) (domain.KeyValueStore, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return memory.New(), func() {}, nil
	case "redis":
		st := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := st.Ping(ctx); err != nil {
			// not fatal: reads and writes degrade per request
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		return st, func() { _ = st.Close() }, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		st := mysqlstore.New(db)
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("database connection ok")
		return st, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// Places returns the Google client, or nil when no API key is configured.
func Places(cfg shared.Config) *places.Client {
	cl, err := places.New(places.Config{
		BaseURL:   cfg.PlacesBase,
		LegacyURL: cfg.PlacesLegacy,
		APIKey:    cfg.PlacesKey,
		RPS:       cfg.PlacesRPS,
	})
	if err != nil {
		log.Warn().Err(err).Msg("google places client disabled")
		return nil
	}
	return cl
}

// Reviews builds the cache manager. A nil client leaves it unconfigured.
func Reviews(cfg shared.Config, cl *places.Client, store domain.KeyValueStore) *app.ReviewService {
	var provider domain.ReviewsProvider
	if cl != nil {
		provider = cl
	}
	return app.NewReviewService(provider, store, app.Settings{
		PlaceID:     cfg.PlaceID,
		CacheKey:    cfg.CacheKey,
		StaleAfter:  cfg.StaleAfter,
		ExpireAfter: cfg.ExpireAfter,
		Display:     app.Display{Location: cfg.DefaultLocation, Service: cfg.DefaultService},
	})
}

func Notifier(cfg shared.Config) domain.Notifier {
	return mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.NotifyFrom,
		To:       cfg.NotifyTo,
	})
}
