package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreBackend string // memory|redis|mysql
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string

	PlacesKey       string
	PlaceID         string
	PlacesBase      string
	PlacesLegacy    string
	PlacesRPS       int
	CacheKey        string
	StaleAfter      time.Duration
	ExpireAfter     time.Duration
	RefreshSchedule string
	DefaultLocation string
	DefaultService  string

	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	NotifyFrom string
	NotifyTo   string
}

// Configured reports whether Google Places can be queried at all.
func (c Config) Configured() bool { return c.PlacesKey != "" && c.PlaceID != "" }

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}
	return fromEnv()
}

func fromEnv() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	seconds := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		StoreBackend: env("STORE_BACKEND", "memory"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),

		PlacesKey:       env("GOOGLE_PLACES_API_KEY", ""),
		PlaceID:         env("GOOGLE_PLACE_ID", ""),
		PlacesBase:      env("GOOGLE_PLACES_BASE_URL", "https://places.googleapis.com/v1"),
		PlacesLegacy:    env("GOOGLE_PLACES_LEGACY_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesRPS:       atoi("PLACES_RPS", 5),
		CacheKey:        env("REVIEWS_CACHE_KEY", "google_reviews_cache"),
		StaleAfter:      seconds("REVIEWS_STALE_SECONDS", 1800),
		ExpireAfter:     seconds("REVIEWS_EXPIRY_SECONDS", 7200),
		RefreshSchedule: env("REFRESH_SCHEDULE", "@hourly"),
		DefaultLocation: env("REVIEW_DEFAULT_LOCATION", "Orlando, FL"),
		DefaultService:  env("REVIEW_DEFAULT_SERVICE", "Spiritual Recovery Coaching"),

		SMTPHost:   env("SMTP_HOST", ""),
		SMTPPort:   atoi("SMTP_PORT", 587),
		SMTPUser:   env("SMTP_USERNAME", ""),
		SMTPPass:   env("SMTP_PASSWORD", ""),
		NotifyFrom: env("NOTIFY_FROM", "reviews@angelswalking.com"),
		NotifyTo:   env("NOTIFY_TO", ""),
	}
	if !c.Configured() {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY or GOOGLE_PLACE_ID is empty; google reviews disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
