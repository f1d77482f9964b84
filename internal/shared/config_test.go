package shared

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_PLACES_API_KEY", "")
	t.Setenv("GOOGLE_PLACE_ID", "")
	t.Setenv("REVIEWS_STALE_SECONDS", "")
	t.Setenv("STORE_BACKEND", "")

	c := fromEnv()
	if c.Configured() {
		t.Fatalf("expected unconfigured places")
	}
	if c.StaleAfter != 30*time.Minute || c.ExpireAfter != 2*time.Hour {
		t.Fatalf("unexpected windows: %v / %v", c.StaleAfter, c.ExpireAfter)
	}
	if c.StoreBackend != "memory" || c.RefreshSchedule != "@hourly" || c.CacheKey != "google_reviews_cache" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GOOGLE_PLACES_API_KEY", "k")
	t.Setenv("GOOGLE_PLACE_ID", "ChIJ123")
	t.Setenv("REVIEWS_STALE_SECONDS", "60")
	t.Setenv("REVIEWS_EXPIRY_SECONDS", "86400")
	t.Setenv("PLACES_RPS", "not-a-number")
	t.Setenv("STORE_BACKEND", "redis")

	c := fromEnv()
	if !c.Configured() || c.PlaceID != "ChIJ123" {
		t.Fatalf("expected configured places: %+v", c)
	}
	if c.StaleAfter != time.Minute || c.ExpireAfter != 24*time.Hour {
		t.Fatalf("unexpected windows: %v / %v", c.StaleAfter, c.ExpireAfter)
	}
	if c.PlacesRPS != 5 {
		t.Fatalf("bad number should keep default, got %d", c.PlacesRPS)
	}
	if c.StoreBackend != "redis" {
		t.Fatalf("backend = %s", c.StoreBackend)
	}
}
