//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "angels_reviews/internal/adapters/http_server"
	"angels_reviews/internal/adapters/places"
	redisad "angels_reviews/internal/adapters/redis"
	"angels_reviews/internal/app"
	"angels_reviews/internal/domain"
)

// fakeGoogle serves Places API (New) place details with a swappable review list.
type fakeGoogle struct {
	mu      sync.Mutex
	reviews []map[string]any
	hits    int32
}

func (f *fakeGoogle) set(rs ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = rs
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.hits, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":              "place-1",
		"rating":          4.9,
		"userRatingCount": 41,
		"reviews":         f.reviews,
	})
}

func review(author, text string, rating int) map[string]any {
	return map[string]any{
		"rating":            rating,
		"text":              map[string]any{"text": text},
		"authorAttribution": map[string]any{"displayName": author},
		"publishTime":       "2025-05-01T09:00:00Z",
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time { c.mu.Lock(); defer c.mu.Unlock(); return c.t }
func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func getReviews(t *testing.T, base string) []domain.ReviewRecord {
	t.Helper()
	res, err := http.Get(base + "/v1/reviews")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out []domain.ReviewRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestHTTP_EndToEnd_StaleWhileRevalidate(t *testing.T) {
	google := &fakeGoogle{}
	google.set(review("Sarah M.", "Amazing experience, highly recommend!", 5), review("Tom", "It was okay I guess.", 3))
	gs := httptest.NewServer(google)
	defer gs.Close()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	store := redisad.NewWithClient(rc, "e2e:")

	cl, err := places.New(places.Config{BaseURL: gs.URL, LegacyURL: gs.URL + "/legacy", APIKey: "k", RPS: 50})
	require.NoError(t, err)

	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := app.NewReviewService(cl, store, app.Settings{
		PlaceID: "place-1",
		Display: app.Display{Location: "Orlando, FL"},
		Now:     c.Now,
	})
	srv := server.New()
	srv.MountHandlers(&server.Handlers{R: svc})
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	// cold start fetches synchronously and keeps only 5-star reviews
	got := getReviews(t, api.URL)
	require.Len(t, got, 1)
	assert.Equal(t, "Sarah M.", got[0].AuthorName)
	assert.Equal(t, "SM", got[0].Initials)
	assert.True(t, mr.Exists("e2e:"+app.DefaultCacheKey))

	// fresh: served from redis
	getReviews(t, api.URL)
	assert.EqualValues(t, 1, atomic.LoadInt32(&google.hits))

	// stale: old list now, new list after the background refresh lands
	google.set(review("Sarah M.", "Amazing experience, highly recommend!", 5), review("Ann Lee", "Best decision I ever made.", 5))
	c.Advance(45 * time.Minute)
	got = getReviews(t, api.URL)
	assert.Len(t, got, 1)
	svc.Wait()
	assert.EqualValues(t, 2, atomic.LoadInt32(&google.hits))

	got = getReviews(t, api.URL)
	assert.Len(t, got, 2)

	// Google goes away and the entry expires: last known reviews still served
	gs.Close()
	c.Advance(3 * time.Hour)
	got = getReviews(t, api.URL)
	assert.Len(t, got, 2)

	env, state := svc.Snapshot(context.Background())
	assert.Equal(t, app.StateExpired, state)
	assert.Len(t, env.Fingerprints, 2)
}
