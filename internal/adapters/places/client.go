// Package places talks to the Google Places APIs: Places API (New) first,
// the legacy Place Details / Text Search endpoints as fallback.
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"angels_reviews/internal/adapters/observability"
	"angels_reviews/internal/domain"
)

const (
	DefaultBaseURL   = "https://places.googleapis.com/v1"
	DefaultLegacyURL = "https://maps.googleapis.com/maps/api/place"

	reviewsFieldMask = "id,displayName,rating,userRatingCount,reviews"
	ratingFieldMask  = "rating,userRatingCount"
	maxAttempts      = 4
)

type Config struct {
	BaseURL   string
	LegacyURL string
	APIKey    string
	RPS       int
	Timeout   time.Duration
}

type Client struct {
	base    string
	legacy  string
	key     string
	hc      *http.Client
	rl      *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("places: API key is required: %w", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LegacyURL == "" {
		cfg.LegacyURL = DefaultLegacyURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		legacy:  strings.TrimRight(cfg.LegacyURL, "/"),
		key:     cfg.APIKey,
		hc:      &http.Client{Timeout: cfg.Timeout},
		rl:      rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
		breaker: newBreaker("google_places"),
	}, nil
}

// ---- Public API ----

func (c *Client) FetchReviews(ctx context.Context, placeID string) ([]domain.UpstreamReview, error) {
	var out []domain.UpstreamReview
	err := c.getFirst(ctx, []endpoint{
		c.placeNew(placeID, reviewsFieldMask),
		c.placeLegacy(placeID, "name,rating,reviews"),
	}, func(ep endpoint, payload map[string]any) error {
		var err error
		out, err = parseReviews(payload, ep.legacy)
		return err
	})
	return out, err
}

func (c *Client) FetchRating(ctx context.Context, placeID string) (domain.BusinessRating, error) {
	var out domain.BusinessRating
	err := c.getFirst(ctx, []endpoint{
		c.placeNew(placeID, ratingFieldMask),
		c.placeLegacy(placeID, "rating,user_ratings_total"),
	}, func(ep endpoint, payload map[string]any) error {
		var err error
		out, err = parseRating(payload, ep.legacy)
		return err
	})
	return out, err
}

// FindPlace runs a legacy Text Search; handy for discovering the place id.
func (c *Client) FindPlace(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	q := url.Values{"query": {query}, "key": {c.key}}
	ep := endpoint{
		name:   "textsearch",
		url:    c.legacy + "/textsearch/json?" + q.Encode(),
		legacy: true,
	}
	var out []domain.PlaceCandidate
	err := c.getFirst(ctx, []endpoint{ep}, func(_ endpoint, payload map[string]any) error {
		var err error
		out, err = parseCandidates(payload)
		return err
	})
	return out, err
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("places: not found: %w", domain.ErrUpstreamUnavailable)
	ErrUnauthorized = fmt.Errorf("places: unauthorized: %w", domain.ErrUpstreamUnavailable)
	ErrForbidden    = fmt.Errorf("places: forbidden: %w", domain.ErrUpstreamUnavailable)
)

type endpoint struct {
	name   string // metrics label
	url    string
	header http.Header
	legacy bool
}

func (c *Client) placeNew(placeID, mask string) endpoint {
	h := http.Header{}
	h.Set("X-Goog-Api-Key", c.key)
	h.Set("X-Goog-FieldMask", mask)
	return endpoint{
		name:   "places_v1",
		url:    fmt.Sprintf("%s/places/%s", c.base, url.PathEscape(placeID)),
		header: h,
	}
}

func (c *Client) placeLegacy(placeID, fields string) endpoint {
	q := url.Values{"place_id": {placeID}, "fields": {fields}, "key": {c.key}}
	return endpoint{
		name:   "place_details",
		url:    c.legacy + "/details/json?" + q.Encode(),
		legacy: true,
	}
}

// getFirst tries endpoints in order and stops at the first one whose payload
// decodes. Context cancellation ends the walk immediately.
func (c *Client) getFirst(ctx context.Context, eps []endpoint, decode func(endpoint, map[string]any) error) error {
	var last error
	for _, ep := range eps {
		body, err := c.breaker.Execute(func() ([]byte, error) { return c.get(ctx, ep) })
		if err == nil {
			var payload map[string]any
			if jerr := json.Unmarshal(body, &payload); jerr != nil {
				err = fmt.Errorf("%w: %s: %v", domain.ErrMalformedPayload, ep.name, jerr)
			} else {
				err = decode(ep, payload)
			}
		} else if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().Err(err).Str("endpoint", ep.name).Msg("places endpoint failed, trying next")
		last = err
	}
	if last != nil {
		return last
	}
	return fmt.Errorf("%w: no endpoint succeeded", domain.ErrUpstreamUnavailable)
}

// get performs a GET with client-side rate limiting and retries, returning
// the response body. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, ep endpoint) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range ep.header {
			req.Header[k] = vs
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "angels-reviews/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("google_places", ep.name, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("google_places", ep.name, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
			}
			return b, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: bad status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// newBreaker trips after half of at least five calls fail; 404s and
// cancellations are not the upstream's fault.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			observability.SetBreakerState(name, breakerGauge(to))
		},
	}
	observability.SetBreakerState(name, 0)
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
