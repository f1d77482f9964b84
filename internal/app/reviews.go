package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"angels_reviews/internal/adapters/observability"
	"angels_reviews/internal/domain"
)

const (
	DefaultCacheKey    = "google_reviews_cache"
	DefaultStaleAfter  = 30 * time.Minute
	DefaultExpireAfter = 2 * time.Hour
)

// Settings tune the review cache. Zero values fall back to the defaults above.
// A StaleAfter at or beyond ExpireAfter disables the stale tier: entries are
// served as-is until they expire.
type Settings struct {
	PlaceID     string
	CacheKey    string
	StaleAfter  time.Duration
	ExpireAfter time.Duration
	Display     Display
	Now         func() time.Time
}

// State of a persisted envelope relative to the clock.
type State int

const (
	StateAbsent State = iota
	StateFresh
	StateStale
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateExpired:
		return "expired"
	default:
		return "absent"
	}
}

// NewReviewsFunc is called, off the caller's goroutine, when a fetch turns up
// reviews that were not in the previous envelope.
type NewReviewsFunc func(records []domain.ReviewRecord)

// ReviewService is the review cache manager. It never returns errors: every
// failure degrades to the last known reviews or to none.
//
// The envelope is read and written without locking. Two requests that both see
// a stale envelope both refresh, and the last write wins.
type ReviewService struct {
	provider domain.ReviewsProvider
	store    domain.KeyValueStore
	cfg      Settings
	bg       sync.WaitGroup
}

func NewReviewService(p domain.ReviewsProvider, store domain.KeyValueStore, cfg Settings) *ReviewService {
	if cfg.CacheKey == "" {
		cfg.CacheKey = DefaultCacheKey
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = DefaultExpireAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ReviewService{provider: p, store: store, cfg: cfg}
}

// Configured reports whether both a provider (credential) and a place id are set.
func (s *ReviewService) Configured() bool {
	return s.provider != nil && s.cfg.PlaceID != ""
}

// Classify places an envelope of the given age in the freshness state machine.
func (s *ReviewService) Classify(age time.Duration) State {
	switch {
	case age >= s.cfg.ExpireAfter:
		return StateExpired
	case age > s.cfg.StaleAfter:
		return StateStale
	default:
		return StateFresh
	}
}

// GetReviews returns cached reviews when they are usable, refreshing stale ones
// in the background, and fetches synchronously otherwise. forceRefresh skips
// the freshness check.
func (s *ReviewService) GetReviews(ctx context.Context, forceRefresh bool, onNew NewReviewsFunc) []domain.ReviewRecord {
	if !s.Configured() {
		log.Debug().Err(domain.ErrNotConfigured).Msg("serving no google reviews")
		return []domain.ReviewRecord{}
	}

	prev, found := s.loadEnvelope(ctx)

	if !forceRefresh && found {
		switch s.Classify(prev.Age(s.cfg.Now())) {
		case StateFresh:
			observability.ObserveCache("reviews", "hit")
			return nonNil(prev.Records)
		case StateStale:
			observability.ObserveCache("reviews", "stale")
			snapshot := prev
			s.spawn(ctx, "background refresh", func(bctx context.Context) error {
				recs, isNew, err := s.refresh(bctx, &snapshot)
				if errors.Is(err, errNoReviews) {
					observability.ObserveRefresh("empty")
					return nil
				}
				if err != nil {
					observability.ObserveRefresh("error")
					return err
				}
				observability.ObserveRefresh("ok")
				if isNew && onNew != nil {
					onNew(recs)
				}
				return nil
			})
			return nonNil(prev.Records)
		case StateExpired:
			observability.ObserveCache("reviews", "expired")
		}
	} else if !found {
		observability.ObserveCache("reviews", "miss")
	}

	var last *domain.CacheEnvelope
	if found {
		last = &prev
	}
	recs, isNew, err := s.refresh(ctx, last)
	if errors.Is(err, errNoReviews) {
		log.Debug().Bool("have_cached", found).Msg("google returned no reviews, keeping cache")
		if found {
			return nonNil(prev.Records)
		}
		return []domain.ReviewRecord{}
	}
	if err != nil {
		log.Warn().Err(err).Bool("have_cached", found).Msg("google reviews fetch failed")
		if found {
			return nonNil(prev.Records)
		}
		return []domain.ReviewRecord{}
	}
	if isNew && onNew != nil {
		s.spawn(ctx, "new reviews callback", func(context.Context) error {
			onNew(recs)
			return nil
		})
	}
	return recs
}

// GetBusinessRating asks the provider for the aggregate rating. Not cached;
// nil on any failure.
func (s *ReviewService) GetBusinessRating(ctx context.Context) *domain.BusinessRating {
	if !s.Configured() {
		return nil
	}
	r, err := s.provider.FetchRating(ctx, s.cfg.PlaceID)
	if err != nil {
		log.Warn().Err(err).Msg("google rating fetch failed")
		return nil
	}
	return &r
}

// Snapshot returns the persisted envelope and its state without touching the
// provider.
func (s *ReviewService) Snapshot(ctx context.Context) (domain.CacheEnvelope, State) {
	env, ok := s.loadEnvelope(ctx)
	if !ok {
		return domain.CacheEnvelope{}, StateAbsent
	}
	return env, s.Classify(env.Age(s.cfg.Now()))
}

// Clear drops the persisted envelope.
func (s *ReviewService) Clear(ctx context.Context) error {
	if err := s.store.Del(ctx, s.cfg.CacheKey); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	observability.ObserveCache("reviews", "del")
	return nil
}

// Wait blocks until background work launched so far has finished.
func (s *ReviewService) Wait() { s.bg.Wait() }

// errNoReviews means the provider answered with an empty list. Nothing is
// persisted so the previous envelope and its fingerprints survive.
var errNoReviews = errors.New("provider returned no reviews")

// refresh fetches, filters, compares against prev and persists. isNew is set
// when prev had fingerprints and the fetch produced one it did not.
func (s *ReviewService) refresh(ctx context.Context, prev *domain.CacheEnvelope) (recs []domain.ReviewRecord, isNew bool, err error) {
	upstream, err := s.provider.FetchReviews(ctx, s.cfg.PlaceID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch reviews for %s: %w", s.cfg.PlaceID, err)
	}
	if len(upstream) == 0 {
		return nil, false, errNoReviews
	}

	recs = mapReviews(upstream, s.cfg.Display)
	env := domain.CacheEnvelope{
		Records:      recs,
		FetchedAt:    s.cfg.Now(),
		Fingerprints: fingerprints(recs),
	}
	if prev != nil {
		isNew = hasNewReviews(prev.Fingerprints, env.Fingerprints)
	}
	if isNew {
		observability.ObserveNewReviews()
		log.Info().Int("reviews", len(recs)).Msg("new google reviews detected")
	}

	s.saveEnvelope(ctx, env)
	return recs, isNew, nil
}

func (s *ReviewService) loadEnvelope(ctx context.Context) (domain.CacheEnvelope, bool) {
	var env domain.CacheEnvelope
	blob, ok, err := s.store.Get(ctx, s.cfg.CacheKey)
	if err != nil {
		observability.ObserveCache("reviews", "error")
		log.Warn().Err(fmt.Errorf("%w: %v", domain.ErrPersistence, err)).Msg("read review cache")
		return env, false
	}
	if !ok {
		return env, false
	}
	if err := json.Unmarshal(blob, &env); err != nil || env.FetchedAt.IsZero() {
		observability.ObserveCache("reviews", "error")
		log.Warn().Err(domain.ErrMalformedPayload).AnErr("decode", err).Msg("discarding unreadable review cache")
		return domain.CacheEnvelope{}, false
	}
	return env, true
}

func (s *ReviewService) saveEnvelope(ctx context.Context, env domain.CacheEnvelope) {
	blob, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("encode review cache")
		return
	}
	if err := s.store.Set(ctx, s.cfg.CacheKey, blob); err != nil {
		observability.ObserveCache("reviews", "error")
		log.Warn().Err(fmt.Errorf("%w: %v", domain.ErrPersistence, err)).Msg("write review cache")
		return
	}
	observability.ObserveCache("reviews", "set")
}

// spawn runs fn on its own goroutine, detached from ctx cancellation. Errors
// and panics end up in the log.
func (s *ReviewService) spawn(ctx context.Context, what string, fn func(context.Context) error) {
	bctx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("task", what).Msg("background task panicked")
			}
		}()
		if err := fn(bctx); err != nil {
			log.Warn().Err(err).Str("task", what).Msg("background task failed")
		}
	}()
}

func nonNil(rs []domain.ReviewRecord) []domain.ReviewRecord {
	if rs == nil {
		return []domain.ReviewRecord{}
	}
	return rs
}
