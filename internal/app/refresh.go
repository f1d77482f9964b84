package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"angels_reviews/internal/domain"
)

// RefreshService is the periodic caller of GetReviews. It exercises the same
// cache path a page view would and forwards newly seen reviews to a notifier.
type RefreshService struct {
	reviews *ReviewService
	notify  domain.Notifier
}

func NewRefreshService(r *ReviewService, n domain.Notifier) *RefreshService {
	return &RefreshService{reviews: r, notify: n}
}

// Run performs one refresh tick. It only fails when there is nothing to refresh.
func (s *RefreshService) Run(ctx context.Context) error {
	if !s.reviews.Configured() {
		return fmt.Errorf("refresh skipped: %w", domain.ErrNotConfigured)
	}
	recs := s.reviews.GetReviews(ctx, false, s.onNewReviews(ctx))
	log.Info().Int("reviews", len(recs)).Msg("review refresh tick")
	return nil
}

// Force bypasses the cache, used on startup and from the CLI.
func (s *RefreshService) Force(ctx context.Context) ([]domain.ReviewRecord, error) {
	if !s.reviews.Configured() {
		return nil, domain.ErrNotConfigured
	}
	return s.reviews.GetReviews(ctx, true, s.onNewReviews(ctx)), nil
}

func (s *RefreshService) onNewReviews(ctx context.Context) NewReviewsFunc {
	if s.notify == nil {
		return nil
	}
	// callbacks run after the tick returns; keep values, drop cancellation
	nctx := context.WithoutCancel(ctx)
	return func(recs []domain.ReviewRecord) {
		if err := s.notify.NotifyNewReviews(nctx, recs); err != nil {
			log.Warn().Err(err).Int("reviews", len(recs)).Msg("new review notification failed")
		}
	}
}
