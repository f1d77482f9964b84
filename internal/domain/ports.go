package domain

import "context"

type ReviewsProvider interface {
	FetchReviews(ctx context.Context, placeID string) ([]UpstreamReview, error)
	FetchRating(ctx context.Context, placeID string) (BusinessRating, error)
}

// PlaceFinder resolves a business name to candidate place ids.
type PlaceFinder interface {
	FindPlace(ctx context.Context, query string) ([]PlaceCandidate, error)
}

// KeyValueStore persists opaque blobs under string keys. Entries never expire
// on their own; freshness is decided by the reader.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, blob []byte) error
	Del(ctx context.Context, key string) error
}

// Notifier delivers a "new reviews arrived" message to the business owner.
type Notifier interface {
	NotifyNewReviews(ctx context.Context, records []ReviewRecord) error
}
